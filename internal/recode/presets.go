package recode

import "github.com/ad1ttya/pollbar/internal/dataset"

// Variable names produced by the shipped recodes.
const (
	ApprovalVar  = "trump_approval"
	EducationVar = "educ"
	AgeVar       = "agecat"
)

// TrumpApproval folds the two-step approval battery (q1 approve/disapprove,
// q1a strength) into a single four-point variable. The final catch-all picks
// up refusals on either question and any combination the battery did not
// anticipate, so the derived column has no coverage gaps.
func TrumpApproval() RuleTable {
	return RuleTable{
		Name: ApprovalVar,
		Levels: []string{
			"Strongly approve",
			"Not strongly approve",
			"Not strongly disapprove",
			"Strongly disapprove",
			"Refused",
		},
		Rules: []Rule{
			{When: and("q1", "Approve", "q1a", "Very strongly"), Label: "Strongly approve"},
			{When: and("q1", "Approve", "q1a", "Somewhat strongly"), Label: "Not strongly approve"},
			{When: and("q1", "Disapprove", "q1a", "Somewhat strongly"), Label: "Not strongly disapprove"},
			{When: and("q1", "Disapprove", "q1a", "Very strongly"), Label: "Strongly disapprove"},
			{When: func(dataset.Row) bool { return true }, Label: "Refused"},
		},
	}
}

func and(col1, label1, col2, label2 string) func(dataset.Row) bool {
	return func(r dataset.Row) bool {
		return r.Is(col1, label1) && r.Is(col2, label2)
	}
}

// EducationLevels is the display order after collapsing the six-point
// education battery.
var EducationLevels = []string{
	"High school graduate or less",
	"Some college",
	"College graduate+",
	dataset.SentinelLabel,
}

// EducationCollapse folds the six education categories into three buckets,
// keeping the refusal sentinel as its own bucket.
func EducationCollapse() CollapseMap {
	return CollapseMap{
		"Less than high school":                  "High school graduate or less",
		"High school incomplete":                 "High school graduate or less",
		"High school graduate":                   "High school graduate or less",
		"Some college, no degree":                "Some college",
		"Two-year associate degree":              "Some college",
		"Four-year college or university degree": "College graduate+",
		"Postgraduate or professional degree":    "College graduate+",
		dataset.SentinelLabel:                    dataset.SentinelLabel,
	}
}

// AgeLevels is the display order after collapsing age brackets.
var AgeLevels = []string{
	"18-29",
	"30-49",
	"50-64",
	"65+",
	dataset.SentinelLabel,
}

// AgeCollapse folds the fine age brackets reported in the file into the four
// brackets used for subgroup charts.
func AgeCollapse() CollapseMap {
	return CollapseMap{
		"18-24":               "18-29",
		"25-29":               "18-29",
		"30-39":               "30-49",
		"40-49":               "30-49",
		"50-59":               "50-64",
		"60-64":               "50-64",
		"65-69":               "65+",
		"70+":                 "65+",
		dataset.SentinelLabel: dataset.SentinelLabel,
	}
}
