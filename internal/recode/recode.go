// Package recode derives new categorical variables from existing ones via
// ordered rule tables and collapses fine-grained category sets into coarser
// ones. All transformations are pure: they return a new table and leave the
// input untouched.
package recode

import (
	"fmt"

	"github.com/ad1ttya/pollbar/internal/dataset"
)

// Rule pairs a predicate over a respondent row with the output category it
// assigns. Rules are evaluated in order; the first match wins.
type Rule struct {
	When  func(r dataset.Row) bool
	Label string
}

// RuleTable defines a derived variable: its name, the fixed display order of
// its categories, and the ordered rules that assign them. A table whose rules
// are not collectively exhaustive leaves unmatched rows unset, which silently
// shrinks later aggregation denominators; callers who need completeness end
// the table with a catch-all rule and assert CoverageReport.Unset == 0.
type RuleTable struct {
	Name   string
	Levels []string
	Rules  []Rule
}

// CoverageReport records rows left unset by Derive.
type CoverageReport struct {
	Unset int
	Rows  []int
}

// Derive adds the rule table's variable as a new column. Output category
// order is rt.Levels exactly, independent of the order categories are first
// assigned in the data.
func Derive(t *dataset.Table, rt RuleTable) (*dataset.Table, CoverageReport, error) {
	var cov CoverageReport
	if rt.Name == "" {
		return nil, cov, fmt.Errorf("rule table has no variable name")
	}
	if len(rt.Rules) == 0 {
		return nil, cov, fmt.Errorf("rule table %s has no rules", rt.Name)
	}
	levelSet := make(map[string]bool, len(rt.Levels))
	for _, l := range rt.Levels {
		levelSet[l] = true
	}
	for i, rule := range rt.Rules {
		if rule.When == nil {
			return nil, cov, fmt.Errorf("rule table %s: rule %d has no predicate", rt.Name, i)
		}
		if !levelSet[rule.Label] {
			return nil, cov, fmt.Errorf("rule table %s: rule %d assigns %q, not a declared level", rt.Name, i, rule.Label)
		}
	}

	labels := make([]string, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		matched := false
		for _, rule := range rt.Rules {
			if rule.When(row) {
				labels[i] = rule.Label
				matched = true
				break
			}
		}
		if !matched {
			cov.Unset++
			cov.Rows = append(cov.Rows, i)
		}
	}
	out, err := t.WithColumn(dataset.NewCategorical(rt.Name, rt.Levels, labels))
	if err != nil {
		return nil, cov, fmt.Errorf("derive %s: %w", rt.Name, err)
	}
	return out, cov, nil
}

// CollapseMap maps each original category to its coarser label. Categories
// absent from the map become unset.
type CollapseMap map[string]string

// Collapse replaces every value of column through m, with output category
// order given by levels. Row count and all other columns are preserved.
// Every label m produces must appear in levels.
func Collapse(t *dataset.Table, column string, m CollapseMap, levels []string) (*dataset.Table, error) {
	c, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("collapse: no column %s", column)
	}
	if c.Kind != dataset.Categorical {
		return nil, fmt.Errorf("collapse: column %s is not categorical", column)
	}
	levelSet := make(map[string]bool, len(levels))
	for _, l := range levels {
		levelSet[l] = true
	}
	for from, to := range m {
		if !levelSet[to] {
			return nil, fmt.Errorf("collapse %s: %q maps to undeclared level %q", column, from, to)
		}
	}

	labels := make([]string, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		orig, ok := c.Label(i)
		if !ok {
			continue
		}
		labels[i] = m[orig]
	}
	return t.ReplaceColumn(column, dataset.NewCategorical(column, levels, labels))
}
