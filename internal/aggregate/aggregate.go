// Package aggregate computes survey-weighted percentage estimates: partition
// respondents by one or two categorical keys, sum sampling weights per
// partition, and normalize within a chosen subset of the keys.
package aggregate

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ad1ttya/pollbar/internal/dataset"
)

// UnsetLabel buckets rows whose key column carries no value. Unset rows stay
// in the denominator rather than being discarded.
const UnsetLabel = "(unset)"

// EstimateRow is one partition: its key labels (parallel to Estimates.Keys),
// the summed weight, and the normalized share in [0,1].
type EstimateRow struct {
	Labels []string
	Sum    float64
	Share  float64
}

// Estimates is a weighted aggregate table. Row order is the cartesian product
// of each key's level order (first key outermost); partitions absent from the
// data are omitted.
type Estimates struct {
	Keys   []string
	Within []string
	Rows   []EstimateRow

	levels map[string][]string
}

// Levels returns the display-order levels observed for key, including the
// unset bucket when present.
func (e *Estimates) Levels(key string) []string {
	return e.levels[key]
}

// GroupPercentages partitions t by keys, sums weight within each partition,
// and divides by the total over all partitions sharing the within-key values.
// An empty within normalizes against the grand total. A normalization group
// with zero total weight yields shares of 0.0 rather than NaN.
func GroupPercentages(t *dataset.Table, keys []string, weight string, within []string) (*Estimates, error) {
	if len(keys) == 0 || len(keys) > 2 {
		return nil, fmt.Errorf("aggregate: want 1 or 2 group keys, got %d", len(keys))
	}
	keyIdx := make(map[string]int, len(keys))
	cols := make([]*dataset.Column, len(keys))
	for i, k := range keys {
		c, ok := t.Column(k)
		if !ok {
			return nil, fmt.Errorf("aggregate: no column %s", k)
		}
		if c.Kind != dataset.Categorical {
			return nil, fmt.Errorf("aggregate: key %s is not categorical", k)
		}
		if _, dup := keyIdx[k]; dup {
			return nil, fmt.Errorf("aggregate: duplicate key %s", k)
		}
		keyIdx[k] = i
		cols[i] = c
	}
	wc, ok := t.Column(weight)
	if !ok {
		return nil, fmt.Errorf("aggregate: no weight column %s", weight)
	}
	if wc.Kind != dataset.Numeric {
		return nil, fmt.Errorf("aggregate: weight column %s is not numeric", weight)
	}
	withinIdx := make([]int, len(within))
	for i, k := range within {
		j, ok := keyIdx[k]
		if !ok {
			return nil, fmt.Errorf("aggregate: normalize-within key %s is not a group key", k)
		}
		withinIdx[i] = j
	}

	// Partition weights, keyed by the joined label tuple.
	parts := make(map[string][]float64)
	hasUnset := make([]bool, len(keys))
	for i := 0; i < t.NumRows(); i++ {
		labels := make([]string, len(keys))
		for j, c := range cols {
			l, ok := c.Label(i)
			if !ok {
				l = UnsetLabel
				hasUnset[j] = true
			}
			labels[j] = l
		}
		k := joinKey(labels)
		parts[k] = append(parts[k], wc.Value(i))
	}

	// Sum per partition, then total per normalization group.
	sums := make(map[string]float64, len(parts))
	totals := make(map[string]float64)
	for k, ws := range parts {
		s := floats.Sum(ws)
		sums[k] = s
		totals[withinKey(splitKey(k), withinIdx)] += s
	}

	e := &Estimates{
		Keys:   append([]string(nil), keys...),
		Within: append([]string(nil), within...),
		levels: make(map[string][]string, len(keys)),
	}
	for j, c := range cols {
		levels := append([]string(nil), c.Levels...)
		if hasUnset[j] {
			levels = append(levels, UnsetLabel)
		}
		e.levels[keys[j]] = levels
	}

	// Emit rows in cartesian level order, first key outermost.
	for _, labels := range cartesian(e.levels, keys) {
		k := joinKey(labels)
		s, ok := sums[k]
		if !ok {
			continue
		}
		share := 0.0
		if tot := totals[withinKey(labels, withinIdx)]; tot > 0 {
			share = s / tot
		}
		e.Rows = append(e.Rows, EstimateRow{Labels: labels, Sum: s, Share: share})
	}
	return e, nil
}

// Check verifies that shares sum to 1 within every normalization group that
// carries any weight, within tol.
func (e *Estimates) Check(tol float64) error {
	withinIdx := make([]int, len(e.Within))
	for i, k := range e.Within {
		for j, kk := range e.Keys {
			if k == kk {
				withinIdx[i] = j
			}
		}
	}
	sums := make(map[string]float64)
	weights := make(map[string]float64)
	for _, r := range e.Rows {
		k := withinKey(r.Labels, withinIdx)
		sums[k] += r.Share
		weights[k] += r.Sum
	}
	for k, s := range sums {
		if weights[k] == 0 {
			continue
		}
		if math.Abs(s-1) > tol {
			return fmt.Errorf("aggregate: shares in group %q sum to %v, want 1", k, s)
		}
	}
	return nil
}

// Facet is the slice of an Estimates belonging to one level of a facet key.
type Facet struct {
	Label string
	Rows  []EstimateRow
}

// Facets splits the estimate rows by the levels of key, preserving row order
// inside each facet. key must be one of the estimate's group keys.
func (e *Estimates) Facets(key string) ([]Facet, error) {
	idx := -1
	for j, k := range e.Keys {
		if k == key {
			idx = j
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("aggregate: %s is not a group key", key)
	}
	byLabel := make(map[string]int)
	var out []Facet
	for _, l := range e.levels[key] {
		byLabel[l] = len(out)
		out = append(out, Facet{Label: l})
	}
	for _, r := range e.Rows {
		i := byLabel[r.Labels[idx]]
		out[i].Rows = append(out[i].Rows, r)
	}
	// Drop facet levels with no data.
	kept := out[:0]
	for _, f := range out {
		if len(f.Rows) > 0 {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

const keySep = "\x1f"

func joinKey(labels []string) string { return strings.Join(labels, keySep) }

func splitKey(k string) []string { return strings.Split(k, keySep) }

func withinKey(labels []string, withinIdx []int) string {
	if len(withinIdx) == 0 {
		return ""
	}
	parts := make([]string, len(withinIdx))
	for i, j := range withinIdx {
		parts[i] = labels[j]
	}
	return joinKey(parts)
}

func cartesian(levels map[string][]string, keys []string) [][]string {
	out := [][]string{nil}
	for _, k := range keys {
		var next [][]string
		for _, prefix := range out {
			for _, l := range levels[k] {
				next = append(next, append(append([]string(nil), prefix...), l))
			}
		}
		out = next
	}
	return out
}
