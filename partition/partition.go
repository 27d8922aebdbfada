// Package partition converts a flat partition vector into per-subgroup
// point sets and response sub-vectors (spec.md 4.5).
package partition

import (
	"fmt"

	"github.com/hpwxf/nestedkriging/params"
	"github.com/hpwxf/nestedkriging/points"
)

// Subgroup is one cluster's design points and matching response values.
type Subgroup struct {
	Points *points.Set
	Y      []float64
	// Indices holds, for each row of Points, its position in the original
	// design matrix; needed nowhere in the numerics but useful for callers
	// reassembling per-subgroup diagnostics against the original dataset.
	Indices []int
}

// Split dense-reindexes clusters to 0..N-1 and returns the N resulting
// subgroups in a canonical order: groups are numbered in the order their
// first member appears in clusters, so any bijective relabelling of
// clusters yields the identical sequence of subgroups (spec.md 8,
// invariant 3: partition invariance of labels). Within a subgroup, point
// order is preserved from the original dataset.
func Split(clusters []int, raw [][]float64, y []float64, bundle *params.Bundle, origin []float64) ([]Subgroup, error) {
	n := len(clusters)
	if len(raw) != n {
		return nil, fmt.Errorf("partition: clusters has length %d, raw has length %d", n, len(raw))
	}
	if len(y) != n {
		return nil, fmt.Errorf("partition: clusters has length %d, y has length %d", n, len(y))
	}

	denseIndex := make(map[int]int)
	order := make([]int, n)
	for i, label := range clusters {
		gi, ok := denseIndex[label]
		if !ok {
			gi = len(denseIndex)
			denseIndex[label] = gi
		}
		order[i] = gi
	}
	numGroups := len(denseIndex)

	groupRows := make([][][]float64, numGroups)
	groupY := make([][]float64, numGroups)
	groupIdx := make([][]int, numGroups)
	for i := 0; i < n; i++ {
		gi := order[i]
		groupRows[gi] = append(groupRows[gi], raw[i])
		groupY[gi] = append(groupY[gi], y[i])
		groupIdx[gi] = append(groupIdx[gi], i)
	}

	subgroups := make([]Subgroup, numGroups)
	for gi := 0; gi < numGroups; gi++ {
		ps, err := points.New(groupRows[gi], bundle, origin)
		if err != nil {
			return nil, fmt.Errorf("partition: subgroup %d: %w", gi, err)
		}
		subgroups[gi] = Subgroup{
			Points:  ps,
			Y:       groupY[gi],
			Indices: groupIdx[gi],
		}
	}

	return subgroups, nil
}
