// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package matrix builds the binary strain x gene presence matrix from the
// gene lists produced by the scanner, and reads and writes its CSV snapshot.
package matrix

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// cell values of the construction grid.
const (
	unset   int8 = -1
	absent  int8 = 0
	present int8 = 1
)

// Union returns every gene identifier found in set, without duplicates,
// sorted.
func Union(set types.StrainGeneSet) []string {
	seen := make(map[string]struct{})
	for _, strain := range set.Strains {
		for _, g := range set.Genes[strain] {
			seen[g] = struct{}{}
		}
	}
	genes := make([]string, 0, len(seen))
	for g := range seen {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}

// Build constructs the presence matrix for set. The grid is laid out genes x
// strains, marked present for every gene a strain carries, zero-filled once
// all strains are populated, then transposed so rows are strains.
func Build(set types.StrainGeneSet) types.PresenceMatrix {
	genes := Union(set)
	strains := set.Strains

	geneIdx := make(map[string]int, len(genes))
	for i, g := range genes {
		geneIdx[g] = i
	}

	grid := make([][]int8, len(genes))
	for i := range grid {
		row := make([]int8, len(strains))
		for j := range row {
			row[j] = unset
		}
		grid[i] = row
	}

	for j, strain := range strains {
		for _, g := range set.Genes[strain] {
			grid[geneIdx[g]][j] = present
		}
	}

	fillMissing(grid)

	return transpose(grid, genes, strains)
}

func fillMissing(grid [][]int8) {
	for _, row := range grid {
		for j, v := range row {
			if v == unset {
				row[j] = absent
			}
		}
	}
}

func transpose(grid [][]int8, genes, strains []string) types.PresenceMatrix {
	m := types.PresenceMatrix{
		Rows:    append([]string(nil), strains...),
		Columns: genes,
		Cells:   make([][]uint8, len(strains)),
	}
	for j := range strains {
		row := make([]uint8, len(genes))
		for i := range genes {
			row[i] = uint8(grid[i][j])
		}
		m.Cells[j] = row
	}
	return m
}

// Validate checks that m is rectangular and binary.
func Validate(m types.PresenceMatrix) error {
	if len(m.Cells) != len(m.Rows) {
		return eris.Errorf("matrix has %d rows but %d row labels", len(m.Cells), len(m.Rows))
	}
	for i, row := range m.Cells {
		if len(row) != len(m.Columns) {
			return eris.Errorf("row %q has %d cells, want %d", m.Rows[i], len(row), len(m.Columns))
		}
		for j, v := range row {
			if v > 1 {
				return eris.Errorf("cell (%s, %s) = %d is not binary", m.Rows[i], m.Columns[j], v)
			}
		}
	}
	return nil
}

// GeneCounts returns, per row, the number of genes marked present.
func GeneCounts(m types.PresenceMatrix) []int {
	counts := make([]int, len(m.Rows))
	for i, row := range m.Cells {
		for _, v := range row {
			counts[i] += int(v)
		}
	}
	return counts
}
