// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge attaches resistance labels to a presence matrix.
package merge

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/mtb-pangenome/internal/matrix"
	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// LabelSource resolves a strain to its label. ok is false when no label is
// known for the strain.
type LabelSource interface {
	Label(strain string) (label types.ResistanceLabel, ok bool)
}

// Summary holds counts from a merge.
type Summary struct {
	Labeled   int
	Unlabeled int

	// Missing lists row identifiers with no label, in row order.
	Missing []string

	// Counts holds the number of rows per label.
	Counts map[types.ResistanceLabel]int
}

// Total returns the number of rows merged.
func (s Summary) Total() int {
	return s.Labeled + s.Unlabeled
}

// Merge returns m with a DR_status value for every row whose identifier the
// source can resolve. Rows without a label are left unset.
func Merge(m types.PresenceMatrix, src LabelSource) (types.LabeledMatrix, Summary) {
	lm := types.LabeledMatrix{
		PresenceMatrix: m,
		DRStatus:       make([]*types.ResistanceLabel, len(m.Rows)),
	}
	summary := Summary{Counts: make(map[types.ResistanceLabel]int)}

	for i, strain := range m.Rows {
		label, ok := src.Label(strain)
		if !ok {
			summary.Unlabeled++
			summary.Missing = append(summary.Missing, strain)
			continue
		}
		lm.DRStatus[i] = &label
		summary.Labeled++
		summary.Counts[label]++
	}
	return lm, summary
}

// Labels returns the labels present in counts in ascending order.
func Labels(counts map[types.ResistanceLabel]int) []types.ResistanceLabel {
	out := make([]types.ResistanceLabel, 0, len(counts))
	for l := range counts {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WriteCSV writes the labeled matrix with an Isolate index column, the gene
// columns, and DR_status last. Unset labels are written as empty cells.
func WriteCSV(w io.Writer, lm types.LabeledMatrix) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(lm.Columns)+2)
	header = append(header, types.IsolateColumn)
	header = append(header, lm.Columns...)
	header = append(header, types.DRStatusColumn)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "writing header")
	}

	for i, strain := range lm.Rows {
		rec := matrix.Record(strain, lm.Cells[i])
		label, _ := lm.Label(i)
		rec = append(rec, string(label))
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "writing row %s", strain)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the labeled matrix to path, creating parent directories.
func WriteFile(path string, lm types.LabeledMatrix) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "creating %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "creating %s", path)
	}
	if err := WriteCSV(f, lm); err != nil {
		f.Close()
		return eris.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
