// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package matrix

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// WriteCSV writes m as a snapshot: a header row whose first cell is empty
// followed by the gene columns, then one row per strain.
func WriteCSV(w io.Writer, m types.PresenceMatrix) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(m.Columns)+1)
	header = append(header, "")
	header = append(header, m.Columns...)
	if len(m.Columns) == 0 {
		// A lone empty field encodes as a blank line, which readers skip.
		header[0] = types.IsolateColumn
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "writing header")
	}

	for i, strain := range m.Rows {
		if err := cw.Write(Record(strain, m.Cells[i])); err != nil {
			return eris.Wrapf(err, "writing row %s", strain)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Record renders one matrix row as CSV fields, index first.
func Record(index string, cells []uint8) []string {
	rec := make([]string, len(cells)+1)
	rec[0] = index
	for j, v := range cells {
		if v == 1 {
			rec[j+1] = "1"
		} else {
			rec[j+1] = "0"
		}
	}
	return rec
}

// WriteFile writes the snapshot of m to path, creating parent directories.
func WriteFile(path string, m types.PresenceMatrix) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "creating %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "creating %s", path)
	}
	if err := WriteCSV(f, m); err != nil {
		f.Close()
		return eris.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}

// ReadCSV loads a snapshot written by WriteCSV (or by any tool that writes
// an unnamed index column). The index becomes the row labels; the index
// header itself is ignored.
func ReadCSV(r io.Reader) (types.PresenceMatrix, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return types.PresenceMatrix{}, eris.New("snapshot is empty")
	}
	if err != nil {
		return types.PresenceMatrix{}, eris.Wrap(err, "reading header")
	}
	if len(header) == 0 {
		return types.PresenceMatrix{}, eris.New("snapshot header has no columns")
	}

	m := types.PresenceMatrix{Columns: append([]string(nil), header[1:]...)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.PresenceMatrix{}, eris.Wrap(err, "reading row")
		}
		line, _ := cr.FieldPos(0)
		row := make([]uint8, len(m.Columns))
		for j, field := range rec[1:] {
			v, ok := parseCell(field)
			if !ok {
				return types.PresenceMatrix{}, eris.Errorf("line %d: column %s: invalid cell %q", line, m.Columns[j], field)
			}
			row[j] = v
		}
		m.Rows = append(m.Rows, rec[0])
		m.Cells = append(m.Cells, row)
	}
	return m, nil
}

// ReadFile loads the snapshot at path.
func ReadFile(path string) (types.PresenceMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.PresenceMatrix{}, eris.Wrapf(err, "opening snapshot %s", path)
	}
	defer f.Close()

	m, err := ReadCSV(f)
	if err != nil {
		return types.PresenceMatrix{}, eris.Wrapf(err, "reading snapshot %s", path)
	}
	return m, nil
}

func parseCell(s string) (uint8, bool) {
	switch s {
	case "0", "0.0":
		return 0, true
	case "1", "1.0":
		return 1, true
	}
	return 0, false
}
