// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package labels

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// Header names the classification table must carry.
const (
	IsolateHeader        = types.IsolateColumn
	ClassificationHeader = "Resistance Classification"
)

// LoadClassification reads the isolate and classification columns of the
// table at cfg.Path. Spreadsheets (.xlsx) select columns by letter; .csv and
// .tsv files select them by header name.
func LoadClassification(cfg types.ClassificationConfig) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".csv":
		return loadDelimited(cfg.Path, ',')
	case ".tsv", ".txt":
		return loadDelimited(cfg.Path, '\t')
	default:
		return loadSpreadsheet(cfg)
	}
}

func loadSpreadsheet(cfg types.ClassificationConfig) ([]Entry, error) {
	isoCol, err := columnIndex(cfg.IsolateColumn, "A")
	if err != nil {
		return nil, err
	}
	clsCol, err := columnIndex(cfg.ClassColumn, "U")
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(cfg.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening classification workbook %s", cfg.Path)
	}
	defer f.Close()

	sheet := cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, eris.Errorf("workbook %s has no sheets", cfg.Path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "reading sheet %q of %s", sheet, cfg.Path)
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("sheet %q of %s is empty", sheet, cfg.Path)
	}

	if got := cell(rows[0], isoCol); got != IsolateHeader {
		return nil, eris.Errorf("%s column %s: header is %q, want %q", cfg.Path, cfg.IsolateColumn, got, IsolateHeader)
	}
	if got := cell(rows[0], clsCol); got != ClassificationHeader {
		return nil, eris.Errorf("%s column %s: header is %q, want %q", cfg.Path, cfg.ClassColumn, got, ClassificationHeader)
	}

	return entries(rows[1:], isoCol, clsCol), nil
}

func loadDelimited(path string, comma rune) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening classification table %s", path)
	}
	defer f.Close()

	rows, err := readDelimited(f, comma)
	if err != nil {
		return nil, eris.Wrapf(err, "reading classification table %s", path)
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("classification table %s is empty", path)
	}

	isoCol, clsCol := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case IsolateHeader:
			isoCol = i
		case ClassificationHeader:
			clsCol = i
		}
	}
	if isoCol < 0 || clsCol < 0 {
		return nil, eris.Errorf("classification table %s needs %q and %q columns", path, IsolateHeader, ClassificationHeader)
	}

	return entries(rows[1:], isoCol, clsCol), nil
}

func readDelimited(r io.Reader, comma rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}

// entries keeps rows with a non-empty isolate.
func entries(rows [][]string, isoCol, clsCol int) []Entry {
	var out []Entry
	for _, row := range rows {
		iso := cell(row, isoCol)
		if iso == "" {
			continue
		}
		out = append(out, Entry{Isolate: iso, Classification: cell(row, clsCol)})
	}
	return out
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// columnIndex converts a column letter to a zero-based index.
func columnIndex(letter, fallback string) (int, error) {
	if letter == "" {
		letter = fallback
	}
	n, err := excelize.ColumnNameToNumber(letter)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid column %q", letter)
	}
	return n - 1, nil
}
