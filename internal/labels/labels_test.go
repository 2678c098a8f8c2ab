// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package labels

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// --- recoding ---

func TestRecode(t *testing.T) {
	tests := []struct {
		raw  string
		want types.ResistanceLabel
	}{
		{"mono", types.LabelMono},
		{"MDR", types.LabelMDR},
		{"preXDR", types.LabelMDR},
		{"XDR", types.LabelXDR},
		{"unknown-value", types.LabelNotApplicable},
		{"panS", types.LabelNotApplicable},
		{"", types.LabelNotApplicable},
		{"mdr", types.LabelNotApplicable},
		{" XDR", types.LabelNotApplicable},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Recode(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Recode(tt.raw), "recoding is stable")
		})
	}
}

func TestLookup(t *testing.T) {
	l := NewLookup([]Entry{
		{Isolate: "RealStrain1", Classification: "MDR"},
		{Isolate: "RealStrain2", Classification: "susceptible"},
		{Isolate: "RealStrain3", Classification: "mono"},
		{Isolate: "RealStrain3", Classification: "XDR"},
	})

	assert.Equal(t, 3, l.Len())

	label, ok := l.Label("RealStrain1")
	assert.True(t, ok)
	assert.Equal(t, types.LabelMDR, label)

	label, ok = l.Label("RealStrain2")
	assert.True(t, ok)
	assert.Equal(t, types.LabelNotApplicable, label)

	label, ok = l.Label("RealStrain3")
	assert.True(t, ok)
	assert.Equal(t, types.LabelXDR, label, "later row wins")

	_, ok = l.Label("S1")
	assert.False(t, ok)
}

// --- name map ---

func TestReadNameMap(t *testing.T) {
	in := "G1\tRealStrain1\n  G2\tRealStrain2  \n\nG3\tOld\nG3\tNew\n"
	nm, err := ReadNameMap(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, types.NameMap{
		"G1": "RealStrain1",
		"G2": "RealStrain2",
		"G3": "New",
	}, nm)
}

func TestReadNameMapMalformedLine(t *testing.T) {
	_, err := ReadNameMap(strings.NewReader("G1\tRealStrain1\nG2 RealStrain2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadNameMapMissingFile(t *testing.T) {
	_, err := LoadNameMap(filepath.Join(t.TempDir(), "strain_map.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strain_map.txt")
}

func TestRemap(t *testing.T) {
	m := types.PresenceMatrix{
		Rows:    []string{"G1", "G2"},
		Columns: []string{"Rv0001"},
		Cells:   [][]uint8{{1}, {0}},
	}

	got, unmapped := Remap(m, types.NameMap{"G1": "RealStrain1"})
	assert.Equal(t, []string{"RealStrain1", ""}, got.Rows)
	assert.Equal(t, []string{"G2"}, unmapped)
	assert.Equal(t, m.Cells, got.Cells)
	assert.Equal(t, []string{"G1", "G2"}, m.Rows, "input is not modified")
}

// --- classification table ---

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", name, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

// classificationRow places isolate in column A and class in column U.
func classificationRow(isolate, class string) []string {
	row := make([]string, 21)
	row[0] = isolate
	for i := 1; i < 20; i++ {
		row[i] = "x"
	}
	row[20] = class
	return row
}

func TestLoadClassificationWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Mtb_pangenome_analysis.xlsx")
	writeWorkbook(t, path, [][]string{
		classificationRow("Isolate", "Resistance Classification"),
		classificationRow("RealStrain1", "MDR"),
		classificationRow("RealStrain2", "XDR"),
		classificationRow("", "mono"),
		classificationRow("RealStrain3", ""),
	})

	cfg := types.DefaultConfig().Label.Classification
	cfg.Path = path
	got, err := LoadClassification(cfg)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Isolate: "RealStrain1", Classification: "MDR"},
		{Isolate: "RealStrain2", Classification: "XDR"},
		{Isolate: "RealStrain3", Classification: ""},
	}, got)
}

func TestLoadClassificationWrongHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.xlsx")
	writeWorkbook(t, path, [][]string{
		classificationRow("Isolate", "Lineage"),
		classificationRow("RealStrain1", "4.2"),
	})

	cfg := types.DefaultConfig().Label.Classification
	cfg.Path = path
	_, err := LoadClassification(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ClassificationHeader)
}

func TestLoadClassificationCustomColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.xlsx")
	writeWorkbook(t, path, [][]string{
		{"Resistance Classification", "Isolate"},
		{"preXDR", "RealStrain9"},
	})

	got, err := LoadClassification(types.ClassificationConfig{
		Path: path, Sheet: "Sheet1", IsolateColumn: "B", ClassColumn: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Isolate: "RealStrain9", Classification: "preXDR"}}, got)
}

func TestLoadClassificationDelimited(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "table.csv")
	require.NoError(t, os.WriteFile(csvPath,
		[]byte("Isolate,Lineage,Resistance Classification\nRealStrain1,4,mono\nRealStrain2,2\n"), 0o644))
	tsvPath := filepath.Join(dir, "table.tsv")
	require.NoError(t, os.WriteFile(tsvPath,
		[]byte("Resistance Classification\tIsolate\nXDR\tRealStrain4\n"), 0o644))

	got, err := LoadClassification(types.ClassificationConfig{Path: csvPath})
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Isolate: "RealStrain1", Classification: "mono"},
		{Isolate: "RealStrain2", Classification: ""},
	}, got)

	got, err = LoadClassification(types.ClassificationConfig{Path: tsvPath})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Isolate: "RealStrain4", Classification: "XDR"}}, got)
}

func TestLoadClassificationDelimitedMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte("Isolate,Lineage\nS1,4\n"), 0o644))

	_, err := LoadClassification(types.ClassificationConfig{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs")
}

func TestLoadClassificationInvalidColumnLetter(t *testing.T) {
	_, err := LoadClassification(types.ClassificationConfig{Path: "x.xlsx", IsolateColumn: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid column")
}
