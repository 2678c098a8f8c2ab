// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Integration test: genomes directory -> snapshot -> labeled matrix -> dataset
// store, using GenBank fixtures, a strain map, and a CSV classification table.

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mtb-pangenome/internal/store"
	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

const g1Genome = `LOCUS       G1 100 bp DNA
FEATURES             Location/Qualifiers
     CDS             1..10
                     /gene="dnaA"
                     /locus_tag="Rv0001"
     CDS             20..30
                     /gene="Rv0002"
                     /locus_tag="G1_00002"
//
`

const g2Genome = `LOCUS       G2 100 bp DNA
FEATURES             Location/Qualifiers
     CDS             1..10
                     /locus_tag="Rv0003"
     CDS             20..30
                     /gene="catD"
                     /locus_tag="MTB000001"
//
`

const g3Genome = `LOCUS       G3 100 bp DNA
FEATURES             Location/Qualifiers
     CDS             1..10
                     /locus_tag="Rv0001"
//
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) types.PipelineConfig {
	t.Helper()
	dir := t.TempDir()
	genomes := filepath.Join(dir, "genomes")
	writeFile(t, filepath.Join(genomes, "G1.gbk"), g1Genome)
	writeFile(t, filepath.Join(genomes, "G2.gbk"), g2Genome)
	writeFile(t, filepath.Join(genomes, "G3.gbk"), g3Genome)
	writeFile(t, filepath.Join(genomes, ".DS_Store"), "binary junk")

	writeFile(t, filepath.Join(dir, "strain_map.txt"), "G1\tRealStrain1\nG2\tRealStrain2\n")
	writeFile(t, filepath.Join(dir, "classification.csv"),
		"Isolate,Resistance Classification\nRealStrain1,preXDR\nRealStrain2,XDR\n")

	cfg := types.DefaultConfig()
	cfg.Scan.GenomesDir = genomes
	cfg.Scan.SnapshotPath = filepath.Join(dir, "Mtb_pangenome_analysis.csv")
	cfg.Label.SnapshotPath = cfg.Scan.SnapshotPath
	cfg.Label.NameMapPath = filepath.Join(dir, "strain_map.txt")
	cfg.Label.Classification.Path = filepath.Join(dir, "classification.csv")
	cfg.Label.OutputPath = filepath.Join(dir, "out", "labeled.csv")
	cfg.Store.DatasetDir = filepath.Join(dir, "dataset")
	return cfg
}

func TestPipelineEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	var out strings.Builder
	p := New(cfg, nil, &out)

	m, err := p.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"G1", "G2", "G3"}, m.Rows)
	assert.Equal(t, []string{"Rv0001", "Rv0002", "Rv0003"}, m.Columns)
	assert.Equal(t, [][]uint8{{1, 1, 0}, {0, 0, 1}, {1, 0, 0}}, m.Cells)

	snapshot, err := os.ReadFile(cfg.Scan.SnapshotPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(snapshot), ",Rv0001,Rv0002,Rv0003\n"))

	lm, summary, err := p.Label()
	require.NoError(t, err)
	assert.Equal(t, []string{"RealStrain1", "RealStrain2", ""}, lm.Rows)
	assert.Equal(t, 2, summary.Labeled)
	assert.Equal(t, 1, summary.Unlabeled)

	l, ok := lm.Label(0)
	require.True(t, ok)
	assert.Equal(t, types.LabelMDR, l)
	l, ok = lm.Label(1)
	require.True(t, ok)
	assert.Equal(t, types.LabelXDR, l)
	_, ok = lm.Label(2)
	assert.False(t, ok)

	labeled, err := os.ReadFile(cfg.Label.OutputPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Isolate,Rv0001,Rv0002,Rv0003,DR_status\n"+
			"RealStrain1,1,1,0,1\n"+
			"RealStrain2,0,0,1,2\n"+
			",1,0,0,\n",
		string(labeled))

	runID, err := p.Persist(context.Background(), lm, cfg.Scan.GenomesDir)
	require.NoError(t, err)

	st, err := store.NewStore(cfg.Store)
	require.NoError(t, err)
	defer st.Close()
	stored, err := st.LoadRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, lm.Rows, stored.Rows)
	assert.Equal(t, lm.Cells, stored.Cells)

	assert.Contains(t, out.String(), "matrix: 3 strains x 3 genes")
	assert.Contains(t, out.String(), "labeled: 2, unlabeled: 1, unmapped: 1")
}

func TestPipelineScanWithoutSnapshot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scan.SnapshotPath = ""

	m, err := New(cfg, nil, nil).Scan()
	require.NoError(t, err)
	assert.Len(t, m.Rows, 3)
	_, err = os.Stat(cfg.Label.SnapshotPath)
	assert.True(t, os.IsNotExist(err))
}

func TestPipelineLabelMissingSnapshot(t *testing.T) {
	cfg := testConfig(t)

	_, _, err := New(cfg, nil, nil).Label()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mtb_pangenome_analysis.csv")
}

func TestPipelineLabelMissingNameMap(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg, nil, nil).Scan()
	require.NoError(t, err)

	cfg.Label.NameMapPath = filepath.Join(t.TempDir(), "absent.txt")
	_, _, err = New(cfg, nil, nil).Label()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.txt")
}
