// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mtb-pangenome/internal/pipeline"
	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

var scanFlags = map[string]string{
	"genomes-dir":            "scan.genomes_dir",
	"snapshot":               "scan.snapshot_path",
	"reset-gene-per-feature": "scan.reset_gene_per_feature",
	"dataset-dir":            "store.dataset_dir",
}

var labelFlags = map[string]string{
	"snapshot":       "label.snapshot_path",
	"strain-map":     "label.name_map_path",
	"classification": "label.classification.path",
	"sheet":          "label.classification.sheet",
	"isolate-column": "label.classification.isolate_column",
	"class-column":   "label.classification.class_column",
	"out":            "label.output_path",
	"dataset-dir":    "store.dataset_dir",
}

// --- scan ---

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Build the gene presence/absence matrix from GenBank annotations",
	Long: `Scan reads every non-hidden file in the genomes directory as a GenBank
annotation, collects the "Rv" locus tags of its CDS features, builds the
strain x gene presence matrix, and writes it as a CSV snapshot.

Files holding more than one record are listed but contribute no genes.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, scanFlags); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, logger, os.Stdout)
	m, err := p.Scan()
	if err != nil {
		return err
	}
	return maybePersist(cmd, p, types.LabeledMatrix{PresenceMatrix: m}, cfg.Scan.GenomesDir)
}

// --- label ---

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Join resistance labels onto a presence matrix snapshot",
	Long: `Label loads a presence matrix snapshot, renames its strains through the
strain map, recodes the resistance classification (mono=0, MDR/preXDR=1,
XDR=2, other=NA), and appends it as the DR_status column. Strains without a
classification are left unlabeled.`,
	RunE: runLabel,
}

func runLabel(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, labelFlags); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, logger, os.Stdout)
	lm, _, err := p.Label()
	if err != nil {
		return err
	}
	return maybePersist(cmd, p, lm, cfg.Label.SnapshotPath)
}

// --- run ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan annotations and label the resulting matrix",
	Long: `Run executes scan followed by label. The label stage re-reads the
snapshot written by scan, so --snapshot names the file both stages use.`,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	keys := make(map[string]string, len(scanFlags)+len(labelFlags))
	for k, v := range labelFlags {
		keys[k] = v
	}
	for k, v := range scanFlags {
		keys[k] = v
	}
	if err := bindFlags(cmd, keys); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Label.SnapshotPath = cfg.Scan.SnapshotPath

	p := pipeline.New(cfg, logger, os.Stdout)
	if _, err := p.Scan(); err != nil {
		return err
	}
	lm, _, err := p.Label()
	if err != nil {
		return err
	}
	return maybePersist(cmd, p, lm, cfg.Scan.GenomesDir)
}

// --- shared helpers ---

func maybePersist(cmd *cobra.Command, p *pipeline.Pipeline, lm types.LabeledMatrix, source string) error {
	save, _ := cmd.Flags().GetBool("store")
	if !save {
		return nil
	}
	_, err := p.Persist(context.Background(), lm, source)
	return err
}

func addScanFlags(cmd *cobra.Command) {
	d := types.DefaultConfig().Scan
	cmd.Flags().String("genomes-dir", d.GenomesDir, "directory of GenBank annotations, one per strain")
	cmd.Flags().Bool("reset-gene-per-feature", false, "forget the last gene qualifier at each CDS feature")
}

func addLabelFlags(cmd *cobra.Command) {
	d := types.DefaultConfig().Label
	cmd.Flags().String("strain-map", d.NameMapPath, "tab-separated generic-to-real strain map")
	cmd.Flags().String("classification", d.Classification.Path, "classification table (.xlsx, .csv, or .tsv)")
	cmd.Flags().String("sheet", "", "worksheet name (default: first sheet)")
	cmd.Flags().String("isolate-column", d.Classification.IsolateColumn, "spreadsheet column holding the isolate ID")
	cmd.Flags().String("class-column", d.Classification.ClassColumn, "spreadsheet column holding the resistance classification")
	cmd.Flags().String("out", "", "write the labeled matrix CSV to this path")
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("snapshot", types.DefaultSnapshotPath, "presence matrix CSV snapshot")
	cmd.Flags().Bool("store", false, "save the result as a run in the dataset store")
	cmd.Flags().String("dataset-dir", types.DefaultDatasetDir, "directory of the dataset store")
}

func init() {
	addScanFlags(scanCmd)
	addCommonFlags(scanCmd)

	addLabelFlags(labelCmd)
	addCommonFlags(labelCmd)

	addScanFlags(runCmd)
	addLabelFlags(runCmd)
	addCommonFlags(runCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(runCmd)
}
