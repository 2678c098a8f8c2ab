// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mtb-pangenome/internal/merge"
	"github.com/pdiddy/mtb-pangenome/internal/store"
	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect and export runs in the dataset store",
	Long: `Dataset manages the local SQLite store that scan, label, and run write to
when called with --store. Use subcommands to list runs, export a run
summary, or write a run back out as a labeled CSV.`,
}

// --- list subcommand ---

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE:  runDatasetList,
}

func runDatasetList(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs stored.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-7s  %-6s  %s\n", "Run", "Created", "Strains", "Genes", "Source")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-7d  %-6d  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Strains, r.Genes, r.Source)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- export subcommand ---

var datasetExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a run summary (YAML or JSON) or the labeled matrix (CSV)",
	Long: `Export writes the summary of a run (per-strain gene counts and the
DR_status distribution) to dataset/export/<run>.yaml or .json. With
--format csv the stored labeled matrix is written to --out. Without a run
ID the most recent run is exported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDatasetExport,
}

func runDatasetExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	runID := ""
	if len(args) > 0 {
		runID = args[0]
	} else if runID, err = st.LatestRun(ctx); err != nil {
		return err
	}

	switch format {
	case "yaml", "":
		path, err := st.ExportYAML(ctx, runID)
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
	case "json":
		path, err := st.ExportJSON(ctx, runID)
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
	case "csv":
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return fmt.Errorf("--out is required for csv export")
		}
		lm, err := st.LoadRun(ctx, runID)
		if err != nil {
			return err
		}
		if err := merge.WriteFile(out, lm); err != nil {
			return err
		}
		fmt.Println("Exported to", out)
	default:
		return fmt.Errorf("unsupported format %q: use yaml, json, or csv", format)
	}
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*store.Store, error) {
	if err := bindFlags(cmd, map[string]string{"dataset-dir": "store.dataset_dir"}); err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.NewStore(cfg.Store)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	datasetCmd.PersistentFlags().String("dataset-dir", types.DefaultDatasetDir, "directory of the dataset store")

	datasetListCmd.Flags().Bool("json", false, "output runs as JSON")

	datasetExportCmd.Flags().String("format", "yaml", "export format: yaml, json, or csv")
	datasetExportCmd.Flags().String("out", "", "output path for csv export")

	datasetCmd.AddCommand(datasetListCmd)
	datasetCmd.AddCommand(datasetExportCmd)

	rootCmd.AddCommand(datasetCmd)
}
