// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mtb-pangenome CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE and synced in PersistentPostRun.
var logger = zap.NewNop()

// rootCmd is the base command for the mtb-pangenome CLI.
var rootCmd = &cobra.Command{
	Use:   "mtb-pangenome",
	Short: "Gene presence/absence matrix and resistance labels for M. tuberculosis genomes",
	Long: `mtb-pangenome builds a binary gene presence/absence matrix from a directory
of GenBank annotations (one file per strain), restricted to H37Rv-style "Rv"
locus tags, and joins it with resistance classifications to produce a
labeled dataset.

The work is split into two stages that communicate through a CSV snapshot:
scan (annotations -> matrix snapshot) and label (snapshot + strain map +
classification table -> labeled matrix). run executes both.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mtb-pangenome.yaml or ~/.config/mtb-pangenome/mtb-pangenome.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mtb-pangenome")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mtb-pangenome"))
		}
	}

	viper.SetEnvPrefix("MTB_PANGENOME")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(types.DefaultConfig())

	// A missing config file is not an error; the path in use is logged at
	// debug level once the logger exists.
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key so that environment variables and
// Unmarshal see it.
func setDefaults(d types.PipelineConfig) {
	viper.SetDefault("scan.genomes_dir", d.Scan.GenomesDir)
	viper.SetDefault("scan.snapshot_path", d.Scan.SnapshotPath)
	viper.SetDefault("scan.reset_gene_per_feature", d.Scan.ResetGenePerFeature)
	viper.SetDefault("label.snapshot_path", d.Label.SnapshotPath)
	viper.SetDefault("label.name_map_path", d.Label.NameMapPath)
	viper.SetDefault("label.output_path", d.Label.OutputPath)
	viper.SetDefault("label.classification.path", d.Label.Classification.Path)
	viper.SetDefault("label.classification.sheet", d.Label.Classification.Sheet)
	viper.SetDefault("label.classification.isolate_column", d.Label.Classification.IsolateColumn)
	viper.SetDefault("label.classification.class_column", d.Label.Classification.ClassColumn)
	viper.SetDefault("store.dataset_dir", d.Store.DatasetDir)
}

// bindFlags binds the named flags of cmd to config keys. Binding happens
// when a command runs, so commands that share a key do not override each
// other's bindings.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig resolves the pipeline configuration from defaults, config
// file, environment, and bound flags.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
