package types

// ScanConfig holds settings for the annotation scanner and matrix builder.
type ScanConfig struct {
	// GenomesDir is the directory holding one GenBank file per strain.
	GenomesDir string `json:"genomes_dir" yaml:"genomes_dir" mapstructure:"genomes_dir"`

	// SnapshotPath is where the presence matrix CSV snapshot is written and
	// later re-loaded by the label stage.
	SnapshotPath string `json:"snapshot_path" yaml:"snapshot_path" mapstructure:"snapshot_path"`

	// ResetGenePerFeature clears the remembered gene qualifier at the start
	// of every feature. When false the last gene value seen in the run, possibly
	// in an earlier file, is reused for features that carry a locus_tag but no gene of their own.
	ResetGenePerFeature bool `json:"reset_gene_per_feature" yaml:"reset_gene_per_feature" mapstructure:"reset_gene_per_feature"`
}

// ClassificationConfig selects the two columns read from the
// classification spreadsheet.
type ClassificationConfig struct {
	// Path is the .xlsx (or .csv/.tsv) classification table.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Sheet is the worksheet name. Empty selects the first sheet.
	Sheet string `json:"sheet" yaml:"sheet" mapstructure:"sheet"`

	// IsolateColumn is the spreadsheet column letter of the isolate ID (default "A").
	IsolateColumn string `json:"isolate_column" yaml:"isolate_column" mapstructure:"isolate_column"`

	// ClassColumn is the spreadsheet column letter of the classification (default "U").
	ClassColumn string `json:"class_column" yaml:"class_column" mapstructure:"class_column"`
}

// LabelConfig holds settings for the label joiner and merger.
type LabelConfig struct {
	// SnapshotPath is the presence matrix CSV to label.
	SnapshotPath string `json:"snapshot_path" yaml:"snapshot_path" mapstructure:"snapshot_path"`

	// NameMapPath is the tab-separated generic-to-real strain map.
	NameMapPath string `json:"name_map_path" yaml:"name_map_path" mapstructure:"name_map_path"`

	Classification ClassificationConfig `json:"classification" yaml:"classification" mapstructure:"classification"`

	// OutputPath, when set, receives the labeled matrix as CSV.
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`
}

// StoreConfig holds settings for the SQLite dataset store.
type StoreConfig struct {
	// DatasetDir is the directory containing the dataset database and exports.
	DatasetDir string `json:"dataset_dir" yaml:"dataset_dir" mapstructure:"dataset_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Scan  ScanConfig  `json:"scan" yaml:"scan" mapstructure:"scan"`
	Label LabelConfig `json:"label" yaml:"label" mapstructure:"label"`
	Store StoreConfig `json:"store" yaml:"store" mapstructure:"store"`
}

// Default file names used by the analysis.
const (
	DefaultGenomesDir         = "genomes"
	DefaultSnapshotPath       = "Mtb_pangenome_analysis.csv"
	DefaultNameMapPath        = "strain_map.txt"
	DefaultClassificationPath = "Mtb_pangenome_analysis.xlsx"
	DefaultDatasetDir         = "dataset"
)

// DefaultConfig returns the pipeline configuration used when no config file,
// environment variable, or flag overrides a value.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		Scan: ScanConfig{
			GenomesDir:   DefaultGenomesDir,
			SnapshotPath: DefaultSnapshotPath,
		},
		Label: LabelConfig{
			SnapshotPath: DefaultSnapshotPath,
			NameMapPath:  DefaultNameMapPath,
			Classification: ClassificationConfig{
				Path:          DefaultClassificationPath,
				IsolateColumn: "A",
				ClassColumn:   "U",
			},
		},
		Store: StoreConfig{
			DatasetDir: DefaultDatasetDir,
		},
	}
}
