// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan extracts canonical gene identifiers from a directory of
// GenBank annotations, one file per strain.
package scan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/mtb-pangenome/internal/genbank"
	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// Options controls how annotation files are scanned.
type Options struct {
	// ResetGenePerFeature clears the remembered gene value at the start of
	// every CDS feature instead of carrying it over from earlier features.
	ResetGenePerFeature bool

	// Logger receives per-file diagnostics. Nil disables logging.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// FileResult is the outcome of scanning one annotation file.
type FileResult struct {
	Strain string
	Genes  []string

	// RecordIDs lists the records found when the file held more than one.
	// Such files contribute no genes.
	RecordIDs []string
}

// MultiRecord reports whether the file fell back to multi-record parsing.
func (r FileResult) MultiRecord() bool {
	return len(r.RecordIDs) > 0
}

// QualifierState is the scratch gene value consulted when a feature's
// locus_tag is not canonical. Dir shares one state across every file of a
// run, so a feature without its own gene qualifier sees the last gene value
// of an earlier feature, possibly from an earlier file.
type QualifierState struct {
	Gene            string
	ResetPerFeature bool
}

// GenesFromRecord returns the canonical identifiers of the CDS features of
// rec, in feature order. For each locus_tag qualifier the locus tag is kept
// if it contains "Rv"; otherwise the current gene value is kept if it
// contains "Rv"; otherwise the feature contributes nothing. Qualifiers are
// visited in file order, so a gene qualifier after the locus_tag does not
// affect that feature.
func GenesFromRecord(rec *types.AnnotationRecord, st *QualifierState) []string {
	var genes []string
	for _, f := range rec.Features {
		if !f.IsCDS() {
			continue
		}
		if st.ResetPerFeature {
			st.Gene = ""
		}
		for _, q := range f.Qualifiers {
			switch q.Name {
			case types.QualifierGene:
				st.Gene = q.First()
			case types.QualifierLocusTag:
				tag := q.First()
				if types.IsCanonical(tag) {
					genes = append(genes, tag)
				} else if types.IsCanonical(st.Gene) {
					genes = append(genes, st.Gene)
				}
			}
		}
	}
	return genes
}

// StrainName derives the strain name from an annotation file name: the
// base name up to its first dot.
func StrainName(filename string) string {
	base := filepath.Base(filename)
	name, _, _ := strings.Cut(base, ".")
	return name
}

// ListAnnotationFiles returns the regular files in dir, sorted by name.
// Hidden files (names starting with ".") are skipped.
func ListAnnotationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "reading genomes directory %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// File scans a single annotation file using st as the scratch gene value.
// A nil st starts from an empty state. A file holding more than one record
// is re-read in multi-record mode; its record IDs are reported and it
// contributes no genes. Any other parse failure is returned.
func File(path string, st *QualifierState, opts Options) (FileResult, error) {
	result := FileResult{Strain: StrainName(path)}
	log := opts.logger().With(zap.String("file", path), zap.String("strain", result.Strain))

	rec, err := readSingle(path)
	if errors.Is(err, genbank.ErrMultipleRecords) {
		records, err := readAll(path)
		if err != nil {
			return result, err
		}
		for _, r := range records {
			log.Info("multi-record annotation", zap.String("record", r.ID))
			result.RecordIDs = append(result.RecordIDs, r.ID)
		}
		log.Warn("multi-record annotation contributes no genes", zap.Int("records", len(records)))
		return result, nil
	}
	if err != nil {
		return result, err
	}

	if st == nil {
		st = &QualifierState{ResetPerFeature: opts.ResetGenePerFeature}
	}
	result.Genes = GenesFromRecord(rec, st)
	log.Debug("scanned annotation", zap.String("record", rec.ID), zap.Int("genes", len(result.Genes)))
	return result, nil
}

// Dir scans every annotation file in dir and folds the per-file gene lists
// into a StrainGeneSet. Files are visited in name order and share one
// QualifierState. Progress lines are written to w.
func Dir(dir string, opts Options, w io.Writer) (types.StrainGeneSet, error) {
	files, err := ListAnnotationFiles(dir)
	if err != nil {
		return types.StrainGeneSet{}, err
	}

	st := &QualifierState{ResetPerFeature: opts.ResetGenePerFeature}

	results := make([]FileResult, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, path := range files {
		res, err := File(path, st, opts)
		if err != nil {
			return types.StrainGeneSet{}, err
		}
		if prev, ok := seen[res.Strain]; ok {
			opts.logger().Warn("duplicate strain name, later file replaces earlier",
				zap.String("strain", res.Strain), zap.String("earlier", prev), zap.String("later", path))
		}
		seen[res.Strain] = path

		if res.MultiRecord() {
			fmt.Fprintf(w, "multi    %s (%d records, no genes)\n", res.Strain, len(res.RecordIDs))
		} else {
			fmt.Fprintf(w, "scanned  %s (%d genes)\n", res.Strain, len(res.Genes))
		}
		results = append(results, res)
	}

	set := Fold(results)
	fmt.Fprintf(w, "\nstrains: %d, files: %d\n", len(set.Strains), len(files))
	return set, nil
}

// Fold combines per-file results into a StrainGeneSet in a single pass.
func Fold(results []FileResult) types.StrainGeneSet {
	strains := make([]string, len(results))
	genes := make([][]string, len(results))
	for i, r := range results {
		strains[i] = r.Strain
		genes[i] = r.Genes
	}
	return types.NewStrainGeneSet(strains, genes)
}

func readSingle(path string) (*types.AnnotationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	rec, err := genbank.Read(f)
	if errors.Is(err, genbank.ErrMultipleRecords) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrapf(err, "parsing %s", path)
	}
	return rec, nil
}

func readAll(path string) ([]*types.AnnotationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	records, err := genbank.Parse(f)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing %s as multi-record", path)
	}
	return records, nil
}
