// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline chains the scan, matrix, label, and merge stages.
// The scan half ends by writing the presence matrix snapshot; the label half
// starts by reading it back, so each half can run on its own.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/mtb-pangenome/internal/labels"
	"github.com/pdiddy/mtb-pangenome/internal/matrix"
	"github.com/pdiddy/mtb-pangenome/internal/merge"
	"github.com/pdiddy/mtb-pangenome/internal/scan"
	"github.com/pdiddy/mtb-pangenome/internal/store"
	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// Pipeline runs the stages with one configuration.
type Pipeline struct {
	cfg types.PipelineConfig
	log *zap.Logger
	w   io.Writer
}

// New creates a Pipeline. Progress lines go to w; diagnostics go to log.
func New(cfg types.PipelineConfig, log *zap.Logger, w io.Writer) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if w == nil {
		w = io.Discard
	}
	return &Pipeline{cfg: cfg, log: log, w: w}
}

// Scan reads the genomes directory, builds the presence matrix, and writes
// the snapshot when a snapshot path is configured.
func (p *Pipeline) Scan() (types.PresenceMatrix, error) {
	sc := p.cfg.Scan
	log := p.log.With(zap.String("stage", "scan"), zap.String("genomes_dir", sc.GenomesDir))

	set, err := scan.Dir(sc.GenomesDir, scan.Options{
		ResetGenePerFeature: sc.ResetGenePerFeature,
		Logger:              log,
	}, p.w)
	if err != nil {
		return types.PresenceMatrix{}, err
	}

	m := matrix.Build(set)
	if err := matrix.Validate(m); err != nil {
		return types.PresenceMatrix{}, eris.Wrap(err, "built matrix is invalid")
	}
	log.Info("matrix built", zap.Int("strains", len(m.Rows)), zap.Int("genes", len(m.Columns)))
	fmt.Fprintf(p.w, "matrix: %d strains x %d genes\n", len(m.Rows), len(m.Columns))

	if sc.SnapshotPath != "" {
		if err := matrix.WriteFile(sc.SnapshotPath, m); err != nil {
			return types.PresenceMatrix{}, err
		}
		fmt.Fprintf(p.w, "snapshot written to %s\n", sc.SnapshotPath)
	}
	return m, nil
}

// Label loads the snapshot, remaps strain names, joins the recoded
// classification, and writes the labeled matrix when an output path is
// configured. Strains without a classification stay unlabeled.
func (p *Pipeline) Label() (types.LabeledMatrix, merge.Summary, error) {
	lc := p.cfg.Label
	log := p.log.With(zap.String("stage", "label"))

	m, err := matrix.ReadFile(lc.SnapshotPath)
	if err != nil {
		return types.LabeledMatrix{}, merge.Summary{}, err
	}

	nm, err := labels.LoadNameMap(lc.NameMapPath)
	if err != nil {
		return types.LabeledMatrix{}, merge.Summary{}, err
	}
	m, unmapped := labels.Remap(m, nm)
	for _, id := range unmapped {
		log.Warn("strain has no name mapping", zap.String("isolate", id))
	}

	entries, err := labels.LoadClassification(lc.Classification)
	if err != nil {
		return types.LabeledMatrix{}, merge.Summary{}, err
	}
	lookup := labels.NewLookup(entries)
	log.Debug("classification loaded", zap.Int("isolates", lookup.Len()))

	lm, summary := merge.Merge(m, lookup)
	for _, id := range summary.Missing {
		log.Debug("no classification for strain", zap.String("isolate", id))
	}

	fmt.Fprintf(p.w, "labeled: %d, unlabeled: %d, unmapped: %d\n", summary.Labeled, summary.Unlabeled, len(unmapped))
	for _, l := range merge.Labels(summary.Counts) {
		fmt.Fprintf(p.w, "  DR_status %-2s %d\n", l, summary.Counts[l])
	}

	if lc.OutputPath != "" {
		if err := merge.WriteFile(lc.OutputPath, lm); err != nil {
			return types.LabeledMatrix{}, merge.Summary{}, err
		}
		fmt.Fprintf(p.w, "labeled matrix written to %s\n", lc.OutputPath)
	}
	return lm, summary, nil
}

// Persist saves lm to the dataset store and returns the run ID.
func (p *Pipeline) Persist(ctx context.Context, lm types.LabeledMatrix, source string) (string, error) {
	st, err := store.NewStore(p.cfg.Store)
	if err != nil {
		return "", err
	}
	defer st.Close()

	runID, err := st.SaveRun(ctx, lm, source)
	if err != nil {
		return "", err
	}
	p.log.Info("run stored", zap.String("run", runID), zap.String("dataset_dir", p.cfg.Store.DatasetDir))
	fmt.Fprintf(p.w, "stored run %s\n", runID)
	return runID, nil
}
