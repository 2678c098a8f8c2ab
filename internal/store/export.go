// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mtb-pangenome/internal/matrix"
)

// unlabeledKey is the label bucket for strains without DR_status.
const unlabeledKey = "unlabeled"

// StrainSummary holds the per-strain fields of a dataset summary.
type StrainSummary struct {
	Name     string `json:"name" yaml:"name"`
	Genes    int    `json:"genes" yaml:"genes"`
	DRStatus string `json:"dr_status,omitempty" yaml:"dr_status,omitempty"`
}

// Summary describes a stored run for export.
type Summary struct {
	Run     RunInfo         `json:"run" yaml:"run"`
	Labels  map[string]int  `json:"labels" yaml:"labels"`
	Strains []StrainSummary `json:"strains" yaml:"strains"`
}

// Summarize builds the export summary of a run.
func (s *Store) Summarize(ctx context.Context, runID string) (Summary, error) {
	info, err := s.Run(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	lm, err := s.LoadRun(ctx, runID)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		Run:     info,
		Labels:  make(map[string]int),
		Strains: make([]StrainSummary, len(lm.Rows)),
	}
	counts := matrix.GeneCounts(lm.PresenceMatrix)
	for i, name := range lm.Rows {
		entry := StrainSummary{Name: name, Genes: counts[i]}
		if label, ok := lm.Label(i); ok {
			entry.DRStatus = string(label)
			sum.Labels[entry.DRStatus]++
		} else {
			sum.Labels[unlabeledKey]++
		}
		sum.Strains[i] = entry
	}
	return sum, nil
}

// ExportYAML writes the run summary to datasetDir/export/<run>.yaml and
// returns the path written.
func (s *Store) ExportYAML(ctx context.Context, runID string) (string, error) {
	sum, err := s.Summarize(ctx, runID)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(sum)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport(runID+".yaml", data)
}

// ExportJSON writes the run summary to datasetDir/export/<run>.json and
// returns the path written.
func (s *Store) ExportJSON(ctx context.Context, runID string) (string, error) {
	sum, err := s.Summarize(ctx, runID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport(runID+".json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	dir := filepath.Join(s.datasetDir, exportDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
