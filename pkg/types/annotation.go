// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// FeatureCDS is the feature key for coding sequences.
const FeatureCDS = "CDS"

// Qualifier names read by the scanner.
const (
	QualifierGene     = "gene"
	QualifierLocusTag = "locus_tag"
)

// CanonicalMarker is the substring that marks an identifier as belonging to
// the H37Rv reference locus-tag namespace.
const CanonicalMarker = "Rv"

// Qualifier is one named qualifier on a feature. Repeated occurrences of the
// same name within a feature are collected into Values in file order.
type Qualifier struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// First returns the first value of the qualifier, or "" for a bare qualifier.
func (q Qualifier) First() string {
	if len(q.Values) == 0 {
		return ""
	}
	return q.Values[0]
}

// Feature is a typed span of an annotation record.
type Feature struct {
	// Type is the feature key (e.g. "CDS", "gene", "tRNA").
	Type string `json:"type" yaml:"type"`

	// Location is the raw location string (e.g. "complement(1..1524)").
	Location string `json:"location" yaml:"location"`

	// Qualifiers keeps the order in which qualifiers first appear.
	Qualifiers []Qualifier `json:"qualifiers" yaml:"qualifiers"`
}

// Qualifier returns the named qualifier and whether it is present.
func (f Feature) Qualifier(name string) (Qualifier, bool) {
	for _, q := range f.Qualifiers {
		if q.Name == name {
			return q, true
		}
	}
	return Qualifier{}, false
}

// IsCDS reports whether the feature is a coding sequence.
func (f Feature) IsCDS() bool {
	return f.Type == FeatureCDS
}

// AnnotationRecord is one parsed genome annotation.
type AnnotationRecord struct {
	// ID is the record identifier (VERSION accession when present, else
	// ACCESSION, else the LOCUS name).
	ID string `json:"id" yaml:"id"`

	// Name is the LOCUS name.
	Name string `json:"name" yaml:"name"`

	Features []Feature `json:"features" yaml:"features"`
}

// IsCanonical reports whether a gene identifier follows the Rv convention.
func IsCanonical(id string) bool {
	return strings.Contains(id, CanonicalMarker)
}
