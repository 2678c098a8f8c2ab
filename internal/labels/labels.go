// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package labels loads the strain name map and the resistance
// classification table, and recodes classifications to ordinal labels.
package labels

import "github.com/pdiddy/mtb-pangenome/pkg/types"

// Source classification values.
const (
	ClassMono   = "mono"
	ClassMDR    = "MDR"
	ClassPreXDR = "preXDR"
	ClassXDR    = "XDR"
)

// Recode maps a free-text resistance classification to its ordinal label.
// Matching is exact; anything unrecognized, including drug-susceptible
// strains and empty cells, becomes NA.
func Recode(raw string) types.ResistanceLabel {
	switch raw {
	case ClassMono:
		return types.LabelMono
	case ClassMDR, ClassPreXDR:
		return types.LabelMDR
	case ClassXDR:
		return types.LabelXDR
	default:
		return types.LabelNotApplicable
	}
}

// Entry is one row of the classification table.
type Entry struct {
	Isolate        string
	Classification string
}

// Lookup maps strain identifiers to recoded labels.
type Lookup struct {
	labels map[string]types.ResistanceLabel
}

// NewLookup recodes every entry. When an isolate repeats, the later row wins.
func NewLookup(entries []Entry) *Lookup {
	l := &Lookup{labels: make(map[string]types.ResistanceLabel, len(entries))}
	for _, e := range entries {
		l.labels[e.Isolate] = Recode(e.Classification)
	}
	return l
}

// Label returns the label for a strain. ok is false when the strain has no
// row in the classification table.
func (l *Lookup) Label(strain string) (label types.ResistanceLabel, ok bool) {
	label, ok = l.labels[strain]
	return label, ok
}

// Len returns the number of distinct isolates.
func (l *Lookup) Len() int {
	return len(l.labels)
}
