// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// IsolateColumn is the index label of a loaded presence matrix.
const IsolateColumn = "Isolate"

// DRStatusColumn is the label column appended by the merger.
const DRStatusColumn = "DR_status"

// StrainGeneSet maps each strain to the canonical gene identifiers found in
// its annotation. Strains preserves the order in which strains were scanned.
// A StrainGeneSet is not modified after construction.
type StrainGeneSet struct {
	Strains []string
	Genes   map[string][]string
}

// NewStrainGeneSet builds a StrainGeneSet from ordered strain names and their
// gene lists. Later duplicates of a strain name replace earlier ones but keep
// the first position.
func NewStrainGeneSet(strains []string, genes [][]string) StrainGeneSet {
	s := StrainGeneSet{Genes: make(map[string][]string, len(strains))}
	for i, name := range strains {
		if _, ok := s.Genes[name]; !ok {
			s.Strains = append(s.Strains, name)
		}
		s.Genes[name] = genes[i]
	}
	return s
}

// PresenceMatrix is a dense binary strain x gene table.
type PresenceMatrix struct {
	// Rows holds the strain identifiers (the Isolate index).
	Rows []string

	// Columns holds the gene identifiers.
	Columns []string

	// Cells is indexed [row][column]; every cell is 0 or 1.
	Cells [][]uint8
}

// ColumnIndex returns the position of gene in Columns, or -1.
func (m PresenceMatrix) ColumnIndex(gene string) int {
	for i, c := range m.Columns {
		if c == gene {
			return i
		}
	}
	return -1
}

// RowIndex returns the position of the first row named strain, or -1.
func (m PresenceMatrix) RowIndex(strain string) int {
	for i, r := range m.Rows {
		if r == strain {
			return i
		}
	}
	return -1
}

// Present reports whether the cell for (strain, gene) is 1.
func (m PresenceMatrix) Present(strain, gene string) bool {
	r, c := m.RowIndex(strain), m.ColumnIndex(gene)
	if r < 0 || c < 0 {
		return false
	}
	return m.Cells[r][c] == 1
}

// NameMap maps anonymized strain identifiers to real strain identifiers.
type NameMap map[string]string

// ResistanceLabel is the ordinal drug-resistance class of a strain.
type ResistanceLabel string

const (
	LabelMono          ResistanceLabel = "0"
	LabelMDR           ResistanceLabel = "1"
	LabelXDR           ResistanceLabel = "2"
	LabelNotApplicable ResistanceLabel = "NA"
)

// LabeledMatrix is a PresenceMatrix with a DR_status value per row.
// DRStatus[i] is nil when no label could be joined for row i.
type LabeledMatrix struct {
	PresenceMatrix
	DRStatus []*ResistanceLabel
}

// Label returns the label of row i and whether one is set.
func (m LabeledMatrix) Label(i int) (ResistanceLabel, bool) {
	if i < 0 || i >= len(m.DRStatus) || m.DRStatus[i] == nil {
		return "", false
	}
	return *m.DRStatus[i], true
}
