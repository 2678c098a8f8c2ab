// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genbank

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singleRecord = `LOCUS       NC_000962            4411532 bp    DNA     circular CON 10-JUN-2013
DEFINITION  Mycobacterium tuberculosis H37Rv, complete genome.
ACCESSION   NC_000962
VERSION     NC_000962.3
FEATURES             Location/Qualifiers
     source          1..4411532
                     /organism="Mycobacterium tuberculosis H37Rv"
                     /mol_type="genomic DNA"
     gene            1..1524
                     /gene="dnaA"
                     /locus_tag="Rv0001"
     CDS             1..1524
                     /gene="dnaA"
                     /locus_tag="Rv0001"
                     /note="chromosomal replication initiator protein
                     DnaA"
                     /codon_start=1
                     /translation="MTDDPGSGFTTVWNAVVSELNGDPKVDDGPSSDANLSAPLTPQQ
                     RAWLNLVQPLTIVEGFALLSVPSSFVQ"
     CDS             complement(join(2052..2100,
                     2200..3260))
                     /locus_tag="Rv0002"
                     /pseudo
                     /db_xref="GI:1"
                     /db_xref="GeneID:2"
ORIGIN
        1 ttgaccgatg accccggttc aggcttcacc acagtgtgga acgccgtcgt ttccgaactt
//
`

const secondRecord = `LOCUS       plasmid1               1000 bp    DNA     circular
ACCESSION   PL000001
FEATURES             Location/Qualifiers
     CDS             1..300
                     /locus_tag="MTB_PL1"
//
`

func TestReadSingleRecord(t *testing.T) {
	rec, err := Read(strings.NewReader(singleRecord))
	require.NoError(t, err)

	assert.Equal(t, "NC_000962.3", rec.ID)
	assert.Equal(t, "NC_000962", rec.Name)
	require.Len(t, rec.Features, 4)

	assert.Equal(t, "source", rec.Features[0].Type)
	assert.Equal(t, "1..4411532", rec.Features[0].Location)

	cds := rec.Features[2]
	assert.True(t, cds.IsCDS())
	names := make([]string, len(cds.Qualifiers))
	for i, q := range cds.Qualifiers {
		names[i] = q.Name
	}
	assert.Equal(t, []string{"gene", "locus_tag", "note", "codon_start", "translation"}, names)

	note, ok := cds.Qualifier("note")
	require.True(t, ok)
	assert.Equal(t, "chromosomal replication initiator protein DnaA", note.First())

	tr, _ := cds.Qualifier("translation")
	assert.Equal(t, "MTDDPGSGFTTVWNAVVSELNGDPKVDDGPSSDANLSAPLTPQQRAWLNLVQPLTIVEGFALLSVPSSFVQ", tr.First())

	cs, _ := cds.Qualifier("codon_start")
	assert.Equal(t, "1", cs.First())
}

func TestReadMultiLineLocationAndRepeatedQualifiers(t *testing.T) {
	rec, err := Read(strings.NewReader(singleRecord))
	require.NoError(t, err)

	f := rec.Features[3]
	assert.Equal(t, "complement(join(2052..2100,2200..3260))", f.Location)

	pseudo, ok := f.Qualifier("pseudo")
	require.True(t, ok)
	assert.Equal(t, "", pseudo.First())

	xref, ok := f.Qualifier("db_xref")
	require.True(t, ok)
	assert.Equal(t, []string{"GI:1", "GeneID:2"}, xref.Values)
	assert.Len(t, f.Qualifiers, 3)
}

func TestReadMultipleRecords(t *testing.T) {
	_, err := Read(strings.NewReader(singleRecord + secondRecord))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMultipleRecords))
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader("\n\n"))
	assert.True(t, errors.Is(err, ErrNoRecords))
}

func TestParseAllRecords(t *testing.T) {
	recs, err := Parse(strings.NewReader(singleRecord + "\n" + secondRecord))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "NC_000962.3", recs[0].ID)
	assert.Equal(t, "PL000001", recs[1].ID)
	require.Len(t, recs[1].Features, 1)
	lt, _ := recs[1].Features[0].Qualifier("locus_tag")
	assert.Equal(t, "MTB_PL1", lt.First())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{
			name:  "missing LOCUS",
			input: "DEFINITION  nothing\n//\n",
			msg:   "expected LOCUS",
		},
		{
			name:  "truncated record",
			input: "LOCUS       X 10 bp DNA\nFEATURES             Location/Qualifiers\n     CDS             1..9\n",
			msg:   "unexpected end of input",
		},
		{
			name:  "qualifier before any feature",
			input: "LOCUS       X 10 bp DNA\nFEATURES             Location/Qualifiers\n                     /gene=\"a\"\n//\n",
			msg:   "outside a feature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Contains(t, pe.Error(), tt.msg)
			assert.Greater(t, pe.Line, 0)
		})
	}
}

func TestParseErrorTruncatesOnRuneBoundary(t *testing.T) {
	// 36 ASCII bytes, then multi-byte runes straddling the cut.
	line := strings.Repeat("x", 36) + strings.Repeat("é", 10)
	_, err := Parse(strings.NewReader(line + "\n"))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.True(t, utf8.ValidString(pe.Msg))
	assert.Contains(t, pe.Msg, strings.Repeat("x", 36)+"é...")
}

func TestQuotedValueWithEscapedQuotes(t *testing.T) {
	input := `LOCUS       X 10 bp DNA
FEATURES             Location/Qualifiers
     CDS             1..9
                     /note="a ""quoted"" word"
                     /gene="Rv9999"
//
`
	rec, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	note, _ := rec.Features[0].Qualifier("note")
	assert.Equal(t, `a "quoted" word`, note.First())
	gene, _ := rec.Features[0].Qualifier("gene")
	assert.Equal(t, "Rv9999", gene.First())
	assert.Equal(t, "X", rec.ID)
}
