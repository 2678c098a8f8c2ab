// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genbank reads GenBank flat-file annotation records. Only the parts
// the pangenome scanner consumes are interpreted: the record identifier and
// the feature table with its qualifiers. Sequence data is skipped.
package genbank

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

var (
	// ErrMultipleRecords is returned by Read when the input holds more than one record.
	ErrMultipleRecords = eris.New("more than one record found in input")

	// ErrNoRecords is returned by Read when the input holds no record.
	ErrNoRecords = eris.New("no records found in input")
)

// ParseError reports malformed GenBank input.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("genbank: line %d: %s", e.Line, e.Msg)
}

const (
	// qualifierIndent is the column where qualifiers and location
	// continuations start in the feature table.
	qualifierIndent = 21

	// maxLineSize bounds a single input line.
	maxLineSize = 1 << 20
)

// Reader iterates over the records of a GenBank stream.
type Reader struct {
	sc     *bufio.Scanner
	line   int
	peeked *string
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{sc: sc}
}

// Read parses exactly one record from r. It returns ErrMultipleRecords when a
// second record follows the first and ErrNoRecords when r is empty.
func Read(r io.Reader) (*types.AnnotationRecord, error) {
	rd := NewReader(r)
	rec, err := rd.Next()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, err
	}
	if _, err := rd.Next(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, ErrMultipleRecords
	}
	return rec, nil
}

// Parse returns every record in r.
func Parse(r io.Reader) ([]*types.AnnotationRecord, error) {
	rd := NewReader(r)
	var records []*types.AnnotationRecord
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Next returns the next record, or io.EOF when the stream is exhausted.
func (r *Reader) Next() (*types.AnnotationRecord, error) {
	line, ok, err := r.nextNonBlank()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	if !strings.HasPrefix(line, "LOCUS") {
		return nil, r.errorf("expected LOCUS, found %q", truncate(line))
	}

	rec := &types.AnnotationRecord{}
	if fields := strings.Fields(line); len(fields) > 1 {
		rec.Name = fields[1]
	}
	var accession, version string

	for {
		line, ok, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, r.errorf("unexpected end of input in record %q", rec.Name)
		}
		switch keyword(line) {
		case "ACCESSION":
			if fields := strings.Fields(line); len(fields) > 1 {
				accession = fields[1]
			}
		case "VERSION":
			if fields := strings.Fields(line); len(fields) > 1 {
				version = fields[1]
			}
		case "FEATURES":
			features, err := r.readFeatures()
			if err != nil {
				return nil, err
			}
			rec.Features = features
		case "ORIGIN":
			if err := r.skipSequence(); err != nil {
				return nil, err
			}
			rec.ID = recordID(version, accession, rec.Name)
			return rec, nil
		case "//":
			rec.ID = recordID(version, accession, rec.Name)
			return rec, nil
		}
	}
}

// readFeatures consumes the feature table. It stops before the first line
// that does not belong to the table, leaving it to be read again.
func (r *Reader) readFeatures() ([]types.Feature, error) {
	var (
		features []types.Feature
		cur      *featureBuilder
	)
	flush := func() {
		if cur != nil {
			features = append(features, cur.build())
			cur = nil
		}
	}

	for {
		line, ok, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			flush()
			return features, nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)

		switch {
		case indent == 0:
			flush()
			r.unread(line)
			return features, nil
		case indent < qualifierIndent:
			flush()
			fields := strings.Fields(trimmed)
			cur = &featureBuilder{key: fields[0]}
			cur.location.WriteString(strings.TrimSpace(strings.TrimPrefix(trimmed, fields[0])))
		default:
			if cur == nil {
				return nil, r.errorf("qualifier line outside a feature")
			}
			if err := cur.addLine(strings.TrimRight(trimmed, " \r")); err != nil {
				return nil, r.errorf("%v", err)
			}
		}
	}
}

func (r *Reader) skipSequence() error {
	for {
		line, ok, err := r.readLine()
		if err != nil {
			return err
		}
		if !ok {
			return r.errorf("unexpected end of input in ORIGIN")
		}
		if strings.HasPrefix(line, "//") {
			return nil
		}
	}
}

func (r *Reader) nextNonBlank() (string, bool, error) {
	for {
		line, ok, err := r.readLine()
		if err != nil || !ok {
			return "", ok, err
		}
		if strings.TrimSpace(line) != "" {
			return line, true, nil
		}
	}
}

func (r *Reader) readLine() (string, bool, error) {
	if r.peeked != nil {
		line := *r.peeked
		r.peeked = nil
		return line, true, nil
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", false, eris.Wrapf(err, "reading line %d", r.line+1)
		}
		return "", false, nil
	}
	r.line++
	return strings.TrimRight(r.sc.Text(), "\r"), true, nil
}

func (r *Reader) unread(line string) {
	r.peeked = &line
}

func (r *Reader) errorf(format string, args ...any) error {
	return &ParseError{Line: r.line, Msg: fmt.Sprintf(format, args...)}
}

// keyword returns the section keyword that starts a header line, or "" for
// continuation lines.
func keyword(line string) string {
	if line == "" || line[0] == ' ' {
		return ""
	}
	if strings.HasPrefix(line, "//") {
		return "//"
	}
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i]
	}
	return line
}

func recordID(version, accession, name string) string {
	switch {
	case version != "":
		return version
	case accession != "":
		return accession
	default:
		return name
	}
}

// truncate shortens s to at most 40 runes for error messages.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= 40 {
		return s
	}
	r := []rune(s)
	return string(r[:37]) + "..."
}
