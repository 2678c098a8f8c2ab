// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genbank

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// featureBuilder accumulates the lines of one feature table entry.
type featureBuilder struct {
	key      string
	location strings.Builder
	quals    []rawQualifier
}

type rawQualifier struct {
	name  string
	parts []string
	bare  bool
}

// open reports whether a quoted value is still waiting for its closing quote.
func (q *rawQualifier) open() bool {
	if q.bare || len(q.parts) == 0 || !strings.HasPrefix(q.parts[0], `"`) {
		return false
	}
	n := 0
	for _, p := range q.parts {
		n += strings.Count(p, `"`)
	}
	return n%2 == 1
}

func (q *rawQualifier) value() string {
	if q.bare {
		return ""
	}
	sep := " "
	if q.name == "translation" {
		sep = ""
	}
	v := strings.Join(q.parts, sep)
	if strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) && len(v) >= 2 {
		v = v[1 : len(v)-1]
		v = strings.ReplaceAll(v, `""`, `"`)
	}
	return v
}

// addLine consumes one line indented to the qualifier column.
func (b *featureBuilder) addLine(text string) error {
	if n := len(b.quals); n > 0 && b.quals[n-1].open() {
		b.quals[n-1].parts = append(b.quals[n-1].parts, text)
		return nil
	}

	if strings.HasPrefix(text, "/") {
		body := text[1:]
		name, val, hasValue := strings.Cut(body, "=")
		if name == "" {
			return eris.Errorf("empty qualifier name in feature %s", b.key)
		}
		q := rawQualifier{name: name, bare: !hasValue}
		if hasValue {
			q.parts = []string{val}
		}
		b.quals = append(b.quals, q)
		return nil
	}

	if len(b.quals) == 0 {
		b.location.WriteString(text)
		return nil
	}

	// Unquoted values may wrap onto following lines.
	last := &b.quals[len(b.quals)-1]
	if last.bare {
		return eris.Errorf("unexpected continuation after bare qualifier /%s", last.name)
	}
	last.parts = append(last.parts, text)
	return nil
}

// build collapses repeated qualifier names into one entry at the position of
// their first occurrence.
func (b *featureBuilder) build() types.Feature {
	f := types.Feature{Type: b.key, Location: b.location.String()}
	pos := make(map[string]int, len(b.quals))
	for i := range b.quals {
		q := &b.quals[i]
		if at, ok := pos[q.name]; ok {
			f.Qualifiers[at].Values = append(f.Qualifiers[at].Values, q.value())
			continue
		}
		pos[q.name] = len(f.Qualifiers)
		f.Qualifiers = append(f.Qualifiers, types.Qualifier{Name: q.name, Values: []string{q.value()}})
	}
	return f
}
