// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package labels

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/mtb-pangenome/pkg/types"
)

// ReadNameMap parses a tab-separated strain map: one "generic<TAB>real"
// pair per line. Lines are trimmed and blank lines are skipped. When a
// generic ID repeats, the later line wins.
func ReadNameMap(r io.Reader) (types.NameMap, error) {
	nm := make(types.NameMap)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return nil, eris.Errorf("line %d: expected generic<TAB>real, got %q", line, text)
		}
		nm[fields[0]] = fields[1]
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "reading strain map")
	}
	return nm, nil
}

// LoadNameMap reads the strain map at path.
func LoadNameMap(path string) (types.NameMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening strain map %s", path)
	}
	defer f.Close()

	nm, err := ReadNameMap(f)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing strain map %s", path)
	}
	return nm, nil
}

// Remap returns a copy of m whose row labels are replaced through nm.
// Rows whose label has no mapping get an empty label and are listed in the
// second return value.
func Remap(m types.PresenceMatrix, nm types.NameMap) (types.PresenceMatrix, []string) {
	out := m
	out.Rows = make([]string, len(m.Rows))
	var unmapped []string
	for i, id := range m.Rows {
		mapped, ok := nm[id]
		if !ok {
			unmapped = append(unmapped, id)
			continue
		}
		out.Rows[i] = mapped
	}
	return out, unmapped
}
