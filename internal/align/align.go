// Package align computes the value column used by #define lines in a block
// so generated lines line up with their siblings.
package align

import (
	"regexp"
	"strings"
)

const (
	TabWidth           = 4
	DefaultValueColumn = 40
	IndentUnit         = "\t"
)

var definePattern = regexp.MustCompile(`^(\s*)#define\s+[A-Z0-9_]+\s+`)

// Profile is the layout shared by the #define lines of one block.
type Profile struct {
	ValueColumn int    `json:"value_column"`
	Indentation string `json:"indentation"`
}

// Compute inspects the body lines (start+1..end) of a block. The value column
// is the widest "#define NAME " prefix found, and never narrower than the
// prefix each prototype field name would need.
func Compute(lines []string, start, end int, prototypes []string) Profile {
	profile := Profile{}
	found := false

	for i := start + 1; i <= end && i < len(lines); i++ {
		m := definePattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		if !found {
			profile.Indentation = m[1]
			found = true
		}
		if width := VisualWidth(m[0]); width > profile.ValueColumn {
			profile.ValueColumn = width
		}
	}

	if !found {
		header := ""
		if start >= 0 && start < len(lines) {
			header = lines[start]
		}
		profile.Indentation = leadingWhitespace(header) + IndentUnit
		profile.ValueColumn = DefaultValueColumn
	}

	for _, proto := range prototypes {
		if width := VisualWidth(definePrefix(profile.Indentation, proto) + " "); width > profile.ValueColumn {
			profile.ValueColumn = width
		}
	}

	return profile
}

// Format renders "#define name value" with value starting at ValueColumn.
func (p Profile) Format(name, value string) string {
	prefix := definePrefix(p.Indentation, name)
	if value == "" {
		return prefix
	}
	pad := p.ValueColumn - VisualWidth(prefix)
	if pad < 1 {
		pad = 1
	}
	return prefix + strings.Repeat(" ", pad) + value
}

// VisualWidth measures s with tabs expanded to TabWidth stops.
func VisualWidth(s string) int {
	col := 0
	for _, r := range s {
		if r == '\t' {
			col += TabWidth - col%TabWidth
			continue
		}
		col++
	}
	return col
}

func definePrefix(indent, name string) string {
	return indent + "#define " + name
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
