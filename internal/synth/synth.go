// Package synth derives a new conditional arm from a reference arm.
package synth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/morozRed/boardsync/internal/naming"
	"github.com/morozRed/boardsync/internal/parser"
)

// Fields names the macros the synthesizer knows how to rewrite.
type Fields struct {
	SoftwareVersion string // e.g. SW_VERSION
	CodeName        string // e.g. CODE_NAME
	EepromPrefix    string // e.g. EEPROMDATA_
}

func DefaultFields() Fields {
	return Fields{
		SoftwareVersion: "SW_VERSION",
		CodeName:        "CODE_NAME",
		EepromPrefix:    "EEPROMDATA_",
	}
}

// Updates are the values for the new arm. Empty optional values drop the
// corresponding line; EepromMacro is mandatory.
type Updates struct {
	SoftwareVersion string
	CodeName        string
	EepromMacro     string
}

type Action string

const (
	ActionReplaced Action = "replaced"
	ActionAppended Action = "appended"
	ActionRemoved  Action = "removed"
)

// Change records what happened to one field line.
type Change struct {
	Field  string `json:"field"`
	Action Action `json:"action"`
	Line   string `json:"line,omitempty"`
}

// Result is the synthesized arm text ('\n' separated) plus the field changes.
type Result struct {
	Text    string   `json:"text"`
	Changes []Change `json:"changes,omitempty"`
}

var ifKeyword = regexp.MustCompile(`^(\s*#\s*)if(\s)`)

// Synthesize copies ref, renames its guard to newName as an #elif arm and
// rewrites the known field macros.
func Synthesize(ref parser.ConditionalBlock, newName string, updates Updates, fields Fields) (Result, error) {
	if strings.TrimSpace(updates.EepromMacro) == "" {
		return Result{}, fmt.Errorf("eeprom macro for %s: %w", newName, naming.ErrMissingField)
	}
	if ref.RawText == "" {
		return Result{}, fmt.Errorf("reference block %q is empty", ref.Name)
	}

	lines := strings.Split(ref.RawText, "\n")
	lines[0] = renameHeader(lines[0], ref.Name, newName)

	s := &synthesizer{lines: lines, indent: bodyIndent(lines)}
	s.valueField(fields.SoftwareVersion, updates.SoftwareVersion)
	s.eepromField(fields.EepromPrefix, updates.EepromMacro)
	s.valueField(fields.CodeName, quoteString(updates.CodeName))

	return Result{
		Text:    strings.Join(s.lines, "\n"),
		Changes: s.changes,
	}, nil
}

type synthesizer struct {
	lines   []string
	indent  string
	changes []Change
}

func (s *synthesizer) valueField(name, value string) {
	if name == "" {
		return
	}
	present := regexp.MustCompile(`^\s*#\s*define\s+` + regexp.QuoteMeta(name) + `\b`)
	valued := regexp.MustCompile(`^(\s*#\s*define\s+` + regexp.QuoteMeta(name) + `\s+)("(?:[^"\\]|\\.)*"|[^\s/]+)(.*)$`)

	idx := s.find(present)
	switch {
	case idx >= 0 && value != "":
		if m := valued.FindStringSubmatch(s.lines[idx]); m != nil {
			s.lines[idx] = m[1] + value + m[3]
		} else {
			s.lines[idx] = strings.TrimRight(s.lines[idx], " \t") + " " + value
		}
		s.record(name, ActionReplaced, s.lines[idx])
	case idx < 0 && value != "":
		line := s.indent + "#define " + name + " " + value
		s.lines = append(s.lines, line)
		s.record(name, ActionAppended, line)
	case idx >= 0 && value == "":
		s.record(name, ActionRemoved, s.lines[idx])
		s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	}
}

// eepromField renames the EEPROM macro definition; the line is never removed.
func (s *synthesizer) eepromField(prefix, macro string) {
	pattern := regexp.MustCompile(`^(\s*#\s*define\s+)` + regexp.QuoteMeta(prefix) + `[A-Z0-9_]*\b(.*)$`)

	idx := s.find(pattern)
	if idx < 0 {
		line := s.indent + "#define " + macro
		s.lines = append(s.lines, line)
		s.record(macro, ActionAppended, line)
		return
	}

	m := pattern.FindStringSubmatch(s.lines[idx])
	s.lines[idx] = m[1] + macro + m[2]
	s.record(macro, ActionReplaced, s.lines[idx])
}

func (s *synthesizer) find(pattern *regexp.Regexp) int {
	for i := 1; i < len(s.lines); i++ {
		if pattern.MatchString(s.lines[i]) {
			return i
		}
	}
	return -1
}

func (s *synthesizer) record(field string, action Action, line string) {
	s.changes = append(s.changes, Change{Field: field, Action: action, Line: line})
}

// renameHeader swaps the guard token and turns a leading #if into #elif.
func renameHeader(header, oldName, newName string) string {
	token := regexp.MustCompile(`\b` + regexp.QuoteMeta(oldName) + `\b`)
	if loc := token.FindStringIndex(header); loc != nil {
		header = header[:loc[0]] + newName + header[loc[1]:]
	}
	return ifKeyword.ReplaceAllString(header, "${1}elif${2}")
}

func bodyIndent(lines []string) string {
	for _, line := range lines[1:] {
		if parser.Directive(line) == "define" {
			return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		}
	}
	header := lines[0]
	return header[:len(header)-len(strings.TrimLeft(header, " \t"))]
}

func quoteString(value string) string {
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return `"` + value + `"`
}
