// Package naming derives board-model tokens, customer prefixes and EEPROM
// macro names from conditional block names.
package naming

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/morozRed/boardsync/internal/parser"
)

var (
	// ErrExtraction is returned when a board model or prefix cannot be derived.
	ErrExtraction = errors.New("cannot derive naming token")
	// ErrMissingField is returned when a mandatory naming input is empty.
	ErrMissingField = errors.New("missing required field")
)

// ModelPattern is one board-model numbering convention.
type ModelPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

func modelPattern(name, body string) ModelPattern {
	return ModelPattern{
		Name:    name,
		Pattern: regexp.MustCompile(`(?:^|_)(` + body + `)(?:_|$)`),
	}
}

// ModelPatterns is evaluated in order and the first match wins. Tokens can be
// substrings of each other (KFW35C_7 inside KFW35C_7_AC), so the more specific
// conventions must stay ahead of the general ones.
var ModelPatterns = []ModelPattern{
	modelPattern("prefixed-current", `[A-Z]+\d+[A-Z]_\d+_(?:AC|DC)`),
	modelPattern("prefixed", `[A-Z]+\d+[A-Z]_\d+`),
	modelPattern("bare-current", `\d+[A-Z]_\d+_(?:AC|DC)`),
	modelPattern("bare", `\d+[A-Z]_\d+`),
	modelPattern("family", `[A-Z]+\d+[A-Z]?`),
}

// MatchBoardModel returns the board-model token and the name of the pattern that produced it.
func MatchBoardModel(name string) (token string, pattern string, ok bool) {
	for _, p := range ModelPatterns {
		m := p.Pattern.FindStringSubmatch(name)
		if m != nil {
			return m[1], p.Name, true
		}
	}
	return "", "", false
}

// ExtractBoardModel returns the first ModelPatterns match in name.
func ExtractBoardModel(name string) (string, bool) {
	token, _, ok := MatchBoardModel(name)
	return token, ok
}

// CommonPrefix returns the leading '_' segment of the first block's name, or
// the whole name when it has no separator.
func CommonPrefix(blocks []parser.ConditionalBlock) (string, error) {
	if len(blocks) == 0 || blocks[0].Name == "" {
		return "", fmt.Errorf("common prefix: %w", ErrExtraction)
	}
	segments := strings.Split(blocks[0].Name, "_")
	if len(segments) > 1 {
		return segments[0], nil
	}
	return blocks[0].Name, nil
}

// Scheme carries the fixed tokens of the EEPROM naming convention.
type Scheme struct {
	ModelPrefix string // stripped from board models, e.g. KFW
	MacroPrefix string // leading token of EEPROM macros, e.g. EEPROMDATA_
}

func DefaultScheme() Scheme {
	return Scheme{
		ModelPrefix: "KFW",
		MacroPrefix: "EEPROMDATA_",
	}
}

// Simplify strips the model prefix and an _AC/_DC suffix from a board model.
func (s Scheme) Simplify(model string) string {
	model = strings.ToUpper(strings.TrimSpace(model))
	if s.ModelPrefix != "" {
		model = strings.TrimPrefix(model, strings.ToUpper(s.ModelPrefix))
	}
	for _, suffix := range []string{"_AC", "_DC"} {
		if strings.HasSuffix(model, suffix) {
			return strings.TrimSuffix(model, suffix)
		}
	}
	return model
}

// EepromMacro builds EEPROMDATA_<CUSTOMER>_<SIMPLIFIED_MODEL>_<VERSION>.
func (s Scheme) EepromMacro(customer, model, version string) (string, error) {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(customer) == "" {
		missing = append(missing, "customer")
	}
	if strings.TrimSpace(model) == "" {
		missing = append(missing, "board model")
	}
	if strings.TrimSpace(version) == "" {
		missing = append(missing, "eeprom version")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("eeprom macro needs %s: %w", strings.Join(missing, ", "), ErrMissingField)
	}

	simplified := s.Simplify(model)
	if simplified == "" {
		return "", fmt.Errorf("board model %q simplifies to nothing: %w", model, ErrExtraction)
	}

	return s.MacroPrefix + strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(customer)),
		simplified,
		strings.ToUpper(strings.TrimSpace(version)),
	}, "_"), nil
}

// MacroFamily is the macro prefix shared by every EEPROM version of one customer/model.
func (s Scheme) MacroFamily(customer, model string) string {
	return s.MacroPrefix + strings.ToUpper(customer) + "_" + s.Simplify(model) + "_"
}

// IsEepromMacro reports whether name follows the EEPROM macro convention.
func (s Scheme) IsEepromMacro(name string) bool {
	return strings.HasPrefix(name, s.MacroPrefix) && len(name) > len(s.MacroPrefix)
}

// FindEepromMacro returns the first EEPROM macro token defined in text.
func (s Scheme) FindEepromMacro(text string) (string, bool) {
	pattern := regexp.MustCompile(`(?m)^\s*#\s*define\s+(` + regexp.QuoteMeta(s.MacroPrefix) + `[A-Z0-9_]+)\b`)
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FileStem maps a macro to the file stem used by the build script and the
// parameter file: the macro prefix is dropped, purely alphabetic uppercase
// segments are lower-cased, mixed segments are kept.
func (s Scheme) FileStem(macro string) string {
	macro = strings.TrimPrefix(macro, s.MacroPrefix)
	segments := strings.Split(macro, "_")
	for i, segment := range segments {
		if isUpperAlpha(segment) {
			segments[i] = strings.ToLower(segment)
		}
	}
	return strings.Join(segments, "_")
}

func isUpperAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
