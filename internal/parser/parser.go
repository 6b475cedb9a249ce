package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// headerPattern matches an arm whose condition starts with an uppercase identifier.
var headerPattern = regexp.MustCompile(`^\s*#\s*(if|elif)\s+([A-Z_][A-Z0-9_]*)\b`)

// Directive returns the preprocessor keyword of a line ("if", "elif", "endif", ...)
// or "" when the line is not a directive.
func Directive(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "#") {
		return ""
	}
	trimmed = strings.TrimLeft(trimmed[1:], " \t")
	end := 0
	for end < len(trimmed) && trimmed[end] >= 'a' && trimmed[end] <= 'z' {
		end++
	}
	return trimmed[:end]
}

// HeaderName returns the guard identifier of an #if/#elif header line.
func HeaderName(line string) (string, bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// Parse scans lines once and returns the #if/#elif arms in order.
//
// Conditionals nested inside an arm are tracked only by depth: they neither
// terminate the arm nor produce blocks of their own.
func Parse(lines []string) []ConditionalBlock {
	blocks := make([]ConditionalBlock, 0)

	i := 0
	for i < len(lines) {
		name, ok := HeaderName(lines[i])
		if !ok {
			i++
			continue
		}

		stop := armStop(lines, i)
		end := lastNonBlank(lines, i, stop)
		blocks = append(blocks, ConditionalBlock{
			Name:      name,
			RawText:   strings.Join(lines[i:end+1], "\n"),
			StartLine: i,
			EndLine:   end,
		})

		// stop is the terminating directive; it may open the next arm
		i = stop
	}

	return blocks
}

// ParseDocument parses the arms of an indexed document.
func ParseDocument(doc *Document) []ConditionalBlock {
	return Parse(doc.Lines())
}

// ParseFile reads path and parses its arms. A file without arms yields ErrNoBlocks.
func ParseFile(path string) (*FileBlocks, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}

	blocks := ParseDocument(doc)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoBlocks)
	}

	return &FileBlocks{
		Path:     path,
		Document: doc,
		Blocks:   blocks,
		Hash:     HashContent(doc.Content),
	}, nil
}

// Find returns the block named name.
func Find(blocks []ConditionalBlock, name string) (ConditionalBlock, bool) {
	for _, block := range blocks {
		if block.Name == name {
			return block, true
		}
	}
	return ConditionalBlock{}, false
}

// MustFind is Find with ErrBlockNotFound on a miss.
func MustFind(blocks []ConditionalBlock, name string) (ConditionalBlock, error) {
	block, ok := Find(blocks, name)
	if !ok {
		return ConditionalBlock{}, fmt.Errorf("%q: %w", name, ErrBlockNotFound)
	}
	return block, nil
}

func Names(blocks []ConditionalBlock) []string {
	names := make([]string, 0, len(blocks))
	for _, block := range blocks {
		names = append(names, block.Name)
	}
	return names
}

func HashContent(content string) string {
	h := sha256.New()
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))[:16] // short hash
}

func armStop(lines []string, header int) int {
	depth := 0
	for j := header + 1; j < len(lines); j++ {
		switch Directive(lines[j]) {
		case "if", "ifdef", "ifndef":
			depth++
		case "endif":
			if depth == 0 {
				return j
			}
			depth--
		case "elif", "else":
			if depth == 0 {
				return j
			}
		}
	}
	return len(lines)
}

func lastNonBlank(lines []string, from, stop int) int {
	for j := stop - 1; j > from; j-- {
		if strings.TrimSpace(lines[j]) != "" {
			return j
		}
	}
	return from
}
