package parser

import (
	"os"
	"strings"
)

const (
	EOLCRLF = "\r\n"
	EOLLF   = "\n"
)

// Document is the raw text of a file plus a line index over it.
// Lines never carry their terminator; offsets point at the first byte of each line.
type Document struct {
	Path    string
	Content string
	EOL     string

	lines   []string
	offsets []int
}

// NewDocument indexes content. Any CRLF in the content makes the document CRLF.
func NewDocument(path string, content string) *Document {
	lines, offsets := indexLines(content)
	return &Document{
		Path:    path,
		Content: content,
		EOL:     DetectEOL(content),
		lines:   lines,
		offsets: offsets,
	}
}

// ReadDocument loads and indexes a file.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewDocument(path, string(data)), nil
}

func DetectEOL(content string) string {
	if strings.Contains(content, EOLCRLF) {
		return EOLCRLF
	}
	return EOLLF
}

func (d *Document) Lines() []string {
	return d.lines
}

func (d *Document) LineCount() int {
	return len(d.lines)
}

func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}

// Offset returns the byte offset where line i starts. Offsets past the last
// line resolve to the end of the content.
func (d *Document) Offset(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(d.offsets) {
		return len(d.Content)
	}
	return d.offsets[i]
}

// EndsWithEOL reports whether the final line is terminated.
func (d *Document) EndsWithEOL() bool {
	return d.Content == "" || strings.HasSuffix(d.Content, "\n")
}

// Splice returns a new document with text inserted at the given byte offset.
func (d *Document) Splice(offset int, text string) *Document {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Content) {
		offset = len(d.Content)
	}
	return NewDocument(d.Path, d.Content[:offset]+text+d.Content[offset:])
}

// ToEOL converts '\n'-joined text to the document's terminator.
func (d *Document) ToEOL(text string) string {
	text = strings.ReplaceAll(text, EOLCRLF, EOLLF)
	if d.EOL == EOLLF {
		return text
	}
	return strings.ReplaceAll(text, EOLLF, d.EOL)
}

func indexLines(content string) ([]string, []int) {
	lines := make([]string, 0, strings.Count(content, "\n")+1)
	offsets := make([]int, 0, cap(lines))

	start := 0
	for start < len(content) {
		idx := strings.IndexByte(content[start:], '\n')
		if idx < 0 {
			lines = append(lines, strings.TrimSuffix(content[start:], "\r"))
			offsets = append(offsets, start)
			break
		}
		lines = append(lines, strings.TrimSuffix(content[start:start+idx], "\r"))
		offsets = append(offsets, start)
		start += idx + 1
	}
	return lines, offsets
}
