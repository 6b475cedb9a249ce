// Package insert locates where a new arm goes and splices it into a document.
package insert

import (
	"errors"
	"fmt"

	"github.com/morozRed/boardsync/internal/parser"
)

// ErrNoInsertionPoint means the document has no directive to insert before.
var ErrNoInsertionPoint = errors.New("no insertion point")

// FindInsertionPoint returns the first #elif/#else/#endif line after afterLine.
// A truncated chain falls back to the last #endif of the document.
func FindInsertionPoint(doc *parser.Document, afterLine int) (int, error) {
	lines := doc.Lines()
	for i := afterLine + 1; i < len(lines); i++ {
		switch parser.Directive(lines[i]) {
		case "elif", "else", "endif":
			return i, nil
		}
	}

	if last, ok := LastDirective(doc, "endif"); ok {
		return last, nil
	}
	return -1, fmt.Errorf("%s after line %d: %w", doc.Path, afterLine+1, ErrNoInsertionPoint)
}

// After plans an insertion directly after block and refuses any point that
// would land inside the block itself.
func After(doc *parser.Document, block parser.ConditionalBlock) (int, error) {
	line, err := FindInsertionPoint(doc, block.EndLine)
	if err != nil {
		return -1, err
	}
	if block.Contains(line) {
		return -1, fmt.Errorf("%s: only candidate line %d is inside %s: %w", doc.Path, line+1, block.Name, ErrNoInsertionPoint)
	}
	return line, nil
}

// FirstDirective returns the first line carrying the given directive keyword.
func FirstDirective(doc *parser.Document, keyword string) (int, bool) {
	for i, line := range doc.Lines() {
		if parser.Directive(line) == keyword {
			return i, true
		}
	}
	return -1, false
}

func LastDirective(doc *parser.Document, keyword string) (int, bool) {
	lines := doc.Lines()
	for i := len(lines) - 1; i >= 0; i-- {
		if parser.Directive(lines[i]) == keyword {
			return i, true
		}
	}
	return -1, false
}

// Apply inserts text plus a line terminator before line, converting text to
// the document's terminator. All other bytes are left as they were.
func Apply(doc *parser.Document, line int, text string) *parser.Document {
	payload := doc.ToEOL(text) + doc.EOL
	if line >= doc.LineCount() && !doc.EndsWithEOL() {
		payload = doc.EOL + payload
	}
	return doc.Splice(doc.Offset(line), payload)
}

// Append adds text as the document's new last line.
func Append(doc *parser.Document, text string) *parser.Document {
	return Apply(doc, doc.LineCount(), text)
}
