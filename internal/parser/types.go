package parser

import "errors"

var (
	// ErrNoBlocks is returned when a file expected to hold conditional arms has none.
	ErrNoBlocks = errors.New("no conditional blocks found")
	// ErrBlockNotFound is returned when a named arm does not exist in a document.
	ErrBlockNotFound = errors.New("conditional block not found")
)

// ConditionalBlock is one #if/#elif guarded arm.
type ConditionalBlock struct {
	Name      string `json:"name"`
	RawText   string `json:"raw_text"`
	StartLine int    `json:"start_line"` // 0-based header line
	EndLine   int    `json:"end_line"`   // 0-based last non-blank content line
}

// LineCount returns the number of lines spanned by the block.
func (b ConditionalBlock) LineCount() int {
	return b.EndLine - b.StartLine + 1
}

// Contains reports whether line falls inside the block's span.
func (b ConditionalBlock) Contains(line int) bool {
	return line >= b.StartLine && line <= b.EndLine
}

// FileBlocks holds the parsed arms of a single file
type FileBlocks struct {
	Path     string
	Document *Document
	Blocks   []ConditionalBlock
	Hash     string // content hash, used to report rewritten files
}

// ParseIssue captures non-fatal warnings/errors encountered while scanning files.
type ParseIssue struct {
	File     string `json:"file"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}
