// Package cpp inspects preprocessor structure through tree-sitter's C grammar.
// It never evaluates macros; it only counts what the grammar could not parse.
package cpp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// ErrStructure is returned when an edit adds syntax errors to a file.
var ErrStructure = errors.New("edit breaks preprocessor structure")

// Outline summarises the preprocessor skeleton of one file.
type Outline struct {
	ErrorNodes   int      `json:"error_nodes"`
	Conditionals int      `json:"conditionals"`
	Includes     int      `json:"includes"`
	Defines      []string `json:"defines,omitempty"`
}

// Analyzer wraps a tree-sitter parser configured for C. Not safe for concurrent use.
type Analyzer struct {
	parser *sitter.Parser
}

func NewAnalyzer() *Analyzer {
	p := sitter.NewParser()
	p.SetLanguage(c.GetLanguage())
	return &Analyzer{parser: p}
}

func (a *Analyzer) Outline(ctx context.Context, content []byte) (Outline, error) {
	tree, err := a.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return Outline{}, err
	}
	defer tree.Close()

	out := Outline{}
	collect(tree.RootNode(), content, &out)
	sort.Strings(out.Defines)
	return out, nil
}

// Guard compares two versions of a file and fails when after has more
// unparseable regions than before.
func (a *Analyzer) Guard(ctx context.Context, before, after string) error {
	prev, err := a.Outline(ctx, []byte(before))
	if err != nil {
		return fmt.Errorf("outline before edit: %w", err)
	}
	next, err := a.Outline(ctx, []byte(after))
	if err != nil {
		return fmt.Errorf("outline after edit: %w", err)
	}
	if next.ErrorNodes > prev.ErrorNodes {
		return fmt.Errorf("syntax error regions %d -> %d: %w", prev.ErrorNodes, next.ErrorNodes, ErrStructure)
	}
	return nil
}

// HasDefine reports whether name is #defined anywhere in the outline.
func (o Outline) HasDefine(name string) bool {
	i := sort.SearchStrings(o.Defines, name)
	return i < len(o.Defines) && o.Defines[i] == name
}

func collect(node *sitter.Node, content []byte, out *Outline) {
	if node == nil {
		return
	}
	if node.Type() == "ERROR" || node.IsMissing() {
		out.ErrorNodes++
	}

	switch node.Type() {
	case "preproc_if", "preproc_ifdef", "preproc_elif", "preproc_elifdef", "preproc_else":
		out.Conditionals++
	case "preproc_include":
		out.Includes++
	case "preproc_def", "preproc_function_def":
		if name := node.ChildByFieldName("name"); name != nil {
			out.Defines = append(out.Defines, name.Content(content))
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collect(node.Child(i), content, out)
	}
}
