package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morozRed/boardsync/internal/fileutil"
	"github.com/morozRed/boardsync/internal/naming"
	"github.com/morozRed/boardsync/internal/parser"
)

type BlockInfo struct {
	Name       string `json:"name"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Lines      int    `json:"lines"`
	BoardModel string `json:"board_model,omitempty"`
	Pattern    string `json:"pattern,omitempty"`
}

type BlocksSummary struct {
	Mode   string      `json:"mode"`
	Path   string      `json:"path"`
	EOL    string      `json:"eol"`
	Hash   string      `json:"hash"`
	Blocks []BlockInfo `json:"blocks"`
}

func RunBlocks(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("blocks expects exactly one file")
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	file, err := parser.ParseFile(args[0])
	if err != nil {
		return err
	}

	summary := BlocksSummary{
		Mode:   "blocks",
		Path:   file.Path,
		EOL:    eolName(file.Document.EOL),
		Hash:   file.Hash,
		Blocks: make([]BlockInfo, 0, len(file.Blocks)),
	}
	for _, block := range file.Blocks {
		info := BlockInfo{
			Name:      block.Name,
			StartLine: block.StartLine + 1,
			EndLine:   block.EndLine + 1,
			Lines:     block.LineCount(),
		}
		info.BoardModel, info.Pattern, _ = naming.MatchBoardModel(block.Name)
		summary.Blocks = append(summary.Blocks, info)
	}

	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	fmt.Printf("blocks: %s eol=%s count=%d\n", summary.Path, summary.EOL, len(summary.Blocks))
	for _, block := range summary.Blocks {
		model := styleMuted.Render("no board model")
		if block.BoardModel != "" {
			model = fmt.Sprintf("%s (%s)", block.BoardModel, block.Pattern)
		}
		fmt.Printf("  %4d-%-4d %s %s\n", block.StartLine, block.EndLine, block.Name, model)
	}
	return nil
}

func eolName(eol string) string {
	if eol == parser.EOLCRLF {
		return "crlf"
	}
	return "lf"
}
