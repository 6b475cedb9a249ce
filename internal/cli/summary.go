package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morozRed/boardsync/internal/fileutil"
	"github.com/morozRed/boardsync/internal/syncer"
)

var (
	styleApplied = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"})
	styleSkipped = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"})
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"})
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"})
)

func renderStatus(status syncer.Status) string {
	label := fmt.Sprintf("%-7s", status)
	switch status {
	case syncer.StatusApplied:
		return styleApplied.Render(label)
	case syncer.StatusSkipped:
		return styleSkipped.Render(label)
	case syncer.StatusFailed:
		return styleFailed.Render(label)
	default:
		return label
	}
}

func PrintAddSummary(summary *syncer.Summary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	mode := "add"
	if summary.DryRun {
		mode = "add (dry-run)"
	}
	fmt.Printf("%s: %s -> %s applied=%d skipped=%d failed=%d duration=%dms\n",
		mode,
		summary.Reference,
		summary.NewName,
		summary.Count(syncer.StatusApplied),
		summary.Count(syncer.StatusSkipped),
		summary.Count(syncer.StatusFailed),
		summary.DurationMS,
	)
	if ids := summary.Identifiers; ids.EepromMacro != "" {
		fmt.Printf("model: %s (%s) customer=%s eeprom=%s stem=%s\n", ids.BoardModel, ids.ModelPattern, ids.Customer, ids.EepromMacro, ids.FileStem)
	}

	for _, outcome := range summary.Outcomes {
		parts := []string{fmt.Sprintf("  %-13s %s", outcome.Role, renderStatus(outcome.Status))}
		if outcome.File != "" {
			location := outcome.File
			if outcome.Line > 0 {
				location = fmt.Sprintf("%s:%d", outcome.File, outcome.Line)
			}
			parts = append(parts, location)
		}
		if outcome.Kind != "" {
			parts = append(parts, "["+outcome.Kind+"]")
		}
		if outcome.Reason != "" {
			parts = append(parts, styleMuted.Render(outcome.Reason))
		}
		fmt.Println(strings.Join(parts, " "))
	}

	if len(summary.ChangedFiles) > 0 {
		fmt.Printf("changed files (%d): %s\n", len(summary.ChangedFiles), SummarizePaths(summary.ChangedFiles, 8))
	}
	if cg := summary.Codegen; cg != nil {
		fmt.Printf("codegen: %s exit=%d duration=%dms\n", strings.Join(cg.Command, " "), cg.ExitCode, cg.DurationMS)
		if out := strings.TrimSpace(cg.Stdout); out != "" {
			fmt.Println(out)
		}
		if errOut := strings.TrimSpace(cg.Stderr); errOut != "" {
			fmt.Println(styleFailed.Render(errOut))
		}
	}
	if summary.Warnings > 0 || summary.Errors > 0 {
		fmt.Printf("log: warnings=%d errors=%d run=%s\n", summary.Warnings, summary.Errors, summary.RunID)
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
