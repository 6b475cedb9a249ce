package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/boardsync/internal/config"
	"github.com/morozRed/boardsync/internal/cpp"
	"github.com/morozRed/boardsync/internal/fileutil"
	"github.com/morozRed/boardsync/internal/parser"
)

type FileReport struct {
	Role    string       `json:"role"`
	Path    string       `json:"path"`
	Present bool         `json:"present"`
	EOL     string       `json:"eol,omitempty"`
	Hash    string       `json:"hash,omitempty"`
	Blocks  int          `json:"blocks"`
	Outline *cpp.Outline `json:"outline,omitempty"`
}

type DoctorSummary struct {
	Mode          string       `json:"mode"`
	PrimaryPath   string       `json:"primary_path"`
	ConfigPath    string       `json:"config_path"`
	ConfigFound   bool         `json:"config_found"`
	Healthy       bool         `json:"healthy"`
	Files         []FileReport `json:"files"`
	CodegenScript string       `json:"codegen_script,omitempty"`
	CodegenFound  bool         `json:"codegen_found"`
	Missing       []string     `json:"missing,omitempty"`
	Suggestions   []string     `json:"suggestions,omitempty"`
}

func RunDoctor(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("doctor expects exactly one primary file")
	}
	primary, err := resolvePath(args[0])
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	explicit, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, primary)
	if err != nil {
		return err
	}

	summary := DoctorSummary{
		Mode:        "doctor",
		PrimaryPath: primary,
		ConfigPath:  explicit,
	}
	if summary.ConfigPath == "" {
		summary.ConfigPath = filepath.Join(filepath.Dir(primary), config.FileName)
	}
	summary.ConfigFound = fileutil.Exists(summary.ConfigPath)

	roles := []struct {
		role string
		path string
	}{
		{"primary", primary},
		{"customization", config.Resolve(primary, cfg.Files.Customization)},
		{"build_script", config.Resolve(primary, cfg.Files.BuildScript)},
		{"parameter", config.Resolve(primary, cfg.Files.Parameter)},
	}
	paths := make([]string, 0, len(roles))
	for _, r := range roles {
		if r.path != "" {
			paths = append(paths, r.path)
		}
	}
	hashes, err := fileutil.HashFiles(paths)
	if err != nil {
		return fmt.Errorf("failed to hash files: %w", err)
	}

	analyzer := cpp.NewAnalyzer()
	ctx := commandContext(cmd)
	for _, r := range roles {
		if r.path == "" {
			continue
		}
		report := FileReport{Role: r.role, Path: r.path, Hash: hashes[r.path]}
		if report.Hash == "" {
			summary.Missing = append(summary.Missing, r.role+" file "+r.path)
			if r.role == "primary" {
				summary.Suggestions = append(summary.Suggestions, "check the primary file path")
			}
			summary.Files = append(summary.Files, report)
			continue
		}
		report.Present = true

		doc, err := parser.ReadDocument(r.path)
		if err != nil {
			return err
		}
		report.EOL = eolName(doc.EOL)
		report.Blocks = len(parser.ParseDocument(doc))
		if r.role == "primary" && report.Blocks == 0 {
			summary.Missing = append(summary.Missing, "conditional blocks in primary file")
		}

		// The build script is not C.
		if r.role != "build_script" {
			outline, err := analyzer.Outline(ctx, []byte(doc.Content))
			if err != nil {
				return fmt.Errorf("failed to outline %s: %w", r.path, err)
			}
			report.Outline = &outline
			if outline.ErrorNodes > 0 {
				summary.Suggestions = append(summary.Suggestions, fmt.Sprintf("%s has %d syntax error region(s); new arms are still accepted if they add none", filepath.Base(r.path), outline.ErrorNodes))
			}
		}
		summary.Files = append(summary.Files, report)
	}

	if cfg.Codegen.Script != "" {
		dir := filepath.Dir(primary)
		if cfg.Codegen.Dir != "" {
			dir = config.Resolve(primary, cfg.Codegen.Dir)
		} else if cfg.Files.BuildScript != "" {
			dir = filepath.Dir(config.Resolve(primary, cfg.Files.BuildScript))
		}
		summary.CodegenScript = cfg.Codegen.Script
		if !filepath.IsAbs(summary.CodegenScript) {
			summary.CodegenScript = filepath.Join(dir, summary.CodegenScript)
		}
		summary.CodegenFound = fileutil.Exists(summary.CodegenScript)
		if !summary.CodegenFound {
			summary.Suggestions = append(summary.Suggestions, "run add with --no-codegen or install "+filepath.Base(summary.CodegenScript))
		}
	}
	if !summary.ConfigFound {
		summary.Suggestions = append(summary.Suggestions, "run boardsync init to write "+config.FileName)
	}

	summary.Missing = fileutil.DedupeStrings(summary.Missing)
	sort.Strings(summary.Missing)
	summary.Suggestions = fileutil.DedupeStrings(summary.Suggestions)
	sort.Strings(summary.Suggestions)
	summary.Healthy = len(summary.Missing) == 0

	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	status := styleFailed.Render("issues")
	if summary.Healthy {
		status = styleApplied.Render("ok")
	}
	fmt.Printf("doctor: %s\n", status)
	fmt.Printf("config: %s found=%t\n", summary.ConfigPath, summary.ConfigFound)
	for _, report := range summary.Files {
		if !report.Present {
			fmt.Printf("  %-13s %s %s\n", report.Role, styleSkipped.Render("missing"), report.Path)
			continue
		}
		line := fmt.Sprintf("  %-13s %s eol=%s blocks=%d", report.Role, report.Path, report.EOL, report.Blocks)
		if report.Outline != nil {
			line += fmt.Sprintf(" conditionals=%d includes=%d defines=%d errors=%d",
				report.Outline.Conditionals,
				report.Outline.Includes,
				len(report.Outline.Defines),
				report.Outline.ErrorNodes,
			)
		}
		fmt.Println(line)
	}
	if summary.CodegenScript != "" {
		fmt.Printf("codegen: %s found=%t\n", summary.CodegenScript, summary.CodegenFound)
	}
	if len(summary.Missing) > 0 {
		fmt.Printf("missing (%d): %s\n", len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Printf("next: %s\n", suggestion)
	}
	return nil
}
