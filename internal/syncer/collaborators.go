package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/morozRed/boardsync/internal/align"
	"github.com/morozRed/boardsync/internal/codegen"
	"github.com/morozRed/boardsync/internal/fileutil"
	"github.com/morozRed/boardsync/internal/insert"
	"github.com/morozRed/boardsync/internal/parser"
)

var includePattern = regexp.MustCompile(`^(\s*)#\s*include\s+"([^"]*)"`)

// openCollaborator reads a configured collaborator. A missing or unconfigured
// file yields a skipped outcome instead of a document.
func (s *Synchronizer) openCollaborator(role Role, req Request, rel string) (*parser.Document, *Outcome) {
	if strings.TrimSpace(rel) == "" {
		out := notRun(role, "", "not configured")
		return nil, &out
	}
	path := s.resolve(req, rel)
	if !fileutil.Exists(path) {
		out := skipped(role, path, fmt.Errorf("%s: %w", path, ErrCollaboratorMissing))
		return nil, &out
	}
	doc, err := parser.ReadDocument(path)
	if err != nil {
		out := failed(role, path, err)
		return nil, &out
	}
	return doc, nil
}

func (s *Synchronizer) syncCustomization(ctx context.Context, plan *primaryPlan, req Request) Outcome {
	doc, out := s.openCollaborator(RoleCustomization, req, s.cfg.Files.Customization)
	if out != nil {
		return *out
	}

	blocks := parser.ParseDocument(doc)
	if _, exists := parser.Find(blocks, req.NewName); exists {
		return skipped(RoleCustomization, doc.Path, fmt.Errorf("block %s in %s: %w", req.NewName, doc.Path, ErrAlreadyPresent))
	}
	ref, err := parser.MustFind(blocks, req.Reference)
	if err != nil {
		return failed(RoleCustomization, doc.Path, fmt.Errorf("%s: %w", doc.Path, err))
	}

	fields := s.cfg.Fields.Motors
	if len(req.Motors) > len(fields) {
		return failed(RoleCustomization, doc.Path, fmt.Errorf("%d motor types given but only %d motor fields configured", len(req.Motors), len(fields)))
	}

	lines := doc.Lines()
	profile := align.Compute(lines, ref.StartLine, ref.EndLine, fields[:len(req.Motors)])
	arm := []string{headerIndent(lines[ref.StartLine]) + "#elif " + req.NewName}
	for i, motor := range req.Motors {
		arm = append(arm, profile.Format(fields[i], motor))
	}

	line, err := insert.After(doc, ref)
	if err != nil {
		return failed(RoleCustomization, doc.Path, err)
	}
	return s.commit(ctx, RoleCustomization, doc, insert.Apply(doc, line, strings.Join(arm, "\n")), line, true, req.DryRun)
}

func (s *Synchronizer) syncBuildScript(ctx context.Context, plan *primaryPlan, req Request) Outcome {
	doc, out := s.openCollaborator(RoleBuildScript, req, s.cfg.Files.BuildScript)
	if out != nil {
		return *out
	}

	command := strings.ReplaceAll(s.cfg.Build.CommandTemplate, "{stem}", plan.ids.FileStem)
	for _, line := range doc.Lines() {
		if strings.TrimSpace(line) == command {
			return skipped(RoleBuildScript, doc.Path, fmt.Errorf("%q in %s: %w", command, doc.Path, ErrAlreadyPresent))
		}
	}

	return s.commit(ctx, RoleBuildScript, doc, insert.Append(doc, command), doc.LineCount(), false, req.DryRun)
}

func (s *Synchronizer) syncParameter(ctx context.Context, plan *primaryPlan, req Request) Outcome {
	doc, out := s.openCollaborator(RoleParameter, req, s.cfg.Files.Parameter)
	if out != nil {
		return *out
	}

	macro := plan.ids.EepromMacro
	blocks := parser.ParseDocument(doc)
	if _, exists := parser.Find(blocks, macro); exists {
		return skipped(RoleParameter, doc.Path, fmt.Errorf("arm %s in %s: %w", macro, doc.Path, ErrAlreadyPresent))
	}

	anchor, found := s.parameterAnchor(blocks, plan)
	lines := doc.Lines()

	var line int
	var arm []string
	if found {
		var err error
		line, err = insert.After(doc, anchor)
		if err != nil {
			return failed(RoleParameter, doc.Path, err)
		}
		arm = []string{
			headerIndent(lines[anchor.StartLine]) + "#elif " + macro,
			includeLine(lines[anchor.StartLine:anchor.EndLine+1], plan.ids.FileStem),
		}
	} else {
		elseLine, ok := insert.FirstDirective(doc, "else")
		if !ok {
			return failed(RoleParameter, doc.Path, fmt.Errorf("%s has no arm for %s and no #else: %w", doc.Path, macro, insert.ErrNoInsertionPoint))
		}
		line = elseLine
		arm = []string{
			headerIndent(lines[elseLine]) + "#elif " + macro,
			includeLine(nil, plan.ids.FileStem),
		}
		s.log.Warn("parameter anchor not found, inserting before #else")
	}

	return s.commit(ctx, RoleParameter, doc, insert.Apply(doc, line, strings.Join(arm, "\n")), line, true, req.DryRun)
}

// parameterAnchor finds the arm the new EEPROM entry goes after: the arm named
// by the reference block's own EEPROM macro, else the first arm of the same
// customer and model family.
func (s *Synchronizer) parameterAnchor(blocks []parser.ConditionalBlock, plan *primaryPlan) (parser.ConditionalBlock, bool) {
	if refMacro, ok := s.scheme.FindEepromMacro(plan.ref.RawText); ok {
		if block, ok := parser.Find(blocks, refMacro); ok {
			return block, true
		}
	}
	family := s.scheme.MacroFamily(plan.ids.Customer, plan.ids.BoardModel)
	for _, block := range blocks {
		if strings.HasPrefix(block.Name, family) {
			return block, true
		}
	}
	return parser.ConditionalBlock{}, false
}

func (s *Synchronizer) runCodegen(ctx context.Context, req Request, summary *Summary) Outcome {
	switch {
	case req.SkipCodegen:
		return notRun(RoleCodegen, "", "disabled")
	case req.DryRun:
		return notRun(RoleCodegen, "", "dry run")
	case len(summary.ChangedFiles) == 0:
		return notRun(RoleCodegen, "", "no file changed")
	case s.cfg.Codegen.Script == "":
		return notRun(RoleCodegen, "", "not configured")
	}

	timeout, err := s.cfg.CodegenTimeout()
	if err != nil {
		return failed(RoleCodegen, "", err)
	}

	runner := codegen.Runner{
		Interpreter: s.cfg.Codegen.Interpreter,
		Script:      s.cfg.Codegen.Script,
		Dir:         s.codegenDir(req),
		Timeout:     timeout,
	}
	result, err := runner.Run(ctx, s.log)
	if err != nil {
		if result.Command != nil {
			summary.Codegen = &result
			return failed(RoleCodegen, runner.ScriptPath(), err)
		}
		return skipped(RoleCodegen, runner.ScriptPath(), err)
	}
	summary.Codegen = &result
	return applied(RoleCodegen, runner.ScriptPath(), 0, false, "")
}

// codegenDir is codegen.dir when configured, else the build script's directory.
func (s *Synchronizer) codegenDir(req Request) string {
	if s.cfg.Codegen.Dir != "" {
		return s.resolve(req, s.cfg.Codegen.Dir)
	}
	if s.cfg.Files.BuildScript != "" {
		return filepath.Dir(s.resolve(req, s.cfg.Files.BuildScript))
	}
	return filepath.Dir(req.PrimaryPath)
}

func headerIndent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// includeLine renders the include for stem, reusing the indentation and
// directory of the first include found in body.
func includeLine(body []string, stem string) string {
	for _, line := range body {
		if m := includePattern.FindStringSubmatch(line); m != nil {
			dir := filepath.ToSlash(filepath.Dir(m[2]))
			if dir == "." {
				dir = ""
			} else {
				dir += "/"
			}
			return fmt.Sprintf(`%s#include "%s%s.h"`, m[1], dir, stem)
		}
	}
	return fmt.Sprintf(`#include "%s.h"`, stem)
}
