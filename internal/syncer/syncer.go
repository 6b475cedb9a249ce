// Package syncer propagates a new board arm from the primary config file to
// its collaborator files. Steps run one after another; each returns an
// Outcome and a failing collaborator never undoes earlier writes.
package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/morozRed/boardsync/internal/config"
	"github.com/morozRed/boardsync/internal/cpp"
	"github.com/morozRed/boardsync/internal/fileutil"
	"github.com/morozRed/boardsync/internal/insert"
	"github.com/morozRed/boardsync/internal/logging"
	"github.com/morozRed/boardsync/internal/naming"
	"github.com/morozRed/boardsync/internal/parser"
	"github.com/morozRed/boardsync/internal/synth"
)

// Request carries the already-validated values for one new arm.
type Request struct {
	PrimaryPath     string
	Reference       string
	NewName         string
	Customer        string // defaults to the primary file's common prefix
	SoftwareVersion string
	EepromVersion   string
	CodeName        string
	Motors          []string
	DryRun          bool
	SkipCodegen     bool
}

func (r Request) Validate() error {
	if r.PrimaryPath == "" {
		return fmt.Errorf("primary file path is required")
	}
	if r.Reference == "" {
		return fmt.Errorf("reference block name is required")
	}
	if err := naming.ValidateBlockName(r.NewName); err != nil {
		return err
	}
	if r.NewName == r.Reference {
		return fmt.Errorf("new block name must differ from the reference %q", r.Reference)
	}
	if err := naming.ValidateSoftwareVersion(r.SoftwareVersion); err != nil {
		return err
	}
	if err := naming.ValidateEepromVersion(r.EepromVersion); err != nil {
		return err
	}
	if err := naming.ValidateCodeName(r.CodeName); err != nil {
		return err
	}
	if len(r.Motors) > 2 {
		return fmt.Errorf("at most two motor types are supported, got %d", len(r.Motors))
	}
	for _, motor := range r.Motors {
		if err := naming.ValidateBlockName(motor); err != nil {
			return fmt.Errorf("motor type: %w", err)
		}
	}
	return nil
}

// Synchronizer owns one run's logger and configuration.
type Synchronizer struct {
	cfg      *config.Config
	run      *logging.Run
	log      *zap.Logger
	scheme   naming.Scheme
	analyzer *cpp.Analyzer
}

func New(cfg *config.Config, run *logging.Run) *Synchronizer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if run == nil {
		run = logging.Nop()
	}
	return &Synchronizer{
		cfg:      cfg,
		run:      run,
		log:      run.Logger,
		scheme:   cfg.Scheme(),
		analyzer: cpp.NewAnalyzer(),
	}
}

// primaryPlan is everything derived from the primary file before anything is written.
type primaryPlan struct {
	file    *parser.FileBlocks
	ref     parser.ConditionalBlock
	ids     Identifiers
	synth   synth.Result
	updated *parser.Document
	line    int
	skip    error
}

// Run applies the request. It returns an error only when the primary file
// cannot be planned or written; collaborator problems end up in the summary.
func (s *Synchronizer) Run(ctx context.Context, req Request) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:       s.run.ID,
		PrimaryPath: req.PrimaryPath,
		Reference:   req.Reference,
		NewName:     req.NewName,
		DryRun:      req.DryRun,
	}
	defer func() {
		summary.DurationMS = time.Since(start).Milliseconds()
		summary.Warnings = s.run.Count(zapcore.WarnLevel) - s.run.Count(zapcore.ErrorLevel)
		summary.Errors = s.run.Count(zapcore.ErrorLevel)
	}()

	s.log.Info("synchronization started",
		zap.String("primary", req.PrimaryPath),
		zap.String("reference", req.Reference),
		zap.String("new_name", req.NewName),
		zap.Bool("dry_run", req.DryRun))

	if err := req.Validate(); err != nil {
		s.log.Error("request rejected", zap.Error(err))
		return summary, err
	}

	plan, err := s.planPrimary(ctx, req)
	if err != nil {
		s.record(summary, failed(RolePrimary, req.PrimaryPath, err))
		return summary, err
	}
	summary.Identifiers = plan.ids

	primary := s.commitPrimary(plan, req.DryRun)
	s.record(summary, primary)
	if primary.Status == StatusFailed {
		return summary, primary.Err()
	}

	for _, step := range []func(context.Context, *primaryPlan, Request) Outcome{
		s.syncCustomization,
		s.syncBuildScript,
		s.syncParameter,
	} {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		s.record(summary, step(ctx, plan, req))
	}

	s.record(summary, s.runCodegen(ctx, req, summary))
	return summary, nil
}

func (s *Synchronizer) planPrimary(ctx context.Context, req Request) (*primaryPlan, error) {
	file, err := parser.ParseFile(req.PrimaryPath)
	if err != nil {
		return nil, err
	}
	s.log.Debug("primary parsed", zap.String("file", file.Path), zap.Int("blocks", len(file.Blocks)))

	ref, err := parser.MustFind(file.Blocks, req.Reference)
	if err != nil {
		return nil, err
	}

	model, pattern, ok := naming.MatchBoardModel(ref.Name)
	if !ok {
		return nil, fmt.Errorf("board model of %q: %w", ref.Name, naming.ErrExtraction)
	}

	customer := req.Customer
	if customer == "" {
		customer, err = naming.CommonPrefix(file.Blocks)
		if err != nil {
			return nil, err
		}
	}

	macro, err := s.scheme.EepromMacro(customer, model, req.EepromVersion)
	if err != nil {
		return nil, err
	}

	plan := &primaryPlan{
		file: file,
		ref:  ref,
		ids: Identifiers{
			BoardModel:   model,
			ModelPattern: pattern,
			Customer:     customer,
			EepromMacro:  macro,
			FileStem:     s.scheme.FileStem(macro),
		},
	}
	s.log.Info("identifiers derived",
		zap.String("board_model", model),
		zap.String("pattern", pattern),
		zap.String("customer", customer),
		zap.String("eeprom_macro", macro))

	if _, exists := parser.Find(file.Blocks, req.NewName); exists {
		plan.skip = fmt.Errorf("block %s in %s: %w", req.NewName, file.Path, ErrAlreadyPresent)
		return plan, nil
	}

	plan.synth, err = synth.Synthesize(ref, req.NewName, synth.Updates{
		SoftwareVersion: req.SoftwareVersion,
		CodeName:        req.CodeName,
		EepromMacro:     macro,
	}, s.cfg.SynthFields())
	if err != nil {
		return nil, err
	}
	for _, change := range plan.synth.Changes {
		s.log.Debug("field rewritten", zap.String("field", change.Field), zap.String("action", string(change.Action)))
	}

	plan.line, err = insert.After(file.Document, ref)
	if err != nil {
		return nil, err
	}
	plan.updated = insert.Apply(file.Document, plan.line, plan.synth.Text)

	if err := s.analyzer.Guard(ctx, file.Document.Content, plan.updated.Content); err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	return plan, nil
}

func (s *Synchronizer) commitPrimary(plan *primaryPlan, dryRun bool) Outcome {
	if plan.skip != nil {
		return skipped(RolePrimary, plan.file.Path, plan.skip)
	}
	return s.write(RolePrimary, plan.updated, plan.line, dryRun)
}

// commit guards a collaborator edit and writes it.
func (s *Synchronizer) commit(ctx context.Context, role Role, before, after *parser.Document, line int, guard, dryRun bool) Outcome {
	if guard {
		if err := s.analyzer.Guard(ctx, before.Content, after.Content); err != nil {
			return failed(role, before.Path, fmt.Errorf("%s: %w", before.Path, err))
		}
	}
	return s.write(role, after, line, dryRun)
}

func (s *Synchronizer) write(role Role, doc *parser.Document, line int, dryRun bool) Outcome {
	if dryRun {
		return applied(role, doc.Path, line+1, false, "dry run")
	}
	written, err := fileutil.WriteIfChangedTracked(doc.Path, []byte(doc.Content))
	if err != nil {
		return failed(role, doc.Path, fmt.Errorf("failed to write %s: %w", doc.Path, err))
	}
	return applied(role, doc.Path, line+1, written, "")
}

func (s *Synchronizer) record(summary *Summary, outcome Outcome) {
	summary.Outcomes = append(summary.Outcomes, outcome)
	if outcome.Written {
		summary.ChangedFiles = fileutil.DedupeStrings(append(summary.ChangedFiles, outcome.File))
	}

	fields := []zap.Field{
		zap.String("role", string(outcome.Role)),
		zap.String("file", outcome.File),
		zap.String("status", string(outcome.Status)),
	}
	if outcome.Kind != "" {
		fields = append(fields, zap.String("kind", outcome.Kind))
	}
	if outcome.Line > 0 {
		fields = append(fields, zap.Int("line", outcome.Line))
	}

	switch outcome.Status {
	case StatusApplied:
		s.log.Info("step applied", fields...)
	case StatusSkipped:
		s.log.Warn("step skipped", append(fields, zap.String("reason", outcome.Reason))...)
	case StatusFailed:
		s.log.Error("step failed", append(fields, zap.Error(outcome.Err()))...)
	}
}

func (s *Synchronizer) resolve(req Request, rel string) string {
	return filepath.Clean(config.Resolve(req.PrimaryPath, rel))
}
