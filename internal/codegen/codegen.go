// Package codegen runs the packaged script that turns EEPROM images into headers.
package codegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ErrScriptMissing is returned when the configured script does not exist.
var ErrScriptMissing = errors.New("code generation script not found")

// Runner describes one invocation: the script runs inside Dir with no arguments.
type Runner struct {
	Interpreter string
	Script      string
	Dir         string
	Timeout     time.Duration // zero waits for completion
}

// Result is what the script reported. Output is surfaced, never parsed.
type Result struct {
	Command    []string `json:"command"`
	Dir        string   `json:"dir"`
	Stdout     string   `json:"stdout,omitempty"`
	Stderr     string   `json:"stderr,omitempty"`
	ExitCode   int      `json:"exit_code"`
	DurationMS int64    `json:"duration_ms"`
}

func (r Runner) ScriptPath() string {
	if filepath.IsAbs(r.Script) {
		return r.Script
	}
	return filepath.Join(r.Dir, r.Script)
}

func (r Runner) command() []string {
	if r.Interpreter == "" {
		return []string{r.ScriptPath()}
	}
	return []string{r.Interpreter, r.Script}
}

// Run executes the script. A non-zero exit status is returned as an error
// together with the captured output.
func (r Runner) Run(ctx context.Context, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	script := r.ScriptPath()
	if info, err := os.Stat(script); err != nil || info.IsDir() {
		return Result{}, fmt.Errorf("%s: %w", script, ErrScriptMissing)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	argv := r.command()
	result := Result{Command: argv, Dir: r.Dir}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info("running code generation", zap.Strings("command", argv), zap.String("dir", r.Dir))
	start := time.Now()
	err := cmd.Run()
	result.DurationMS = time.Since(start).Milliseconds()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			logger.Error("code generation failed", zap.Int("exit_code", result.ExitCode), zap.String("stderr", result.Stderr))
			return result, fmt.Errorf("%s exited with status %d", filepath.Base(script), result.ExitCode)
		}
		result.ExitCode = -1
		logger.Error("code generation could not run", zap.Error(err))
		return result, fmt.Errorf("failed to run %s: %w", filepath.Base(script), err)
	}

	logger.Info("code generation finished", zap.Int64("duration_ms", result.DurationMS))
	return result, nil
}
