package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/boardsync/internal/config"
	"github.com/morozRed/boardsync/internal/logging"
)

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func loadConfig(cmd *cobra.Command, primary string) (*config.Config, error) {
	explicit, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return nil, err
	}
	return config.LoadForPrimary(primary, explicit)
}

// newRunLogger writes log entries to stderr so stdout stays parseable with --json.
func newRunLogger(cmd *cobra.Command, cfg *config.Config) (*logging.Run, error) {
	verbose, err := OptionalBoolFlag(cmd, "verbose", false)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.NewRun(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}
