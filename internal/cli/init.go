package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/boardsync/internal/config"
	"github.com/morozRed/boardsync/internal/fileutil"
)

func RunInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		if dir, err = resolvePath(args[0]); err != nil {
			return err
		}
	}

	data, err := config.DefaultConfig().Marshal()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, config.FileName)
	created, err := fileutil.WriteIfMissing(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if !created {
		fmt.Printf("Config already exists at %s\n", path)
		return nil
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}
