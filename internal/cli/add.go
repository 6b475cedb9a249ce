package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morozRed/boardsync/internal/syncer"
)

func RunAdd(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("add expects exactly one primary file")
	}
	primary, err := resolvePath(args[0])
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	req, err := RequestFromFlags(cmd, primary)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, primary)
	if err != nil {
		return err
	}
	run, err := newRunLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer run.Sync()

	summary, runErr := syncer.New(cfg, run).Run(commandContext(cmd), req)
	if len(summary.Outcomes) > 0 {
		if err := PrintAddSummary(summary, asJSON); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	if failed := summary.Count(syncer.StatusFailed); failed > 0 {
		return fmt.Errorf("%d step(s) failed", failed)
	}
	return nil
}
