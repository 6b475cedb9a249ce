package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "boardsync",
		Short: "Add board variants to conditional C configuration files",
		Long: `Boardsync clones one arm of an #if/#elif chain in a board configuration
header under a new name, rewrites its version and EEPROM fields, and
propagates the new board to the customization header, the EEPROM build
script and the EEPROM parameter header.

Every file keeps its line endings and all bytes outside the inserted lines.`,
		SilenceUsage: true,
	}

	// Edit Commands
	addCmd := &cobra.Command{
		Use:   "add <primary>",
		Short: "Add a new board arm based on an existing one",
		Args:  cobra.ExactArgs(1),
		RunE:  RunAdd,
	}
	addCmd.Flags().String("ref", "", "Name of the reference block to clone (required)")
	addCmd.Flags().String("name", "", "Name of the new block (required)")
	addCmd.Flags().String("eeprom-version", "", "EEPROM data version used in the EEPROM macro (required)")
	addCmd.Flags().String("sw-version", "", "Software version, 0x followed by 8 hex digits")
	addCmd.Flags().String("code-name", "", "Code name written as a quoted string")
	addCmd.Flags().String("customer", "", "Customer token (default: prefix of the first block)")
	addCmd.Flags().StringArray("motor", nil, "Motor type for the customization header (repeat for motor 2)")
	addCmd.Flags().Bool("dry-run", false, "Compute every edit without writing files")
	addCmd.Flags().Bool("no-codegen", false, "Skip the code generation script")
	addCmd.Flags().Bool("json", false, "Print machine-readable run summary")
	addCmd.Flags().String("config", "", "Config file (default: .boardsync.yaml next to the primary file)")
	addCmd.Flags().BoolP("verbose", "v", false, "Log every step at debug level")
	_ = addCmd.MarkFlagRequired("ref")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("eeprom-version")

	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default .boardsync.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunInit,
	}

	// Inspect Commands
	blocksCmd := &cobra.Command{
		Use:   "blocks <file>",
		Short: "List the top-level #if/#elif arms of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  RunBlocks,
	}
	blocksCmd.Flags().Bool("json", false, "Print machine-readable block list")

	doctorCmd := &cobra.Command{
		Use:   "doctor <primary>",
		Short: "Check the primary file, its collaborators and the codegen script",
		Args:  cobra.ExactArgs(1),
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")
	doctorCmd.Flags().String("config", "", "Config file (default: .boardsync.yaml next to the primary file)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "boardsync %s\n", version)
		},
	}

	rootCmd.AddCommand(
		addCmd,
		initCmd,
		blocksCmd,
		doctorCmd,
		versionCmd,
	)

	return rootCmd
}
