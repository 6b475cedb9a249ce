package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/boardsync/internal/syncer"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func OptionalBoolFlag(cmd *cobra.Command, name string, defaultValue bool) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func OptionalStringArrayFlag(cmd *cobra.Command, name string) ([]string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return nil, nil
	}
	values, err := cmd.Flags().GetStringArray(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out, nil
}

// RequestFromFlags builds a synchronizer request for the add command.
func RequestFromFlags(cmd *cobra.Command, primary string) (syncer.Request, error) {
	req := syncer.Request{PrimaryPath: primary}

	strs := []struct {
		flag   string
		target *string
	}{
		{"ref", &req.Reference},
		{"name", &req.NewName},
		{"eeprom-version", &req.EepromVersion},
		{"sw-version", &req.SoftwareVersion},
		{"code-name", &req.CodeName},
		{"customer", &req.Customer},
	}
	for _, s := range strs {
		value, err := OptionalStringFlag(cmd, s.flag)
		if err != nil {
			return req, err
		}
		*s.target = value
	}
	req.Customer = strings.ToUpper(req.Customer)

	motors, err := OptionalStringArrayFlag(cmd, "motor")
	if err != nil {
		return req, err
	}
	req.Motors = motors

	if req.DryRun, err = OptionalBoolFlag(cmd, "dry-run", false); err != nil {
		return req, err
	}
	if req.SkipCodegen, err = OptionalBoolFlag(cmd, "no-codegen", false); err != nil {
		return req, err
	}
	return req, req.Validate()
}
