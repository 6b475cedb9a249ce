package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const MaxCodeNameLength = 30

var (
	blockNamePattern       = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
	softwareVersionPattern = regexp.MustCompile(`^0x[0-9A-Fa-f]{8}$`)
	eepromVersionPattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

func ValidateBlockName(name string) error {
	if !blockNamePattern.MatchString(name) {
		return fmt.Errorf("invalid block name %q: use uppercase letters, digits and '_', starting with a letter or '_'", name)
	}
	return nil
}

// ValidateSoftwareVersion accepts an empty value (the field is optional).
func ValidateSoftwareVersion(version string) error {
	if version == "" {
		return nil
	}
	if !softwareVersionPattern.MatchString(version) {
		return fmt.Errorf("invalid software version %q: expected 0x followed by 8 hex digits", version)
	}
	return nil
}

func ValidateEepromVersion(version string) error {
	if version == "" {
		return fmt.Errorf("eeprom version: %w", ErrMissingField)
	}
	if !eepromVersionPattern.MatchString(version) {
		return fmt.Errorf("invalid eeprom version %q: expected letters and digits only", version)
	}
	return nil
}

func ValidateCodeName(name string) error {
	if utf8.RuneCountInString(name) > MaxCodeNameLength {
		return fmt.Errorf("code name %q exceeds %d characters", name, MaxCodeNameLength)
	}
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("code name must be a single line")
	}
	return nil
}
