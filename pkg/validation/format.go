// Package validation provides common validation utilities for command-line
// and configuration options.
package validation

import (
	"fmt"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateLogFormat checks the logging encoder name.
func ValidateLogFormat(format string) error {
	switch format {
	case "json", "console":
		return nil
	}
	return fmt.Errorf("invalid log format: %s", format)
}

// ValidateRecorderDriver checks the recorder driver name. Empty means none.
func ValidateRecorderDriver(driver string) error {
	switch driver {
	case "", "none", "sqlite":
		return nil
	}
	return fmt.Errorf("expected recorder driver of none or sqlite, got %s", driver)
}
