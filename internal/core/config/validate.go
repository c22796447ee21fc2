package config

import (
	"fmt"
	"os"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue. Field uses
// the same dotted keys as the field errors from ValidateDeep.
type ValidationWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration.
// Unlike Validate, it checks file access and reports every problem at once
// as criterio.FieldErrors.
func (c *Config) ValidateDeep(configPath string) error {
	var errs criterio.FieldErrorsBuilder

	errs = c.validateFileAccess(errs, configPath)
	errs = c.validateHistory(errs)

	if c.Composer.CharLimit < 0 {
		errs = errs.Append("composer.char_limit", fmt.Errorf("cannot be negative, got %d", c.Composer.CharLimit))
	}

	return errs.ToError()
}

// Warnings returns non-fatal issues with the configuration.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.History.Backend == BackendMemory {
		warnings = append(warnings, ValidationWarning{
			Field:   "history.backend",
			Message: "memory backend selected; history is lost when quill exits",
		})
	}

	if c.History.PreloadCap < c.History.RetentionMax {
		warnings = append(warnings, ValidationWarning{
			Field:   "history.preload_cap",
			Message: fmt.Sprintf("preload_cap (%d) is below retention_max (%d); older retained entries cannot be recalled",
				c.History.PreloadCap, c.History.RetentionMax),
		})
	}

	return warnings
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(errs criterio.FieldErrorsBuilder, configPath string) criterio.FieldErrorsBuilder {
	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil {
			if info.IsDir() {
				errs = errs.Append("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
			}
		} else if !os.IsNotExist(err) {
			errs = errs.Append("config_file", fmt.Errorf("cannot access %s: %w", configPath, err))
		}
	}

	if c.DataDir == "" {
		return errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}

	info, err := os.Stat(c.DataDir)
	switch {
	case err == nil && !info.IsDir():
		errs = errs.Append("data_dir", fmt.Errorf("%s exists but is not a directory", c.DataDir))
	case err != nil && !os.IsNotExist(err):
		errs = errs.Append("data_dir", fmt.Errorf("cannot access %s: %w", c.DataDir, err))
	}

	return errs
}

// validateHistory checks the history bounds and backend name.
func (c *Config) validateHistory(errs criterio.FieldErrorsBuilder) criterio.FieldErrorsBuilder {
	if c.History.RetentionMax < 1 {
		errs = errs.Append("history.retention_max", fmt.Errorf("must be at least 1, got %d", c.History.RetentionMax))
	}

	if c.History.PreloadCap < 1 {
		errs = errs.Append("history.preload_cap", fmt.Errorf("must be at least 1, got %d", c.History.PreloadCap))
	}

	if !isValidBackend(c.History.Backend) {
		errs = errs.Append("history.backend", fmt.Errorf("invalid backend %q, use %q or %q", c.History.Backend, BackendAuto, BackendMemory))
	}

	return errs
}
