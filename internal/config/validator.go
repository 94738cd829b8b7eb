package config

import (
	"errors"
	"fmt"

	lcierrors "github.com/standardbeagle/langd/internal/errors"
)

// Validator validates configuration and sets smart defaults.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Returns an error if validation fails.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return lcierrors.NewConfigError("project", "", err)
	}

	if err := v.validateWatchConfig(&cfg.Watch); err != nil {
		return lcierrors.NewConfigError("watch", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateWatchConfig(watch *Watch) error {
	if watch.DebounceMs < 0 {
		return fmt.Errorf("DebounceMs cannot be negative, got %d", watch.DebounceMs)
	}
	return nil
}

// setSmartDefaults applies smart defaults when a value was left at its zero
// value by the KDL parser.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Project.Name == "" {
		cfg.Project.Name = "project"
	}

	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 300
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
