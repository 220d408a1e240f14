package common

import (
	"fmt"
	"net/mail"
	"slices"

	"hybridhunter/internal/errors"
	"hybridhunter/internal/ranking"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats), nil)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}

// ValidateCriteria checks user supplied selection overrides. A nil
// criteria means the configured one is used and is always valid.
func ValidateCriteria(c *ranking.Criteria) error {
	if c == nil {
		return nil
	}
	if c.MinScore < 0 || c.MinScore > 100 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("minimum score must be between 0 and 100, got %d", c.MinScore), nil)
	}
	if c.MaxCount < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("maximum results must not be negative, got %d", c.MaxCount), nil)
	}
	return nil
}

// ValidateDestination checks a delivery address. Empty means no delivery.
func ValidateDestination(address string) error {
	if address == "" {
		return nil
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid email address '%s'", address), err)
	}
	return nil
}
