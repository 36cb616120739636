package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers Rampart-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// duration: validates Go duration strings like "10s", "5m", "24h".
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateDuration validates a positive Go duration string.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// Validate validates the Config using struct tags and custom cross-field
// rules. Returns an error with actionable messages on failure.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateSalt(); err != nil {
		return err
	}
	if err := c.validateCategoryNames(); err != nil {
		return err
	}
	if err := c.validateAdminTokenHash(); err != nil {
		return err
	}
	return nil
}

// validateSalt enforces the production salt requirement: a missing hash salt
// must fail at boot, never degrade per request.
func (c *Config) validateSalt() error {
	if c.Identity.HashSalt == "" && !c.DevMode {
		return errors.New("identity.hash_salt is required (set dev_mode: true to use the built-in dev salt)")
	}
	return nil
}

// validateCategoryNames ensures category names are unique so the policy
// table cannot silently shadow a policy.
func (c *Config) validateCategoryNames() error {
	seen := make(map[string]struct{}, len(c.Categories))
	for i, cat := range c.Categories {
		if _, dup := seen[cat.Name]; dup {
			return fmt.Errorf("categories[%d]: duplicate category name %q", i, cat.Name)
		}
		seen[cat.Name] = struct{}{}
	}
	return nil
}

// validateAdminTokenHash checks that a configured admin token hash is an
// argon2id encoding, catching a pasted plaintext token at boot.
func (c *Config) validateAdminTokenHash() error {
	if c.Admin.TokenHash != "" && !strings.HasPrefix(c.Admin.TokenHash, "$argon2id$") {
		return errors.New("admin.token_hash must be an argon2id hash (generate with: rampart hash-token)")
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError turns one field error into an actionable message.
func formatSingleValidationError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	field = strings.TrimPrefix(field, "config.")

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a host:port address", field)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration (e.g., \"10s\", \"5m\")", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}
