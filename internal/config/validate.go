package config

import (
	"fmt"
	"strings"
)

// ValidationError lists every configuration problem found at startup.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// IsPlaceholder reports whether v looks like an unfilled template value
// copied from an example env file.
func IsPlaceholder(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	switch {
	case s == "":
		return false
	case strings.HasPrefix(s, "your_"), strings.HasPrefix(s, "your-"):
		return true
	case strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}"):
		return true
	case s == "changeme", s == "change_me", s == "placeholder", s == "xxx":
		return true
	}
	return false
}

// Validate checks required credentials. Optional integrations (storage,
// razorpay) are only checked when at least one of their values is set.
func (c *Config) Validate() error {
	var problems []string

	required := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, fmt.Sprintf("%s is not set", name))
		} else if IsPlaceholder(value) {
			problems = append(problems, fmt.Sprintf("%s still holds a placeholder value", name))
		}
	}
	optional := func(name, value string) {
		if IsPlaceholder(value) {
			problems = append(problems, fmt.Sprintf("%s still holds a placeholder value", name))
		}
	}

	required("JWT_SECRET", c.JWT.Secret)
	if len(c.JWT.Secret) > 0 && len(c.JWT.Secret) < 16 && !IsPlaceholder(c.JWT.Secret) {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}

	if c.Database.URL != "" {
		optional("DATABASE_URL", c.Database.URL)
	} else {
		required("DB_HOST", c.Database.Host)
		required("DB_NAME", c.Database.Name)
		optional("DB_PASSWORD", c.Database.Password)
	}

	optional("SERVICE_ROLE_KEY", c.Auth.ServiceRoleKey)

	if c.StorageEnabled() {
		required("STORAGE_ENDPOINT", c.Storage.Endpoint)
		required("STORAGE_ACCESS_KEY", c.Storage.AccessKey)
		required("STORAGE_SECRET_KEY", c.Storage.SecretKey)
	}
	if c.Razorpay.KeyID != "" || c.Razorpay.KeySecret != "" {
		required("RAZORPAY_KEY_ID", c.Razorpay.KeyID)
		required("RAZORPAY_KEY_SECRET", c.Razorpay.KeySecret)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d is out of range", c.Server.Port))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// StorageEnabled reports whether any object storage setting was supplied.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != "" || c.Storage.AccessKey != "" || c.Storage.SecretKey != ""
}

// RazorpayEnabled reports whether refunds can be issued through Razorpay.
func (c *Config) RazorpayEnabled() bool {
	return c.Razorpay.KeyID != "" && c.Razorpay.KeySecret != ""
}
