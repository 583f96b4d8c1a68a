package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = 3001
	cfg.JWT.Secret = "a-very-long-signing-secret"
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "market_admin"
	return cfg
}

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"your_supabase_url", true},
		{"YOUR-KEY", true},
		{"${JWT_SECRET}", true},
		{"changeme", true},
		{"s3cr3t-value", false},
		{"https://storage.example.com", false},
	}
	for _, tt := range tests {
		if got := IsPlaceholder(tt.value); got != tt.want {
			t.Errorf("IsPlaceholder(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.Secret = "your_jwt_secret"
	cfg.Storage.Endpoint = "https://storage.example.com"
	cfg.Razorpay.KeyID = "rzp_test_123"

	err := cfg.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	joined := strings.Join(verr.Problems, "\n")
	for _, want := range []string{"JWT_SECRET", "STORAGE_ACCESS_KEY", "STORAGE_SECRET_KEY", "RAZORPAY_KEY_SECRET"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected a problem mentioning %s, got:\n%s", want, joined)
		}
	}
}

func TestValidateShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.Secret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestDSNPrefersURL(t *testing.T) {
	cfg := validConfig()
	cfg.Database.User = "postgres"
	cfg.Database.Password = "pw"
	cfg.Database.Port = 5432
	if got := cfg.DSN(); got != "postgres://postgres:pw@localhost:5432/market_admin" {
		t.Errorf("DSN() = %q", got)
	}
	cfg.Database.URL = "postgres://u:p@db/x"
	if got := cfg.DSN(); got != "postgres://u:p@db/x" {
		t.Errorf("DSN() = %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test, ,http://b.test ")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("splitList = %v", got)
	}
}

func TestApplyRedisURL(t *testing.T) {
	cfg := &Config{}
	cfg.Redis.Host, cfg.Redis.Port = "localhost", "6379"

	applyRedisURL(cfg, "redis://:s3cret@cache.internal:6380/0")
	if cfg.Redis.Host != "cache.internal" || cfg.Redis.Port != "6380" || cfg.Redis.Password != "s3cret" {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}

	applyRedisURL(cfg, "not a url")
	if cfg.Redis.Host != "cache.internal" {
		t.Fatal("malformed URL should keep previous values")
	}
}
