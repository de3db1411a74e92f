package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Data.Dir != "." {
		t.Errorf("data dir = %q, want %q", cfg.Data.Dir, ".")
	}
	if cfg.Data.RevenueCategory != "Pendapatan" {
		t.Errorf("revenue category = %q, want Pendapatan", cfg.Data.RevenueCategory)
	}
	if cfg.Data.LoadTimeout != 30*time.Second {
		t.Errorf("load timeout = %v, want 30s", cfg.Data.LoadTimeout)
	}
	if got := cfg.Address(); got != "localhost:8084" {
		t.Errorf("Address() = %q", got)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATA_DIR", "/srv/xerpihan")
	t.Setenv("DATA_REVENUE_CATEGORY", "Revenue")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Data.Dir != "/srv/xerpihan" {
		t.Errorf("data dir = %q", cfg.Data.Dir)
	}
	if cfg.Data.RevenueCategory != "Revenue" {
		t.Errorf("revenue category = %q", cfg.Data.RevenueCategory)
	}
	if len(cfg.Security.AllowedOrigins) != 2 {
		t.Errorf("allowed origins = %v, want 2 entries", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"port out of range", "SERVER_PORT", "70000", "server port"},
		{"bad log level", "LOG_LEVEL", "verbose", "invalid log level"},
		{"bad log format", "LOG_FORMAT", "xml", "invalid log format"},
		{"blank category", "DATA_REVENUE_CATEGORY", "   ", "revenue category"},
		{"zero rps", "SECURITY_RATE_LIMIT_RPS", "0", "rate limit RPS"},
		{"non numeric port", "SERVER_PORT", "http", "read environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}
