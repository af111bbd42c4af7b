package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.DatabaseDriver != DriverSQLite {
		t.Errorf("driver = %q, want %q", cfg.DatabaseDriver, DriverSQLite)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("request_timeout = %v, want 60s", cfg.RequestTimeout)
	}
	if got := cfg.Origins(); got != nil {
		t.Errorf("origins = %v, want nil (allow all)", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHATRELAY_PORT", "9999")
	t.Setenv("CHATRELAY_ANALYSIS_URL", "http://ai.internal/analyze")
	t.Setenv("CHATRELAY_REQUEST_TIMEOUT", "15s")
	t.Setenv("CHATRELAY_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Port)
	}
	if cfg.AnalysisURL != "http://ai.internal/analyze" {
		t.Errorf("analysis_url = %q", cfg.AnalysisURL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("request_timeout = %v, want 15s", cfg.RequestTimeout)
	}
	origins := cfg.Origins()
	if len(origins) != 2 || origins[0] != "https://app.example.com" || origins[1] != "https://staging.example.com" {
		t.Errorf("origins = %v", origins)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: 3000\nanalysis_url: http://localhost:5001/analyze\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Port)
	}
	if cfg.AnalysisURL != "http://localhost:5001/analyze" {
		t.Errorf("analysis_url = %q", cfg.AnalysisURL)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "postgres without url",
			env:  map[string]string{"CHATRELAY_DATABASE_DRIVER": "postgres"},
		},
		{
			name: "unknown driver",
			env:  map[string]string{"CHATRELAY_DATABASE_DRIVER": "oracle"},
		},
		{
			name: "zero timeout",
			env:  map[string]string{"CHATRELAY_REQUEST_TIMEOUT": "0s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("Load() error = nil, want validation error")
			}
		})
	}
}
