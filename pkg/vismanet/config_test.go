package vismanet

import (
	"strings"
	"testing"
	"time"
)

var vismanetEnv = []string{
	"VISMANET_BASE_URL", "VISMANET_TOKEN_URL", "VISMANET_TOKEN",
	"VISMANET_CLIENT_ID", "VISMANET_CLIENT_SECRET", "VISMANET_TENANT_ID",
	"VISMANET_SCOPE", "VISMANET_COMPANY_ID", "VISMANET_BRANCH_ID",
	"VISMANET_APPLICATION_TYPE", "VISMANET_TIMEOUT", "VISMANET_MAX_RETRIES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range vismanetEnv {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("VISMANET_CLIENT_ID", "client")
	t.Setenv("VISMANET_CLIENT_SECRET", "secret")
	t.Setenv("VISMANET_TENANT_ID", "tenant")
	t.Setenv("VISMANET_COMPANY_ID", "1234567")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL || cfg.TokenURL != DefaultTokenURL {
		t.Fatalf("unexpected urls %q %q", cfg.BaseURL, cfg.TokenURL)
	}
	if cfg.ApplicationType != DefaultApplicationType || cfg.Scope != DefaultScope {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Timeout != DefaultTimeout || cfg.MaxRetries != DefaultMaxRetries {
		t.Fatalf("timeout=%v retries=%d", cfg.Timeout, cfg.MaxRetries)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VISMANET_TOKEN", "static")
	t.Setenv("VISMANET_COMPANY_ID", "1234567")
	t.Setenv("VISMANET_BRANCH_ID", "2")
	t.Setenv("VISMANET_BASE_URL", "https://sandbox.example.test/API")
	t.Setenv("VISMANET_TIMEOUT", "45s")
	t.Setenv("VISMANET_MAX_RETRIES", "-1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Token != "static" || cfg.BranchID != "2" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.BaseURL != "https://sandbox.example.test/API" {
		t.Fatalf("base url = %q", cfg.BaseURL)
	}
	if cfg.Timeout != 45*time.Second || cfg.MaxRetries != -1 {
		t.Fatalf("timeout=%v retries=%d", cfg.Timeout, cfg.MaxRetries)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "no credentials",
			env:  map[string]string{"VISMANET_COMPANY_ID": "1"},
			want: "VISMANET_CLIENT_ID is required",
		},
		{
			name: "no company",
			env:  map[string]string{"VISMANET_TOKEN": "t"},
			want: "VISMANET_COMPANY_ID is required",
		},
		{
			name: "bad timeout",
			env:  map[string]string{"VISMANET_TOKEN": "t", "VISMANET_COMPANY_ID": "1", "VISMANET_TIMEOUT": "soon"},
			want: "VISMANET_TIMEOUT must be a duration",
		},
		{
			name: "bad retries",
			env:  map[string]string{"VISMANET_TOKEN": "t", "VISMANET_COMPANY_ID": "1", "VISMANET_MAX_RETRIES": "many"},
			want: "VISMANET_MAX_RETRIES must be an integer",
		},
		{
			name: "too many retries",
			env:  map[string]string{"VISMANET_TOKEN": "t", "VISMANET_COMPANY_ID": "1", "VISMANET_MAX_RETRIES": "50"},
			want: "VISMANET_MAX_RETRIES must be at most 10",
		},
		{
			name: "bad base url",
			env:  map[string]string{"VISMANET_TOKEN": "t", "VISMANET_COMPANY_ID": "1", "VISMANET_BASE_URL": "not a url"},
			want: "VISMANET_BASE_URL must be a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}
}
