package config

import (
	"os"
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/api/v5" {
		t.Errorf("expected default base path /api/v5, got %q", cfg.Server.BasePath)
	}
	if cfg.M2M.AuditUserID != "00000000" {
		t.Errorf("expected default audit user 00000000, got %q", cfg.M2M.AuditUserID)
	}
	if cfg.Data.FilePath != "./data/demo-data.json" {
		t.Errorf("unexpected default data file path %q", cfg.Data.FilePath)
	}
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "4100")
	t.Setenv("BASE_PATH", "/api/v6")
	t.Setenv("M2M_AUDIT_HANDLE", "svc")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/authz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("expected port 4100, got %d", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/api/v6" {
		t.Errorf("expected base path /api/v6, got %q", cfg.Server.BasePath)
	}
	if cfg.M2M.AuditHandle != "svc" {
		t.Errorf("expected audit handle svc, got %q", cfg.M2M.AuditHandle)
	}
	if cfg.Database.URL != "postgres://u:p@localhost/authz" {
		t.Errorf("unexpected database url %q", cfg.Database.URL)
	}
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "4100")
	t.Setenv("AUTHZ_SERVER_PORT", "4200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 4200 {
		t.Errorf("expected prefixed env to win, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidIssuers(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("VALID_ISSUERS", `["unterminated`)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed VALID_ISSUERS")
	}
}

func TestIssuers(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{`["https://a/", "https://b/"]`, []string{"https://a/", "https://b/"}},
		{"https://a/, https://b/", []string{"https://a/", "https://b/"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := AuthConfig{ValidIssuers: tt.raw}.Issuers()
			if err != nil {
				t.Fatalf("Issuers(%q) error: %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Issuers(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}
