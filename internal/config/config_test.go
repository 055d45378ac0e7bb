package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, _, err := Load(Options{File: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected error for explicit missing config file")
	}

	_ = os.Unsetenv("TOKEN")
	cfg = DefaultConfig()
	normalizeDefaults(cfg)

	if cfg.BaseURL != "https://pocket.shonenmagazine.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.TimeoutSeconds)
	}
}

func TestLoadFileAndEnvMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "token: file-token\nemail_address: file@example.com\nbase_url: https://example.com\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TOKEN", "env-token")
	t.Setenv("EMAIL_ADDRESS", "")
	t.Setenv("PASSWORD", "")
	t.Setenv("POCKETBOT_BASE_URL", "")
	t.Setenv("POCKETBOT_DEBUG", "")

	cfg, used, err := Load(Options{File: path})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if used != path {
		t.Errorf("used path = %q, want %q", used, path)
	}
	if cfg.Token != "env-token" {
		t.Errorf("Token = %q, want env override", cfg.Token)
	}
	if cfg.EmailAddress != "file@example.com" {
		t.Errorf("EmailAddress = %q, want file value", cfg.EmailAddress)
	}
	if cfg.BaseURL != "https://example.com" {
		t.Errorf("BaseURL = %q, want file value", cfg.BaseURL)
	}
}

func TestLoadDebugOption(t *testing.T) {
	t.Setenv("TOKEN", "x")
	t.Setenv("POCKETBOT_DEBUG", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("token: x\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(Options{File: path, Debug: true})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug flag not applied")
	}
}

func TestCredentialsPresent(t *testing.T) {
	tests := []struct {
		email, password string
		want            bool
	}{
		{"", "", false},
		{"a@b.c", "", false},
		{"", "pw", false},
		{"a@b.c", "pw", true},
	}

	for _, tt := range tests {
		c := Credentials{EmailAddress: tt.email, Password: tt.password}
		if got := c.Present(); got != tt.want {
			t.Errorf("Present(%q, %q) = %t, want %t", tt.email, tt.password, got, tt.want)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	in := DefaultConfig()
	in.Token = "tok"
	in.Password = "secret"

	if err := Save(in, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	out := DefaultConfig()
	if err := loadYAML(path, out); err != nil {
		t.Fatalf("loadYAML() error: %v", err)
	}
	if out.Token != "tok" || out.Password != "secret" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}
