package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if cfg.Storage.Enabled() {
		t.Fatalf("storage should be disabled by default")
	}
}

func TestLoad_ParsesConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`
id = "  main  "
schema_file = "schema.yaml"
nested_setters = false
write_protection = false

[storage]
role = " Provider "
provider_id = "main"
path = "~/shared.db"
poll_interval = "250ms"
private_paths = ["token", " session.secret ", ""]
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Config{
		ID:              "main",
		SchemaFile:      filepath.Join(dir, "schema.yaml"),
		DynamicGetters:  true,
		DynamicSetters:  true,
		NestedGetters:   true,
		NestedSetters:   false,
		WriteProtection: false,
		Storage: Storage{
			Role:         "provider",
			ProviderID:   "main",
			Path:         filepath.Join(home, "shared.db"),
			PollInterval: 250 * time.Millisecond,
			PrivatePaths: []string{"token", "session.secret"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`id = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %v, want parse config error", err)
	}
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[storage]\npoll_interval = \"soon\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "poll_interval") {
		t.Fatalf("Load error = %v, want poll_interval error", err)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if want := filepath.Join(home, "a/b"); got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
