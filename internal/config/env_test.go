package config

import (
	"path/filepath"
	"testing"
)

// TestEnvFromOSRequiresToken checks mandatory credential validation.
func TestEnvFromOSRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ALLOWED_USERNAMES", "alice")

	if _, err := EnvFromOS(); err == nil {
		t.Fatal("expected error for missing BOT_TOKEN")
	}
}

// TestEnvFromOSRequiresAllowList checks mandatory allow-list validation.
func TestEnvFromOSRequiresAllowList(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ALLOWED_USERNAMES", " , ")

	if _, err := EnvFromOS(); err == nil {
		t.Fatal("expected error for empty ALLOWED_USERNAMES")
	}
}

// TestEnvFromOSNormalizesUsernames checks allow-list parsing rules.
func TestEnvFromOSNormalizesUsernames(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ALLOWED_USERNAMES", "@Alice, bob ,")
	t.Setenv("DATA_DIR", t.TempDir())

	env, err := EnvFromOS()
	if err != nil {
		t.Fatalf("EnvFromOS() error = %v", err)
	}

	if len(env.AllowedUsers) != 2 {
		t.Fatalf("allow-list = %v, want 2 entries", env.AllowedUsers)
	}
	if env.AllowedUsers[0] != "alice" || env.AllowedUsers[1] != "bob" {
		t.Fatalf("allow-list = %v, want [alice bob]", env.AllowedUsers)
	}
}

// TestEnvPaths checks derived settings and model locations.
func TestEnvPaths(t *testing.T) {
	env := Env{DataDir: "/data"}
	if env.SettingsPath() != filepath.Join("/data", "settings.json") {
		t.Fatalf("settings path = %q", env.SettingsPath())
	}
	if env.ModelsDir() != filepath.Join("/data", "models") {
		t.Fatalf("models dir = %q", env.ModelsDir())
	}
}
