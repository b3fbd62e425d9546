package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDotEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	return path
}

func TestLoadDotEnv_LoadsValuesAndIgnoresNoise(t *testing.T) {
	t.Setenv("PRICING_FILE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PORT", "")

	path := writeDotEnv(t, `
# comment

PRICING_FILE=prices.yaml
export LOG_LEVEL=debug
PORT="9090"
not a pair
=orphan
`)

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	for key, want := range map[string]string{"PRICING_FILE": "prices.yaml", "LOG_LEVEL": "debug", "PORT": "9090"} {
		if got := os.Getenv(key); got != want {
			t.Fatalf("%s=%q, want %q", key, got, want)
		}
	}
}

func TestLoadDotEnv_DoesNotOverwriteExistingEnv(t *testing.T) {
	t.Setenv("DB_PATH", "already.db")

	if err := loadDotEnv(writeDotEnv(t, "DB_PATH=fromfile.db\n")); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	if got := os.Getenv("DB_PATH"); got != "already.db" {
		t.Fatalf("DB_PATH=%q, want %q", got, "already.db")
	}
}

func TestLoadDotEnv_StripsSingleQuotes(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")

	if err := loadDotEnv(writeDotEnv(t, "ADMIN_EMAIL='shop@example.com'\n")); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	if got := os.Getenv("ADMIN_EMAIL"); got != "shop@example.com" {
		t.Fatalf("ADMIN_EMAIL=%q, want %q", got, "shop@example.com")
	}
}

func TestLoadDotEnv_MissingFileIsNotAnError(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}
}
