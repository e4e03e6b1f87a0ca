package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationsDir_EnvOverride(t *testing.T) {
	os.Setenv("MIGRATIONS_DIR", "/custom/migrations")
	t.Cleanup(func() { _ = os.Unsetenv("MIGRATIONS_DIR") })

	if got := migrationsDir("store"); got != "/custom/migrations" {
		t.Fatalf("expected MIGRATIONS_DIR override, got %q", got)
	}
}

func TestMigrationsDir_Default(t *testing.T) {
	_ = os.Unsetenv("MIGRATIONS_DIR")

	if got := migrationsDir("store"); got != "db/store/migrations" {
		t.Fatalf("expected default migrations dir, got %q", got)
	}
	if got := migrationsDir("warehouse"); got != "db/warehouse/migrations" {
		t.Fatalf("expected default migrations dir, got %q", got)
	}
}

func TestServiceTarget_UnknownService(t *testing.T) {
	if _, _, err := serviceTarget("inventory"); err == nil {
		t.Fatal("expected error for unknown service")
	}
}

func TestServiceTarget_UsesServiceDSN(t *testing.T) {
	os.Setenv("WAREHOUSE_DSN", "postgres://wh")
	t.Cleanup(func() { _ = os.Unsetenv("WAREHOUSE_DSN") })

	dsn, dir, err := serviceTarget("warehouse")
	if err != nil {
		t.Fatalf("serviceTarget: %v", err)
	}
	if dsn != "postgres://wh" {
		t.Fatalf("expected WAREHOUSE_DSN, got %q", dsn)
	}
	if dir != "db/warehouse/migrations" {
		t.Fatalf("expected warehouse migrations dir, got %q", dir)
	}
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")

	if err := os.WriteFile(p, []byte("STORE_DSN=from_file\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	os.Setenv("STORE_DSN", "from_env")
	t.Cleanup(func() { _ = os.Unsetenv("STORE_DSN") })

	cwd, _ := os.Getwd()
	_ = os.Chdir(tmp)
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	loadEnvFiles()

	if got := os.Getenv("STORE_DSN"); got != "from_env" {
		t.Fatalf("expected env to win over .env file, got %q", got)
	}
}
