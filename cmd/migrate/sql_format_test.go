package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestSQLMigrations_HaveGooseDirectives(t *testing.T) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))

	for _, service := range []string{"store", "warehouse"} {
		dir := filepath.Join(repoRoot, "db", service, "migrations")

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir(%s): %v", dir, err)
		}

		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
				continue
			}
			b, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				t.Fatalf("ReadFile(%s): %v", e.Name(), err)
			}
			s := string(b)
			if !strings.Contains(s, "-- +goose Up") {
				t.Fatalf("%s missing '-- +goose Up'", e.Name())
			}
			if !strings.Contains(s, "-- +goose Down") {
				t.Fatalf("%s missing '-- +goose Down'", e.Name())
			}
		}
	}
}
