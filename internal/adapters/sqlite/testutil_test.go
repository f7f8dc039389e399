// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/formbuilder/internal/adapters/sqlite"
	"github.com/example/formbuilder/internal/ctxutil"
	"github.com/example/formbuilder/internal/db"
	"github.com/example/formbuilder/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Every pooled connection would get its own empty in-memory database.
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// setupSeededRepo returns a content repository over the sample fixtures.
func setupSeededRepo(t *testing.T) (*sqlite.ContentRepository, *sql.DB) {
	t.Helper()

	testDB := setupTestDB(t)
	if err := db.SeedFixtures(testDB); err != nil {
		t.Fatalf("failed to seed fixtures: %v", err)
	}
	return sqlite.NewContentRepository(testDB), testDB
}

func editorCtx() context.Context {
	return ctxutil.WithEditor(context.Background(), "tester")
}

func childNames(rec *secondary.NodeRecord) []string {
	names := make([]string, len(rec.Children))
	for i, c := range rec.Children {
		names[i] = c.Name
	}
	return names
}

func propertyValue(t *testing.T, rec *secondary.NodeRecord, name string) any {
	t.Helper()
	p, ok := rec.Property(name)
	if !ok {
		t.Fatalf("node %s has no property %s", rec.Path, name)
	}
	if p.Values != nil {
		return p.Values
	}
	return p.Value
}
