package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the ordered list of schema changes.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_nodes_and_properties",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_change_log",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_last_modified_by_to_nodes",
		Up:      migrationV3,
	},
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := createVersionTable(db); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// Get current schema version
	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		if err := migration.Up(db); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// migrationV1 creates the node tree tables as first shipped.
func migrationV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			workspace TEXT NOT NULL CHECK(workspace IN ('EDIT', 'LIVE')),
			parent_id TEXT,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			node_type TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (workspace, path),
			FOREIGN KEY (parent_id) REFERENCES nodes(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);
		CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(workspace, node_type);
		CREATE TABLE IF NOT EXISTS properties (
			node_id TEXT NOT NULL,
			name TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'STRING',
			multiple INTEGER NOT NULL DEFAULT 0,
			value TEXT,
			vals TEXT,
			PRIMARY KEY (node_id, name, language),
			FOREIGN KEY (node_id) REFERENCES nodes(id) ON DELETE CASCADE
		);
	`)
	return err
}

// migrationV2 adds the audit trail of repository writes.
func migrationV2(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS change_log (
			id TEXT PRIMARY KEY,
			actor_id TEXT,
			workspace TEXT NOT NULL,
			action TEXT NOT NULL CHECK(action IN ('add', 'set', 'rename', 'reorder', 'delete')),
			target TEXT NOT NULL,
			detail TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_change_log_target ON change_log(target);
	`)
	return err
}

// migrationV3 records who last modified a node.
func migrationV3(db *sql.DB) error {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('nodes') WHERE name = 'last_modified_by'").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = db.Exec("ALTER TABLE nodes ADD COLUMN last_modified_by TEXT")
	return err
}
