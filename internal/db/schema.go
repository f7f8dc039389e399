package db

import (
	"database/sql"
)

// SchemaSQL is the complete schema for fresh content databases.
// This schema reflects the current state after all migrations.
//
// Tests load it through GetSchemaSQL() instead of declaring their own tables, so
// a repository query against a column missing here fails in tests right away.
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Content nodes. Each workspace holds its own tree; top-level nodes have no parent.
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	workspace TEXT NOT NULL CHECK(workspace IN ('EDIT', 'LIVE')),
	parent_id TEXT,
	name TEXT NOT NULL,
	path TEXT NOT NULL,
	node_type TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	last_modified_by TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (workspace, path),
	FOREIGN KEY (parent_id) REFERENCES nodes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);
CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(workspace, node_type);

-- Node properties. language is '' for language-neutral values; multi-valued
-- properties keep a JSON array in vals.
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

-- Audit trail of repository writes.
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
`

// InitSchema creates the database schema
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		var nodeTables int
		err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = 'nodes'").Scan(&nodeTables)
		if err != nil {
			return err
		}
		if nodeTables > 0 {
			// Pre-versioning database - upgrade through migrations
			return RunMigrations(db)
		}

		// Completely fresh install - create modern schema directly and mark every
		// migration as applied
		if _, err := db.Exec(SchemaSQL); err != nil {
			return err
		}
		if err := createVersionTable(db); err != nil {
			return err
		}
		for _, m := range migrations {
			if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	// schema_version table exists - run any pending migrations
	return RunMigrations(db)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
