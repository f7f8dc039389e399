// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/example/formbuilder/internal/ctxutil"
	"github.com/example/formbuilder/internal/ports/secondary"
)

const (
	propTitle        = "jcr:title"
	propLastModified = "jcr:lastModified"
	propLanguages    = "j:languages"
)

// ContentRepository implements secondary.ContentRepository with SQLite.
// Nodes live in one table per workspace tree; properties are stored per language
// with '' as the language-neutral fallback.
type ContentRepository struct {
	db *sql.DB
}

// NewContentRepository creates a new SQLite content repository.
func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type nodeRow struct {
	id        string
	parentID  sql.NullString
	name      string
	path      string
	nodeType  string
	position  int
	updatedAt time.Time
}

const nodeColumns = "id, parent_id, name, path, node_type, position, updated_at"

func scanNode(scan func(dest ...any) error) (nodeRow, error) {
	var n nodeRow
	err := scan(&n.id, &n.parentID, &n.name, &n.path, &n.nodeType, &n.position, &n.updatedAt)
	return n, err
}

// resolve finds a node by path (leading "/") or id.
func resolve(ctx context.Context, q queryer, workspace, pathOrID string) (nodeRow, error) {
	column := "id"
	if strings.HasPrefix(pathOrID, "/") {
		column = "path"
	}
	row := q.QueryRowContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE workspace = ? AND "+column+" = ?",
		workspace, pathOrID,
	)
	n, err := scanNode(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nodeRow{}, fmt.Errorf("%w: %s", secondary.ErrNodeNotFound, pathOrID)
	}
	if err != nil {
		return nodeRow{}, fmt.Errorf("failed to get node: %w", err)
	}
	return n, nil
}

// GetTree returns a node and its full subtree with properties resolved in language.
func (r *ContentRepository) GetTree(ctx context.Context, workspace, language, id string) (*secondary.NodeRecord, error) {
	root, err := resolve(ctx, r.db, workspace, id)
	if err != nil {
		return nil, err
	}
	return r.loadTree(ctx, workspace, language, root, -1)
}

// loadTree builds the record tree below root. depth limits the loaded child
// levels; a negative depth loads everything.
func (r *ContentRepository) loadTree(ctx context.Context, workspace, language string, root nodeRow, depth int) (*secondary.NodeRecord, error) {
	rows := []nodeRow{root}
	if depth != 0 {
		prefix := root.path + "/"
		res, err := r.db.QueryContext(ctx,
			"SELECT "+nodeColumns+" FROM nodes WHERE workspace = ? AND substr(path, 1, length(?)) = ? ORDER BY position",
			workspace, prefix, prefix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load subtree: %w", err)
		}
		for res.Next() {
			n, err := scanNode(res.Scan)
			if err != nil {
				res.Close()
				return nil, fmt.Errorf("failed to scan node: %w", err)
			}
			if depth > 0 && strings.Count(strings.TrimPrefix(n.path, prefix), "/") >= depth {
				continue
			}
			rows = append(rows, n)
		}
		// Released before the property query; the pool may hold a single connection.
		res.Close()
		if err := res.Err(); err != nil {
			return nil, err
		}
	}

	ids := make([]string, len(rows))
	for i, n := range rows {
		ids[i] = n.id
	}
	props, err := loadProperties(ctx, r.db, ids, language)
	if err != nil {
		return nil, err
	}

	records := make(map[string]*secondary.NodeRecord, len(rows))
	for _, n := range rows {
		records[n.id] = toRecord(n, props[n.id])
	}
	// rows are ordered by position, so appending keeps sibling order.
	for _, n := range rows[1:] {
		if parent, ok := records[n.parentID.String]; ok && n.parentID.Valid {
			parent.Children = append(parent.Children, records[n.id])
		}
	}
	return records[root.id], nil
}

func toRecord(n nodeRow, props []secondary.PropertyRecord) *secondary.NodeRecord {
	rec := &secondary.NodeRecord{
		ID:          n.id,
		Name:        n.name,
		Path:        n.path,
		NodeType:    n.nodeType,
		DisplayName: n.name,
		Properties:  props,
	}
	if title, ok := rec.Property(propTitle); ok {
		if s, ok := title.Value.(string); ok && s != "" {
			rec.DisplayName = s
		}
	}
	if _, ok := rec.Property(propLastModified); !ok && !n.updatedAt.IsZero() {
		rec.Properties = append(rec.Properties, secondary.PropertyRecord{
			Name:  propLastModified,
			Type:  "DATE",
			Value: n.updatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rec
}

// loadProperties returns the properties of the given nodes, preferring values
// stored for language over language-neutral ones, in name order.
func loadProperties(ctx context.Context, q queryer, ids []string, language string) (map[string][]secondary.PropertyRecord, error) {
	out := make(map[string][]secondary.PropertyRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, language)

	rows, err := q.QueryContext(ctx,
		"SELECT node_id, name, language, type, multiple, value, vals FROM properties WHERE node_id IN ("+placeholders+") AND language IN (?, '') ORDER BY node_id, name, language DESC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}
	defer rows.Close()

	type key struct{ node, name string }
	seen := make(map[key]bool)
	for rows.Next() {
		var (
			nodeID, name, lang, typ string
			multiple                bool
			value, vals             sql.NullString
		)
		if err := rows.Scan(&nodeID, &name, &lang, &typ, &multiple, &value, &vals); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		// Language-specific rows sort before '' so the first row of a name wins.
		k := key{nodeID, name}
		if seen[k] {
			continue
		}
		seen[k] = true

		rec := secondary.PropertyRecord{Name: name, Type: typ}
		if multiple {
			var list []string
			if vals.Valid {
				if err := json.Unmarshal([]byte(vals.String), &list); err != nil {
					return nil, fmt.Errorf("failed to decode values of %s: %w", name, err)
				}
			}
			rec.Values = make([]any, len(list))
			for i, v := range list {
				rec.Values[i] = v
			}
		} else if value.Valid {
			rec.Value = value.String
		}
		out[nodeID] = append(out[nodeID], rec)
	}
	return out, rows.Err()
}

// AddNode creates a child node at the end of its siblings and returns its id.
func (r *ContentRepository) AddNode(ctx context.Context, workspace string, req secondary.AddNodeRequest) (string, error) {
	if err := validateName(req.Name); err != nil {
		return "", err
	}

	var id string
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var parentID sql.NullString
		parentPath := "/"
		if req.ParentPath != "/" && req.ParentPath != "" {
			parent, err := resolve(ctx, tx, workspace, req.ParentPath)
			if err != nil {
				return err
			}
			parentID = sql.NullString{String: parent.id, Valid: true}
			parentPath = parent.path
		}
		nodePath := path.Join(parentPath, req.Name)

		if err := ensureFree(ctx, tx, workspace, nodePath); err != nil {
			return err
		}

		var position int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM nodes WHERE workspace = ? AND parent_id IS ?",
			workspace, parentID,
		).Scan(&position); err != nil {
			return fmt.Errorf("failed to compute position: %w", err)
		}

		id = uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO nodes (id, workspace, parent_id, name, path, node_type, position, last_modified_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			id, workspace, parentID, req.Name, nodePath, req.NodeType, position, editor(ctx),
		); err != nil {
			return fmt.Errorf("failed to create node: %w", err)
		}
		return writeProperties(ctx, tx, id, req.Properties)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// SetProperties writes a batch of properties on one node.
func (r *ContentRepository) SetProperties(ctx context.Context, workspace, pathOrID string, props []secondary.PropertyInput) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		n, err := resolve(ctx, tx, workspace, pathOrID)
		if err != nil {
			return err
		}
		if err := writeProperties(ctx, tx, n.id, props); err != nil {
			return err
		}
		return touch(ctx, tx, n.id)
	})
}

func writeProperties(ctx context.Context, tx *sql.Tx, nodeID string, props []secondary.PropertyInput) error {
	for _, p := range props {
		if p.Name == "" {
			return fmt.Errorf("property without a name on node %s", nodeID)
		}
		typ := p.Type
		if typ == "" {
			typ = secondary.PropertyTypeString
		}

		var value, vals sql.NullString
		if p.Multiple {
			values := p.Values
			if values == nil {
				values = []string{}
			}
			encoded, err := json.Marshal(values)
			if err != nil {
				return fmt.Errorf("failed to encode values of %s: %w", p.Name, err)
			}
			vals = sql.NullString{String: string(encoded), Valid: true}
		} else {
			value = sql.NullString{String: p.Value, Valid: true}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO properties (node_id, name, language, type, multiple, value, vals) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(node_id, name, language) DO UPDATE SET
				type = excluded.type, multiple = excluded.multiple, value = excluded.value, vals = excluded.vals`,
			nodeID, p.Name, p.Language, typ, p.Multiple, value, vals,
		); err != nil {
			return fmt.Errorf("failed to set property %s: %w", p.Name, err)
		}
	}
	return nil
}

// ReorderChildren moves the named children to the front in the given order.
// Children not named keep their relative order after them.
func (r *ContentRepository) ReorderChildren(ctx context.Context, workspace, pathOrID string, names []string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		parent, err := resolve(ctx, tx, workspace, pathOrID)
		if err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx,
			"SELECT id, name FROM nodes WHERE parent_id = ? ORDER BY position", parent.id)
		if err != nil {
			return fmt.Errorf("failed to list children: %w", err)
		}
		type child struct{ id, name string }
		var children []child
		byName := make(map[string]string)
		for rows.Next() {
			var c child
			if err := rows.Scan(&c.id, &c.name); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan child: %w", err)
			}
			children = append(children, c)
			byName[c.name] = c.id
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		ordered := make([]string, 0, len(children))
		placed := make(map[string]bool, len(names))
		for _, name := range names {
			id, ok := byName[name]
			if !ok {
				return fmt.Errorf("%w: child %s of %s", secondary.ErrNodeNotFound, name, parent.path)
			}
			if placed[id] {
				continue
			}
			placed[id] = true
			ordered = append(ordered, id)
		}
		for _, c := range children {
			if !placed[c.id] {
				ordered = append(ordered, c.id)
			}
		}

		for i, id := range ordered {
			if _, err := tx.ExecContext(ctx, "UPDATE nodes SET position = ? WHERE id = ?", i, id); err != nil {
				return fmt.Errorf("failed to reorder children: %w", err)
			}
		}
		return touch(ctx, tx, parent.id)
	})
}

// RenameNode renames a node and rewrites the paths of its subtree.
func (r *ContentRepository) RenameNode(ctx context.Context, workspace, pathOrID, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		n, err := resolve(ctx, tx, workspace, pathOrID)
		if err != nil {
			return err
		}
		if n.name == name {
			return nil
		}

		newPath := path.Join(path.Dir(n.path), name)
		if err := ensureFree(ctx, tx, workspace, newPath); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE nodes SET name = ?, path = ?, updated_at = CURRENT_TIMESTAMP, last_modified_by = ? WHERE id = ?",
			name, newPath, editor(ctx), n.id,
		); err != nil {
			return fmt.Errorf("failed to rename node: %w", err)
		}

		oldPrefix := n.path + "/"
		if _, err := tx.ExecContext(ctx,
			"UPDATE nodes SET path = ? || substr(path, ?) WHERE workspace = ? AND substr(path, 1, length(?)) = ?",
			newPath, utf8.RuneCountInString(n.path)+1, workspace, oldPrefix, oldPrefix,
		); err != nil {
			return fmt.Errorf("failed to move subtree: %w", err)
		}
		return nil
	})
}

// DeleteNode removes a node and its subtree.
func (r *ContentRepository) DeleteNode(ctx context.Context, workspace, pathOrID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		n, err := resolve(ctx, tx, workspace, pathOrID)
		if err != nil {
			return err
		}
		prefix := n.path + "/"
		subtree := "SELECT id FROM nodes WHERE workspace = ? AND (id = ? OR substr(path, 1, length(?)) = ?)"

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM properties WHERE node_id IN ("+subtree+")",
			workspace, n.id, prefix, prefix,
		); err != nil {
			return fmt.Errorf("failed to delete properties: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM nodes WHERE workspace = ? AND (id = ? OR substr(path, 1, length(?)) = ?)",
			workspace, n.id, prefix, prefix,
		); err != nil {
			return fmt.Errorf("failed to delete node: %w", err)
		}
		return nil
	})
}

// FindNodes returns nodes of q.NodeType below any of q.Paths, ordered by path,
// each with q.Depth levels of children.
func (r *ContentRepository) FindNodes(ctx context.Context, q secondary.NodeQuery) ([]*secondary.NodeRecord, error) {
	query := "SELECT " + nodeColumns + " FROM nodes WHERE workspace = ?"
	args := []any{q.Workspace}
	if q.NodeType != "" {
		query += " AND node_type = ?"
		args = append(args, q.NodeType)
	}
	if len(q.Paths) > 0 {
		clauses := make([]string, len(q.Paths))
		for i, p := range q.Paths {
			prefix := strings.TrimSuffix(p, "/") + "/"
			clauses[i] = "substr(path, 1, length(?)) = ?"
			args = append(args, prefix, prefix)
		}
		query += " AND (" + strings.Join(clauses, " OR ") + ")"
	}
	query += " ORDER BY path"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find nodes: %w", err)
	}
	var matches []nodeRow
	for rows.Next() {
		n, err := scanNode(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		matches = append(matches, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*secondary.NodeRecord, 0, len(matches))
	for _, n := range matches {
		rec, err := r.loadTree(ctx, q.Workspace, q.Language, n, q.Depth)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SiteLanguages returns the j:languages values of a site node, sorted as stored.
func (r *ContentRepository) SiteLanguages(ctx context.Context, workspace, sitePath string) ([]string, error) {
	site, err := resolve(ctx, r.db, workspace, sitePath)
	if err != nil {
		return nil, err
	}
	props, err := loadProperties(ctx, r.db, []string{site.id}, "")
	if err != nil {
		return nil, err
	}
	for _, p := range props[site.id] {
		if p.Name != propLanguages {
			continue
		}
		out := make([]string, 0, len(p.Values))
		for _, v := range p.Values {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
	return nil, nil
}

func (r *ContentRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func ensureFree(ctx context.Context, q queryer, workspace, nodePath string) error {
	var count int
	if err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM nodes WHERE workspace = ? AND path = ?", workspace, nodePath,
	).Scan(&count); err != nil {
		return fmt.Errorf("failed to check path: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("node %s already exists", nodePath)
	}
	return nil
}

func touch(ctx context.Context, q queryer, id string) error {
	if _, err := q.ExecContext(ctx,
		"UPDATE nodes SET updated_at = CURRENT_TIMESTAMP, last_modified_by = ? WHERE id = ?",
		editor(ctx), id,
	); err != nil {
		return fmt.Errorf("failed to update node: %w", err)
	}
	return nil
}

func editor(ctx context.Context) sql.NullString {
	if id := ctxutil.EditorFromContext(ctx); id != "" {
		return sql.NullString{String: id, Valid: true}
	}
	return sql.NullString{}
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/[]*|") {
		return fmt.Errorf("invalid node name %q", name)
	}
	return nil
}

// Ensure ContentRepository implements the interface
var _ secondary.ContentRepository = (*ContentRepository)(nil)
