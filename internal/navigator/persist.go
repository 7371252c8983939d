package navigator

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// indexFile is the serialized shape of index/index.json.
type indexFile struct {
	SchemaVersion int   `json:"schemaVersion"`
	Tree          *Node `json:"interfaceLanguages"`
}

const indexSchemaVersion = 1

// WriteOptions select which index representations Finalize persists.
type WriteOptions struct {
	EmitJSON bool
	EmitDB   bool
}

// Write persists the finalized tree under the archive's index directory.
func Write(root string, tree *Node, opts WriteOptions) error {
	if err := os.MkdirAll(filepath.Join(root, archive.IndexDir), 0o755); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "create index directory")
	}
	if opts.EmitJSON {
		if err := writeJSON(root, tree); err != nil {
			return err
		}
	}
	if opts.EmitDB {
		if err := writeDB(root, tree); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(root string, tree *Node) error {
	data, err := json.MarshalIndent(indexFile{SchemaVersion: indexSchemaVersion, Tree: tree}, "", "  ")
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "encode navigator index")
	}
	path := filepath.Join(root, filepath.FromSlash(archive.IndexFileName))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "write navigator index")
	}
	return nil
}

// ReadIndex loads index/index.json back into a tree.
func ReadIndex(root string) (*Node, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(archive.IndexFileName)))
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "read navigator index")
	}
	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "malformed navigator index")
	}
	return file.Tree, nil
}

const dbSchema = `
CREATE TABLE IF NOT EXISTS navigator_nodes (
	id            INTEGER PRIMARY KEY,
	parent_id     INTEGER REFERENCES navigator_nodes(id),
	position      INTEGER NOT NULL,
	title         TEXT NOT NULL,
	path          TEXT NOT NULL DEFAULT '',
	kind          TEXT NOT NULL,
	symbol_kind   TEXT NOT NULL DEFAULT '',
	language_mask INTEGER NOT NULL DEFAULT 0,
	usr           TEXT NOT NULL DEFAULT '',
	beta          INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_navigator_parent ON navigator_nodes(parent_id, position);
CREATE INDEX IF NOT EXISTS idx_navigator_path ON navigator_nodes(path);
`

// writeDB rebuilds index/navigator.db from scratch. Row ids follow a
// pre-order walk so the same tree always produces the same database.
func writeDB(root string, tree *Node) error {
	path := filepath.Join(root, filepath.FromSlash(archive.IndexDBFileName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "replace navigator database")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "open navigator database")
	}
	defer db.Close()

	if _, err := db.Exec(dbSchema); err != nil {
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "create navigator schema")
	}

	tx, err := db.Begin()
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "begin navigator transaction")
	}
	stmt, err := tx.Prepare(`INSERT INTO navigator_nodes
		(id, parent_id, position, title, path, kind, symbol_kind, language_mask, usr, beta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "prepare navigator insert")
	}
	defer stmt.Close()

	nextID := int64(1)
	var insert func(n *Node, parent sql.NullInt64, position int) error
	insert = func(n *Node, parent sql.NullInt64, position int) error {
		id := nextID
		nextID++
		beta := 0
		if n.Beta {
			beta = 1
		}
		if _, err := stmt.Exec(id, parent, position, n.Title, n.Path, string(n.Kind),
			n.SymbolKind, int64(n.LanguageMask), n.USR, beta); err != nil {
			return err
		}
		for i, child := range n.Children {
			if err := insert(child, sql.NullInt64{Int64: id, Valid: true}, i); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(tree, sql.NullInt64{}, 0); err != nil {
		tx.Rollback()
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "insert navigator nodes")
	}
	if err := tx.Commit(); err != nil {
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "commit navigator transaction")
	}
	return nil
}

// ReadDB restores the tree from index/navigator.db.
func ReadDB(root string) (*Node, error) {
	path := filepath.Join(root, filepath.FromSlash(archive.IndexDBFileName))
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "open navigator database")
	}
	defer db.Close()

	rows, err := db.Query(`SELECT id, parent_id, title, path, kind, symbol_kind, language_mask, usr, beta
		FROM navigator_nodes ORDER BY parent_id, position`)
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "query navigator nodes")
	}
	defer rows.Close()

	byID := map[int64]*Node{}
	var rootNode *Node
	type link struct {
		id, parent int64
	}
	var links []link
	for rows.Next() {
		var (
			id     int64
			parent sql.NullInt64
			n      Node
			mask   int64
			beta   int
		)
		kind := ""
		if err := rows.Scan(&id, &parent, &n.Title, &n.Path, &kind, &n.SymbolKind, &mask, &n.USR, &beta); err != nil {
			return nil, archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "scan navigator node")
		}
		n.Kind = NodeKind(kind)
		n.LanguageMask = uint64(mask)
		n.Beta = beta != 0
		byID[id] = &n
		if parent.Valid {
			links = append(links, link{id: id, parent: parent.Int64})
		} else {
			rootNode = &n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "read navigator nodes")
	}
	for _, l := range links {
		byID[l.parent].Children = append(byID[l.parent].Children, byID[l.id])
	}
	return rootNode, nil
}
