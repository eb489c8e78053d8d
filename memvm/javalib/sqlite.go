package javalib

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	_ "modernc.org/sqlite"

	"github.com/wippyai/jbridge/errors"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("javalib: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// SQLiteStore persists preferences and key store entries in SQLite.
// It implements both PrefsStore and KeyStoreBackend.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Storage("opening database", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	stmts := []string{
		"PRAGMA busy_timeout = 5000",
		`CREATE TABLE IF NOT EXISTS preferences (
			file  TEXT NOT NULL,
			key   TEXT NOT NULL,
			kind  TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (file, key)
		)`,
		`CREATE TABLE IF NOT EXISTS keystore (
			alias TEXT PRIMARY KEY,
			entry BLOB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Storage("initializing schema", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodePref(v any) (kind, text string, err error) {
	switch v := v.(type) {
	case string:
		return "string", v, nil
	case bool:
		return "bool", strconv.FormatBool(v), nil
	case int32:
		return "int", strconv.FormatInt(int64(v), 10), nil
	case int64:
		return "long", strconv.FormatInt(v, 10), nil
	default:
		return "", "", fmt.Errorf("unsupported preference type %T", v)
	}
}

func decodePref(kind, text string) (any, error) {
	switch kind {
	case "string":
		return text, nil
	case "bool":
		return strconv.ParseBool(text)
	case "int":
		n, err := strconv.ParseInt(text, 10, 32)
		return int32(n), err
	case "long":
		return strconv.ParseInt(text, 10, 64)
	default:
		return nil, fmt.Errorf("unknown preference kind %q", kind)
	}
}

// Load implements PrefsStore.
func (s *SQLiteStore) Load(file string) (map[string]any, error) {
	rows, err := s.db.Query("SELECT key, kind, value FROM preferences WHERE file = ?", file)
	if err != nil {
		return nil, errors.Storage("loading preferences", err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var key, kind, text string
		if err := rows.Scan(&key, &kind, &text); err != nil {
			return nil, errors.Storage("scanning preference", err)
		}
		v, err := decodePref(kind, text)
		if err != nil {
			return nil, errors.Storage("decoding preference "+key, err)
		}
		out[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("loading preferences", err)
	}
	return out, nil
}

// Apply implements PrefsStore.
func (s *SQLiteStore) Apply(file string, clear bool, edits []Edit) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Storage("beginning transaction", err)
	}
	defer tx.Rollback()

	if clear {
		if _, err := tx.Exec("DELETE FROM preferences WHERE file = ?", file); err != nil {
			return errors.Storage("clearing preferences", err)
		}
	}
	for _, e := range edits {
		if e.Remove {
			if _, err := tx.Exec("DELETE FROM preferences WHERE file = ? AND key = ?", file, e.Key); err != nil {
				return errors.Storage("removing preference "+e.Key, err)
			}
			continue
		}
		kind, text, err := encodePref(e.Value)
		if err != nil {
			return errors.Storage("encoding preference "+e.Key, err)
		}
		_, err = tx.Exec(`INSERT INTO preferences (file, key, kind, value) VALUES (?, ?, ?, ?)
			ON CONFLICT (file, key) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
			file, e.Key, kind, text)
		if err != nil {
			return errors.Storage("writing preference "+e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Storage("committing preferences", err)
	}
	return nil
}

// Get implements KeyStoreBackend.
func (s *SQLiteStore) Get(alias string) (*KeyEntry, error) {
	var data []byte
	err := s.db.QueryRow("SELECT entry FROM keystore WHERE alias = ?", alias).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Storage("reading key entry "+alias, err)
	}
	var e KeyEntry
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, errors.Storage("decoding key entry "+alias, err)
	}
	return &e, nil
}

// Put implements KeyStoreBackend.
func (s *SQLiteStore) Put(e *KeyEntry) error {
	data, err := cborEncMode.Marshal(e)
	if err != nil {
		return errors.Storage("encoding key entry "+e.Alias, err)
	}
	_, err = s.db.Exec(`INSERT INTO keystore (alias, entry) VALUES (?, ?)
		ON CONFLICT (alias) DO UPDATE SET entry = excluded.entry`, e.Alias, data)
	if err != nil {
		return errors.Storage("writing key entry "+e.Alias, err)
	}
	return nil
}

// Delete implements KeyStoreBackend.
func (s *SQLiteStore) Delete(alias string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM keystore WHERE alias = ?", alias)
	if err != nil {
		return false, errors.Storage("deleting key entry "+alias, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Storage("deleting key entry "+alias, err)
	}
	return n > 0, nil
}

// Aliases implements KeyStoreBackend.
func (s *SQLiteStore) Aliases() ([]string, error) {
	rows, err := s.db.Query("SELECT alias FROM keystore ORDER BY alias")
	if err != nil {
		return nil, errors.Storage("listing aliases", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, errors.Storage("scanning alias", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
