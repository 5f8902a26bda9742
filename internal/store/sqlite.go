package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	apperrors "github.com/NoBody0206/market-radar/internal/errors"
)

// SQLiteStore implements Store on top of a single documents table. It
// offers the same whole-document contract as FileStore but relies on
// SQLite's WAL journal and busy timeout for cross-process safety.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewSQLiteStore creates a new SQLite-backed document store.
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the document stored under key into out. A missing or
// unparseable row leaves out untouched and returns nil.
func (s *SQLiteStore) Load(key string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc string
	err := s.db.QueryRow("SELECT doc FROM documents WHERE key = ?", key).Scan(&doc)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn().Err(err).Str("key", key).Msg("Unreadable document, using default")
		}
		return nil
	}

	if err := json.Unmarshal([]byte(doc), out); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Corrupt document, using default")
		return nil
	}
	return nil
}

// Save writes doc under key, fully replacing prior content.
func (s *SQLiteStore) Save(key string, doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return apperrors.NewStoreError("save", key, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO documents (key, doc, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		key, string(data))
	if err != nil {
		return apperrors.NewStoreError("save", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
