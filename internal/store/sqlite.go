package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rentline/leadbot/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite. Each lead is stored
// as a single JSON blob so reads and writes are always whole-record.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serialize writes to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS leads (
		chat_id INTEGER PRIMARY KEY,
		data TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Load retrieves the lead for a conversation. A blob that no longer
// parses is repaired into a fresh record rather than treated as fatal;
// unknown keys inside a valid blob are dropped by the JSON decoder and
// missing ones default to zero values.
func (s *SQLiteStore) Load(ctx context.Context, chatID int64) (*domain.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM leads WHERE chat_id = ?`, chatID)

	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead row: %w", err)
	}

	var lead domain.Lead
	if err := json.Unmarshal([]byte(data), &lead); err != nil {
		slog.Warn("Discarding malformed lead record", "chat_id", chatID, "error", err)
		return domain.NewLead(chatID, chatID, "", ""), nil
	}

	// The row key is authoritative for identity.
	lead.ChatID = chatID

	return &lead, nil
}

// Save upserts the whole record.
func (s *SQLiteStore) Save(ctx context.Context, lead *domain.Lead) error {
	lead.Touch()

	data, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}

	query := `
	INSERT INTO leads (chat_id, data)
	VALUES (?, ?)
	ON CONFLICT(chat_id) DO UPDATE SET data = excluded.data`

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, query, lead.ChatID, string(data)); err != nil {
		return fmt.Errorf("upsert lead: %w", err)
	}
	return nil
}

// Reset discards the record for a conversation.
func (s *SQLiteStore) Reset(ctx context.Context, chatID int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
