package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS chat_entries (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        timestamp DATETIME NOT NULL,
        is_user BOOLEAN NOT NULL,
        mode TEXT,
        mood TEXT,
        time_of_day TEXT,
        message TEXT,
        ai_response TEXT,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE INDEX IF NOT EXISTS idx_chat_entries_user_timestamp
        ON chat_entries (user_id, timestamp);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)", name, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(ctx, id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, "SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?", email).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, "SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// ChatEntry methods

// CreateEntry inserts a single chat entry. The ID and timestamp are assigned
// here so that entries inserted in sequence carry non-decreasing timestamps.
func (s *SQLiteStore) CreateEntry(ctx context.Context, entry *ChatEntry) error {
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now().UTC()

	stmt, err := s.db.PrepareContext(ctx, `INSERT INTO chat_entries
        (id, user_id, timestamp, is_user, mode, mood, time_of_day, message, ai_response)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	var mode, mood, timeOfDay, message sql.NullString
	if entry.IsUser && entry.UserInput != nil {
		mode = sql.NullString{String: entry.UserInput.Mode, Valid: true}
		mood = sql.NullString{String: entry.UserInput.Mood, Valid: true}
		timeOfDay = sql.NullString{String: entry.UserInput.TimeOfDay, Valid: true}
		message = sql.NullString{String: entry.UserInput.Message, Valid: true}
	}
	var aiResponse sql.NullString
	if !entry.IsUser {
		aiResponse = sql.NullString{String: entry.AIResponse, Valid: true}
	}

	_, err = stmt.ExecContext(ctx, entry.ID, entry.UserID, entry.Timestamp, entry.IsUser, mode, mood, timeOfDay, message, aiResponse)
	if err != nil {
		return fmt.Errorf("failed to execute entry insert: %w", err)
	}
	return nil
}

// GetEntriesAsc returns all of a user's entries ordered oldest first.
func (s *SQLiteStore) GetEntriesAsc(ctx context.Context, userID int64) ([]ChatEntry, error) {
	return s.queryEntries(ctx, `SELECT id, user_id, timestamp, is_user, mode, mood, time_of_day, message, ai_response
        FROM chat_entries WHERE user_id = ? ORDER BY timestamp ASC, id ASC`, userID)
}

// GetRecentEntries returns up to n of a user's entries, newest first. Callers
// that need chronological order reverse the slice.
func (s *SQLiteStore) GetRecentEntries(ctx context.Context, userID int64, n int) ([]ChatEntry, error) {
	return s.queryEntries(ctx, `SELECT id, user_id, timestamp, is_user, mode, mood, time_of_day, message, ai_response
        FROM chat_entries WHERE user_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, userID, n)
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]ChatEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ChatEntry
	for rows.Next() {
		var entry ChatEntry
		var mode, mood, timeOfDay, message, aiResponse sql.NullString
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Timestamp, &entry.IsUser, &mode, &mood, &timeOfDay, &message, &aiResponse); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		if entry.IsUser {
			entry.UserInput = &SituationalInput{
				Mode:      mode.String,
				Mood:      mood.String,
				TimeOfDay: timeOfDay.String,
				Message:   message.String,
			}
		} else {
			entry.AIResponse = aiResponse.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entry rows: %w", err)
	}
	return entries, nil
}

// CountEntries returns the number of entries stored for a user.
func (s *SQLiteStore) CountEntries(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chat_entries WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// DeleteEntries removes entries by their ids in one statement. Deletion is by
// id rather than timestamp so that timestamp ties never remove extra rows.
func (s *SQLiteStore) DeleteEntries(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM chat_entries WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	return nil
}
