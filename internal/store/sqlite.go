package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // serializes session writes to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL lets the sweeper read while a request writes.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS wizard_sessions (
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		current_step INTEGER NOT NULL,
		submitting INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		last_submission_id TEXT NOT NULL DEFAULT '',
		selected_roadmap INTEGER NOT NULL DEFAULT 0,
		form_json TEXT NOT NULL,
		report_json TEXT,
		completion_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_wizard_sessions_updated ON wizard_sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username,
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// GetWizardSession retrieves the wizard state of one browser tab.
func (s *SQLiteStore) GetWizardSession(ctx context.Context, userID, sessionID string) (*domain.WizardSession, error) {
	query := `
		SELECT user_id, session_id, current_step, submitting, last_error,
		       last_submission_id, selected_roadmap, form_json, report_json,
		       completion_json, created_at, updated_at
		FROM wizard_sessions WHERE user_id = ? AND session_id = ?`

	var sess domain.WizardSession
	var formJSON, completionJSON string
	var reportJSON sql.NullString
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, userID, sessionID).Scan(
		&sess.UserID, &sess.SessionID, &sess.CurrentStep, &sess.Submitting,
		&sess.LastError, &sess.LastSubmissionID, &sess.SelectedRoadmap,
		&formJSON, &reportJSON, &completionJSON, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan wizard session: %w", err)
	}

	if err := json.Unmarshal([]byte(formJSON), &sess.Form); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	if reportJSON.Valid {
		var report domain.Report
		if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		sess.Report = &report
	}
	if err := json.Unmarshal([]byte(completionJSON), &sess.Completion); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if sess.Completion == nil {
		sess.Completion = make(map[int]domain.CompletionMap)
	}
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)

	return &sess, nil
}

// UpsertWizardSession creates or replaces the wizard state of one browser tab.
func (s *SQLiteStore) UpsertWizardSession(ctx context.Context, sess *domain.WizardSession) error {
	formJSON, err := json.Marshal(sess.Form)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	var reportJSON any
	if sess.Report != nil {
		data, err := json.Marshal(sess.Report)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		reportJSON = string(data)
	}
	completion := sess.Completion
	if completion == nil {
		completion = map[int]domain.CompletionMap{}
	}
	completionJSON, err := json.Marshal(completion)
	if err != nil {
		return fmt.Errorf("encode completion: %w", err)
	}

	query := `
		INSERT INTO wizard_sessions (
			user_id, session_id, current_step, submitting, last_error,
			last_submission_id, selected_roadmap, form_json, report_json,
			completion_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, session_id) DO UPDATE SET
			current_step = excluded.current_step,
			submitting = excluded.submitting,
			last_error = excluded.last_error,
			last_submission_id = excluded.last_submission_id,
			selected_roadmap = excluded.selected_roadmap,
			form_json = excluded.form_json,
			report_json = excluded.report_json,
			completion_json = excluded.completion_json,
			updated_at = excluded.updated_at`

	return shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, "upsert wizard session", func() error {
		s.sessionMu.Lock()
		defer s.sessionMu.Unlock()

		_, err := s.db.ExecContext(ctx, query,
			sess.UserID, sess.SessionID, sess.CurrentStep, sess.Submitting, sess.LastError,
			sess.LastSubmissionID, sess.SelectedRoadmap, string(formJSON), reportJSON,
			string(completionJSON), sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(),
		)
		return err
	})
}

// DeleteWizardSession removes the wizard state of one browser tab.
func (s *SQLiteStore) DeleteWizardSession(ctx context.Context, userID, sessionID string) error {
	return shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, "delete wizard session", func() error {
		s.sessionMu.Lock()
		defer s.sessionMu.Unlock()

		_, err := s.db.ExecContext(ctx,
			`DELETE FROM wizard_sessions WHERE user_id = ? AND session_id = ?`, userID, sessionID)
		return err
	})
}

// CleanupExpiredSessions removes sessions not updated within ttl.
// A session with a submission in flight is never removed.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	threshold := time.Now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM wizard_sessions WHERE updated_at < ? AND submitting = 0`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// ResetStaleSubmissions clears submitting flags left by a previous process.
func (s *SQLiteStore) ResetStaleSubmissions(ctx context.Context) (int64, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	result, err := s.db.ExecContext(ctx,
		`UPDATE wizard_sessions SET submitting = 0, updated_at = ? WHERE submitting = 1`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("reset stale submissions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
