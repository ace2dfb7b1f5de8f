// Package session loads, mutates and expires server-held wizard sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/store"
)

// ErrSubmissionInFlight is returned when a session already has a submission running.
var ErrSubmissionInFlight = errors.New("a submission is already in progress for this session")

// Manager serializes read-modify-write cycles on a session and guards submissions.
type Manager struct {
	repo store.Repository
	now  func() time.Time

	// locks serializes mutations of one session.
	locks sync.Map
	// submitLocks prevents concurrent submissions for the same session.
	submitLocks sync.Map
}

// NewManager creates a session manager backed by repo.
func NewManager(repo store.Repository) *Manager {
	return &Manager{repo: repo, now: time.Now}
}

func (m *Manager) lockFor(key string) *sync.Mutex {
	lock, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Get returns the stored session, or a fresh unsaved one on first contact.
func (m *Manager) Get(ctx context.Context, userID, sessionID string) (*domain.WizardSession, error) {
	sess, err := m.repo.GetWizardSession(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load wizard session: %w", err)
	}
	if sess == nil {
		sess = domain.NewWizardSession(userID, sessionID, m.now())
	}
	return sess, nil
}

// Update loads the session, applies fn and saves the result. Updates of the same
// session never interleave. When fn fails nothing is saved and its error is returned
// together with the unmodified session.
func (m *Manager) Update(ctx context.Context, userID, sessionID string, fn func(*domain.WizardSession) error) (*domain.WizardSession, error) {
	key := domain.SessionKey(userID, sessionID)
	mu := m.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	sess, err := m.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	working := sess.Clone()
	if err := fn(working); err != nil {
		return sess, err
	}
	working.UpdatedAt = m.now()
	if err := m.repo.UpsertWizardSession(ctx, working); err != nil {
		return nil, fmt.Errorf("save wizard session: %w", err)
	}
	return working, nil
}

// Reset discards everything the session holds and starts over at the first step.
func (m *Manager) Reset(ctx context.Context, userID, sessionID string) (*domain.WizardSession, error) {
	key := domain.SessionKey(userID, sessionID)
	mu := m.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	if cur, err := m.repo.GetWizardSession(ctx, userID, sessionID); err == nil && cur != nil && cur.Submitting {
		return nil, ErrSubmissionInFlight
	}
	if err := m.repo.DeleteWizardSession(ctx, userID, sessionID); err != nil {
		return nil, fmt.Errorf("delete wizard session: %w", err)
	}
	sess := domain.NewWizardSession(userID, sessionID, m.now())
	if err := m.repo.UpsertWizardSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save wizard session: %w", err)
	}
	slog.Info("Wizard session reset", "user_id", userID, "session_id", sessionID)
	return sess, nil
}

// Submission is a claimed submission slot. Finish must be called exactly once.
type Submission struct {
	ID      string
	Session *domain.WizardSession

	m      *Manager
	unlock func()
}

// BeginSubmission claims the session's single submission slot and marks the
// session as submitting. check runs under the session lock before the flag is set
// and may veto the submission.
func (m *Manager) BeginSubmission(ctx context.Context, userID, sessionID, submissionID string, check func(*domain.WizardSession) error) (*Submission, error) {
	key := domain.SessionKey(userID, sessionID)
	lock, _ := m.submitLocks.LoadOrStore(key, &sync.Mutex{})
	mutex := lock.(*sync.Mutex)
	if !mutex.TryLock() {
		return nil, ErrSubmissionInFlight
	}

	sess, err := m.Update(ctx, userID, sessionID, func(s *domain.WizardSession) error {
		// Holding the slot means nothing in this process is submitting, so a stored
		// flag is left over from an outcome that could not be saved.
		if s.Submitting {
			slog.Warn("Clearing stale submission flag",
				"user_id", userID, "session_id", sessionID, "submission_id", s.LastSubmissionID)
		}
		if check != nil {
			if err := check(s); err != nil {
				return err
			}
		}
		s.Submitting = true
		s.LastError = ""
		s.LastSubmissionID = submissionID
		return nil
	})
	if err != nil {
		mutex.Unlock()
		return nil, err
	}

	return &Submission{ID: submissionID, Session: sess, m: m, unlock: mutex.Unlock}, nil
}

// Finish records the outcome and releases the slot. On success the report is
// stored, checklist completion starts over and apply may move the session on;
// on failure the error text is kept for display and the step is left alone.
// If the outcome cannot be saved, Finish still tries to clear the submitting flag.
func (s *Submission) Finish(ctx context.Context, report *domain.Report, submitErr error, apply func(*domain.WizardSession)) (*domain.WizardSession, error) {
	defer s.unlock()

	userID, sessionID := s.Session.UserID, s.Session.SessionID
	sess, err := s.m.Update(ctx, userID, sessionID, func(sess *domain.WizardSession) error {
		sess.Submitting = false
		if submitErr != nil {
			sess.LastError = submitErr.Error()
			return nil
		}
		sess.LastError = ""
		sess.Report = report
		sess.SelectedRoadmap = 0
		sess.Completion = make(map[int]domain.CompletionMap)
		if apply != nil {
			apply(sess)
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to record submission outcome",
			"user_id", userID, "session_id", sessionID, "submission_id", s.ID, "error", err)
		s.clearFlag(context.WithoutCancel(ctx))
	}
	return sess, err
}

// ErrOutcomeNotSaved is the error text left on a session whose result could not be stored.
var ErrOutcomeNotSaved = errors.New("분석 결과를 저장하지 못했습니다. 다시 시도해주세요.")

func (s *Submission) clearFlag(ctx context.Context) {
	_, err := s.m.Update(ctx, s.Session.UserID, s.Session.SessionID, func(sess *domain.WizardSession) error {
		if !sess.Submitting || sess.LastSubmissionID != s.ID {
			return errFlagAlreadyClear
		}
		sess.Submitting = false
		sess.LastError = ErrOutcomeNotSaved.Error()
		return nil
	})
	if err != nil && !errors.Is(err, errFlagAlreadyClear) {
		slog.Warn("Failed to clear submission flag; the next submission will reclaim it",
			"submission_id", s.ID, "error", err)
	}
}

var errFlagAlreadyClear = errors.New("submission flag already clear")
