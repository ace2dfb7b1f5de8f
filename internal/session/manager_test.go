package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/store"
)

func TestManager_GetCreatesUnsavedSession(t *testing.T) {
	repo := store.NewMemory()
	m := NewManager(repo)
	ctx := context.Background()

	sess, err := m.Get(ctx, "user-1", "tab-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.CurrentStep)

	stored, err := repo.GetWizardSession(ctx, "user-1", "tab-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestManager_Update(t *testing.T) {
	repo := store.NewMemory()
	m := NewManager(repo)
	ctx := context.Background()

	got, err := m.Update(ctx, "user-1", "tab-1", func(s *domain.WizardSession) error {
		s.Form.Age = "34"
		s.CurrentStep = 2
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStep)

	boom := errors.New("boom")
	got, err = m.Update(ctx, "user-1", "tab-1", func(s *domain.WizardSession) error {
		s.CurrentStep = 7
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, got.CurrentStep, "failed update returns the stored session")

	stored, err := repo.GetWizardSession(ctx, "user-1", "tab-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentStep)
	assert.Equal(t, "34", stored.Form.Age)
}

func TestManager_UpdatesDoNotInterleave(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, "user-1", "tab-1", func(s *domain.WizardSession) error {
				s.SelectedRoadmap++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := m.Get(ctx, "user-1", "tab-1")
	require.NoError(t, err)
	assert.Equal(t, 50, sess.SelectedRoadmap)
}

func TestManager_SubmissionIsSingleFlight(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()

	sub, err := m.BeginSubmission(ctx, "user-1", "tab-1", "sub-1", nil)
	require.NoError(t, err)
	assert.True(t, sub.Session.Submitting)

	_, err = m.BeginSubmission(ctx, "user-1", "tab-1", "sub-2", nil)
	require.ErrorIs(t, err, ErrSubmissionInFlight)

	// Another tab of the same user is independent.
	other, err := m.BeginSubmission(ctx, "user-1", "tab-2", "sub-3", nil)
	require.NoError(t, err)
	_, err = other.Finish(ctx, nil, errors.New("x"), nil)
	require.NoError(t, err)

	report := &domain.Report{ExecutiveSummary: "요약", Roadmaps: []domain.Roadmap{{Item: "a"}}}
	sess, err := sub.Finish(ctx, report, nil, func(s *domain.WizardSession) { s.CurrentStep = 12 })
	require.NoError(t, err)
	assert.False(t, sess.Submitting)
	assert.Equal(t, 12, sess.CurrentStep)
	assert.Equal(t, "sub-1", sess.LastSubmissionID)
	require.NotNil(t, sess.Report)

	again, err := m.BeginSubmission(ctx, "user-1", "tab-1", "sub-4", nil)
	require.NoError(t, err)
	_, err = again.Finish(ctx, nil, errors.New("x"), nil)
	require.NoError(t, err)
}

func TestManager_FailedSubmissionKeepsStep(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()
	_, err := m.Update(ctx, "u", "s", func(s *domain.WizardSession) error {
		s.CurrentStep = 9
		s.CompletionFor(0)["admin-1"] = true
		return nil
	})
	require.NoError(t, err)

	sub, err := m.BeginSubmission(ctx, "u", "s", "sub-1", nil)
	require.NoError(t, err)

	sess, err := sub.Finish(ctx, nil, errors.New("upstream exploded"), func(s *domain.WizardSession) { s.CurrentStep = 12 })
	require.NoError(t, err)
	assert.False(t, sess.Submitting)
	assert.Equal(t, 9, sess.CurrentStep)
	assert.Equal(t, "upstream exploded", sess.LastError)
	assert.True(t, sess.Completion[0]["admin-1"])
}

// failingStore rejects the next n saves.
type failingStore struct {
	*store.MemoryStore
	mu sync.Mutex
	n  int
}

func (f *failingStore) failNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n = n
}

func (f *failingStore) UpsertWizardSession(ctx context.Context, sess *domain.WizardSession) error {
	f.mu.Lock()
	if f.n > 0 {
		f.n--
		f.mu.Unlock()
		return errors.New("disk full")
	}
	f.mu.Unlock()
	return f.MemoryStore.UpsertWizardSession(ctx, sess)
}

func TestManager_FinishClearsFlagWhenOutcomeNotSaved(t *testing.T) {
	repo := &failingStore{MemoryStore: store.NewMemory()}
	m := NewManager(repo)
	ctx := context.Background()

	sub, err := m.BeginSubmission(ctx, "u", "s", "sub-1", nil)
	require.NoError(t, err)

	repo.failNext(1)
	_, err = sub.Finish(ctx, &domain.Report{ExecutiveSummary: "요약"}, nil, nil)
	require.Error(t, err)

	stored, err := repo.GetWizardSession(ctx, "u", "s")
	require.NoError(t, err)
	assert.False(t, stored.Submitting)
	assert.Equal(t, ErrOutcomeNotSaved.Error(), stored.LastError)
	assert.Nil(t, stored.Report)

	_, err = m.Reset(ctx, "u", "s")
	require.NoError(t, err)
}

func TestManager_StaleFlagDoesNotBlockNextSubmission(t *testing.T) {
	repo := &failingStore{MemoryStore: store.NewMemory()}
	m := NewManager(repo)
	ctx := context.Background()

	sub, err := m.BeginSubmission(ctx, "u", "s", "sub-1", nil)
	require.NoError(t, err)

	// Both the outcome and the fallback clear are lost.
	repo.failNext(2)
	_, err = sub.Finish(ctx, nil, errors.New("upstream exploded"), nil)
	require.Error(t, err)

	stored, err := repo.GetWizardSession(ctx, "u", "s")
	require.NoError(t, err)
	require.True(t, stored.Submitting)

	next, err := m.BeginSubmission(ctx, "u", "s", "sub-2", nil)
	require.NoError(t, err)
	assert.Equal(t, "sub-2", next.Session.LastSubmissionID)

	sess, err := next.Finish(ctx, nil, errors.New("x"), nil)
	require.NoError(t, err)
	assert.False(t, sess.Submitting)
}

func TestManager_BeginSubmissionVeto(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()
	veto := errors.New("not ready")

	_, err := m.BeginSubmission(ctx, "u", "s", "sub-1", func(*domain.WizardSession) error { return veto })
	require.ErrorIs(t, err, veto)

	sub, err := m.BeginSubmission(ctx, "u", "s", "sub-2", nil)
	require.NoError(t, err, "a vetoed submission must release the slot")
	_, err = sub.Finish(ctx, nil, veto, nil)
	require.NoError(t, err)
}

func TestManager_Reset(t *testing.T) {
	m := NewManager(store.NewMemory())
	ctx := context.Background()
	_, err := m.Update(ctx, "u", "s", func(s *domain.WizardSession) error {
		s.CurrentStep = 6
		s.Form.Age = "40"
		return nil
	})
	require.NoError(t, err)

	sess, err := m.Reset(ctx, "u", "s")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.CurrentStep)
	assert.Empty(t, sess.Form.Age)

	sub, err := m.BeginSubmission(ctx, "u", "s", "sub-1", nil)
	require.NoError(t, err)
	_, err = m.Reset(ctx, "u", "s")
	require.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = sub.Finish(ctx, nil, errors.New("x"), nil)
	require.NoError(t, err)
}

func TestManager_UpdateStampsTime(t *testing.T) {
	m := NewManager(store.NewMemory())
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	sess, err := m.Update(context.Background(), "u", "s", func(*domain.WizardSession) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, fixed, sess.UpdatedAt)
}
