package domain

import (
	"encoding/json"
	"time"
)

// WizardSession holds everything one browser tab has entered and received.
type WizardSession struct {
	UserID           string
	SessionID        string
	Form             FormRecord
	CurrentStep      int
	Submitting       bool
	LastError        string
	LastSubmissionID string
	Report           *Report
	SelectedRoadmap  int
	Completion       map[int]CompletionMap
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewWizardSession returns a fresh session positioned on the first step.
func NewWizardSession(userID, sessionID string, now time.Time) *WizardSession {
	return &WizardSession{
		UserID:      userID,
		SessionID:   sessionID,
		Form:        NewFormRecord(),
		CurrentStep: 1,
		Completion:  make(map[int]CompletionMap),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Key returns the store key of the session.
func (s *WizardSession) Key() string {
	return SessionKey(s.UserID, s.SessionID)
}

// SessionKey joins a user id and a tab session id.
func SessionKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// CompletionFor returns the completion map for a roadmap, creating it if needed.
func (s *WizardSession) CompletionFor(roadmap int) CompletionMap {
	if s.Completion == nil {
		s.Completion = make(map[int]CompletionMap)
	}
	m, ok := s.Completion[roadmap]
	if !ok {
		m = make(CompletionMap)
		s.Completion[roadmap] = m
	}
	return m
}

// Clone returns a deep copy of the session.
func (s *WizardSession) Clone() *WizardSession {
	out := *s
	out.Form = s.Form.Clone()
	if s.Report != nil {
		// The report is immutable once received; a JSON round trip keeps the copy independent.
		data, err := json.Marshal(s.Report)
		if err == nil {
			var r Report
			if json.Unmarshal(data, &r) == nil {
				out.Report = &r
			}
		}
	}
	out.Completion = make(map[int]CompletionMap, len(s.Completion))
	for k, v := range s.Completion {
		out.Completion[k] = v.Clone()
	}
	return &out
}
