package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/identity"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

type submitResponse struct {
	SubmissionID string         `json:"submissionId"`
	CurrentStep  int            `json:"currentStep"`
	Path         string         `json:"path"`
	Report       *domain.Report `json:"report"`
}

// Submit sends the collected answers to the analysis service and waits for the
// report. One submission per session runs at a time; a duplicate gets 409.
// On failure the session stays on its step and the error text is returned.
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, sessionID := ids(r)
	submissionID := uuid.NewString()

	var payload domain.SubmitRequest
	sub, err := h.sessions.BeginSubmission(r.Context(), userID, sessionID, submissionID, func(s *domain.WizardSession) error {
		step := wizard.Step(s.CurrentStep)
		if step < wizard.StepSummary || step > wizard.StepConfirmation {
			return &wizard.TransitionError{From: step, To: wizard.StepLoading, Reason: "complete the wizard before submitting"}
		}
		payload = wizard.BuildRequest(s.Form)
		return nil
	})
	if err != nil {
		slog.Warn("Submission rejected", "user_id", userID, "session_id", sessionID, "error", err)
		writeError(w, err)
		return
	}

	slog.Info("Submission started",
		"user_id", userID,
		"session_id", sessionID,
		"submission_id", submissionID,
		"remote_ip", identity.RemoteIP(r))

	// A browser navigating to the loading view must not abort the analysis;
	// only the client's submit timeout ends it.
	ctx := context.WithoutCancel(r.Context())
	report, submitErr := h.analyzer.Submit(ctx, payload, submissionID)

	sess, err := sub.Finish(ctx, report, submitErr, func(s *domain.WizardSession) {
		s.CurrentStep = int(wizard.StepRoadmap)
	})
	if err != nil {
		slog.Error("Failed to record submission outcome", "submission_id", submissionID, "error", err)
		writeError(w, err)
		return
	}

	if submitErr != nil {
		slog.Warn("Submission failed",
			"user_id", userID,
			"session_id", sessionID,
			"submission_id", submissionID,
			"error", submitErr)
		writeSubmitError(w, submitErr)
		return
	}

	slog.Info("Submission completed",
		"user_id", userID,
		"session_id", sessionID,
		"submission_id", submissionID)
	JSON(w, http.StatusOK, submitResponse{
		SubmissionID: submissionID,
		CurrentStep:  sess.CurrentStep,
		Path:         wizard.StepRoadmap.Path(),
		Report:       sess.Report,
	})
}
