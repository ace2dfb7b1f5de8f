package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/identity"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

// ReportHandler serves the analysis report and the roadmap checklists.
type ReportHandler struct {
	*Handler
}

// NewReportHandler creates a report handler.
func NewReportHandler(base *Handler) *ReportHandler {
	return &ReportHandler{Handler: base}
}

// RegisterRoutes registers report routes.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/report", func(r chi.Router) {
		r.Use(identity.AttachSession(h.sessions))
		r.Get("/", h.GetReport)
		r.Get("/roadmaps/{index}", h.GetRoadmap)
		r.Put("/roadmaps/{index}/checklist/{itemID}", h.SetItem)
		r.Delete("/roadmaps/{index}/checklist", h.ResetChecklist)
	})
}

type pendingView struct {
	Status     string `json:"status"`
	Submitting bool   `json:"submitting"`
	LastError  string `json:"lastError,omitempty"`
}

type reportView struct {
	Status          string         `json:"status"`
	SubmissionID    string         `json:"submissionId,omitempty"`
	SelectedRoadmap int            `json:"selectedRoadmap"`
	Report          *domain.Report `json:"report"`
}

// writePending answers 202 while no report exists yet.
func writePending(w http.ResponseWriter, sess *domain.WizardSession) {
	JSON(w, http.StatusAccepted, pendingView{
		Status:     "pending",
		Submitting: sess.Submitting,
		LastError:  sess.LastError,
	})
}

// GetReport returns the stored report, or 202 while none exists.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	sess := wizard.MustFromContext(r.Context())
	if sess.Report == nil {
		writePending(w, sess)
		return
	}
	JSON(w, http.StatusOK, reportView{
		Status:          "ready",
		SubmissionID:    sess.LastSubmissionID,
		SelectedRoadmap: sess.SelectedRoadmap,
		Report:          sess.Report,
	})
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, wizard.ErrRoadmapIndex)
		return 0, false
	}
	return idx, true
}

// GetRoadmap returns one roadmap's checklist with progress and the next item.
func (h *ReportHandler) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	sess := wizard.MustFromContext(r.Context())
	if sess.Report == nil {
		writePending(w, sess)
		return
	}
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	view, err := wizard.BuildRoadmapView(sess.Report, idx, sess.Completion[idx])
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, view)
}

type itemRequest struct {
	Completed *bool `json:"completed,omitempty"`
}

// SetItem marks a checklist item done or not done. Without a body it toggles.
func (h *ReportHandler) SetItem(w http.ResponseWriter, r *http.Request) {
	sess := wizard.MustFromContext(r.Context())
	if sess.Report == nil {
		writePending(w, sess)
		return
	}
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequestBody, err))
		return
	}

	h.updateChecklist(w, r, idx, func(groups []wizard.ChecklistGroup, completion domain.CompletionMap) error {
		if !wizard.HasItem(groups, itemID) {
			return fmt.Errorf("%w: %q", errItemNotFound, itemID)
		}
		done := !completion[itemID]
		if req.Completed != nil {
			done = *req.Completed
		}
		completion[itemID] = done
		return nil
	})
}

// ResetChecklist clears every completion mark of one roadmap.
func (h *ReportHandler) ResetChecklist(w http.ResponseWriter, r *http.Request) {
	sess := wizard.MustFromContext(r.Context())
	if sess.Report == nil {
		writePending(w, sess)
		return
	}
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	h.updateChecklist(w, r, idx, func(_ []wizard.ChecklistGroup, completion domain.CompletionMap) error {
		clear(completion)
		return nil
	})
}

// updateChecklist applies fn to the stored completion map of roadmap idx and
// answers with the refreshed roadmap view.
func (h *ReportHandler) updateChecklist(w http.ResponseWriter, r *http.Request, idx int, fn func([]wizard.ChecklistGroup, domain.CompletionMap) error) {
	userID, sessionID := ids(r)
	sess, err := h.sessions.Update(r.Context(), userID, sessionID, func(s *domain.WizardSession) error {
		groups, err := wizard.DeriveChecklists(s.Report, idx)
		if err != nil {
			return err
		}
		if err := fn(groups, s.CompletionFor(idx)); err != nil {
			return err
		}
		s.SelectedRoadmap = idx
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := wizard.BuildRoadmapView(sess.Report, idx, sess.Completion[idx])
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, view)
}
