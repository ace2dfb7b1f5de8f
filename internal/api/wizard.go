package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/startup-navigator/internal/catalog"
	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/identity"
	"github.com/ashureev/startup-navigator/internal/session"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

// WizardHandler serves the step-by-step questionnaire.
type WizardHandler struct {
	*Handler
	flow     *wizard.Flow
	cat      *catalog.Catalog
	analyzer Analyzer
}

// NewWizardHandler creates a wizard handler.
func NewWizardHandler(base *Handler, cat *catalog.Catalog, analyzer Analyzer) *WizardHandler {
	return &WizardHandler{
		Handler:  base,
		flow:     wizard.NewFlow(cat),
		cat:      cat,
		analyzer: analyzer,
	}
}

// RegisterRoutes registers wizard routes.
func (h *WizardHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/wizard", func(r chi.Router) {
		r.Use(identity.AttachSession(h.sessions))
		r.Get("/", h.GetSession)
		r.Delete("/", h.ResetSession)
		r.Patch("/form", h.UpdateForm)
		r.Post("/steps/{step}", h.CommitStep)
		r.Post("/steps/{step}/skip", h.SkipStep)
		r.Post("/back", h.Back)
		r.Post("/jump/{step}", h.Jump)
		r.Put("/industry-category", h.SelectIndustryCategory)
		r.Put("/budget", h.SetBudget)
		r.Get("/request", h.PreviewRequest)
		r.Post("/submit", h.Submit)
	})
}

type sessionView struct {
	SessionID   string            `json:"sessionId"`
	Username    string            `json:"username,omitempty"`
	CurrentStep int               `json:"currentStep"`
	StepName    string            `json:"stepName"`
	Path        string            `json:"path"`
	TotalSteps  int               `json:"totalSteps"`
	FormData    domain.FormRecord `json:"formData"`
	ConceptTags []string          `json:"conceptTags"`
	Submitting  bool              `json:"submitting"`
	LastError   string            `json:"lastError,omitempty"`
	HasReport   bool              `json:"hasReport"`
}

func (h *WizardHandler) view(r *http.Request, sess *domain.WizardSession) sessionView {
	step := wizard.Step(sess.CurrentStep)
	tags := h.cat.ConceptTags(sess.Form.IndustryCategory)
	if tags == nil {
		tags = []string{}
	}
	return sessionView{
		SessionID:   sess.SessionID,
		Username:    username(r),
		CurrentStep: sess.CurrentStep,
		StepName:    step.Name(),
		Path:        step.Path(),
		TotalSteps:  wizard.TotalSteps,
		FormData:    sess.Form,
		ConceptTags: tags,
		Submitting:  sess.Submitting,
		LastError:   sess.LastError,
		HasReport:   sess.Report != nil,
	}
}

// mutate runs fn against a fresh copy of the caller's session and saves it.
// Answers are frozen while a submission is in flight.
func (h *WizardHandler) mutate(r *http.Request, fn func(a *wizard.Aggregator) error) (*domain.WizardSession, error) {
	userID, sessionID := ids(r)
	return h.sessions.Update(r.Context(), userID, sessionID, func(s *domain.WizardSession) error {
		if s.Submitting {
			return session.ErrSubmissionInFlight
		}
		return fn(wizard.NewAggregator(s))
	})
}

func (h *WizardHandler) respond(w http.ResponseWriter, r *http.Request, sess *domain.WizardSession, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, h.view(r, sess))
}

func stepParam(w http.ResponseWriter, r *http.Request) (wizard.Step, bool) {
	raw := chi.URLParam(r, "step")
	step, ok := wizard.ParseStep(raw)
	if !ok {
		notFound(w, fmt.Sprintf("unknown step %q", raw))
	}
	return step, ok
}

// GetSession returns the caller's wizard state.
func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.view(r, wizard.MustFromContext(r.Context())))
}

// ResetSession discards the caller's answers and report.
func (h *WizardHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID := ids(r)
	sess, err := h.sessions.Reset(r.Context(), userID, sessionID)
	h.respond(w, r, sess, err)
}

// UpdateForm merges a partial record without validating it. Only the budget
// ceiling is enforced, since it applies at input time.
func (h *WizardHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var patch domain.FormPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequestBody, err))
		return
	}
	sess, err := h.mutate(r, func(a *wizard.Aggregator) error {
		if patch.BudgetAmount != nil && (*patch.BudgetAmount > wizard.MaxCustomBudget || *patch.BudgetAmount < 0) {
			return wizard.ErrBudgetCeiling
		}
		a.UpdateFormData(patch)
		return nil
	})
	h.respond(w, r, sess, err)
}

// CommitStep validates a step's answers and advances on success.
func (h *WizardHandler) CommitStep(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	var patch domain.FormPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequestBody, err))
		return
	}
	sess, err := h.mutate(r, func(a *wizard.Aggregator) error {
		return h.flow.Commit(a, step, patch)
	})
	h.respond(w, r, sess, err)
}

// SkipStep leaves an optional step with its answers cleared.
func (h *WizardHandler) SkipStep(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	sess, err := h.mutate(r, func(a *wizard.Aggregator) error {
		return h.flow.Skip(a, step)
	})
	h.respond(w, r, sess, err)
}

// Back returns to the previous step.
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess, err := h.mutate(r, func(a *wizard.Aggregator) error {
		_, err := h.flow.Back(a)
		return err
	})
	h.respond(w, r, sess, err)
}

// Jump re-enters an earlier step, typically from the summary's edit links.
func (h *WizardHandler) Jump(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	sess, err := h.mutate(r, func(a *wizard.Aggregator) error {
		return h.flow.Jump(a, step)
	})
	h.respond(w, r, sess, err)
}

type industryCategoryRequest struct {
	Category string `json:"category"`
}

// SelectIndustryCategory picks a category; the detail is always cleared.
func (h *WizardHandler) SelectIndustryCategory(w http.ResponseWriter, r *http.Request) {
	var req industryCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequestBody, err))
		return
	}
	if _, ok := h.cat.Industry(req.Category); !ok {
		writeError(w, &wizard.ValidationError{
			Step:    wizard.StepIndustryCategory,
			Invalid: []string{"industryCategory"},
			Message: "업종을 선택해주세요",
		})
		return
	}
	sess, err := h.mutate(r, func(a *wizard.Aggregator) error {
		a.SelectIndustryCategory(req.Category)
		return nil
	})
	h.respond(w, r, sess, err)
}

type budgetRequest struct {
	Preset string `json:"preset,omitempty"`
	Amount string `json:"amount,omitempty"`
}

// SetBudget stores a preset capital range or a hand-typed amount.
func (h *WizardHandler) SetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequestBody, err))
		return
	}

	var preset catalog.BudgetPreset
	if req.Preset != "" {
		p, ok := h.cat.BudgetPreset(req.Preset)
		if !ok {
			writeError(w, &wizard.ValidationError{
				Step:    wizard.StepDistrict,
				Invalid: []string{"budgetRange"},
				Message: "자본금을 선택하거나 입력해주세요",
			})
			return
		}
		preset = p
	}

	sess, err := h.mutate(r, func(a *wizard.Aggregator) error {
		if req.Preset != "" {
			a.SelectBudgetPreset(preset)
			return nil
		}
		return a.SetCustomBudget(req.Amount)
	})
	h.respond(w, r, sess, err)
}

// PreviewRequest shows the payload a submission would send right now.
func (h *WizardHandler) PreviewRequest(w http.ResponseWriter, r *http.Request) {
	sess := wizard.MustFromContext(r.Context())
	JSON(w, http.StatusOK, wizard.BuildRequest(sess.Form))
}
