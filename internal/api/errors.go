package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/startup-navigator/internal/backend"
	"github.com/ashureev/startup-navigator/internal/session"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

// ErrorCode is a machine-readable error class carried in every error body.
type ErrorCode string

const (
	// CodeInvalidInput marks a step that is missing required answers or has invalid ones.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeOutOfRange marks a value rejected at entry time; stored state is unchanged.
	CodeOutOfRange ErrorCode = "INPUT_OUT_OF_RANGE"

	// CodeConflict marks a step move the flow forbids or a submission already running.
	CodeConflict ErrorCode = "CONFLICT"

	// CodeNotFound marks an unknown step, roadmap or checklist item.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeBackend marks a failure reported by or while reaching the analysis service.
	CodeBackend ErrorCode = "BACKEND_ERROR"

	// CodeTimeout marks an analysis that did not finish in time.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeInternal marks anything else.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

type errorBody struct {
	Error   string    `json:"error"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
	Step    string    `json:"step,omitempty"`
	Missing []string  `json:"missing,omitempty"`
	Invalid []string  `json:"invalid,omitempty"`
	Field   string    `json:"field,omitempty"`
}

var (
	errBadRequestBody = errors.New("request body is not valid JSON for this endpoint")
	errItemNotFound   = errors.New("checklist item not found")
)

// writeError maps domain errors to status codes and error bodies.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr   *wizard.ValidationError
		berr   *wizard.InputBoundError
		terr   *wizard.TransitionError
		apiErr *backend.APIError
	)

	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   "validation_failed",
			Code:    CodeInvalidInput,
			Message: verr.Message,
			Step:    verr.Step.Name(),
			Missing: verr.Missing,
			Invalid: verr.Invalid,
		})
	case errors.As(err, &berr):
		JSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:   "input_out_of_range",
			Code:    CodeOutOfRange,
			Message: berr.Message,
			Field:   berr.Field,
		})
	case errors.Is(err, errBadRequestBody):
		JSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Code: CodeInvalidInput, Message: err.Error()})
	case errors.Is(err, session.ErrSubmissionInFlight):
		JSON(w, http.StatusConflict, errorBody{Error: "submission_in_progress", Code: CodeConflict, Message: err.Error()})
	case errors.As(err, &terr):
		JSON(w, http.StatusConflict, errorBody{Error: "invalid_transition", Code: CodeConflict, Message: terr.Error(), Step: terr.From.Name()})
	case errors.Is(err, wizard.ErrRoadmapIndex), errors.Is(err, errItemNotFound):
		JSON(w, http.StatusNotFound, errorBody{Error: "not_found", Code: CodeNotFound, Message: err.Error()})
	case errors.Is(err, backend.ErrTimeout):
		JSON(w, http.StatusGatewayTimeout, errorBody{Error: "analysis_timeout", Code: CodeTimeout, Message: err.Error()})
	case errors.As(err, &apiErr):
		JSON(w, http.StatusBadGateway, errorBody{Error: "analysis_failed", Code: CodeBackend, Message: apiErr.Detail})
	default:
		slog.Error("Request failed", "error", err)
		JSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error", Code: CodeInternal})
	}
}

// writeSubmitError reports a failed submission. Transport failures are backend
// errors too, and the founder sees their text.
func writeSubmitError(w http.ResponseWriter, err error) {
	var apiErr *backend.APIError
	if errors.Is(err, backend.ErrTimeout) || errors.As(err, &apiErr) {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusBadGateway, errorBody{Error: "analysis_failed", Code: CodeBackend, Message: err.Error()})
}

func notFound(w http.ResponseWriter, message string) {
	JSON(w, http.StatusNotFound, errorBody{Error: "not_found", Code: CodeNotFound, Message: message})
}
