package wizard

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCustomBudget is the ceiling for a budget typed in by hand, in won.
const MaxCustomBudget int64 = 5_000_000_000

// ErrBudgetCeiling is returned when a custom budget exceeds MaxCustomBudget.
var ErrBudgetCeiling = &InputBoundError{Field: "budgetAmount", Message: "50억원 이하로 입력해주세요"}

// ErrRoadmapIndex is returned when a roadmap index is outside the report.
var ErrRoadmapIndex = errors.New("roadmap index out of range")

// ValidationError lists the required answers a step is still missing.
// It blocks forward navigation and is shown inline; it is never fatal.
type ValidationError struct {
	Step    Step
	Missing []string
	Invalid []string
	Message string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("step %s: %s", e.Step, strings.Join(parts, "; "))
}

func (e *ValidationError) missing(field, message string) {
	e.Missing = append(e.Missing, field)
	if e.Message == "" {
		e.Message = message
	}
}

func (e *ValidationError) invalid(field, message string) {
	e.Invalid = append(e.Invalid, field)
	if e.Message == "" {
		e.Message = message
	}
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

// InputBoundError rejects a value at entry time; the stored value stays unchanged.
type InputBoundError struct {
	Field   string
	Message string
}

func (e *InputBoundError) Error() string {
	return fmt.Sprintf("%s out of range: %s", e.Field, e.Message)
}

// TransitionError rejects a step move the flow does not allow.
type TransitionError struct {
	From   Step
	To     Step
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s: %s", e.From, e.To, e.Reason)
}
