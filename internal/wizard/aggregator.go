package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/startup-navigator/internal/catalog"
	"github.com/ashureev/startup-navigator/internal/domain"
)

// CustomBudgetLabel is the range label stored for a hand-typed budget.
const CustomBudgetLabel = "기타"

// Aggregator is the handle step handlers use to read and update a session's answers.
type Aggregator struct {
	sess *domain.WizardSession
	now  func() time.Time
}

// NewAggregator wraps a session. A nil session is a wiring bug and panics.
func NewAggregator(sess *domain.WizardSession) *Aggregator {
	if sess == nil {
		panic("wizard: aggregator requires a session")
	}
	return &Aggregator{sess: sess, now: time.Now}
}

// Session returns the wrapped session.
func (a *Aggregator) Session() *domain.WizardSession {
	return a.sess
}

// FormData returns a copy of the current answers.
func (a *Aggregator) FormData() domain.FormRecord {
	return a.sess.Form.Clone()
}

// UpdateFormData shallow-merges a partial record. Nothing is validated or rejected.
// A patch that changes the industry category without naming a detail clears the detail.
func (a *Aggregator) UpdateFormData(p domain.FormPatch) {
	if p.IsEmpty() {
		return
	}
	a.sess.Form = merge(a.sess.Form, p)
	a.touch()
}

// CurrentStep returns the step the session is on.
func (a *Aggregator) CurrentStep() Step {
	return Step(a.sess.CurrentStep)
}

// SetCurrentStep records the step the session is on.
func (a *Aggregator) SetCurrentStep(s Step) error {
	if !s.Valid() {
		return fmt.Errorf("unknown step %d", int(s))
	}
	a.sess.CurrentStep = int(s)
	a.touch()
	return nil
}

// SelectIndustryCategory picks a category and always clears the detail.
func (a *Aggregator) SelectIndustryCategory(category string) {
	a.sess.Form.IndustryCategory = category
	a.sess.Form.Industry = ""
	a.touch()
}

// SetCustomBudget stores a hand-typed budget. Non-digits are ignored,
// so "1,000,000원" is one million. Values above MaxCustomBudget are rejected
// with ErrBudgetCeiling and the stored amount is left as it was.
func (a *Aggregator) SetCustomBudget(raw string) error {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	var amount int64
	if digits != "" {
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || n > MaxCustomBudget {
			return ErrBudgetCeiling
		}
		amount = n
	}
	a.sess.Form.BudgetAmount = amount
	a.sess.Form.BudgetRange = CustomBudgetLabel
	a.touch()
	return nil
}

// SelectBudgetPreset stores one of the predefined capital ranges.
func (a *Aggregator) SelectBudgetPreset(p catalog.BudgetPreset) {
	a.sess.Form.BudgetAmount = p.Amount
	a.sess.Form.BudgetRange = p.Label
	a.touch()
}

func (a *Aggregator) touch() {
	a.sess.UpdatedAt = a.now()
}

func merge(f domain.FormRecord, p domain.FormPatch) domain.FormRecord {
	out := p.Apply(f)
	if out.IndustryCategory != f.IndustryCategory && p.Industry == nil {
		out.Industry = ""
	}
	return out
}
