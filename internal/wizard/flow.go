package wizard

import (
	"github.com/ashureev/startup-navigator/internal/catalog"
	"github.com/ashureev/startup-navigator/internal/domain"
)

// Flow enforces the step sequence and each step's required answers.
type Flow struct {
	cat *catalog.Catalog
}

// NewFlow returns a flow validating against the given reference catalog.
func NewFlow(cat *catalog.Catalog) *Flow {
	return &Flow{cat: cat}
}

// Commit validates a step's answers merged over the stored record and, when
// nothing required is missing, stores them and advances to the next step.
// Earlier steps may be committed again; later ones may not be reached early.
func (f *Flow) Commit(a *Aggregator, step Step, p domain.FormPatch) error {
	cur := a.CurrentStep()
	if !step.IsWizard() {
		return &TransitionError{From: cur, To: step, Reason: "not a wizard step"}
	}
	if step > cur {
		return &TransitionError{From: cur, To: step, Reason: "step not reached yet"}
	}
	if step == StepConfirmation {
		return &TransitionError{From: cur, To: StepLoading, Reason: "confirmation completes by submitting"}
	}
	if p.BudgetAmount != nil && (*p.BudgetAmount > MaxCustomBudget || *p.BudgetAmount < 0) {
		return ErrBudgetCeiling
	}
	if step == StepDistrict && p.SelectedDistricts != nil && len(*p.SelectedDistricts) > 1 {
		first := (*p.SelectedDistricts)[:1]
		p.SelectedDistricts = &first
	}

	candidate := merge(a.sess.Form, p)
	if err := f.Validate(step, candidate); err != nil {
		return err
	}

	a.UpdateFormData(p)
	return a.SetCurrentStep(step + 1)
}

// Skip leaves an optional step with its answers cleared.
func (f *Flow) Skip(a *Aggregator, step Step) error {
	cur := a.CurrentStep()
	if !step.Skippable() {
		return &TransitionError{From: cur, To: step + 1, Reason: "step " + step.Name() + " cannot be skipped"}
	}
	if step > cur {
		return &TransitionError{From: cur, To: step, Reason: "step not reached yet"}
	}
	empty := []string{}
	blank := ""
	a.UpdateFormData(domain.FormPatch{VisionTags: &empty, VisionText: &blank})
	return a.SetCurrentStep(step + 1)
}

// Back moves to the predecessor of the current step.
func (f *Flow) Back(a *Aggregator) (Step, error) {
	cur := a.CurrentStep()
	switch {
	case cur == StepProfile:
		return cur, &TransitionError{From: cur, To: cur, Reason: "already on the first step"}
	case !cur.IsWizard():
		return cur, &TransitionError{From: cur, To: cur - 1, Reason: "the roadmap is final"}
	}
	if err := a.SetCurrentStep(cur - 1); err != nil {
		return cur, err
	}
	return cur - 1, nil
}

// Jump re-enters an earlier step from an edit affordance without replaying
// the steps in between.
func (f *Flow) Jump(a *Aggregator, step Step) error {
	cur := a.CurrentStep()
	if !step.IsWizard() {
		return &TransitionError{From: cur, To: step, Reason: "not a wizard step"}
	}
	if step > cur {
		return &TransitionError{From: cur, To: step, Reason: "cannot jump ahead"}
	}
	return a.SetCurrentStep(step)
}
