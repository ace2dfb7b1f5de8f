// Package wizard implements the founder questionnaire: the form aggregator,
// the step sequence with its per-step validation, construction of the analysis
// request, and the checklist views derived from a returned report.
package wizard

import (
	"strconv"
)

// Step is a position in the wizard. Steps 1..TotalSteps collect answers;
// the loading and roadmap views follow a successful submission.
type Step int

const (
	StepProfile Step = iota + 1
	StepProjectType
	StepIndustryCategory
	StepIndustryDetail
	StepConcept
	StepDistrict
	StepVision
	StepBusinessGoals
	StepSummary
	StepConfirmation
	StepLoading
	StepRoadmap
)

// TotalSteps is the number of data-collection steps.
const TotalSteps = int(StepConfirmation)

type stepInfo struct {
	name      string
	path      string
	skippable bool
}

var stepTable = map[Step]stepInfo{
	StepProfile:          {name: "profile", path: "/profile-info"},
	StepProjectType:      {name: "project-type", path: "/project-type"},
	StepIndustryCategory: {name: "industry-category", path: "/industry-category-selection"},
	StepIndustryDetail:   {name: "industry-detail", path: "/industry-detail-selection"},
	StepConcept:          {name: "concept", path: "/concept-selection"},
	StepDistrict:         {name: "district", path: "/district-selection"},
	StepVision:           {name: "vision", path: "/vision-values", skippable: true},
	StepBusinessGoals:    {name: "business-goals", path: "/business-goals"},
	StepSummary:          {name: "summary", path: "/selection-summary"},
	StepConfirmation:     {name: "confirmation", path: "/confirmation"},
	StepLoading:          {name: "loading", path: "/roadmap-loading"},
	StepRoadmap:          {name: "roadmap", path: "/roadmap"},
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	_, ok := stepTable[s]
	return ok
}

// IsWizard reports whether s is one of the data-collection steps.
func (s Step) IsWizard() bool {
	return s >= StepProfile && s <= StepConfirmation
}

// Name returns the step's stable identifier.
func (s Step) Name() string {
	if info, ok := stepTable[s]; ok {
		return info.name
	}
	return "step-" + strconv.Itoa(int(s))
}

// Path returns the client route of the step.
func (s Step) Path() string {
	return stepTable[s].path
}

// Skippable reports whether the step offers an explicit skip action.
func (s Step) Skippable() bool {
	return stepTable[s].skippable
}

// String implements fmt.Stringer.
func (s Step) String() string {
	return s.Name()
}

// ParseStep accepts a step name ("district") or its 1-based number ("6").
func ParseStep(v string) (Step, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		s := Step(n)
		return s, s.Valid()
	}
	for s, info := range stepTable {
		if info.name == v {
			return s, true
		}
	}
	return 0, false
}

// Route is a client-observable path and the view it renders.
type Route struct {
	Path string `json:"path"`
	View string `json:"view"`
	Step int    `json:"step,omitempty"`
}

// Routes returns the ordered client route table, welcome screen first.
func Routes() []Route {
	routes := []Route{
		{Path: "/", View: "welcome"},
		{Path: "/intro", View: "intro"},
		{Path: "/home", View: "home"},
		{Path: "/contents-list", View: "contents-list"},
	}
	for s := StepProfile; s <= StepRoadmap; s++ {
		routes = append(routes, Route{Path: s.Path(), View: s.Name(), Step: int(s)})
	}
	return routes
}

// LookupRoute finds the route for a client path.
func LookupRoute(path string) (Route, bool) {
	for _, r := range Routes() {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}
