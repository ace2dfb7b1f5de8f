package domain

import "encoding/json"

// Gender is the founder's gender as selected in the profile step.
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// StartupExperience records whether the founder has run a business before.
type StartupExperience string

const (
	ExperienceUnset       StartupExperience = ""
	ExperienceFirstTime   StartupExperience = "처음 창업"
	ExperienceExperienced StartupExperience = "경험 있음"
)

// ProjectType distinguishes a brand new store from an existing one.
// The empty value is serialized as JSON null.
type ProjectType string

const (
	ProjectTypeUnset    ProjectType = ""
	ProjectTypeNew      ProjectType = "new"
	ProjectTypeExisting ProjectType = "existing"
)

// MarshalJSON encodes the unset project type as null.
func (p ProjectType) MarshalJSON() ([]byte, error) {
	if p == ProjectTypeUnset {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON accepts null as the unset project type.
func (p *ProjectType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ProjectTypeUnset
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = ProjectType(s)
	return nil
}

// MBTINone is the sentinel the profile step stores when the founder skips MBTI.
const MBTINone = "none"

// FormRecord is the single aggregate of every wizard answer for one session.
type FormRecord struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Profile
	Age                        string            `json:"age" yaml:"age"`
	Gender                     Gender            `json:"gender" yaml:"gender"`
	PreviousOccupationCategory string            `json:"previousOccupationCategory" yaml:"previousOccupationCategory"`
	PreviousOccupationDetail   string            `json:"previousOccupationDetail" yaml:"previousOccupationDetail"`
	MBTI                       string            `json:"mbti" yaml:"mbti"`
	HasStartupExperience       StartupExperience `json:"hasStartupExperience" yaml:"hasStartupExperience"`

	ProjectType ProjectType `json:"projectType" yaml:"projectType"`

	IndustryCategory string   `json:"industryCategory" yaml:"industryCategory"`
	Industry         string   `json:"industry" yaml:"industry"`
	BusinessOptions  []string `json:"businessOptions" yaml:"businessOptions"`
	Concepts         []string `json:"concepts" yaml:"concepts"`

	SelectedDistricts []string `json:"selectedDistricts" yaml:"selectedDistricts"`
	BudgetAmount      int64    `json:"budgetAmount" yaml:"budgetAmount"`
	BudgetRange       string   `json:"budgetRange" yaml:"budgetRange"`

	VisionTags    []string `json:"visionTags" yaml:"visionTags"`
	VisionText    string   `json:"visionText" yaml:"visionText"`
	BusinessGoals []string `json:"businessGoals" yaml:"businessGoals"`
}

// NewFormRecord returns the empty record a session starts with.
// Collections are non-nil so they encode as [] rather than null.
func NewFormRecord() FormRecord {
	return FormRecord{
		BusinessOptions:   []string{},
		Concepts:          []string{},
		SelectedDistricts: []string{},
		VisionTags:        []string{},
		BusinessGoals:     []string{},
	}
}

// PrimaryDistrict returns the first selected district, or "" when none is selected.
func (f FormRecord) PrimaryDistrict() string {
	if len(f.SelectedDistricts) == 0 {
		return ""
	}
	return f.SelectedDistricts[0]
}

// Clone returns a deep copy of the record.
func (f FormRecord) Clone() FormRecord {
	out := f
	out.BusinessOptions = cloneStrings(f.BusinessOptions)
	out.Concepts = cloneStrings(f.Concepts)
	out.SelectedDistricts = cloneStrings(f.SelectedDistricts)
	out.VisionTags = cloneStrings(f.VisionTags)
	out.BusinessGoals = cloneStrings(f.BusinessGoals)
	return out
}

// FormPatch is a partial FormRecord. Nil fields are left untouched on merge;
// non-nil collections replace the stored collection wholesale.
type FormPatch struct {
	Name                       *string            `json:"name,omitempty"`
	Age                        *string            `json:"age,omitempty"`
	Gender                     *Gender            `json:"gender,omitempty"`
	PreviousOccupationCategory *string            `json:"previousOccupationCategory,omitempty"`
	PreviousOccupationDetail   *string            `json:"previousOccupationDetail,omitempty"`
	MBTI                       *string            `json:"mbti,omitempty"`
	HasStartupExperience       *StartupExperience `json:"hasStartupExperience,omitempty"`
	ProjectType                *ProjectType       `json:"projectType,omitempty"`
	IndustryCategory           *string            `json:"industryCategory,omitempty"`
	Industry                   *string            `json:"industry,omitempty"`
	BusinessOptions            *[]string          `json:"businessOptions,omitempty"`
	Concepts                   *[]string          `json:"concepts,omitempty"`
	SelectedDistricts          *[]string          `json:"selectedDistricts,omitempty"`
	BudgetAmount               *int64             `json:"budgetAmount,omitempty"`
	BudgetRange                *string            `json:"budgetRange,omitempty"`
	VisionTags                 *[]string          `json:"visionTags,omitempty"`
	VisionText                 *string            `json:"visionText,omitempty"`
	BusinessGoals              *[]string          `json:"businessGoals,omitempty"`
}

// IsEmpty reports whether the patch carries no fields.
func (p FormPatch) IsEmpty() bool {
	return p == FormPatch{}
}

// Apply returns the record with the patch merged in. The receiver is not modified.
func (p FormPatch) Apply(f FormRecord) FormRecord {
	out := f.Clone()
	setString(&out.Name, p.Name)
	setString(&out.Age, p.Age)
	if p.Gender != nil {
		out.Gender = *p.Gender
	}
	setString(&out.PreviousOccupationCategory, p.PreviousOccupationCategory)
	setString(&out.PreviousOccupationDetail, p.PreviousOccupationDetail)
	setString(&out.MBTI, p.MBTI)
	if p.HasStartupExperience != nil {
		out.HasStartupExperience = *p.HasStartupExperience
	}
	if p.ProjectType != nil {
		out.ProjectType = *p.ProjectType
	}
	setString(&out.IndustryCategory, p.IndustryCategory)
	setString(&out.Industry, p.Industry)
	setStrings(&out.BusinessOptions, p.BusinessOptions)
	setStrings(&out.Concepts, p.Concepts)
	setStrings(&out.SelectedDistricts, p.SelectedDistricts)
	if p.BudgetAmount != nil {
		out.BudgetAmount = *p.BudgetAmount
	}
	setString(&out.BudgetRange, p.BudgetRange)
	setStrings(&out.VisionTags, p.VisionTags)
	setString(&out.VisionText, p.VisionText)
	setStrings(&out.BusinessGoals, p.BusinessGoals)
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setStrings(dst *[]string, v *[]string) {
	if v == nil {
		return
	}
	if *v == nil {
		*dst = []string{}
		return
	}
	*dst = cloneStrings(*v)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
