package wizard

import (
	"slices"

	"github.com/ashureev/startup-navigator/internal/domain"
)

// Validate returns a *ValidationError when form lacks what step requires.
func (f *Flow) Validate(step Step, form domain.FormRecord) error {
	v := &ValidationError{Step: step}

	switch step {
	case StepProfile:
		if form.Age == "" {
			v.missing("age", "만 나이를 선택해주세요")
		} else if age, ok := parseLeadingInt(form.Age); !ok || age <= 0 {
			// Same reading as BuildRequest, so "34세" passes here and maps to 34.
			v.invalid("age", "만 나이를 선택해주세요")
		}
		switch form.Gender {
		case domain.GenderUnset:
			v.missing("gender", "해당하는 성별을 선택해주세요")
		case domain.GenderMale, domain.GenderFemale:
		default:
			v.invalid("gender", "해당하는 성별을 선택해주세요")
		}
		if form.MBTI != "" && form.MBTI != domain.MBTINone && !f.cat.IsMBTI(form.MBTI) {
			v.invalid("mbti", "MBTI를 다시 선택해주세요")
		}
		switch form.HasStartupExperience {
		case domain.ExperienceUnset:
			v.missing("hasStartupExperience", "해당하는 항목을 선택해주세요")
		case domain.ExperienceFirstTime, domain.ExperienceExperienced:
		default:
			v.invalid("hasStartupExperience", "해당하는 항목을 선택해주세요")
		}

	case StepProjectType:
		switch form.ProjectType {
		case domain.ProjectTypeNew, domain.ProjectTypeExisting:
		case domain.ProjectTypeUnset:
			v.missing("projectType", "프로젝트 유형을 선택해주세요")
		default:
			v.invalid("projectType", "프로젝트 유형을 선택해주세요")
		}

	case StepIndustryCategory:
		if form.IndustryCategory == "" {
			v.missing("industryCategory", "업종을 선택해주세요")
		} else if _, ok := f.cat.Industry(form.IndustryCategory); !ok {
			v.invalid("industryCategory", "업종을 선택해주세요")
		}

	case StepIndustryDetail:
		if form.IndustryCategory == "" {
			v.missing("industryCategory", "업종을 먼저 선택해주세요")
		}
		if form.Industry == "" {
			v.missing("industry", "세부 업종을 선택해주세요")
		} else if form.IndustryCategory != "" && !f.cat.HasDetail(form.IndustryCategory, form.Industry) {
			v.invalid("industry", "세부 업종을 선택해주세요")
		}

	case StepDistrict:
		district := form.PrimaryDistrict()
		if district == "" {
			v.missing("selectedDistricts", "지역을 선택해주세요")
		} else if !f.cat.HasDistrict(district) {
			v.invalid("selectedDistricts", "지역을 선택해주세요")
		}
		if form.BudgetAmount <= 0 {
			v.missing("budgetAmount", "자본금을 선택하거나 입력해주세요")
		}

	case StepBusinessGoals:
		if len(form.BusinessGoals) == 0 {
			v.missing("businessGoals", "목표를 하나 이상 선택해주세요")
		}
		for _, g := range form.BusinessGoals {
			if _, ok := f.cat.BusinessGoal(g); !ok && !slices.Contains(v.Invalid, "businessGoals") {
				v.invalid("businessGoals", "목표를 다시 선택해주세요")
			}
		}
	}

	if v.empty() {
		return nil
	}
	return v
}
