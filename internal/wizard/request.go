package wizard

import (
	"strings"

	"github.com/ashureev/startup-navigator/internal/domain"
)

// Fallbacks used when building the analysis request from an incomplete record.
const (
	DefaultName        = "사용자"
	DefaultAge         = 30
	DefaultMBTI        = "ISTJ"
	DefaultPreviousJob = "직장인"
	DefaultFoodSector  = "한식"
	DefaultRegion      = "강남구"
	DefaultCapital     = int64(50_000_000)
)

// BuildRequest maps the form record to the backend payload. Every field has a
// fallback so the request is always complete; it never fails.
func BuildRequest(f domain.FormRecord) domain.SubmitRequest {
	name := f.Name
	if name == "" {
		name = DefaultName
	}

	gender := "m"
	if f.Gender == domain.GenderFemale {
		gender = "f"
	}

	age, ok := parseLeadingInt(f.Age)
	if !ok || age <= 0 {
		age = DefaultAge
	}

	mbti := f.MBTI
	if mbti == "" || mbti == domain.MBTINone {
		mbti = DefaultMBTI
	}

	job := f.PreviousOccupationDetail
	if job == "" {
		job = DefaultPreviousJob
	}

	sector := f.Industry
	if sector == "" {
		sector = f.IndustryCategory
	}
	if sector == "" {
		sector = DefaultFoodSector
	}

	region := f.PrimaryDistrict()
	if region == "" {
		region = DefaultRegion
	}

	capital := f.BudgetAmount
	if capital <= 0 {
		capital = DefaultCapital
	}

	return domain.SubmitRequest{
		PersonalInfo: domain.PersonalInfo{
			Name:                   name,
			Gender:                 gender,
			Age:                    age,
			MBTI:                   mbti,
			PreviousJob:            job,
			SelfEmployedExperience: f.HasStartupExperience == domain.ExperienceExperienced,
		},
		ProjectInfo: domain.ProjectInfo{
			FoodSector: sector,
			Region:     region,
			Capital:    capital,
		},
	}
}

// parseLeadingInt reads an optionally signed run of leading digits after
// whitespace, ignoring whatever follows: "34세" is 34, "abc" fails.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n < 1<<30 {
			n = n*10 + int(s[digits]-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
