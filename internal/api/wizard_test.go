package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/startup-navigator/internal/catalog"
	"github.com/ashureev/startup-navigator/internal/session"
	"github.com/ashureev/startup-navigator/internal/store"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

func TestGetSession_Initial(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})

	out := env.mustDo(t, http.MethodGet, "/api/wizard", nil, http.StatusOK)

	assert.Equal(t, float64(1), out["currentStep"])
	assert.Equal(t, "profile", out["stepName"])
	assert.Equal(t, "/profile-info", out["path"])
	assert.Equal(t, float64(10), out["totalSteps"])
	form := out["formData"].(map[string]any)
	assert.Equal(t, []any{}, form["selectedDistricts"])
	assert.Nil(t, form["projectType"])
}

func TestCommitStep_ValidationGap(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})

	out := env.mustDo(t, http.MethodPost, "/api/wizard/steps/profile", map[string]any{"gender": "F"}, http.StatusUnprocessableEntity)

	assert.Equal(t, "validation_failed", out["error"])
	assert.Equal(t, string(CodeInvalidInput), out["code"])
	assert.Equal(t, "profile", out["step"])
	assert.Equal(t, []any{"age", "hasStartupExperience"}, out["missing"])
	assert.Equal(t, "만 나이를 선택해주세요", out["message"])

	view := env.mustDo(t, http.MethodGet, "/api/wizard", nil, http.StatusOK)
	assert.Equal(t, float64(1), view["currentStep"])
}

func TestCommitStep_Errors(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})

	out := env.mustDo(t, http.MethodPost, "/api/wizard/steps/district", map[string]any{"selectedDistricts": []string{"강남구"}, "budgetAmount": 1}, http.StatusConflict)
	assert.Equal(t, string(CodeConflict), out["code"])

	env.mustDo(t, http.MethodPost, "/api/wizard/steps/nowhere", nil, http.StatusNotFound)
	env.mustDo(t, http.MethodPost, "/api/wizard/steps/profile", map[string]any{"favouriteColour": "red"}, http.StatusBadRequest)
	env.mustDo(t, http.MethodPost, "/api/wizard/back", nil, http.StatusConflict)
}

func TestBudgetCeiling(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})
	env.mustDo(t, http.MethodPut, "/api/wizard/budget", map[string]any{"preset": "10_50"}, http.StatusOK)

	out := env.mustDo(t, http.MethodPut, "/api/wizard/budget", map[string]any{"amount": "5,000,000,001"}, http.StatusUnprocessableEntity)
	assert.Equal(t, string(CodeOutOfRange), out["code"])
	assert.Equal(t, "50억원 이하로 입력해주세요", out["message"])

	env.mustDo(t, http.MethodPatch, "/api/wizard/form", map[string]any{"budgetAmount": 6_000_000_000}, http.StatusUnprocessableEntity)

	view := env.mustDo(t, http.MethodGet, "/api/wizard", nil, http.StatusOK)
	form := view["formData"].(map[string]any)
	assert.Equal(t, float64(30_000_000), form["budgetAmount"])

	out = env.mustDo(t, http.MethodPut, "/api/wizard/budget", map[string]any{"amount": "5,000,000,000"}, http.StatusOK)
	form = out["formData"].(map[string]any)
	assert.Equal(t, float64(5_000_000_000), form["budgetAmount"])
	assert.Equal(t, wizard.CustomBudgetLabel, form["budgetRange"])

	env.mustDo(t, http.MethodPut, "/api/wizard/budget", map[string]any{"preset": "billions"}, http.StatusUnprocessableEntity)
}

func TestIndustryCategoryClearsDetail(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})
	env.mustDo(t, http.MethodPatch, "/api/wizard/form", map[string]any{"industryCategory": "한식", "industry": "냉면 전문점"}, http.StatusOK)

	out := env.mustDo(t, http.MethodPut, "/api/wizard/industry-category", map[string]any{"category": "중식"}, http.StatusOK)
	form := out["formData"].(map[string]any)
	assert.Equal(t, "중식", form["industryCategory"])
	assert.Equal(t, "", form["industry"])
	assert.NotEmpty(t, out["conceptTags"])

	env.mustDo(t, http.MethodPut, "/api/wizard/industry-category", map[string]any{"category": "우주식"}, http.StatusUnprocessableEntity)
}

func TestTabsAreIndependent(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})
	env.mustDo(t, http.MethodPatch, "/api/wizard/form", map[string]any{"age": "51"}, http.StatusOK)

	env.tab = "tab-2"
	out := env.mustDo(t, http.MethodGet, "/api/wizard", nil, http.StatusOK)
	form := out["formData"].(map[string]any)
	assert.Equal(t, "", form["age"])
}

func TestJumpFromSummaryAndBack(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})
	env.walkToSummary(t)

	out := env.mustDo(t, http.MethodPost, "/api/wizard/jump/district", nil, http.StatusOK)
	assert.Equal(t, float64(wizard.StepDistrict), out["currentStep"])

	out = env.mustDo(t, http.MethodPost, "/api/wizard/back", nil, http.StatusOK)
	assert.Equal(t, "concept", out["stepName"])

	env.mustDo(t, http.MethodPost, "/api/wizard/jump/summary", nil, http.StatusConflict)
}

func TestPreviewRequest(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})
	env.walkToSummary(t)

	out := env.mustDo(t, http.MethodGet, "/api/wizard/request", nil, http.StatusOK)
	personal := out["personalInfo"].(map[string]any)
	project := out["projectInfo"].(map[string]any)
	assert.Equal(t, float64(34), personal["age"])
	assert.Equal(t, "ISTJ", personal["mbti"])
	assert.Equal(t, true, personal["self_employed_experience"])
	assert.Equal(t, "백반/가정식 전문점", project["foodSector"])
	assert.Equal(t, float64(50_000_000), project["capital"])
}

func TestResetSession(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})
	env.walkToSummary(t)

	out := env.mustDo(t, http.MethodDelete, "/api/wizard", nil, http.StatusOK)
	assert.Equal(t, float64(1), out["currentStep"])
	assert.Equal(t, "", out["formData"].(map[string]any)["age"])
}

func TestSessionAccessWithoutMiddlewarePanics(t *testing.T) {
	repo := store.NewMemory()
	h := NewWizardHandler(NewHandler(repo, session.NewManager(repo)), catalog.Default(), &fakeAnalyzer{})

	w := httptest.NewRecorder()
	middleware.Recoverer(http.HandlerFunc(h.GetSession)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/wizard", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
}
