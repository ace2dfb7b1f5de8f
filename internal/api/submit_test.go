package api

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/startup-navigator/internal/backend"
	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

func testReport() *domain.Report {
	return &domain.Report{
		ExecutiveSummary: "강남구 가정식 백반 창업 분석",
		RecommendedItems: []domain.RecommendedItem{{
			Item: "가정식 백반",
			LocationStrategy: domain.LocationStrategy{
				RecommendedAreas: []string{"역삼동"},
			},
		}},
		Roadmaps: []domain.Roadmap{{
			Item: "가정식 백반",
			AdministrativeTasks: domain.AdministrativeTasks{
				RequiredLicenses: []string{"영업신고증", "위생교육 이수증"},
			},
		}},
	}
}

func TestSubmit_Success(t *testing.T) {
	analyzer := &fakeAnalyzer{report: testReport()}
	env := newTestEnv(t, analyzer)
	env.walkToSummary(t)

	out := env.mustDo(t, http.MethodGet, "/api/report", nil, http.StatusAccepted)
	assert.Equal(t, "pending", out["status"])

	out = env.mustDo(t, http.MethodPost, "/api/wizard/submit", nil, http.StatusOK)
	assert.NotEmpty(t, out["submissionId"])
	assert.Equal(t, float64(wizard.StepRoadmap), out["currentStep"])
	assert.Equal(t, "/roadmap", out["path"])
	assert.Equal(t, 1, analyzer.callCount())

	sent := analyzer.payloads[0]
	assert.Equal(t, 34, sent.PersonalInfo.Age)
	assert.Equal(t, "강남구", sent.ProjectInfo.Region)

	out = env.mustDo(t, http.MethodGet, "/api/report", nil, http.StatusOK)
	assert.Equal(t, "ready", out["status"])

	sess := env.storedSession(t)
	assert.False(t, sess.Submitting)
	assert.Empty(t, sess.LastError)
	assert.Equal(t, int(wizard.StepRoadmap), sess.CurrentStep)
}

func TestSubmit_TimeoutKeepsStep(t *testing.T) {
	analyzer := &fakeAnalyzer{err: backend.ErrTimeout}
	env := newTestEnv(t, analyzer)
	env.walkToSummary(t)

	out := env.mustDo(t, http.MethodPost, "/api/wizard/submit", nil, http.StatusGatewayTimeout)

	assert.Equal(t, string(CodeTimeout), out["code"])
	assert.Equal(t, "요청 시간이 초과되었습니다 (10분). 다시 시도해주세요.", out["message"])

	sess := env.storedSession(t)
	assert.Equal(t, int(wizard.StepSummary), sess.CurrentStep)
	assert.False(t, sess.Submitting)
	assert.Equal(t, "요청 시간이 초과되었습니다 (10분). 다시 시도해주세요.", sess.LastError)
	assert.Nil(t, sess.Report)

	view := env.mustDo(t, http.MethodGet, "/api/wizard", nil, http.StatusOK)
	assert.Equal(t, false, view["submitting"])
	assert.Equal(t, "summary", view["stepName"])
}

func TestSubmit_BackendErrors(t *testing.T) {
	t.Run("detail", func(t *testing.T) {
		env := newTestEnv(t, &fakeAnalyzer{err: &backend.APIError{Status: 400, Detail: "invalid region"}})
		env.walkToSummary(t)
		out := env.mustDo(t, http.MethodPost, "/api/wizard/submit", nil, http.StatusBadGateway)
		assert.Equal(t, "invalid region", out["message"])
	})

	t.Run("network", func(t *testing.T) {
		env := newTestEnv(t, &fakeAnalyzer{err: assert.AnError})
		env.walkToSummary(t)
		out := env.mustDo(t, http.MethodPost, "/api/wizard/submit", nil, http.StatusBadGateway)
		assert.Equal(t, string(CodeBackend), out["code"])
		assert.Equal(t, assert.AnError.Error(), out["message"])
	})
}

func TestSubmit_BeforeSummaryIsRejected(t *testing.T) {
	analyzer := &fakeAnalyzer{report: testReport()}
	env := newTestEnv(t, analyzer)

	env.mustDo(t, http.MethodPost, "/api/wizard/submit", nil, http.StatusConflict)
	assert.Equal(t, 0, analyzer.callCount())
}

func TestSubmit_SingleFlight(t *testing.T) {
	analyzer := &fakeAnalyzer{
		report:  testReport(),
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	env := newTestEnv(t, analyzer)
	env.walkToSummary(t)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstStatus int
	go func() {
		defer wg.Done()
		firstStatus, _ = env.do(t, http.MethodPost, "/api/wizard/submit", nil)
	}()

	select {
	case <-analyzer.started:
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not reach the analyzer")
	}

	out := env.mustDo(t, http.MethodPost, "/api/wizard/submit", nil, http.StatusConflict)
	assert.Equal(t, "submission_in_progress", out["error"])

	// Answers are frozen while the analysis runs.
	env.mustDo(t, http.MethodPatch, "/api/wizard/form", map[string]any{"age": "50"}, http.StatusConflict)
	view := env.mustDo(t, http.MethodGet, "/api/wizard", nil, http.StatusOK)
	assert.Equal(t, true, view["submitting"])

	close(analyzer.block)
	wg.Wait()
	require.Equal(t, http.StatusOK, firstStatus)
	assert.Equal(t, 1, analyzer.callCount())
}

func TestRoadmapChecklist(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{report: testReport()})
	env.walkToSummary(t)
	env.mustDo(t, http.MethodPost, "/api/wizard/submit", nil, http.StatusOK)

	out := env.mustDo(t, http.MethodGet, "/api/report/roadmaps/0", nil, http.StatusOK)
	assert.Equal(t, float64(0), out["overallProgress"])
	assert.Equal(t, "admin-1", out["nextItem"].(map[string]any)["id"])

	out = env.mustDo(t, http.MethodPut, "/api/report/roadmaps/0/checklist/admin-1", nil, http.StatusOK)
	assert.Equal(t, float64(33), out["overallProgress"])
	assert.Equal(t, "admin-2", out["nextItem"].(map[string]any)["id"])

	out = env.mustDo(t, http.MethodPut, "/api/report/roadmaps/0/checklist/admin-1", map[string]any{"completed": true}, http.StatusOK)
	assert.Equal(t, float64(33), out["overallProgress"], "explicit value is idempotent")

	env.mustDo(t, http.MethodPut, "/api/report/roadmaps/0/checklist/admin-2", nil, http.StatusOK)
	out = env.mustDo(t, http.MethodPut, "/api/report/roadmaps/0/checklist/location-1", nil, http.StatusOK)
	assert.Equal(t, float64(100), out["overallProgress"])
	assert.Nil(t, out["nextItem"])

	groups := out["groups"].([]any)
	menu := groups[3].(map[string]any)
	assert.Equal(t, "menu", menu["category"])
	assert.Equal(t, float64(0), menu["progress"])

	env.mustDo(t, http.MethodPut, "/api/report/roadmaps/0/checklist/admin-9", nil, http.StatusNotFound)
	env.mustDo(t, http.MethodGet, "/api/report/roadmaps/3", nil, http.StatusNotFound)
	env.mustDo(t, http.MethodGet, "/api/report/roadmaps/x", nil, http.StatusNotFound)

	out = env.mustDo(t, http.MethodDelete, "/api/report/roadmaps/0/checklist", nil, http.StatusOK)
	assert.Equal(t, float64(0), out["overallProgress"])
}
