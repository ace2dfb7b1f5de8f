//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/startup-navigator/internal/backend"
	"github.com/ashureev/startup-navigator/internal/catalog"
	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/identity"
	"github.com/ashureev/startup-navigator/internal/session"
	"github.com/ashureev/startup-navigator/internal/store"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

type fakeAnalyzer struct {
	mu       sync.Mutex
	calls    int
	payloads []domain.SubmitRequest
	report   *domain.Report
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (f *fakeAnalyzer) Submit(ctx context.Context, payload domain.SubmitRequest, requestID string) (*domain.Report, error) {
	f.mu.Lock()
	f.calls++
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.report, f.err
}

func (f *fakeAnalyzer) HealthCheck(context.Context) (*backend.HealthStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &backend.HealthStatus{Status: "ok"}, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	srv      *httptest.Server
	client   *http.Client
	repo     *store.MemoryStore
	analyzer *fakeAnalyzer
	tab      string
}

func newTestEnv(t *testing.T, analyzer *fakeAnalyzer) *testEnv {
	t.Helper()
	repo := store.NewMemory()
	cat := catalog.Default()
	base := NewHandler(repo, session.NewManager(repo))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	NewHealthHandler(repo, analyzer, time.Second).RegisterHealth(r)
	NewCatalogHandler(cat).RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(identity.NewResolver(repo, true).Identify)
		NewWizardHandler(base, cat, analyzer).RegisterRoutes(r)
		NewReportHandler(base).RegisterRoutes(r)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &testEnv{srv: srv, client: &http.Client{Jar: jar}, repo: repo, analyzer: analyzer, tab: "tab-1"}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set(identity.TabHeader, e.tab)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func (e *testEnv) mustDo(t *testing.T, method, path string, body any, want int) map[string]any {
	t.Helper()
	status, out := e.do(t, method, path, body)
	if status != want {
		t.Fatalf("%s %s: status %d, want %d (body %v)", method, path, status, want, out)
	}
	return out
}

// walkToSummary answers every step the way the happy-path founder does.
func (e *testEnv) walkToSummary(t *testing.T) {
	t.Helper()
	e.mustDo(t, http.MethodPost, "/api/wizard/steps/profile", map[string]any{
		"age": "34", "gender": "M", "mbti": "none", "hasStartupExperience": "경험 있음",
	}, http.StatusOK)
	e.mustDo(t, http.MethodPost, "/api/wizard/steps/project-type", map[string]any{"projectType": "new"}, http.StatusOK)
	e.mustDo(t, http.MethodPut, "/api/wizard/industry-category", map[string]any{"category": "한식"}, http.StatusOK)
	e.mustDo(t, http.MethodPost, "/api/wizard/steps/industry-category", nil, http.StatusOK)
	e.mustDo(t, http.MethodPost, "/api/wizard/steps/industry-detail", map[string]any{"industry": "백반/가정식 전문점"}, http.StatusOK)
	e.mustDo(t, http.MethodPost, "/api/wizard/steps/concept", map[string]any{"concepts": []string{"가정식"}}, http.StatusOK)
	e.mustDo(t, http.MethodPut, "/api/wizard/budget", map[string]any{"amount": "50,000,000"}, http.StatusOK)
	e.mustDo(t, http.MethodPost, "/api/wizard/steps/district", map[string]any{"selectedDistricts": []string{"강남구"}}, http.StatusOK)
	e.mustDo(t, http.MethodPost, "/api/wizard/steps/vision/skip", nil, http.StatusOK)
	out := e.mustDo(t, http.MethodPost, "/api/wizard/steps/business-goals", map[string]any{"businessGoals": []string{"sales"}}, http.StatusOK)
	if out["currentStep"] != float64(wizard.StepSummary) {
		t.Fatalf("currentStep = %v, want summary", out["currentStep"])
	}
}

func (e *testEnv) userID(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(e.srv.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == identity.DeviceCookie {
			return c.Value
		}
	}
	t.Fatal("no identity cookie")
	return ""
}

func (e *testEnv) storedSession(t *testing.T) *domain.WizardSession {
	t.Helper()
	sess, err := e.repo.GetWizardSession(context.Background(), e.userID(t), e.tab)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess == nil {
		t.Fatal("no stored session")
	}
	return sess
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"validation", &wizard.ValidationError{Step: wizard.StepProfile, Missing: []string{"age"}}, http.StatusUnprocessableEntity, CodeInvalidInput},
		{"bound", wizard.ErrBudgetCeiling, http.StatusUnprocessableEntity, CodeOutOfRange},
		{"transition", &wizard.TransitionError{From: 1, To: 6}, http.StatusConflict, CodeConflict},
		{"in flight", session.ErrSubmissionInFlight, http.StatusConflict, CodeConflict},
		{"roadmap", wizard.ErrRoadmapIndex, http.StatusNotFound, CodeNotFound},
		{"timeout", backend.ErrTimeout, http.StatusGatewayTimeout, CodeTimeout},
		{"backend", &backend.APIError{Status: 500, Detail: "boom"}, http.StatusBadGateway, CodeBackend},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body errorBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})
	out := env.mustDo(t, http.MethodGet, "/health", nil, http.StatusOK)
	if out["status"] != "healthy" {
		t.Errorf("status = %v", out["status"])
	}
	out = env.mustDo(t, http.MethodGet, "/api/backend/health", nil, http.StatusOK)
	if out["status"] != "ok" {
		t.Errorf("backend status = %v", out["status"])
	}

	down := newTestEnv(t, &fakeAnalyzer{err: errors.New("connection refused")})
	down.mustDo(t, http.MethodGet, "/api/backend/health", nil, http.StatusServiceUnavailable)
}

func TestCatalogAndRoutes(t *testing.T) {
	env := newTestEnv(t, &fakeAnalyzer{})
	out := env.mustDo(t, http.MethodGet, "/api/catalog", nil, http.StatusOK)
	if districts, _ := out["districts"].([]any); len(districts) != 25 {
		t.Errorf("got %d districts, want 25", len(districts))
	}
	out = env.mustDo(t, http.MethodGet, "/api/routes", nil, http.StatusOK)
	if out["totalSteps"] != float64(10) {
		t.Errorf("totalSteps = %v", out["totalSteps"])
	}
}
