package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/metrics"
	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/queue"
	"github.com/piwi3910/CargoLoad/internal/repository"
	"github.com/piwi3910/CargoLoad/internal/service"
	"github.com/piwi3910/CargoLoad/internal/storage"
)

type recordingPublisher struct {
	jobs []queue.Job
}

func (p *recordingPublisher) Publish(ctx context.Context, job queue.Job) error {
	p.jobs = append(p.jobs, job)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.Solver.PopulationSize = 10
	cfg.Solver.TournamentSize = 2
	cfg.Solver.CrossoverRate = 0.8
	cfg.Solver.MutationRate = 0.05
	cfg.Solver.MaxGenerations = 3
	cfg.Solver.MaxDuration = 10
	cfg.Solver.Improvement = "none"
	cfg.Solver.Workers = 1
	cfg.Solver.Seed = 42
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *service.Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	m := metrics.New()
	svc := &service.Service{
		Catalog: storage.NewCatalog(storage.NewLocalStore(t.TempDir())),
		Runs:    repository.NewMemoryStore(),
		Jobs:    pub,
		Metrics: m,
	}
	h, err := NewHandler(cfg, svc, m, nil)
	require.NoError(t, err)
	h.RegisterRoutes()

	srv := httptest.NewServer(h.Mux)
	t.Cleanup(srv.Close)
	return srv, svc, pub
}

func do(t *testing.T, method, url, body string, header http.Header) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

const loadingProblemJSON = `{
	"id": "loading",
	"container": [100, 100, 100],
	"box_types": [
		{"label": "A", "size": [50, 50, 50], "value": 10, "max_count": 2},
		{"label": "B", "size": [100, 100, 25], "value": 5, "max_count": 4}
	]
}`

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())
	status, env := do(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestProblems_CreateGetList(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	status, env := do(t, http.MethodPost, srv.URL+"/problems", loadingProblemJSON, nil)
	require.Equal(t, http.StatusCreated, status, env.Message)

	status, env = do(t, http.MethodGet, srv.URL+"/problems/loading", "", nil)
	require.Equal(t, http.StatusOK, status)
	var pf struct {
		ID        string `json:"id"`
		Container [3]int `json:"container"`
		BoxTypes  []struct {
			Label    string  `json:"label"`
			Value    float64 `json:"value"`
			MaxCount int     `json:"max_count"`
		} `json:"box_types"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pf))
	assert.Equal(t, "loading", pf.ID)
	assert.Equal(t, [3]int{100, 100, 100}, pf.Container)
	require.Len(t, pf.BoxTypes, 2)
	assert.Equal(t, "B", pf.BoxTypes[1].Label)
	assert.Equal(t, 5.0, pf.BoxTypes[1].Value)
	assert.Equal(t, 4, pf.BoxTypes[1].MaxCount)

	status, env = do(t, http.MethodGet, srv.URL+"/problems", "", nil)
	require.Equal(t, http.StatusOK, status)
	var ids []string
	require.NoError(t, json.Unmarshal(env.Data, &ids))
	assert.Equal(t, []string{"loading"}, ids)

	status, _ = do(t, http.MethodGet, srv.URL+"/problems/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProblems_Validation(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed", `{"container": [1,2`, "invalid request body"},
		{"unknown field", `{"container": [1,2,3], "boxes": []}`, "invalid request body"},
		{"no box types", `{"container": [100,100,100], "box_types": []}`, "box_types"},
		{"zero side", `{"container": [100,0,100], "box_types": [{"size": [1,1,1], "max_count": 1}]}`, "container[1]"},
		{"max below min", `{"container": [100,100,100], "box_types": [{"size": [1,1,1], "min_count": 3, "max_count": 2}]}`, "max_count"},
		{"slash in id", `{"id": "../x", "container": [100,100,100], "box_types": [{"size": [1,1,1], "max_count": 1}]}`, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, http.MethodPost, srv.URL+"/problems", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, env.Success)
			assert.Contains(t, env.Message, tt.message)
		})
	}
}

func TestSolve_InlineProblem(t *testing.T) {
	srv, svc, _ := newTestServer(t, testConfig())

	body := `{"problem": ` + loadingProblemJSON + `, "settings": {"group_improvement": "late_best", "max_generations": 5}}`
	status, env := do(t, http.MethodPost, srv.URL+"/solve", body, nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	var resp solveResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, model.RunCompleted, resp.Run.Status)
	assert.Equal(t, model.ImprovementLateBest, resp.Stats.GroupImprovement)
	assert.Equal(t, 5, resp.Stats.Generations)
	assert.Greater(t, resp.Stats.BestValue.Value, 0.0)
	assert.NotEmpty(t, resp.Stats.Placements)

	runs, err := svc.Runs.ListRuns(context.Background(), "loading", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSolve_Errors(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	status, env := do(t, http.MethodPost, srv.URL+"/solve", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "problem_id")

	status, _ = do(t, http.MethodPost, srv.URL+"/solve", `{"problem_id": "nope"}`, nil)
	assert.Equal(t, http.StatusNotFound, status)

	body := `{"problem": ` + loadingProblemJSON + `, "settings": {"max_generations": 0, "max_duration": 0}}`
	status, _ = do(t, http.MethodPost, srv.URL+"/solve", body, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	body = `{"problem": ` + loadingProblemJSON + `, "settings": {"group_improvement": "sometimes"}}`
	status, env = do(t, http.MethodPost, srv.URL+"/solve", body, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "group_improvement")

	body = `{"problem": ` + loadingProblemJSON + `, "settings": {"tournament_size": 10}}`
	status, _ = do(t, http.MethodPost, srv.URL+"/solve", body, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestJobsAndRuns(t *testing.T) {
	srv, svc, pub := newTestServer(t, testConfig())

	status, _ := do(t, http.MethodPost, srv.URL+"/problems", loadingProblemJSON, nil)
	require.Equal(t, http.StatusCreated, status)

	status, env := do(t, http.MethodPost, srv.URL+"/jobs", `{"problem_id": "loading", "notify_email": "ops@example.com"}`, nil)
	require.Equal(t, http.StatusAccepted, status, env.Message)
	var run model.Run
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, model.RunQueued, run.Status)
	require.Len(t, pub.jobs, 1)
	assert.Equal(t, "ops@example.com", pub.jobs[0].NotifyEmail)

	status, env = do(t, http.MethodGet, srv.URL+"/runs/"+run.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var queued runResponse
	require.NoError(t, json.Unmarshal(env.Data, &queued))
	assert.Nil(t, queued.Stats)

	require.NoError(t, svc.HandleJob(context.Background(), pub.jobs[0]))

	status, env = do(t, http.MethodGet, srv.URL+"/runs/"+run.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var done runResponse
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, model.RunCompleted, done.Run.Status)
	require.NotNil(t, done.Stats)
	assert.Equal(t, done.Run.BestValue, done.Stats.BestValue.Value)

	status, env = do(t, http.MethodGet, srv.URL+"/runs?problem_id=loading&limit=5", "", nil)
	require.Equal(t, http.StatusOK, status)
	var runs []model.Run
	require.NoError(t, json.Unmarshal(env.Data, &runs))
	assert.Len(t, runs, 1)

	status, _ = do(t, http.MethodGet, srv.URL+"/runs?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = do(t, http.MethodGet, srv.URL+"/runs/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = do(t, http.MethodPost, srv.URL+"/jobs", `{"problem_id": "loading", "notify_email": "nobody"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "notify_email")
}

func TestJobs_RejectsUnrunnableSettings(t *testing.T) {
	srv, _, pub := newTestServer(t, testConfig())

	status, _ := do(t, http.MethodPost, srv.URL+"/problems", loadingProblemJSON, nil)
	require.Equal(t, http.StatusCreated, status)

	status, env := do(t, http.MethodPost, srv.URL+"/jobs", `{"problem_id": "loading", "settings": {"tournament_size": 10}}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "tournament_size")

	status, _ = do(t, http.MethodPost, srv.URL+"/jobs", `{"problem_id": "loading", "settings": {"max_generations": 0, "max_duration": 0}}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Empty(t, pub.jobs)
}

func TestJobs_QueueDisabled(t *testing.T) {
	srv, svc, _ := newTestServer(t, testConfig())
	svc.Jobs = nil

	status, _ := do(t, http.MethodPost, srv.URL+"/problems", loadingProblemJSON, nil)
	require.Equal(t, http.StatusCreated, status)

	status, _ = do(t, http.MethodPost, srv.URL+"/jobs", `{"problem_id": "loading"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Secret = "s3cret"
	srv, _, _ := newTestServer(t, cfg)

	status, _ := do(t, http.MethodGet, srv.URL+"/problems", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	bad, err := NewToken("other", "tester", time.Hour)
	require.NoError(t, err)
	status, _ = do(t, http.MethodGet, srv.URL+"/problems", "", http.Header{"Authorization": {"Bearer " + bad}})
	assert.Equal(t, http.StatusUnauthorized, status)

	expired, err := NewToken("s3cret", "tester", -time.Hour)
	require.NoError(t, err)
	status, _ = do(t, http.MethodGet, srv.URL+"/problems", "", http.Header{"Authorization": {"Bearer " + expired}})
	assert.Equal(t, http.StatusUnauthorized, status)

	good, err := NewToken("s3cret", "tester", time.Hour)
	require.NoError(t, err)
	status, _ = do(t, http.MethodGet, srv.URL+"/problems", "", http.Header{"Authorization": {"Bearer " + good}})
	assert.Equal(t, http.StatusOK, status)

	// health and metrics stay public
	status, _ = do(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)

	_, err = NewToken("", "tester", time.Hour)
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())
	do(t, http.MethodGet, srv.URL+"/healthz", "", nil)

	scrape := func() string {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		var buf bytes.Buffer
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		return buf.String()
	}

	// the request counter is bumped after the response is flushed
	assert.Eventually(t, func() bool {
		return strings.Contains(scrape(), `cargoload_http_requests_total{code="200",route="/healthz"} 1`)
	}, 2*time.Second, 20*time.Millisecond)
}
