package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/spigell/smart-hr/internal/ai"
	"github.com/spigell/smart-hr/internal/auth"
	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/export"
	"github.com/spigell/smart-hr/internal/store"
	"github.com/spigell/smart-hr/internal/tools"
	"github.com/spigell/smart-hr/internal/wire"
)

const testSecret = "0123456789abcdef-api-secret"

var (
	jane = tools.Caller{OwnerID: "owner-1", FirstName: "Jane", Company: "Acme"}
	omar = tools.Caller{OwnerID: "owner-2", FirstName: "Omar", Company: "Globex"}
)

type fakePipeline struct {
	chunks []string
	err    error
	// hold, when set, replaces the canned answer.
	hold func(ctx context.Context) error

	mu   sync.Mutex
	last ai.Request
}

func (f *fakePipeline) lastRequest() ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakePipeline) Answer(ctx context.Context, req ai.Request, emit ai.Emit) (string, error) {
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.hold != nil {
		return "", f.hold(ctx)
	}
	if f.err != nil {
		return "", f.err
	}
	var full strings.Builder
	for _, chunk := range f.chunks {
		if err := emit(chunk); err != nil {
			return "", err
		}
		full.WriteString(chunk)
	}
	return full.String(), nil
}

type testEnv struct {
	server   *httptest.Server
	store    *store.Store
	auth     *auth.Manager
	pipeline *fakePipeline
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	log := zaptest.NewLogger(t)
	db, err := store.Open(store.Config{Driver: store.DriverSQLite, DSN: filepath.Join(t.TempDir(), "api.db")}, log)
	require.NoError(t, err)
	st := store.New(db, log)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	manager, err := auth.NewManager(testSecret, time.Hour)
	require.NoError(t, err)

	pipeline := &fakePipeline{}
	srv := NewServer(cfg, tools.New(st, log), st, pipeline, manager, log)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: st, auth: manager, pipeline: pipeline}
}

func (e *testEnv) token(t *testing.T, caller tools.Caller) string {
	t.Helper()
	token, err := e.auth.Issue(caller)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path string, caller *tools.Caller, body any, header ...string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, *caller))
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) createJob(t *testing.T, caller tools.Caller, position string) domain.Job {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/jobs", &caller, map[string]any{
		"position":       position,
		"location":       "Berlin, Germany",
		"employmentType": "full-time",
		"workMode":       "hybrid",
		"salaryMin":      50000,
		"salaryMax":      70000,
		"currency":       "eur",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var job domain.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	return job
}

func applicationBody(email, experience string) map[string]any {
	return map[string]any{
		"fullName":   "Ada Obi",
		"gender":     "female",
		"email":      email,
		"phone":      "+4915100000000",
		"experience": experience,
		"location":   "Berlin",
	}
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Config{})

	resp := env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, Config{})

	routes := [][2]string{
		{http.MethodGet, "/api/jobs"},
		{http.MethodPost, "/api/chat"},
		{http.MethodGet, "/api/applications"},
		{http.MethodGet, "/api/stats"},
		{http.MethodGet, "/api/jobs/some-id/best"},
	}
	for _, route := range routes {
		resp := env.do(t, route[0], route[1], nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, route[1])
		assert.Equal(t, errors.ErrUnauthenticated.Error(), decodeError(t, resp), route[1])
	}
}

func TestJobLifecycleIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t, Config{})
	job := env.createJob(t, jane, "Backend Engineer")
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, domain.JobOpen, job.Status)

	resp := env.do(t, http.MethodGet, "/api/jobs", &jane, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list tools.JobList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Backend Engineer", list.Jobs[0].Position)

	resp = env.do(t, http.MethodGet, "/api/jobs", &omar, nil)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Zero(t, list.Count)

	resp = env.do(t, http.MethodGet, "/api/jobs/"+job.ID, &omar, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errors.ErrNotFound.Error(), decodeError(t, resp))

	resp = env.do(t, http.MethodPatch, "/api/jobs/"+job.ID+"/status", &jane, map[string]string{"status": "closed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail tools.JobDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, domain.JobClosed, detail.Status)

	resp = env.do(t, http.MethodGet, "/api/jobs?status=bogus", &jane, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateJobRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, Config{})

	resp := env.do(t, http.MethodPost, "/api/jobs", &jane, map[string]any{
		"position":       "Designer",
		"employmentType": "full-time",
		"workMode":       "remote",
		"salaryMin":      5000,
		"salaryMax":      1000,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/jobs", &jane, map[string]any{"position": "Designer", "unknown": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApplyIsPublicAndRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t, Config{})
	job := env.createJob(t, jane, "Backend Engineer")

	resp := env.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", nil, applicationBody("ada@example.com", "4 years"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", nil, applicationBody("ADA@example.com ", "4 years"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/jobs/missing/applications", nil, applicationBody("ada@example.com", "4 years"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.do(t, http.MethodPatch, "/api/jobs/"+job.ID+"/status", &jane, map[string]string{"status": "closed"})
	resp = env.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", nil, applicationBody("bo@example.com", "1 year"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApplicationsAndStats(t *testing.T) {
	env := newTestEnv(t, Config{})
	job := env.createJob(t, jane, "Backend Engineer")

	resp := env.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", nil, applicationBody("ada@example.com", "4 years"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var app domain.Application
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&app))

	resp = env.do(t, http.MethodPatch, "/api/applications/"+app.ID+"/status", &jane, map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail tools.ApplicationDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, domain.StatusAccepted, detail.Status)
	require.NotNil(t, detail.Job)
	assert.Equal(t, "Backend Engineer", detail.Job.Position)

	resp = env.do(t, http.MethodGet, "/api/applications/"+app.ID, &omar, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/applications?status=accepted", &jane, nil)
	var list tools.ApplicationList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 1, list.Count)

	resp = env.do(t, http.MethodGet, "/api/stats", &jane, nil)
	var stats store.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.Jobs.Total)
	assert.Equal(t, int64(1), stats.Applications.Accepted)
}

func TestBestApplications(t *testing.T) {
	env := newTestEnv(t, Config{})
	job := env.createJob(t, jane, "Backend Engineer")

	resp := env.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/best", &jane, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var best tools.BestApplications
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&best))
	assert.Empty(t, best.Applicants)
	assert.NotEmpty(t, best.Message)

	for _, a := range []struct{ email, exp string }{{"a@example.com", "1 year"}, {"b@example.com", "9 years"}, {"c@example.com", "3 years"}} {
		resp = env.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", nil, applicationBody(a.email, a.exp))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = env.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/best?limit=2", &jane, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&best))
	require.Len(t, best.Applicants, 2)
	assert.Equal(t, 3, best.Considered)
	assert.Equal(t, "b@example.com", best.Applicants[0].Email)
	assert.GreaterOrEqual(t, best.Applicants[0].Score, best.Applicants[1].Score)

	resp = env.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/best?limit=-1", &jane, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/best.xlsx", &jane, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetRanking)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	resp = env.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/best.xlsx", &omar, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatPlainTextStream(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.pipeline.chunks = []string{"You have ", "two open jobs."}

	resp := env.do(t, http.MethodPost, "/api/chat", &jane, map[string]any{
		"messages": []ai.Message{{Role: ai.RoleUser, Content: "How many jobs are open?"}},
		"threadId": " t-1 ",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))

	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "You have two open jobs.", body.String())
	assert.Equal(t, jane, env.pipeline.lastRequest().Caller)
	assert.Equal(t, "t-1", env.pipeline.lastRequest().ThreadID)
}

func TestChatNDJSONEndsWithSegments(t *testing.T) {
	env := newTestEnv(t, Config{})
	card := wire.EncodeApplication(wire.ApplicationCard{FullName: "Ada Obi", Email: "ada@example.com", Status: "pending"})
	env.pipeline.chunks = []string{"Top pick:\n", card[:10], card[10:]}

	resp := env.do(t, http.MethodPost, "/api/chat", &jane, map[string]any{
		"messages": []ai.Message{{Role: ai.RoleUser, Content: "Best applicant?"}},
	}, "Accept", contentTypeNDJSON)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, contentTypeNDJSON, resp.Header.Get("Content-Type"))

	var events []chatEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var event chatEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, events, 4)
	for _, event := range events[:3] {
		assert.Equal(t, eventDelta, event.Type)
	}
	done := events[3]
	assert.Equal(t, eventDone, done.Type)
	require.Len(t, done.Segments, 2)
	assert.Equal(t, wire.KindProse, done.Segments[0].Kind)
	require.NotNil(t, done.Segments[1].Application)
	assert.Equal(t, "Ada Obi", done.Segments[1].Application.FullName)
}

func TestChatModelFailure(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.pipeline.err = errors.New("googleapi: 500 backend exploded")

	resp := env.do(t, http.MethodPost, "/api/chat", &jane, map[string]any{
		"messages": []ai.Message{{Role: ai.RoleUser, Content: "hello"}},
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, ai.ErrUnavailable.Error(), decodeError(t, resp))

	resp = env.do(t, http.MethodPost, "/api/chat", &jane, map[string]any{
		"messages": []ai.Message{{Role: ai.RoleUser, Content: "hello"}},
	}, "Accept", contentTypeNDJSON)
	var event chatEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&event))
	assert.Equal(t, eventError, event.Type)
	assert.Equal(t, ai.ErrUnavailable.Error(), event.Error)
}

func TestChatRejectsInvalidConversation(t *testing.T) {
	env := newTestEnv(t, Config{})

	resp := env.do(t, http.MethodPost, "/api/chat", &jane, map[string]any{
		"messages": []ai.Message{{Role: ai.RoleAssistant, Content: "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatRateLimitIsPerOwner(t *testing.T) {
	env := newTestEnv(t, Config{ChatPerMinute: 1, ChatBurst: 1})
	env.pipeline.chunks = []string{"ok"}
	body := map[string]any{"messages": []ai.Message{{Role: ai.RoleUser, Content: "hello"}}}

	resp := env.do(t, http.MethodPost, "/api/chat", &jane, body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/chat", &jane, body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/chat", &omar, body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatWebsocket(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.pipeline.chunks = []string{"Hello ", "Jane"}

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/chat/ws?access_token=" + env.token(t, jane)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(chatRequest{Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}}}))

	var events []chatEvent
	for {
		var event chatEvent
		require.NoError(t, conn.ReadJSON(&event))
		events = append(events, event)
		if event.Type != eventDelta {
			break
		}
	}
	require.Len(t, events, 3)
	assert.Equal(t, eventDone, events[2].Type)
	assert.Equal(t, "Hello Jane", events[2].Text)

	require.NoError(t, conn.WriteJSON(chatRequest{Messages: []ai.Message{}}))
	var event chatEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, eventError, event.Type)
}

func TestChatWebsocketDisconnectCancelsTurn(t *testing.T) {
	env := newTestEnv(t, Config{})

	started := make(chan struct{})
	cancelled := make(chan struct{})
	env.pipeline.hold = func(ctx context.Context) error {
		close(started)
		select {
		case <-ctx.Done():
			close(cancelled)
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return errors.New("turn was not cancelled")
		}
	}

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/chat/ws?access_token=" + env.token(t, jane)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NoError(t, conn.WriteJSON(chatRequest{Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}}}))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("turn never started")
	}
	require.NoError(t, conn.Close())

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("closing the websocket did not cancel the turn")
	}
}

func TestRender(t *testing.T) {
	env := newTestEnv(t, Config{})
	card := wire.EncodeJob(wire.JobCard{Position: "Backend Engineer", Company: "Acme"})

	resp := env.do(t, http.MethodPost, "/api/render", nil, map[string]any{"text": "**Open:**\n" + card})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		HTML     string         `json:"html"`
		Segments []wire.Segment `json:"segments"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.HTML, "Backend Engineer")
	require.Len(t, out.Segments, 2)
	assert.Equal(t, wire.KindJob, out.Segments[1].Kind)
}
