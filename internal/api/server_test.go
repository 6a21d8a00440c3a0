package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/crawl"
	"github.com/uniwebdev/staffsearch/internal/search"
)

type fakeSearcher struct {
	query   string
	filters search.Filters
	limit   int
	offset  int
	results []search.Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query string, filters search.Filters, limit, offset int) ([]search.Result, error) {
	f.query = query
	f.filters = filters
	f.limit = limit
	f.offset = offset
	return f.results, f.err
}

type fakeChatter struct {
	question string
	resp     search.ChatResponse
	err      error
}

func (f *fakeChatter) Ask(_ context.Context, question string, _ search.Filters) (search.ChatResponse, error) {
	f.question = question
	return f.resp, f.err
}

type fakeDirectory struct {
	faculty    string
	institute  string
	department string
	staff      []crawl.Profile
	stats      crawl.IndexStats
}

func (f *fakeDirectory) ListFaculties(context.Context) ([]crawl.OrgUnit, error) {
	return []crawl.OrgUnit{{ID: 1, Name: "Faculty of Science and Engineering"}}, nil
}

func (f *fakeDirectory) ListInstitutes(_ context.Context, facultyName string) ([]crawl.OrgUnit, error) {
	f.faculty = facultyName
	return []crawl.OrgUnit{{ID: 2, Name: "Institute of Ocean Science"}}, nil
}

func (f *fakeDirectory) ListDepartments(_ context.Context, instituteName string) ([]crawl.OrgUnit, error) {
	f.institute = instituteName
	return []crawl.OrgUnit{{ID: 3, Name: "Department of Earth Sciences"}}, nil
}

func (f *fakeDirectory) DepartmentStaff(_ context.Context, departmentName string) ([]crawl.Profile, error) {
	f.department = departmentName
	return f.staff, nil
}

func (f *fakeDirectory) Stats(context.Context) (crawl.IndexStats, error) {
	return f.stats, nil
}

type fakeFrontierStats struct {
	stats    crawl.FrontierStats
	requeued int64
}

func (f *fakeFrontierStats) Stats(context.Context) (crawl.FrontierStats, error) {
	return f.stats, nil
}

func (f *fakeFrontierStats) Requeue(context.Context) (int64, error) {
	return f.requeued, nil
}

type fakeSeedStore struct {
	upsertedURL string
	priority    int
	active      bool
	deletedID   int64
}

func (f *fakeSeedStore) ActiveSeeds(context.Context) ([]crawl.Seed, error) { return nil, nil }

func (f *fakeSeedStore) UpsertSeed(_ context.Context, url string, priority int, active bool) error {
	f.upsertedURL = url
	f.priority = priority
	f.active = active
	return nil
}

func (f *fakeSeedStore) DeleteSeed(_ context.Context, id int64) error {
	f.deletedID = id
	return nil
}

type fakeControl struct {
	mu     sync.Mutex
	paused bool
}

func (f *fakeControl) Paused(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused, nil
}

func (f *fakeControl) SetPaused(_ context.Context, paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = paused
	return nil
}

type fakeRunner struct {
	mu        sync.Mutex
	running   bool
	triggered int
}

func (f *fakeRunner) Trigger(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered++
}

func (f *fakeRunner) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type fakeSeeder struct {
	primed int
	err    error
}

func (f *fakeSeeder) Prime(context.Context) error {
	f.primed++
	return f.err
}

type fakeIngester struct {
	url string
	err error
}

func (f *fakeIngester) IngestProfile(_ context.Context, rawURL string) error {
	f.url = rawURL
	return f.err
}

type testServer struct {
	server   *Server
	searcher *fakeSearcher
	chatter  *fakeChatter
	dir      *fakeDirectory
	frontier *fakeFrontierStats
	seeds    *fakeSeedStore
	control  *fakeControl
	runner   *fakeRunner
	seeder   *fakeSeeder
	ingester *fakeIngester
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		searcher: &fakeSearcher{},
		chatter:  &fakeChatter{},
		dir:      &fakeDirectory{},
		frontier: &fakeFrontierStats{},
		seeds:    &fakeSeedStore{},
		control:  &fakeControl{},
		runner:   &fakeRunner{},
		seeder:   &fakeSeeder{},
		ingester: &fakeIngester{},
	}
	ts.server = NewServer(Deps{
		Searcher: ts.searcher,
		Chatter:  ts.chatter,
		Dir:      ts.dir,
		Frontier: ts.frontier,
		Seeds:    ts.seeds,
		Control:  ts.control,
		Runner:   ts.runner,
		Seeder:   ts.seeder,
		Ingester: ts.ingester,
	}, zap.NewNop())
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.searcher.results = []search.Result{
		{ProfileID: 9, Name: "Jane Doe", Snippet: "marine biology", Score: 0.7},
	}

	rec := ts.do(t, http.MethodGet,
		"/api/search?q=marine+biology&limit=5&offset=10&faculty=Faculty+of+Science+and+Engineering", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, "marine biology", ts.searcher.query)
	require.Equal(t, 5, ts.searcher.limit)
	require.Equal(t, 10, ts.searcher.offset)
	require.Equal(t, "Faculty of Science and Engineering", ts.searcher.filters.Faculty)

	var body struct {
		Results []search.Result `json:"results"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Results, 1)
	require.Equal(t, "Jane Doe", body.Results[0].Name)
}

func TestSearchValidation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/search", "").Code)
	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/search?q=x&limit=0", "").Code)
	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/search?q=x&limit=51", "").Code)
	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/search?q=x&limit=abc", "").Code)
	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/search?q=x&offset=-1", "").Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/search?q=x&limit=50", "").Code)
}

func TestSearchFailure(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.searcher.err = errors.New("db down")
	rec := ts.do(t, http.MethodGet, "/api/search?q=x", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.chatter.resp = search.ChatResponse{
		Summary: "Jane Doe studies marine biology.",
		People:  []string{},
		Sources: []search.Result{{ProfileID: 9, Name: "Jane Doe"}},
	}

	rec := ts.do(t, http.MethodPost, "/api/chat", `{"question":"who studies marine biology?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "who studies marine biology?", ts.chatter.question)

	var body search.ChatResponse
	decode(t, rec, &body)
	require.Equal(t, "Jane Doe studies marine biology.", body.Summary)
	require.Len(t, body.Sources, 1)
}

func TestChatValidation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/chat", `not json`).Code)
	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/chat", `{"question":"  "}`).Code)
}

func TestFiltersEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet,
		"/api/filters?faculty=Faculty+of+Science+and+Engineering&institute=Institute+of+Ocean+Science", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, "Faculty of Science and Engineering", ts.dir.faculty)
	require.Equal(t, "Institute of Ocean Science", ts.dir.institute)

	var body struct {
		Faculties   []string `json:"faculties"`
		Institutes  []string `json:"institutes"`
		Departments []string `json:"departments"`
	}
	decode(t, rec, &body)
	require.Equal(t, []string{"Faculty of Science and Engineering"}, body.Faculties)
	require.Equal(t, []string{"Institute of Ocean Science"}, body.Institutes)
	require.Equal(t, []string{"Department of Earth Sciences"}, body.Departments)
}

func TestDepartmentStaffEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.dir.staff = []crawl.Profile{
		{ProfileURL: "https://liverpool.ac.uk/people/jane-doe", Name: "Jane Doe", Title: "Prof", Suffix: "PhD"},
	}

	rec := ts.do(t, http.MethodGet, "/api/department-staff?department=Department+of+Earth+Sciences", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Department of Earth Sciences", ts.dir.department)

	var body struct {
		Staff []staffMember `json:"staff"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Staff, 1)
	require.Equal(t, "Jane Doe", body.Staff[0].Name)

	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/department-staff", "").Code)
}

func TestCrawlRun(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/admin/crawl/run", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, ts.seeder.primed)
	require.Equal(t, 1, ts.runner.triggered)
}

func TestCrawlRunAlreadyRunning(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.runner.running = true
	rec := ts.do(t, http.MethodPost, "/admin/crawl/run", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Zero(t, ts.seeder.primed)
}

func TestCrawlPauseAndResume(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/admin/crawl/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	paused, _ := ts.control.Paused(context.Background())
	require.True(t, paused)

	rec = ts.do(t, http.MethodPost, "/admin/crawl/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	paused, _ = ts.control.Paused(context.Background())
	require.False(t, paused)
	require.Equal(t, 1, ts.runner.triggered)
}

func TestCrawlRequeue(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.frontier.requeued = 17

	rec := ts.do(t, http.MethodPost, "/admin/crawl/requeue", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int64
	decode(t, rec, &body)
	require.Equal(t, int64(17), body["requeued"])
}

func TestSeedUpsertNormalizesURL(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/admin/seeds",
		`{"url":"http://Liverpool.AC.UK/people/","priority":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://liverpool.ac.uk/people", ts.seeds.upsertedURL)
	require.Equal(t, 10, ts.seeds.priority)
	require.True(t, ts.seeds.active)
}

func TestSeedUpsertValidation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/admin/seeds", `{"url":""}`).Code)
	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/admin/seeds", `broken`).Code)
}

func TestSeedDelete(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodDelete, "/admin/seeds/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(3), ts.seeds.deletedID)

	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodDelete, "/admin/seeds/abc", "").Code)
}

func TestProfileIngest(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/admin/profiles",
		`{"url":"https://liverpool.ac.uk/people/jane-doe"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://liverpool.ac.uk/people/jane-doe", ts.ingester.url)
}

func TestProfileIngestRejected(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.ingester.err = errors.New("not a staff profile url")
	rec := ts.do(t, http.MethodPost, "/admin/profiles", `{"url":"https://liverpool.ac.uk/news"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	at := time.Unix(1700000000, 0).UTC()
	ts.frontier.stats = crawl.FrontierStats{Queued: 3, Fetched: 10, Total: 13}
	ts.dir.stats = crawl.IndexStats{Profiles: 120, Chunks: 480, LastIndexedAt: &at}

	rec := ts.do(t, http.MethodGet, "/admin/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Crawl struct {
			Queued  int64 `json:"queued"`
			Paused  bool  `json:"paused"`
			Running bool  `json:"running"`
		} `json:"crawl"`
		Index struct {
			Profiles int64 `json:"profiles"`
			Chunks   int64 `json:"chunks"`
		} `json:"index"`
	}
	decode(t, rec, &body)
	require.Equal(t, int64(3), body.Crawl.Queued)
	require.Equal(t, int64(120), body.Index.Profiles)
	require.Equal(t, int64(480), body.Index.Chunks)
}
