// Package api exposes the HTTP interface: public search, chat, and
// directory endpoints plus the admin crawl-control surface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/crawl"
	"github.com/uniwebdev/staffsearch/internal/metrics"
	"github.com/uniwebdev/staffsearch/internal/search"
)

// Searcher serves paged hybrid search.
type Searcher interface {
	Search(ctx context.Context, query string, filters search.Filters, limit, offset int) ([]search.Result, error)
}

// Chatter answers questions over the index.
type Chatter interface {
	Ask(ctx context.Context, question string, filters search.Filters) (search.ChatResponse, error)
}

// Directory serves the org unit hierarchy and rosters.
type Directory interface {
	ListFaculties(ctx context.Context) ([]crawl.OrgUnit, error)
	ListInstitutes(ctx context.Context, facultyName string) ([]crawl.OrgUnit, error)
	ListDepartments(ctx context.Context, instituteName string) ([]crawl.OrgUnit, error)
	DepartmentStaff(ctx context.Context, departmentName string) ([]crawl.Profile, error)
	Stats(ctx context.Context) (crawl.IndexStats, error)
}

// FrontierStats reports crawl queue health.
type FrontierStats interface {
	Stats(ctx context.Context) (crawl.FrontierStats, error)
	Requeue(ctx context.Context) (int64, error)
}

// CrawlRunner starts background crawl passes.
type CrawlRunner interface {
	Trigger(ctx context.Context)
	Running() bool
}

// Seeder primes the frontier before a pass.
type Seeder interface {
	Prime(ctx context.Context) error
}

// Ingester processes one profile URL on demand.
type Ingester interface {
	IngestProfile(ctx context.Context, rawURL string) error
}

// Pinger checks a downstream dependency for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the search, chat, and crawl components.
type Server struct {
	router chi.Router
	logger *zap.Logger

	searcher Searcher
	chatter  Chatter
	dir      Directory
	frontier FrontierStats
	seeds    crawl.SeedStore
	control  crawl.ControlStore
	runner   CrawlRunner
	seeder   Seeder
	ingester Ingester
	db       Pinger

	// crawlCtx outlives individual admin requests so a triggered pass is
	// not canceled when the request returns.
	crawlCtx context.Context
}

// Deps bundles the server's collaborators.
type Deps struct {
	Searcher Searcher
	Chatter  Chatter
	Dir      Directory
	Frontier FrontierStats
	Seeds    crawl.SeedStore
	Control  crawl.ControlStore
	Runner   CrawlRunner
	Seeder   Seeder
	Ingester Ingester
	DB       Pinger
	CrawlCtx context.Context
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	crawlCtx := deps.CrawlCtx
	if crawlCtx == nil {
		crawlCtx = context.Background()
	}
	s := &Server{
		logger:   logger,
		searcher: deps.Searcher,
		chatter:  deps.Chatter,
		dir:      deps.Dir,
		frontier: deps.Frontier,
		seeds:    deps.Seeds,
		control:  deps.Control,
		runner:   deps.Runner,
		seeder:   deps.Seeder,
		ingester: deps.Ingester,
		db:       deps.DB,
		crawlCtx: crawlCtx,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Post("/chat", s.handleChat)
		r.Get("/filters", s.handleFilters)
		r.Get("/department-staff", s.handleDepartmentStaff)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Route("/crawl", func(r chi.Router) {
			r.Post("/run", s.handleCrawlRun)
			r.Post("/pause", s.handleCrawlPause)
			r.Post("/resume", s.handleCrawlResume)
			r.Post("/requeue", s.handleCrawlRequeue)
		})
		r.Route("/seeds", func(r chi.Router) {
			r.Post("/", s.handleSeedUpsert)
			r.Delete("/{seed_id}", s.handleSeedDelete)
		})
		r.Post("/profiles", s.handleProfileIngest)
		r.Get("/stats", s.handleStats)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
