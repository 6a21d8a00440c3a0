package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/crawl"
	"github.com/uniwebdev/staffsearch/internal/search"
)

func filtersFromQuery(r *http.Request) search.Filters {
	q := r.URL.Query()
	return search.Filters{
		Faculty:    strings.TrimSpace(q.Get("faculty")),
		Institute:  strings.TrimSpace(q.Get("institute")),
		Department: strings.TrimSpace(q.Get("department")),
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := search.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > search.MaxLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must not be negative")
			return
		}
		offset = n
	}

	results, err := s.searcher.Search(r.Context(), query, filtersFromQuery(r), limit, offset)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"limit":   limit,
		"offset":  offset,
		"results": results,
	})
}

type chatRequest struct {
	Question   string `json:"question"`
	Faculty    string `json:"faculty"`
	Institute  string `json:"institute"`
	Department string `json:"department"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	filters := search.Filters{
		Faculty:    strings.TrimSpace(req.Faculty),
		Institute:  strings.TrimSpace(req.Institute),
		Department: strings.TrimSpace(req.Department),
	}
	resp, err := s.chatter.Ask(r.Context(), req.Question, filters)
	if err != nil {
		s.logger.Error("chat failed", zap.String("question", req.Question), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "chat failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	faculties, err := s.dir.ListFaculties(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load filters")
		return
	}
	institutes, err := s.dir.ListInstitutes(r.Context(), strings.TrimSpace(q.Get("faculty")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load filters")
		return
	}
	departments, err := s.dir.ListDepartments(r.Context(), strings.TrimSpace(q.Get("institute")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load filters")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"faculties":   orgUnitNames(faculties),
		"institutes":  orgUnitNames(institutes),
		"departments": orgUnitNames(departments),
	})
}

func orgUnitNames(units []crawl.OrgUnit) []string {
	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.Name)
	}
	return names
}

type staffMember struct {
	ProfileURL string `json:"profile_url"`
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Suffix     string `json:"suffix,omitempty"`
}

func (s *Server) handleDepartmentStaff(w http.ResponseWriter, r *http.Request) {
	department := strings.TrimSpace(r.URL.Query().Get("department"))
	if department == "" {
		writeError(w, http.StatusBadRequest, "department is required")
		return
	}

	profiles, err := s.dir.DepartmentStaff(r.Context(), department)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load staff")
		return
	}

	staff := make([]staffMember, 0, len(profiles))
	for _, p := range profiles {
		staff = append(staff, staffMember{
			ProfileURL: p.ProfileURL,
			Name:       p.Name,
			Title:      p.Title,
			Suffix:     p.Suffix,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"department": department,
		"staff":      staff,
	})
}

func (s *Server) handleCrawlRun(w http.ResponseWriter, r *http.Request) {
	if s.runner.Running() {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "already running"})
		return
	}
	if err := s.seeder.Prime(r.Context()); err != nil {
		s.logger.Error("seed priming failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to prime frontier")
		return
	}
	s.runner.Trigger(s.crawlCtx)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleCrawlPause(w http.ResponseWriter, r *http.Request) {
	if err := s.control.SetPaused(r.Context(), true); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to pause crawl")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleCrawlResume(w http.ResponseWriter, r *http.Request) {
	if err := s.control.SetPaused(r.Context(), false); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to resume crawl")
		return
	}
	// Resuming restarts the drain; paused workers have already exited.
	s.runner.Trigger(s.crawlCtx)
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}

func (s *Server) handleCrawlRequeue(w http.ResponseWriter, r *http.Request) {
	n, err := s.frontier.Requeue(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to requeue tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requeued": n})
}

type seedRequest struct {
	URL      string `json:"url"`
	Priority int    `json:"priority"`
	Active   *bool  `json:"active"`
}

func (s *Server) handleSeedUpsert(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	normalized, err := crawl.Normalize(req.URL)
	if err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "valid url is required")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	if err := s.seeds.UpsertSeed(r.Context(), normalized, req.Priority, active); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save seed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":      normalized,
		"priority": req.Priority,
		"active":   active,
	})
}

func (s *Server) handleSeedDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "seed_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid seed id")
		return
	}
	if err := s.seeds.DeleteSeed(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete seed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

type ingestRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleProfileIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if err := s.ingester.IngestProfile(r.Context(), req.URL); err != nil {
		s.logger.Warn("profile ingest failed", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "indexed", "url": req.URL})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	frontier, err := s.frontier.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	index, err := s.dir.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	paused, err := s.control.Paused(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"crawl": map[string]any{
			"queued":         frontier.Queued,
			"fetched":        frontier.Fetched,
			"skipped":        frontier.Skipped,
			"errored":        frontier.Errored,
			"total":          frontier.Total,
			"recent_fetches": frontier.RecentFetches,
			"paused":         paused,
			"running":        s.runner.Running(),
		},
		"index": map[string]any{
			"profiles":        index.Profiles,
			"chunks":          index.Chunks,
			"faculties":       index.Faculties,
			"institutes":      index.Institutes,
			"departments":     index.Departments,
			"last_indexed_at": index.LastIndexedAt,
		},
	})
}
