// Package worker drains the crawl frontier: it fetches pages politely,
// fans discovered links back into the frontier, and runs changed staff
// profiles through extraction and indexing.
package worker

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/crawl"
	"github.com/uniwebdev/staffsearch/internal/extract"
	"github.com/uniwebdev/staffsearch/internal/metrics"
)

// ProfileStore is the profile persistence the pipeline needs: the crawl
// contract plus lookups used by reprocessing.
type ProfileStore interface {
	crawl.ProfileStore
	GetByID(ctx context.Context, id int64) (crawl.Profile, bool, error)
	ListIDs(ctx context.Context, limit int) ([]int64, error)
}

// Indexer rebuilds a profile's chunk index from its text.
type Indexer interface {
	IndexProfile(ctx context.Context, profileID int64, text string) (int, error)
}

// Processor executes one frontier task end to end.
type Processor struct {
	frontier *crawl.Frontier
	fetcher  crawl.Fetcher
	profiles ProfileStore
	indexer  Indexer
	clock    crawl.Clock
	maxDepth int
	logger   *zap.Logger
}

func NewProcessor(frontier *crawl.Frontier, fetcher crawl.Fetcher, profiles ProfileStore, indexer Indexer, clock crawl.Clock, maxDepth int, logger *zap.Logger) *Processor {
	return &Processor{
		frontier: frontier,
		fetcher:  fetcher,
		profiles: profiles,
		indexer:  indexer,
		clock:    clock,
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// Process fetches a claimed task and routes it by outcome. Fetch and
// processing failures are recorded on the task row, never returned: one
// bad page must not stop the crawl.
func (p *Processor) Process(ctx context.Context, task crawl.Task) {
	tasks := p.frontier.Tasks()
	now := p.clock.Now()

	res, err := p.fetcher.Fetch(ctx, task.URL, task.ETag, task.LastModified)
	if err != nil {
		p.logger.Warn("fetch failed", zap.String("url", task.URL), zap.Error(err))
		p.markError(ctx, task.ID, 0, err.Error())
		return
	}

	switch {
	case res.StatusCode == 304:
		// Unchanged since last crawl; the stored profile and chunks stand.
		if err := tasks.MarkSkipped(ctx, task.ID, res.StatusCode, now); err != nil {
			p.logger.Error("mark skipped failed", zap.Int64("task_id", task.ID), zap.Error(err))
		}
		metrics.ObserveTask("skipped")
		return

	case res.StatusCode != 200:
		p.markError(ctx, task.ID, res.StatusCode, fmt.Sprintf("http status %d", res.StatusCode))
		return
	}

	html := string(res.Body)

	if task.Depth < p.maxDepth {
		p.fanOut(ctx, task, html)
	}

	if p.frontier.Rules().IsProfileURL(task.URL) {
		if err := p.processProfile(ctx, task.URL, html); err != nil {
			p.logger.Error("profile processing failed", zap.String("url", task.URL), zap.Error(err))
			p.markError(ctx, task.ID, res.StatusCode, err.Error())
			return
		}
	}

	if err := tasks.MarkFetched(ctx, task.ID, res.StatusCode, res.ETag, res.LastModified, now); err != nil {
		p.logger.Error("mark fetched failed", zap.Int64("task_id", task.ID), zap.Error(err))
	}
	metrics.ObserveTask("fetched")
}

// fanOut enqueues the page's discovered links one level deeper. Profile
// candidates inherit the parent's priority plus the boost; everything else
// queues at baseline.
func (p *Processor) fanOut(ctx context.Context, task crawl.Task, html string) {
	links, err := crawl.ExtractLinks(html, task.URL)
	if err != nil {
		p.logger.Warn("link extraction failed", zap.String("url", task.URL), zap.Error(err))
		return
	}
	rules := p.frontier.Rules()
	for _, link := range links {
		priority := 0
		if rules.IsProfileURL(link) {
			priority = task.Priority + crawl.ProfilePriorityBoost
		}
		if err := p.frontier.Enqueue(ctx, link, task.Depth+1, priority); err != nil {
			p.logger.Warn("enqueue failed", zap.String("url", link), zap.Error(err))
		}
	}
}

// processProfile extracts, change-gates, and indexes one staff profile.
// An unchanged content hash stops the pipeline before any write or
// embedding call.
func (p *Processor) processProfile(ctx context.Context, profileURL, html string) error {
	text := extract.Text(html)
	fields := extract.FromHTML(html, profileURL)

	text, html = p.appendTabContent(ctx, profileURL, html, text)
	hash := extract.Hash(text)

	existing, found, err := p.profiles.GetByURL(ctx, profileURL)
	if err != nil {
		return err
	}
	if found && existing.ContentHash == hash {
		metrics.ObserveProfileUnchanged()
		p.logger.Debug("profile unchanged", zap.String("url", profileURL))
		return nil
	}

	profile := crawl.Profile{
		ProfileURL:     profileURL,
		Name:           fields.Name,
		Title:          fields.Title,
		Suffix:         fields.Suffix,
		FacultyText:    fields.Faculty,
		InstituteText:  fields.Institute,
		DepartmentText: fields.Department,
		TextContent:    text,
		RawHTML:        html,
		ContentHash:    hash,
	}
	now := p.clock.Now()
	profile.LastFetchedAt = &now

	if err := p.linkOrgUnits(ctx, &profile, fields); err != nil {
		return err
	}

	id, err := p.profiles.Upsert(ctx, profile)
	if err != nil {
		return err
	}

	chunks, err := p.indexer.IndexProfile(ctx, id, text)
	if err != nil {
		return err
	}
	metrics.ObserveProfileIndexed(chunks)

	p.logger.Info("profile indexed",
		zap.String("url", profileURL),
		zap.String("name", fields.Name),
		zap.Int("chunks", chunks))
	return nil
}

// appendTabContent fetches the page's tabbed sub-pages and appends their
// text and raw HTML, so the stored profile carries the tab content too. A
// failed or inadmissible tab fetch is skipped; the main page still indexes.
func (p *Processor) appendTabContent(ctx context.Context, profileURL, html, text string) (string, string) {
	links, err := crawl.ExtractLinks(html, profileURL)
	if err != nil {
		return text, html
	}
	var extraText, extraHTML []string
	for _, tab := range crawl.TabLinks(links) {
		if tab == profileURL || !p.frontier.Rules().Admitted(tab) {
			continue
		}
		res, err := p.fetcher.Fetch(ctx, tab, "", "")
		if err != nil || res.StatusCode != 200 {
			p.logger.Debug("tab fetch skipped", zap.String("url", tab), zap.Error(err))
			continue
		}
		extraHTML = append(extraHTML, string(res.Body))
		if tabText := extract.Text(string(res.Body)); tabText != "" {
			extraText = append(extraText, tabText)
		}
	}
	if len(extraText) > 0 {
		text = text + "\n\n" + strings.Join(extraText, "\n\n")
	}
	if len(extraHTML) > 0 {
		html = html + "\n\n" + strings.Join(extraHTML, "\n\n")
	}
	return text, html
}

// linkOrgUnits resolves extracted faculty/institute/department names into
// rows, wiring child to parent as it goes.
func (p *Processor) linkOrgUnits(ctx context.Context, profile *crawl.Profile, fields extract.Fields) error {
	if fields.Faculty != "" {
		faculty, err := p.profiles.EnsureFaculty(ctx, fields.Faculty)
		if err != nil {
			return err
		}
		profile.FacultyID = &faculty.ID
	}
	if fields.Institute != "" {
		institute, err := p.profiles.EnsureInstitute(ctx, fields.Institute, profile.FacultyID)
		if err != nil {
			return err
		}
		profile.InstituteID = &institute.ID
	}
	if fields.Department != "" {
		department, err := p.profiles.EnsureDepartment(ctx, fields.Department, profile.InstituteID)
		if err != nil {
			return err
		}
		profile.DepartmentID = &department.ID
	}
	return nil
}

// markError records a task failure; httpStatus is zero for transport errors.
func (p *Processor) markError(ctx context.Context, taskID int64, httpStatus int, message string) {
	if err := p.frontier.Tasks().MarkError(ctx, taskID, httpStatus, message, p.clock.Now()); err != nil {
		p.logger.Error("mark error failed", zap.Int64("task_id", taskID), zap.Error(err))
	}
	metrics.ObserveTask("error")
}

// IngestProfile validates and immediately processes a single profile URL,
// bypassing the queue. Used by the admin surface for on-demand additions.
func (p *Processor) IngestProfile(ctx context.Context, rawURL string) error {
	normalized, err := crawl.Normalize(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	rules := p.frontier.Rules()
	if !rules.Admitted(normalized) || !rules.IsProfileURL(normalized) {
		return fmt.Errorf("not a staff profile url: %s", normalized)
	}

	res, err := p.fetcher.Fetch(ctx, normalized, "", "")
	if err != nil {
		return fmt.Errorf("fetch %s: %w", normalized, err)
	}
	if res.StatusCode != 200 {
		return fmt.Errorf("fetch %s: http status %d", normalized, res.StatusCode)
	}
	return p.processProfile(ctx, normalized, string(res.Body))
}

// Reprocess rebuilds one stored profile from its raw HTML without
// refetching. Re-embedding is optional; without it only the extracted
// fields and text refresh.
func (p *Processor) Reprocess(ctx context.Context, profileID int64, reembed bool) error {
	profile, found, err := p.profiles.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("profile %d not found", profileID)
	}
	if profile.RawHTML == "" {
		return fmt.Errorf("profile %d has no stored html", profileID)
	}

	text := extract.Text(profile.RawHTML)
	fields := extract.FromHTML(profile.RawHTML, profile.ProfileURL)

	profile.Name = fields.Name
	profile.Title = fields.Title
	profile.Suffix = fields.Suffix
	profile.FacultyText = fields.Faculty
	profile.InstituteText = fields.Institute
	profile.DepartmentText = fields.Department
	profile.TextContent = text
	profile.ContentHash = extract.Hash(text)

	if err := p.linkOrgUnits(ctx, &profile, fields); err != nil {
		return err
	}
	if _, err := p.profiles.Upsert(ctx, profile); err != nil {
		return err
	}

	if reembed {
		if _, err := p.indexer.IndexProfile(ctx, profileID, text); err != nil {
			return err
		}
	}
	return nil
}

// ProfileIDs lists stored profile ids for bulk reprocessing.
func (p *Processor) ProfileIDs(ctx context.Context, limit int) ([]int64, error) {
	return p.profiles.ListIDs(ctx, limit)
}
