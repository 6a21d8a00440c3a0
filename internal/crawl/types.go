// Package crawl defines the crawl pipeline's core types and URL rules.
package crawl

import "time"

// TaskStatus represents the lifecycle state of a frontier task.
type TaskStatus string

// Task status values persisted in the frontier table.
const (
	TaskStatusQueued  TaskStatus = "queued"
	TaskStatusFetched TaskStatus = "fetched"
	TaskStatusSkipped TaskStatus = "skipped"
	TaskStatusError   TaskStatus = "error"
)

// Task is one row of the frontier: a normalized URL awaiting or past fetch.
type Task struct {
	ID            int64
	URL           string
	Depth         int
	Priority      int
	Status        TaskStatus
	HTTPStatus    int
	ETag          string
	LastModified  string
	ContentHash   string
	LastFetchedAt *time.Time
	Error         string
}

// FetchResult is the outcome of a conditional GET. A non-2xx status is a
// result, not an error; only transport failures surface as errors.
type FetchResult struct {
	StatusCode   int
	Body         []byte
	ETag         string
	LastModified string
}

// Profile holds the structured fields and text extracted from a staff page.
type Profile struct {
	ID             int64
	ProfileURL     string
	Name           string
	Title          string
	Suffix         string
	FacultyID      *int64
	InstituteID    *int64
	DepartmentID   *int64
	FacultyText    string
	InstituteText  string
	DepartmentText string
	TextContent    string
	RawHTML        string
	ContentHash    string
	LastFetchedAt  *time.Time
}

// OrgUnit is a lazily created faculty, institute, or department row.
// ParentID links institute to faculty and department to institute; it is
// nil when extraction could not resolve a parent.
type OrgUnit struct {
	ID       int64
	Name     string
	ParentID *int64
}

// Seed is an operator-managed crawl entry point.
type Seed struct {
	ID       int64
	URL      string
	Priority int
	Active   bool
}

// IndexStats summarizes the indexed corpus for the admin surface.
type IndexStats struct {
	Profiles      int64
	Chunks        int64
	Faculties     int64
	Institutes    int64
	Departments   int64
	LastIndexedAt *time.Time
}

// FrontierStats summarizes frontier status counts for the admin surface.
type FrontierStats struct {
	Queued        int64
	Fetched       int64
	Skipped       int64
	Errored       int64
	Total         int64
	RecentFetches int64
}
