package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/uniwebdev/staffsearch/internal/crawl"
)

// ProfileStore persists staff profiles and their org unit hierarchy.
type ProfileStore struct {
	pool Querier
}

// NewProfileStore constructs a store from an existing pool.
func NewProfileStore(pool Querier) (*ProfileStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ProfileStore{pool: pool}, nil
}

// GetByURL loads a profile by its canonical URL. The second return value
// is false when no row exists.
func (s *ProfileStore) GetByURL(ctx context.Context, profileURL string) (crawl.Profile, bool, error) {
	var p crawl.Profile
	err := s.pool.QueryRow(ctx, `
SELECT id, profile_url, name, title, suffix,
       faculty_id, institute_id, department_id,
       COALESCE(faculty_text, ''), COALESCE(institute_text, ''), COALESCE(department_text, ''),
       text_content, raw_html, content_hash, last_fetched_at
FROM staff_profiles WHERE profile_url = $1`,
		profileURL).
		Scan(&p.ID, &p.ProfileURL, &p.Name, &p.Title, &p.Suffix,
			&p.FacultyID, &p.InstituteID, &p.DepartmentID,
			&p.FacultyText, &p.InstituteText, &p.DepartmentText,
			&p.TextContent, &p.RawHTML, &p.ContentHash, &p.LastFetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawl.Profile{}, false, nil
	}
	if err != nil {
		return crawl.Profile{}, false, fmt.Errorf("get profile %s: %w", profileURL, err)
	}
	return p, true, nil
}

// Upsert creates or replaces the profile row keyed by profile_url and
// returns its id.
func (s *ProfileStore) Upsert(ctx context.Context, p crawl.Profile) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO staff_profiles (
	profile_url, name, title, suffix,
	faculty_id, institute_id, department_id,
	faculty_text, institute_text, department_text,
	text_content, raw_html, content_hash, last_fetched_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (profile_url) DO UPDATE SET
	name = EXCLUDED.name,
	title = EXCLUDED.title,
	suffix = EXCLUDED.suffix,
	faculty_id = EXCLUDED.faculty_id,
	institute_id = EXCLUDED.institute_id,
	department_id = EXCLUDED.department_id,
	faculty_text = EXCLUDED.faculty_text,
	institute_text = EXCLUDED.institute_text,
	department_text = EXCLUDED.department_text,
	text_content = EXCLUDED.text_content,
	raw_html = EXCLUDED.raw_html,
	content_hash = EXCLUDED.content_hash,
	last_fetched_at = EXCLUDED.last_fetched_at,
	updated_at = now()
RETURNING id`,
		p.ProfileURL, p.Name, p.Title, p.Suffix,
		p.FacultyID, p.InstituteID, p.DepartmentID,
		p.FacultyText, p.InstituteText, p.DepartmentText,
		p.TextContent, p.RawHTML, p.ContentHash, p.LastFetchedAt).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert profile %s: %w", p.ProfileURL, err)
	}
	return id, nil
}

// EnsureFaculty is an idempotent get-or-create keyed by unique name.
func (s *ProfileStore) EnsureFaculty(ctx context.Context, name string) (crawl.OrgUnit, error) {
	var u crawl.OrgUnit
	err := s.pool.QueryRow(ctx, `
INSERT INTO faculties (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name`,
		name).
		Scan(&u.ID, &u.Name)
	if err != nil {
		return crawl.OrgUnit{}, fmt.Errorf("ensure faculty %q: %w", name, err)
	}
	return u, nil
}

// EnsureInstitute gets or creates an institute. A non-nil facultyID relinks
// an existing row whose parent differs; nil leaves an existing link intact.
func (s *ProfileStore) EnsureInstitute(ctx context.Context, name string, facultyID *int64) (crawl.OrgUnit, error) {
	var u crawl.OrgUnit
	err := s.pool.QueryRow(ctx, `
INSERT INTO institutes (name, faculty_id) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET
	faculty_id = COALESCE(EXCLUDED.faculty_id, institutes.faculty_id)
RETURNING id, name, faculty_id`,
		name, facultyID).
		Scan(&u.ID, &u.Name, &u.ParentID)
	if err != nil {
		return crawl.OrgUnit{}, fmt.Errorf("ensure institute %q: %w", name, err)
	}
	return u, nil
}

// EnsureDepartment gets or creates a department, relinking its institute
// the same way EnsureInstitute relinks its faculty.
func (s *ProfileStore) EnsureDepartment(ctx context.Context, name string, instituteID *int64) (crawl.OrgUnit, error) {
	var u crawl.OrgUnit
	err := s.pool.QueryRow(ctx, `
INSERT INTO departments (name, institute_id) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET
	institute_id = COALESCE(EXCLUDED.institute_id, departments.institute_id)
RETURNING id, name, institute_id`,
		name, instituteID).
		Scan(&u.ID, &u.Name, &u.ParentID)
	if err != nil {
		return crawl.OrgUnit{}, fmt.Errorf("ensure department %q: %w", name, err)
	}
	return u, nil
}

// ListFaculties returns all faculties ordered by name.
func (s *ProfileStore) ListFaculties(ctx context.Context) ([]crawl.OrgUnit, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM faculties ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list faculties: %w", err)
	}
	return scanOrgUnits(rows, false)
}

// ListInstitutes returns institutes, optionally narrowed to one faculty by
// case-insensitive name.
func (s *ProfileStore) ListInstitutes(ctx context.Context, facultyName string) ([]crawl.OrgUnit, error) {
	rows, err := s.pool.Query(ctx, `
SELECT i.id, i.name, i.faculty_id FROM institutes i
LEFT JOIN faculties f ON f.id = i.faculty_id
WHERE $1 = '' OR LOWER(f.name) = LOWER($1)
ORDER BY i.name`,
		facultyName)
	if err != nil {
		return nil, fmt.Errorf("list institutes: %w", err)
	}
	return scanOrgUnits(rows, true)
}

// ListDepartments returns departments, optionally narrowed to one institute
// by case-insensitive name.
func (s *ProfileStore) ListDepartments(ctx context.Context, instituteName string) ([]crawl.OrgUnit, error) {
	rows, err := s.pool.Query(ctx, `
SELECT d.id, d.name, d.institute_id FROM departments d
LEFT JOIN institutes i ON i.id = d.institute_id
WHERE $1 = '' OR LOWER(i.name) = LOWER($1)
ORDER BY d.name`,
		instituteName)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return scanOrgUnits(rows, true)
}

// DepartmentStaff lists the profiles attached to a department, matched
// case-insensitively against both the linked row and the raw extracted text.
func (s *ProfileStore) DepartmentStaff(ctx context.Context, departmentName string) ([]crawl.Profile, error) {
	rows, err := s.pool.Query(ctx, `
SELECT p.id, p.profile_url, p.name, p.title, p.suffix, COALESCE(p.department_text, '')
FROM staff_profiles p
LEFT JOIN departments d ON d.id = p.department_id
WHERE LOWER(d.name) = LOWER($1) OR LOWER(p.department_text) = LOWER($1)
ORDER BY p.name`,
		departmentName)
	if err != nil {
		return nil, fmt.Errorf("department staff %q: %w", departmentName, err)
	}
	defer rows.Close()

	var profiles []crawl.Profile
	for rows.Next() {
		var p crawl.Profile
		if err := rows.Scan(&p.ID, &p.ProfileURL, &p.Name, &p.Title, &p.Suffix, &p.DepartmentText); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("department staff %q: %w", departmentName, err)
	}
	return profiles, nil
}

// ListIDs returns profile ids in insertion order, capped at limit when
// limit is positive. Used by bulk reprocessing.
func (s *ProfileStore) ListIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id FROM staff_profiles ORDER BY id
LIMIT CASE WHEN $1 > 0 THEN $1 ELSE NULL END`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list profile ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan profile id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profile ids: %w", err)
	}
	return ids, nil
}

// GetByID loads a profile by primary key.
func (s *ProfileStore) GetByID(ctx context.Context, id int64) (crawl.Profile, bool, error) {
	var p crawl.Profile
	err := s.pool.QueryRow(ctx, `
SELECT id, profile_url, name, title, suffix,
       faculty_id, institute_id, department_id,
       COALESCE(faculty_text, ''), COALESCE(institute_text, ''), COALESCE(department_text, ''),
       text_content, raw_html, content_hash, last_fetched_at
FROM staff_profiles WHERE id = $1`,
		id).
		Scan(&p.ID, &p.ProfileURL, &p.Name, &p.Title, &p.Suffix,
			&p.FacultyID, &p.InstituteID, &p.DepartmentID,
			&p.FacultyText, &p.InstituteText, &p.DepartmentText,
			&p.TextContent, &p.RawHTML, &p.ContentHash, &p.LastFetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawl.Profile{}, false, nil
	}
	if err != nil {
		return crawl.Profile{}, false, fmt.Errorf("get profile %d: %w", id, err)
	}
	return p, true, nil
}

// Stats summarizes the indexed corpus for the admin surface.
func (s *ProfileStore) Stats(ctx context.Context) (crawl.IndexStats, error) {
	var st crawl.IndexStats
	err := s.pool.QueryRow(ctx, `
SELECT
	(SELECT count(*) FROM staff_profiles),
	(SELECT count(*) FROM chunks),
	(SELECT count(*) FROM faculties),
	(SELECT count(*) FROM institutes),
	(SELECT count(*) FROM departments),
	(SELECT max(last_fetched_at) FROM staff_profiles)`).
		Scan(&st.Profiles, &st.Chunks, &st.Faculties, &st.Institutes, &st.Departments, &st.LastIndexedAt)
	if err != nil {
		return crawl.IndexStats{}, fmt.Errorf("index stats: %w", err)
	}
	return st, nil
}

func scanOrgUnits(rows pgx.Rows, withParent bool) ([]crawl.OrgUnit, error) {
	defer rows.Close()

	var units []crawl.OrgUnit
	for rows.Next() {
		var u crawl.OrgUnit
		var err error
		if withParent {
			err = rows.Scan(&u.ID, &u.Name, &u.ParentID)
		} else {
			err = rows.Scan(&u.ID, &u.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("scan org unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read org units: %w", err)
	}
	return units, nil
}
