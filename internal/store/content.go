// Package store contains all database access. Each entity gets a thin
// store struct over *sql.DB; queries stay in SQL and errors are wrapped
// with enough context to locate the failing call.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intercept/internal/models"
)

// ContentStore handles all content-related database operations. It serves
// both blog posts and podcast episodes through the unified content table.
type ContentStore struct {
	db *sql.DB
}

// NewContentStore creates a new ContentStore with the given database connection.
func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

// contentColumns lists the content columns selected in every query, in
// scan order. Joined queries append the author name.
const contentColumns = `c.id, c.type, c.title, c.excerpt, c.body, c.category, c.tags,
	c.image, c.audio, c.duration, c.status, c.featured, c.views,
	c.scheduled_at, c.author_id, c.created_at, c.updated_at`

// scanContent scans a content row. withAuthor must match whether the query
// selected the joined author name as its final column.
func scanContent(scanner interface{ Scan(...any) error }, withAuthor bool) (*models.Content, error) {
	var c models.Content
	var tags []byte

	dest := []any{
		&c.ID, &c.Type, &c.Title, &c.Excerpt, &c.Body, &c.Category, &tags,
		&c.Image, &c.Audio, &c.Duration, &c.Status, &c.Featured, &c.Views,
		&c.ScheduledAt, &c.AuthorID, &c.CreatedAt, &c.UpdatedAt,
	}
	if withAuthor {
		dest = append(dest, &c.AuthorName)
	}
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &c.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &c, nil
}

// ContentFilter narrows and orders a content listing.
type ContentFilter struct {
	Type   models.ContentType
	Status models.ContentStatus // empty means all statuses
	Search string               // case-insensitive substring over title/excerpt/body
	SortBy string               // "title", "views" or "" (newest first)
}

// List returns content items matching the filter.
func (s *ContentStore) List(f ContentFilter) ([]models.Content, error) {
	query := `
		SELECT ` + contentColumns + `, u.name
		FROM content c
		JOIN users u ON u.id = c.author_id
		WHERE c.type = $1`
	args := []any{f.Type}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND c.status = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (c.title ILIKE $%d OR c.excerpt ILIKE $%d OR c.body ILIKE $%d)", n, n, n)
	}

	switch f.SortBy {
	case "title":
		query += " ORDER BY c.title ASC"
	case "views":
		query += " ORDER BY c.views DESC"
	default:
		query += " ORDER BY c.created_at DESC"
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var items []models.Content
	for rows.Next() {
		c, err := scanContent(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a content item by its UUID. Returns nil if not found.
func (s *ContentStore) FindByID(id uuid.UUID) (*models.Content, error) {
	row := s.db.QueryRow(`
		SELECT `+contentColumns+`, u.name
		FROM content c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1
	`, id)
	c, err := scanContent(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find content by id: %w", err)
	}
	return c, nil
}

// Create inserts a new content item and returns it with the generated ID
// and timestamps.
func (s *ContentStore) Create(c *models.Content) (*models.Content, error) {
	tags, err := json.Marshal(tagsOrEmpty(c.Tags))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO content AS c (type, title, excerpt, body, category, tags,
		                     image, audio, duration, status, featured,
		                     scheduled_at, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+contentColumns,
		c.Type, c.Title, c.Excerpt, c.Body, c.Category, tags,
		c.Image, c.Audio, c.Duration, c.Status, c.Featured,
		c.ScheduledAt, c.AuthorID,
	)
	created, err := scanContent(row, false)
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	created.AuthorName = c.AuthorName
	return created, nil
}

// Update modifies an existing content item and refreshes updated_at.
func (s *ContentStore) Update(c *models.Content) error {
	tags, err := json.Marshal(tagsOrEmpty(c.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE content SET
			title = $1, excerpt = $2, body = $3, category = $4, tags = $5,
			image = $6, audio = $7, duration = $8, status = $9,
			featured = $10, scheduled_at = $11, updated_at = NOW()
		WHERE id = $12
	`, c.Title, c.Excerpt, c.Body, c.Category, tags,
		c.Image, c.Audio, c.Duration, c.Status,
		c.Featured, c.ScheduledAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	return nil
}

// Delete removes a content item and returns the deleted row so the caller
// can clean up the files it owned. Returns nil if the id does not exist.
func (s *ContentStore) Delete(id uuid.UUID) (*models.Content, error) {
	row := s.db.QueryRow(`
		DELETE FROM content c WHERE id = $1
		RETURNING `+contentColumns, id)
	c, err := scanContent(row, false)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete content: %w", err)
	}
	return c, nil
}

// IncrementViews bumps the view counter and returns the item. The counter
// is incremented in SQL so concurrent reads both count. Returns nil if the
// id does not exist.
func (s *ContentStore) IncrementViews(id uuid.UUID) (*models.Content, error) {
	row := s.db.QueryRow(`
		UPDATE content c SET views = views + 1
		FROM users u
		WHERE c.id = $1 AND u.id = c.author_id
		RETURNING `+contentColumns+`, u.name`, id)
	c, err := scanContent(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	return c, nil
}

// DueScheduled returns items whose scheduled publish time has elapsed.
func (s *ContentStore) DueScheduled(now time.Time) ([]models.Content, error) {
	rows, err := s.db.Query(`
		SELECT `+contentColumns+`
		FROM content c
		WHERE c.status = 'scheduled' AND c.scheduled_at <= $1
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list due scheduled: %w", err)
	}
	defer rows.Close()

	var items []models.Content
	for rows.Next() {
		c, err := scanContent(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan due scheduled: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// PublishDue transitions a scheduled item to published and clears its
// schedule. The status predicate is re-checked in the WHERE clause, so a
// concurrent sweep or manual publish makes this a no-op: the returned bool
// reports whether the transition actually applied.
func (s *ContentStore) PublishDue(id uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE content
		SET status = 'published', scheduled_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
	`, id)
	if err != nil {
		return false, fmt.Errorf("publish due content: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("publish due content: %w", err)
	}
	return n > 0, nil
}

// CountByType returns the number of content items of the given type.
func (s *ContentStore) CountByType(t models.ContentType) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM content WHERE type = $1`, t).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count content: %w", err)
	}
	return count, nil
}

// tagsOrEmpty keeps the tags column a JSON array even when no tags are set.
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
