package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"intercept/internal/models"
)

// ResourceStore handles curated resource links.
type ResourceStore struct {
	db *sql.DB
}

// NewResourceStore creates a new ResourceStore.
func NewResourceStore(db *sql.DB) *ResourceStore {
	return &ResourceStore{db: db}
}

const resourceColumns = `id, title, description, type, url, thumbnail,
	published_at, created_by, created_at`

func scanResource(scanner interface{ Scan(...any) error }) (*models.Resource, error) {
	var r models.Resource
	err := scanner.Scan(
		&r.ID, &r.Title, &r.Description, &r.Type, &r.URL, &r.Thumbnail,
		&r.PublishedAt, &r.CreatedBy, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns resources of the given type (empty for all), newest
// published first, with pagination, plus the total count.
func (s *ResourceStore) List(resourceType models.ResourceType, limit, offset int) ([]models.Resource, int, error) {
	where := ""
	var args []any
	if resourceType != "" {
		args = append(args, resourceType)
		where = " WHERE type = $1"
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM resources`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", err)
	}

	args = append(args, limit, offset)
	query := `SELECT ` + resourceColumns + ` FROM resources` + where +
		fmt.Sprintf(" ORDER BY published_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, *r)
	}
	return resources, total, rows.Err()
}

// Create inserts a new resource.
func (s *ResourceStore) Create(r *models.Resource) (*models.Resource, error) {
	row := s.db.QueryRow(`
		INSERT INTO resources (title, description, type, url, thumbnail, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+resourceColumns,
		r.Title, r.Description, r.Type, r.URL, r.Thumbnail, r.CreatedBy,
	)
	created, err := scanResource(row)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return created, nil
}

// Delete removes a resource and returns it, or nil if the id does not exist.
func (s *ResourceStore) Delete(id uuid.UUID) (*models.Resource, error) {
	row := s.db.QueryRow(`
		DELETE FROM resources WHERE id = $1
		RETURNING `+resourceColumns, id)
	r, err := scanResource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete resource: %w", err)
	}
	return r, nil
}
