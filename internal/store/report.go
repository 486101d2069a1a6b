package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"intercept/internal/models"
)

// ReportStore handles report submissions.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore creates a new ReportStore.
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

const reportColumns = `id, name, email, message, anonymous, status, created_at, updated_at`

func scanReport(scanner interface{ Scan(...any) error }) (*models.Report, error) {
	var r models.Report
	err := scanner.Scan(
		&r.ID, &r.Name, &r.Email, &r.Message, &r.Anonymous,
		&r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new report.
func (s *ReportStore) Create(r *models.Report) (*models.Report, error) {
	row := s.db.QueryRow(`
		INSERT INTO reports (name, email, message, anonymous)
		VALUES ($1, $2, $3, $4)
		RETURNING `+reportColumns,
		r.Name, r.Email, r.Message, r.Anonymous,
	)
	created, err := scanReport(row)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return created, nil
}

// List returns all reports, newest first.
func (s *ReportStore) List() ([]models.Report, error) {
	rows, err := s.db.Query(`SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// UpdateStatus moves a report through its review states. Returns nil if
// the id does not exist.
func (s *ReportStore) UpdateStatus(id uuid.UUID, status models.ReportStatus) (*models.Report, error) {
	row := s.db.QueryRow(`
		UPDATE reports SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+reportColumns, status, id)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update report status: %w", err)
	}
	return r, nil
}
