package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportStatus tracks the review state of a submitted report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportResolved ReportStatus = "resolved"
)

// Report is a message submitted through the public report form. Anonymous
// reports carry no name or email.
type Report struct {
	ID        uuid.UUID    `json:"id"`
	Name      *string      `json:"name,omitempty"`
	Email     *string      `json:"email,omitempty"`
	Message   string       `json:"message"`
	Anonymous bool         `json:"anonymous"`
	Status    ReportStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
