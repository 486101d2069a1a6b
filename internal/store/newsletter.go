package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intercept/internal/models"
)

// NewsletterStore handles newsletter subscription operations.
type NewsletterStore struct {
	db *sql.DB
}

// NewNewsletterStore creates a new NewsletterStore.
func NewNewsletterStore(db *sql.DB) *NewsletterStore {
	return &NewsletterStore{db: db}
}

const subscriptionColumns = `id, email, status, subscribed_at, unsubscribed_at,
	ip_address, user_agent, source, created_at`

func scanSubscription(scanner interface{ Scan(...any) error }) (*models.Subscription, error) {
	var sub models.Subscription
	err := scanner.Scan(
		&sub.ID, &sub.Email, &sub.Status, &sub.SubscribedAt, &sub.UnsubscribedAt,
		&sub.IPAddress, &sub.UserAgent, &sub.Source, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByEmail retrieves a subscription by email. Returns nil if not found.
func (s *NewsletterStore) FindByEmail(email string) (*models.Subscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionColumns+` FROM newsletter_subscriptions WHERE email = $1`, email)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription by email: %w", err)
	}
	return sub, nil
}

// Create inserts a new active subscription.
func (s *NewsletterStore) Create(sub *models.Subscription) (*models.Subscription, error) {
	row := s.db.QueryRow(`
		INSERT INTO newsletter_subscriptions (email, ip_address, user_agent, source)
		VALUES ($1, $2, $3, $4)
		RETURNING `+subscriptionColumns,
		sub.Email, sub.IPAddress, sub.UserAgent, sub.Source,
	)
	created, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return created, nil
}

// Reactivate flips an unsubscribed row back to active with a fresh
// subscribed_at timestamp.
func (s *NewsletterStore) Reactivate(id uuid.UUID) (*models.Subscription, error) {
	row := s.db.QueryRow(`
		UPDATE newsletter_subscriptions
		SET status = 'active', subscribed_at = NOW(), unsubscribed_at = NULL
		WHERE id = $1
		RETURNING `+subscriptionColumns, id)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reactivate subscription: %w", err)
	}
	return sub, nil
}

// Unsubscribe marks a subscription as unsubscribed. Returns nil if the
// email is not on the list.
func (s *NewsletterStore) Unsubscribe(email string) (*models.Subscription, error) {
	row := s.db.QueryRow(`
		UPDATE newsletter_subscriptions
		SET status = 'unsubscribed', unsubscribed_at = NOW()
		WHERE email = $1
		RETURNING `+subscriptionColumns, email)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unsubscribe: %w", err)
	}
	return sub, nil
}

// SubscriptionFilter narrows and orders a subscription listing.
type SubscriptionFilter struct {
	Search string                    // substring match on email
	Status models.SubscriptionStatus // empty means all
	SortBy string                    // "email", "status" or "" (newest first)
	Limit  int
	Offset int
}

// List returns subscriptions matching the filter plus the total count for
// pagination.
func (s *NewsletterStore) List(f SubscriptionFilter) ([]models.Subscription, int, error) {
	where := " WHERE TRUE"
	var args []any

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND email ILIKE $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM newsletter_subscriptions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	order := " ORDER BY subscribed_at DESC"
	switch f.SortBy {
	case "email":
		order = " ORDER BY email ASC"
	case "status":
		order = " ORDER BY status ASC"
	}

	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + subscriptionColumns + ` FROM newsletter_subscriptions` + where + order +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, total, rows.Err()
}

// Stats summarizes the subscription list for the admin dashboard.
type Stats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Unsubscribed int `json:"unsubscribed"`
	Recent       int `json:"recent"` // active signups in the last 30 days
}

// Stats returns subscription counts.
func (s *NewsletterStore) Stats() (*Stats, error) {
	cutoff := time.Now().AddDate(0, 0, -30)
	var st Stats
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'unsubscribed'),
		       COUNT(*) FILTER (WHERE status = 'active' AND subscribed_at >= $1)
		FROM newsletter_subscriptions
	`, cutoff).Scan(&st.Total, &st.Active, &st.Unsubscribed, &st.Recent)
	if err != nil {
		return nil, fmt.Errorf("subscription stats: %w", err)
	}
	return &st, nil
}

// Delete removes a subscription and returns it, or nil if the id does not
// exist.
func (s *NewsletterStore) Delete(id uuid.UUID) (*models.Subscription, error) {
	row := s.db.QueryRow(`
		DELETE FROM newsletter_subscriptions WHERE id = $1
		RETURNING `+subscriptionColumns, id)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete subscription: %w", err)
	}
	return sub, nil
}
