package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"intercept/internal/models"
)

// CommentStore handles blog post comments.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Create inserts a comment and returns it with the generated ID.
func (s *CommentStore) Create(c *models.Comment) (*models.Comment, error) {
	err := s.db.QueryRow(`
		INSERT INTO comments (content_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, c.ContentID, c.AuthorID, c.Body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// ListByContent returns the comments on a content item, oldest first.
func (s *CommentStore) ListByContent(contentID uuid.UUID) ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.content_id, c.author_id, u.name, c.body, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.content_id = $1
		ORDER BY c.created_at ASC
	`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ContentID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Delete removes a comment scoped to its content item. Returns the
// deleted comment or nil if it does not exist.
func (s *CommentStore) Delete(contentID, commentID uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	err := s.db.QueryRow(`
		DELETE FROM comments
		WHERE id = $1 AND content_id = $2
		RETURNING id, content_id, author_id, body, created_at
	`, commentID, contentID).Scan(&c.ID, &c.ContentID, &c.AuthorID, &c.Body, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete comment: %w", err)
	}
	return &c, nil
}
