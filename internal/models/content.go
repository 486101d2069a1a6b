package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentType distinguishes blog posts from podcast episodes in the
// unified content table.
type ContentType string

const (
	ContentTypeBlog    ContentType = "blog"
	ContentTypePodcast ContentType = "podcast"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentTypeBlog || t == ContentTypePodcast
}

// ContentStatus represents the publishing state of a content item.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusScheduled ContentStatus = "scheduled"
)

// Valid reports whether s is a known status.
func (s ContentStatus) Valid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusPublished, ContentStatusScheduled:
		return true
	}
	return false
}

// Content represents a blog post or podcast episode. Both share the same
// table, differentiated by the Type field: for blogs Body holds the post
// text, for podcasts it holds the episode description and Audio points at
// the episode recording.
//
// Media references (Image, Audio) are exclusively owned by the row — no
// other row ever points at the same stored file, so replacing or deleting
// them is safe to do unconditionally.
type Content struct {
	ID          uuid.UUID     `json:"id"`
	Type        ContentType   `json:"type"`
	Title       string        `json:"title"`
	Excerpt     *string       `json:"excerpt,omitempty"`
	Body        string        `json:"body"`
	Category    string        `json:"category"`
	Tags        []string      `json:"tags"`
	Image       *string       `json:"image,omitempty"`
	Audio       *string       `json:"audio,omitempty"`
	Duration    *string       `json:"duration,omitempty"`
	Status      ContentStatus `json:"status"`
	Featured    bool          `json:"featured"`
	Views       int64         `json:"views"`
	ScheduledAt *time.Time    `json:"scheduled_at,omitempty"`
	AuthorID    uuid.UUID     `json:"author_id"`
	AuthorName  string        `json:"author_name,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsPublished returns true if the content item is in published status.
func (c *Content) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

// MediaRefs returns the stored-file references the item owns.
func (c *Content) MediaRefs() []string {
	var refs []string
	if c.Image != nil && *c.Image != "" {
		refs = append(refs, *c.Image)
	}
	if c.Audio != nil && *c.Audio != "" {
		refs = append(refs, *c.Audio)
	}
	return refs
}

// Comment is a reader comment on a blog post.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	ContentID  uuid.UUID `json:"content_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
