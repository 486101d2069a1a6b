package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceType categorizes a curated resource link.
type ResourceType string

const (
	ResourcePodcast ResourceType = "podcast"
	ResourceArticle ResourceType = "article"
	ResourceVideo   ResourceType = "video"
	ResourceGuide   ResourceType = "guide"
)

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourcePodcast, ResourceArticle, ResourceVideo, ResourceGuide:
		return true
	}
	return false
}

// Resource is a curated external link (article, video, guide, podcast)
// shown on the public resources page.
type Resource struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        ResourceType `json:"type"`
	URL         string       `json:"url"`
	Thumbnail   *string      `json:"thumbnail,omitempty"`
	PublishedAt time.Time    `json:"published_at"`
	CreatedBy   uuid.UUID    `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
}
