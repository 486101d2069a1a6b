package models

import "time"

// ActivityCategory identifies which part of the system an activity entry
// belongs to. It matches the content and resource types plus the
// surrounding CRUD surfaces.
type ActivityCategory string

const (
	ActivityUser       ActivityCategory = "user"
	ActivityBlog       ActivityCategory = "blog"
	ActivityPodcast    ActivityCategory = "podcast"
	ActivityComment    ActivityCategory = "comment"
	ActivityNewsletter ActivityCategory = "newsletter"
	ActivityResource   ActivityCategory = "resource"
	ActivityReport     ActivityCategory = "report"
)

// Activity is a single entry in the append-only activity feed. Entries are
// immutable once created; nothing in the system updates or deletes them.
type Activity struct {
	ID        int64            `json:"id"`
	Action    string           `json:"action"`
	Actor     string           `json:"actor"`
	Category  ActivityCategory `json:"category"`
	Detail    string           `json:"detail"`
	CreatedAt time.Time        `json:"created_at"`
}
