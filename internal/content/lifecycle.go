// lifecycle.go holds the content state machine: which draft/published/
// scheduled transitions a mutation may request, and the normalization of
// raw request values into strict internal types before they reach the
// rest of the service.
package content

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"intercept/internal/models"
)

// Input is a fully normalized create request. Handlers parse the raw
// form into this type; nothing past the boundary deals with unparsed
// payloads.
type Input struct {
	Title       string
	Excerpt     string
	Body        string
	Category    string
	Tags        []string
	Status      models.ContentStatus // empty defaults to draft
	Featured    bool
	ScheduledAt *time.Time
	Duration    string
	AuthorID    uuid.UUID
}

// UpdateInput is a normalized partial update. Nil fields keep the stored
// value; Status empty keeps the stored status.
type UpdateInput struct {
	Title       *string
	Excerpt     *string
	Body        *string
	Category    *string
	Tags        []string // nil keeps the stored tags
	Status      models.ContentStatus
	Featured    *bool
	ScheduledAt *time.Time
	Duration    *string
}

// ParseTags decodes a tag list arriving as a JSON array string. An empty
// value yields no tags; a malformed value is a validation error rather
// than a silent fallback.
func ParseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, invalid("tags must be a JSON array of strings")
	}
	return tags, nil
}

// ParseSchedule decodes an RFC 3339 schedule timestamp. Empty means no
// schedule.
func ParseSchedule(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, invalid("schedule date must be an RFC 3339 timestamp")
	}
	return &t, nil
}

// validateCreate checks a create request against the state machine.
// On success the input is normalized: status defaulted, schedule cleared
// unless the item is actually scheduled.
func validateCreate(in *Input, now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)

	if in.Title == "" {
		return invalid("title is required")
	}
	if in.Body == "" {
		return invalid("body is required")
	}
	if in.AuthorID == uuid.Nil {
		return invalid("author is required")
	}

	if in.Status == "" {
		in.Status = models.ContentStatusDraft
	}
	if !in.Status.Valid() {
		return invalid("unknown status %q", in.Status)
	}

	return checkSchedule(in.Status, &in.ScheduledAt, true, now)
}

// applyUpdate merges a partial update onto the stored item and checks the
// resulting transition. A schedule supplied with this request must be in
// the future; a schedule merely carried along with an already-scheduled
// item was validated when it was set.
func applyUpdate(c *models.Content, in UpdateInput, now time.Time) error {
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return invalid("title is required")
		}
		c.Title = strings.TrimSpace(*in.Title)
	}
	if in.Body != nil {
		if strings.TrimSpace(*in.Body) == "" {
			return invalid("body is required")
		}
		c.Body = strings.TrimSpace(*in.Body)
	}
	if in.Excerpt != nil {
		c.Excerpt = in.Excerpt
	}
	if in.Category != nil {
		c.Category = *in.Category
	}
	if in.Tags != nil {
		c.Tags = in.Tags
	}
	if in.Featured != nil {
		c.Featured = *in.Featured
	}
	if in.Duration != nil {
		c.Duration = in.Duration
	}

	prev := c.Status
	if in.Status != "" {
		if !in.Status.Valid() {
			return invalid("unknown status %q", in.Status)
		}
		c.Status = in.Status
	}
	if in.ScheduledAt != nil {
		c.ScheduledAt = in.ScheduledAt
	}

	// A fresh transition into scheduled (or a new schedule time) must be
	// strictly in the future; keeping an existing schedule untouched is
	// fine even if it has since elapsed — the sweep will pick it up.
	strict := prev != models.ContentStatusScheduled || in.ScheduledAt != nil
	return checkSchedule(c.Status, &c.ScheduledAt, strict, now)
}

// checkSchedule enforces the scheduledAt invariant: non-nil and (when
// strict) strictly in the future while status is scheduled, nil otherwise.
func checkSchedule(status models.ContentStatus, scheduledAt **time.Time, strict bool, now time.Time) error {
	if status == models.ContentStatusScheduled {
		if *scheduledAt == nil {
			return invalid("schedule date is required for scheduled posts")
		}
		if strict && !(*scheduledAt).After(now) {
			return invalid("schedule date must be in the future")
		}
		return nil
	}

	// Draft and published never carry a schedule.
	*scheduledAt = nil
	return nil
}

// typeLabel returns the human label used in activity entries.
func typeLabel(t models.ContentType) string {
	if t == models.ContentTypePodcast {
		return "Podcast episode"
	}
	return "Blog post"
}

// categoryFor maps a content type to its activity category.
func categoryFor(t models.ContentType) models.ActivityCategory {
	if t == models.ContentTypePodcast {
		return models.ActivityPodcast
	}
	return models.ActivityBlog
}

// mutationAction derives the activity action from the resulting status:
// a request that publishes logs "published", anything else logs the verb
// of the operation. Scheduling logs the plain verb — the publish itself
// is logged by the sweep when it happens, so the feed never reports a
// publication twice.
func mutationAction(t models.ContentType, verb string, status models.ContentStatus) string {
	if status == models.ContentStatusPublished {
		return typeLabel(t) + " published"
	}
	return typeLabel(t) + " " + verb
}
