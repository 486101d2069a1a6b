package content

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"intercept/internal/models"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "whitespace", raw: "  ", want: nil},
		{name: "array", raw: `["go","news"]`, want: []string{"go", "news"}},
		{name: "empty array", raw: `[]`, want: []string{}},
		{name: "not json", raw: "go,news", wantErr: true},
		{name: "wrong type", raw: `{"a":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTags(tt.raw)
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestParseSchedule(t *testing.T) {
	if got, err := ParseSchedule(""); err != nil || got != nil {
		t.Errorf("empty schedule: %v, %v", got, err)
	}

	got, err := ParseSchedule("2026-09-01T10:00:00Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", got)
	}

	var verr *ValidationError
	if _, err := ParseSchedule("tomorrow"); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestValidateCreate(t *testing.T) {
	now := time.Now()
	author := uuid.New()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name    string
		in      Input
		wantErr string
	}{
		{
			name:    "missing title",
			in:      Input{Body: "b", AuthorID: author},
			wantErr: "title is required",
		},
		{
			name:    "blank body",
			in:      Input{Title: "t", Body: "   ", AuthorID: author},
			wantErr: "body is required",
		},
		{
			name:    "missing author",
			in:      Input{Title: "t", Body: "b"},
			wantErr: "author is required",
		},
		{
			name:    "unknown status",
			in:      Input{Title: "t", Body: "b", AuthorID: author, Status: "archived"},
			wantErr: `unknown status "archived"`,
		},
		{
			name:    "scheduled without date",
			in:      Input{Title: "t", Body: "b", AuthorID: author, Status: models.ContentStatusScheduled},
			wantErr: "schedule date is required for scheduled posts",
		},
		{
			name:    "scheduled in the past",
			in:      Input{Title: "t", Body: "b", AuthorID: author, Status: models.ContentStatusScheduled, ScheduledAt: &past},
			wantErr: "schedule date must be in the future",
		},
		{
			name: "scheduled in the future",
			in:   Input{Title: "t", Body: "b", AuthorID: author, Status: models.ContentStatusScheduled, ScheduledAt: &future},
		},
		{
			name: "published",
			in:   Input{Title: "t", Body: "b", AuthorID: author, Status: models.ContentStatusPublished},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCreate(&tt.in, now)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCreateDefaultsToDraft(t *testing.T) {
	in := Input{Title: "t", Body: "b", AuthorID: uuid.New()}
	if err := validateCreate(&in, time.Now()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.Status != models.ContentStatusDraft {
		t.Errorf("status = %q, want draft", in.Status)
	}
}

func TestValidateCreateClearsStraySchedule(t *testing.T) {
	at := time.Now().Add(time.Hour)
	in := Input{Title: "t", Body: "b", AuthorID: uuid.New(), Status: models.ContentStatusDraft, ScheduledAt: &at}
	if err := validateCreate(&in, time.Now()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.ScheduledAt != nil {
		t.Error("a draft must not carry a schedule")
	}
}

func TestApplyUpdateTransitions(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	elapsed := now.Add(-time.Minute)

	t.Run("schedule then unschedule", func(t *testing.T) {
		c := models.Content{Title: "t", Body: "b", Status: models.ContentStatusDraft}
		err := applyUpdate(&c, UpdateInput{Status: models.ContentStatusScheduled, ScheduledAt: &future}, now)
		if err != nil {
			t.Fatalf("schedule: %v", err)
		}

		err = applyUpdate(&c, UpdateInput{Status: models.ContentStatusDraft}, now)
		if err != nil {
			t.Fatalf("back to draft: %v", err)
		}
		if c.ScheduledAt != nil {
			t.Error("schedule should be cleared on leaving scheduled")
		}
	})

	t.Run("new schedule must be in the future", func(t *testing.T) {
		c := models.Content{Title: "t", Body: "b", Status: models.ContentStatusDraft}
		err := applyUpdate(&c, UpdateInput{Status: models.ContentStatusScheduled, ScheduledAt: &elapsed}, now)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("elapsed schedule survives an unrelated edit", func(t *testing.T) {
		at := elapsed
		c := models.Content{Title: "t", Body: "b", Status: models.ContentStatusScheduled, ScheduledAt: &at}
		title := "renamed"
		if err := applyUpdate(&c, UpdateInput{Title: &title}, now); err != nil {
			t.Fatalf("edit: %v", err)
		}
		if c.ScheduledAt == nil {
			t.Error("elapsed schedule must be kept for the sweep")
		}
	})

	t.Run("resubmitted elapsed schedule is rejected", func(t *testing.T) {
		at := elapsed
		c := models.Content{Title: "t", Body: "b", Status: models.ContentStatusScheduled, ScheduledAt: &at}
		err := applyUpdate(&c, UpdateInput{ScheduledAt: &elapsed}, now)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("blank title rejected", func(t *testing.T) {
		c := models.Content{Title: "t", Body: "b", Status: models.ContentStatusDraft}
		blank := "  "
		err := applyUpdate(&c, UpdateInput{Title: &blank}, now)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestMutationAction(t *testing.T) {
	got := mutationAction(models.ContentTypeBlog, "created", models.ContentStatusPublished)
	if got != "Blog post published" {
		t.Errorf("got %q", got)
	}
	got = mutationAction(models.ContentTypePodcast, "updated", models.ContentStatusScheduled)
	if got != "Podcast episode updated" {
		t.Errorf("got %q", got)
	}
}
