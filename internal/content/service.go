// Package content implements the lifecycle of blog posts and podcast
// episodes: status transitions, the coupling between entity mutations and
// the files they own, and the scheduled-publish sweep.
package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intercept/internal/auth"
	"intercept/internal/models"
	"intercept/internal/uploads"
)

// Repo is the persistence contract the service needs from the content
// store.
type Repo interface {
	FindByID(id uuid.UUID) (*models.Content, error)
	Create(c *models.Content) (*models.Content, error)
	Update(c *models.Content) error
	Delete(id uuid.UUID) (*models.Content, error)
	IncrementViews(id uuid.UUID) (*models.Content, error)
	DueScheduled(now time.Time) ([]models.Content, error)
	PublishDue(id uuid.UUID) (bool, error)
}

// Files stores and removes media attachments.
type Files interface {
	Save(ctx context.Context, up uploads.Upload) (string, error)
	Remove(ref string)
}

// Recorder appends entries to the activity feed.
type Recorder interface {
	Record(a models.Activity)
}

// Authors resolves author references against the user table.
type Authors interface {
	Exists(id uuid.UUID) (bool, error)
}

// Invalidator flushes cached public listings after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service coordinates content mutations with the files they own. Every
// path that fails after a file was stored removes that file again, so a
// failed request never leaves an orphan the caller could observe.
type Service struct {
	repo     Repo
	files    Files
	activity Recorder
	authors  Authors
	cache    Invalidator
	now      func() time.Time
}

// NewService wires a content service. cache flushes cached listings on
// every successful mutation.
func NewService(repo Repo, files Files, activity Recorder, authors Authors, cache Invalidator) *Service {
	return &Service{
		repo:     repo,
		files:    files,
		activity: activity,
		authors:  authors,
		cache:    cache,
		now:      time.Now,
	}
}

// Create validates and persists a new content item. Field and author
// validation run before any file is stored; a failure after storage
// removes the stored files before returning.
func (s *Service) Create(ctx context.Context, actor auth.Identity, typ models.ContentType, in Input, media []uploads.Upload) (*models.Content, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	if err := validateCreate(&in, s.now()); err != nil {
		return nil, err
	}

	ok, err := s.authors.Exists(in.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("resolve author: %w", err)
	}
	if !ok {
		return nil, invalid("author does not exist")
	}

	stored, image, audio, err := s.storeMedia(ctx, media)
	if err != nil {
		return nil, err
	}

	item := &models.Content{
		Type:        typ,
		Title:       in.Title,
		Excerpt:     optional(in.Excerpt),
		Body:        in.Body,
		Category:    in.Category,
		Tags:        in.Tags,
		Image:       image,
		Audio:       audio,
		Duration:    optional(in.Duration),
		Status:      in.Status,
		Featured:    in.Featured,
		ScheduledAt: in.ScheduledAt,
		AuthorID:    in.AuthorID,
	}

	created, err := s.repo.Create(item)
	if err != nil {
		s.removeAll(stored)
		return nil, fmt.Errorf("create %s: %w", typ, err)
	}

	s.activity.Record(models.Activity{
		Action:   mutationAction(typ, "created", created.Status),
		Actor:    actor.Name,
		Category: categoryFor(typ),
		Detail:   typeLabel(typ) + ": " + created.Title,
	})
	s.invalidate(ctx)

	return created, nil
}

// Update applies a partial update. New uploads replace the stored
// references only after the row is durably saved; the replaced files are
// removed afterwards, best-effort. On any failure the new uploads are
// removed and the stored state — including the old files — is untouched.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id uuid.UUID, in UpdateInput, media []uploads.Upload) (*models.Content, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	existing, err := s.repo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("find content: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	merged := *existing
	if err := applyUpdate(&merged, in, s.now()); err != nil {
		return nil, err
	}

	stored, image, audio, err := s.storeMedia(ctx, media)
	if err != nil {
		return nil, err
	}

	var replaced []string
	if image != nil {
		if merged.Image != nil {
			replaced = append(replaced, *merged.Image)
		}
		merged.Image = image
	}
	if audio != nil {
		if merged.Audio != nil {
			replaced = append(replaced, *merged.Audio)
		}
		merged.Audio = audio
	}

	if err := s.repo.Update(&merged); err != nil {
		s.removeAll(stored)
		return nil, fmt.Errorf("update %s: %w", merged.Type, err)
	}

	// The new state is saved; only now do the replaced files go away.
	s.removeAll(replaced)
	merged.UpdatedAt = s.now()

	s.activity.Record(models.Activity{
		Action:   mutationAction(merged.Type, "updated", merged.Status),
		Actor:    actor.Name,
		Category: categoryFor(merged.Type),
		Detail:   typeLabel(merged.Type) + ": " + merged.Title,
	})
	s.invalidate(ctx)

	return &merged, nil
}

// Delete removes a content item and every file it owned. File removal is
// best-effort: a failure there never resurrects the row or fails the
// delete.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	deleted, err := s.repo.Delete(id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if deleted == nil {
		return ErrNotFound
	}

	s.removeAll(deleted.MediaRefs())

	s.activity.Record(models.Activity{
		Action:   typeLabel(deleted.Type) + " deleted",
		Actor:    actor.Name,
		Category: categoryFor(deleted.Type),
		Detail:   typeLabel(deleted.Type) + ": " + deleted.Title,
	})
	s.invalidate(ctx)

	return nil
}

// Get returns a single item and bumps its view counter. Published items
// are readable by anyone; anything else only by admins — non-admins get
// a not-found rather than a hint the item exists.
func (s *Service) Get(actor *auth.Identity, id uuid.UUID) (*models.Content, error) {
	item, err := s.repo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("find content: %w", err)
	}
	if item == nil {
		return nil, ErrNotFound
	}
	if !item.IsPublished() && (actor == nil || !actor.IsAdmin()) {
		return nil, ErrNotFound
	}

	fresh, err := s.repo.IncrementViews(id)
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	if fresh == nil {
		// Deleted between the two statements.
		return nil, ErrNotFound
	}
	return fresh, nil
}

// storeMedia saves each upload, returning all stored refs plus the image
// and audio refs individually. If any save fails the already-stored files
// are removed before the error is returned.
func (s *Service) storeMedia(ctx context.Context, media []uploads.Upload) (stored []string, image, audio *string, err error) {
	for _, up := range media {
		ref, err := s.files.Save(ctx, up)
		if err != nil {
			s.removeAll(stored)
			var rejected *uploads.RejectedError
			if errors.As(err, &rejected) {
				return nil, nil, nil, invalid("%s", rejected.Reason)
			}
			return nil, nil, nil, fmt.Errorf("store %s: %w", up.Kind, err)
		}
		stored = append(stored, ref)

		r := ref
		switch up.Kind {
		case uploads.KindImage:
			image = &r
		case uploads.KindAudio:
			audio = &r
		}
	}
	return stored, image, audio, nil
}

// removeAll best-effort removes a set of stored refs.
func (s *Service) removeAll(refs []string) {
	for _, ref := range refs {
		s.files.Remove(ref)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// optional maps an empty string to a NULL column.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
