package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"intercept/internal/models"
)

func testContent(t *testing.T, s *ContentStore, author uuid.UUID, mutate func(*models.Content)) *models.Content {
	t.Helper()

	c := &models.Content{
		Type:     models.ContentTypeBlog,
		Title:    "Test post " + uuid.NewString(),
		Body:     "Body text",
		Category: "general",
		Tags:     []string{"test"},
		Status:   models.ContentStatusDraft,
		AuthorID: author,
	}
	if mutate != nil {
		mutate(c)
	}

	created, err := s.Create(c)
	if err != nil {
		t.Fatalf("create content: %v", err)
	}
	t.Cleanup(func() {
		s.Delete(created.ID)
	})
	return created
}

func TestContentCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewContentStore(db)
	author := testUser(t, db, models.RoleAdmin)

	created := testContent(t, s, author.ID, func(c *models.Content) {
		excerpt := "Short version"
		c.Excerpt = &excerpt
		c.Tags = []string{"go", "testing"}
	})

	if created.ID == uuid.Nil {
		t.Fatal("expected an assigned id")
	}

	found, err := s.FindByID(created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil {
		t.Fatal("created content not found")
	}
	if found.Title != created.Title {
		t.Errorf("title = %q, want %q", found.Title, created.Title)
	}
	if found.AuthorName != author.Name {
		t.Errorf("author name = %q, want %q", found.AuthorName, author.Name)
	}
	if len(found.Tags) != 2 || found.Tags[0] != "go" {
		t.Errorf("tags = %v", found.Tags)
	}
	if found.Excerpt == nil || *found.Excerpt != "Short version" {
		t.Errorf("excerpt = %v", found.Excerpt)
	}
}

func TestContentFindMissing(t *testing.T) {
	db := testDB(t)
	s := NewContentStore(db)

	found, err := s.FindByID(uuid.New())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found != nil {
		t.Error("expected nil for an unknown id")
	}
}

func TestContentUpdate(t *testing.T) {
	db := testDB(t)
	s := NewContentStore(db)
	author := testUser(t, db, models.RoleAdmin)

	created := testContent(t, s, author.ID, nil)

	created.Title = "Renamed"
	created.Status = models.ContentStatusPublished
	created.Featured = true
	if err := s.Update(created); err != nil {
		t.Fatalf("update: %v", err)
	}

	found, err := s.FindByID(created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Title != "Renamed" || found.Status != models.ContentStatusPublished || !found.Featured {
		t.Errorf("update not persisted: %+v", found)
	}
	if !found.UpdatedAt.After(found.CreatedAt) {
		t.Error("updated_at should move forward")
	}
}

func TestContentDelete(t *testing.T) {
	db := testDB(t)
	s := NewContentStore(db)
	author := testUser(t, db, models.RoleAdmin)

	created := testContent(t, s, author.ID, nil)

	deleted, err := s.Delete(created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted == nil || deleted.ID != created.ID {
		t.Fatalf("delete returned %+v", deleted)
	}

	again, err := s.Delete(created.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if again != nil {
		t.Error("second delete should return nil")
	}
}

func TestContentIncrementViews(t *testing.T) {
	db := testDB(t)
	s := NewContentStore(db)
	author := testUser(t, db, models.RoleAdmin)

	created := testContent(t, s, author.ID, nil)

	for want := int64(1); want <= 3; want++ {
		got, err := s.IncrementViews(created.ID)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got.Views != want {
			t.Errorf("views = %d, want %d", got.Views, want)
		}
	}
}

func TestContentListFilters(t *testing.T) {
	db := testDB(t)
	s := NewContentStore(db)
	author := testUser(t, db, models.RoleAdmin)

	needle := uuid.NewString()
	published := testContent(t, s, author.ID, func(c *models.Content) {
		c.Title = "Needle " + needle
		c.Status = models.ContentStatusPublished
	})
	testContent(t, s, author.ID, func(c *models.Content) {
		c.Title = "Draft " + needle
	})

	items, err := s.List(ContentFilter{
		Type:   models.ContentTypeBlog,
		Status: models.ContentStatusPublished,
		Search: needle,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != published.ID {
		t.Fatalf("published search returned %d items", len(items))
	}

	all, err := s.List(ContentFilter{Type: models.ContentTypeBlog, Search: needle})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("unfiltered search returned %d items, want 2", len(all))
	}
}

func TestContentPublishDue(t *testing.T) {
	db := testDB(t)
	s := NewContentStore(db)
	author := testUser(t, db, models.RoleAdmin)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	due := testContent(t, s, author.ID, func(c *models.Content) {
		c.Status = models.ContentStatusScheduled
		c.ScheduledAt = &past
	})
	notYet := testContent(t, s, author.ID, func(c *models.Content) {
		c.Status = models.ContentStatusScheduled
		c.ScheduledAt = &future
	})

	batch, err := s.DueScheduled(time.Now())
	if err != nil {
		t.Fatalf("due scheduled: %v", err)
	}
	var sawDue, sawNotYet bool
	for _, item := range batch {
		if item.ID == due.ID {
			sawDue = true
		}
		if item.ID == notYet.ID {
			sawNotYet = true
		}
	}
	if !sawDue {
		t.Error("due item missing from the batch")
	}
	if sawNotYet {
		t.Error("future item must not be listed as due")
	}

	ok, err := s.PublishDue(due.ID)
	if err != nil {
		t.Fatalf("publish due: %v", err)
	}
	if !ok {
		t.Fatal("first publish should report a row change")
	}

	// Second attempt finds the row no longer scheduled.
	ok, err = s.PublishDue(due.ID)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if ok {
		t.Error("second publish must be a no-op")
	}

	found, err := s.FindByID(due.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Status != models.ContentStatusPublished {
		t.Errorf("status = %q, want published", found.Status)
	}
	if found.ScheduledAt != nil {
		t.Error("published item should have a cleared schedule")
	}
}
