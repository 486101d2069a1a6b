package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"intercept/internal/models"
)

// Sweeper periodically publishes scheduled content whose time has come.
// The conditional update in the store is the only de-duplication guard:
// an item already published by a concurrent run is silently skipped.
type Sweeper struct {
	repo     Repo
	activity Recorder
	cache    Invalidator
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	lastRun   time.Time
	lastCount int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper builds a sweeper that runs every interval once started.
func NewSweeper(repo Repo, activity Recorder, cache Invalidator, interval time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		activity: activity,
		cache:    cache,
		interval: interval,
		now:      time.Now,
	}
}

// Start launches the periodic sweep in a background goroutine. The first
// sweep runs immediately.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		slog.Info("starting scheduled publish sweeper", "interval", s.interval)
		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping scheduled publish sweeper")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop cancels the background loop and waits for an in-flight sweep to
// finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		slog.Error("publish sweep failed", "error", err)
	}
}

// RunOnce performs a single sweep and returns how many items it
// published. A failure on one item is logged and does not stop the rest
// of the batch.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	now := s.now()

	due, err := s.repo.DueScheduled(now)
	if err != nil {
		return 0, fmt.Errorf("list due content: %w", err)
	}

	published := 0
	for _, item := range due {
		if ctx.Err() != nil {
			break
		}

		ok, err := s.repo.PublishDue(item.ID)
		if err != nil {
			slog.Error("publish scheduled content",
				"id", item.ID,
				"title", item.Title,
				"error", err)
			continue
		}
		if !ok {
			// Already published by a concurrent run, or edited away
			// from scheduled since the listing.
			continue
		}

		published++
		slog.Info("published scheduled content",
			"id", item.ID,
			"type", item.Type,
			"title", item.Title)

		s.activity.Record(models.Activity{
			Action:   typeLabel(item.Type) + " published",
			Actor:    "system",
			Category: categoryFor(item.Type),
			Detail:   "Published " + typeLabel(item.Type) + ": " + item.Title,
		})
	}

	if published > 0 && s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.mu.Lock()
	s.lastRun = now
	s.lastCount = published
	s.mu.Unlock()

	return published, ctx.Err()
}

// LastRun reports when the sweeper last completed and how many items that
// run published. The zero time means it has not run yet.
func (s *Sweeper) LastRun() (time.Time, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastCount
}
