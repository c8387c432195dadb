package learning

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vnioa/studymate-sync/internal/apiclient"
	"github.com/vnioa/studymate-sync/internal/cache"
	"github.com/vnioa/studymate-sync/internal/entities"
	"github.com/vnioa/studymate-sync/internal/store"
	"github.com/vnioa/studymate-sync/internal/syncer"
)

// Controller orchestrates the learning feature: the initial load, the
// scheduled and manual refreshes and the confirm-then-apply mutations.
// It owns no state of its own; everything lives in the ContentStore and
// is mutated only through the store's transitions.
type Controller struct {
	service   *Service
	store     *store.ContentStore
	snapshots *cache.SnapshotStore
	engine    *syncer.Engine[store.HomeData]
}

// Config wires a Controller.
type Config struct {
	Service   *Service
	Store     *store.ContentStore
	Snapshots *cache.SnapshotStore // optional offline fallback
	Schedule  string               // cron, background refresh
	Observer  syncer.Observer      // optional audit hook
}

// NewController creates the learning controller and its sync engine.
func NewController(cfg Config) *Controller {
	c := &Controller{
		service:   cfg.Service,
		store:     cfg.Store,
		snapshots: cfg.Snapshots,
	}
	c.engine = syncer.New(syncer.Options[store.HomeData]{
		Name:          "learning",
		Fetch:         c.fetchHome,
		Apply:         c.applyHome,
		SetLoading:    cfg.Store.SetLoading,
		SetRefreshing: cfg.Store.SetRefreshing,
		SetError:      cfg.Store.SetError,
		ErrorMessage:  apiclient.MessageOf,
		Schedule:      cfg.Schedule,
		Observer:      cfg.Observer,
	})
	return c
}

// fetchHome runs the four home-view reads concurrently. The batch is
// fail-fast: the first error cancels the sibling requests and fails the
// whole batch, so a partial result never reaches the store.
func (c *Controller) fetchHome(ctx context.Context) (store.HomeData, error) {
	var data store.HomeData

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		contents, err := c.service.Personalized(ctx)
		if err != nil {
			return err
		}
		data.Personalized = contents
		return nil
	})
	g.Go(func() error {
		contents, err := c.service.Popular(ctx)
		if err != nil {
			return err
		}
		data.Popular = contents
		return nil
	})
	g.Go(func() error {
		contents, err := c.service.Recommendations(ctx)
		if err != nil {
			return err
		}
		data.Recommendations = contents
		return nil
	})
	g.Go(func() error {
		stats, err := c.service.Statistics(ctx)
		if err != nil {
			return err
		}
		data.Statistics = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return store.HomeData{}, err
	}
	return data, nil
}

// applyHome merges a batch into the store and writes the offline snapshot.
func (c *Controller) applyHome(data store.HomeData) {
	c.store.SetData(data)

	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.Put(entities.SnapshotKeyLearningHome, data); err != nil {
		log.Printf("learning sync: failed to write offline snapshot: %v", err)
	}
}

// Load performs the blocking initial fetch. When the network is
// unreachable and nothing was ever loaded, the last offline snapshot is
// served instead; the network error stays visible so the view can tell
// the data is stale.
func (c *Controller) Load(ctx context.Context) error {
	err := c.engine.Load(ctx)
	if err == nil {
		return nil
	}

	if apiclient.IsNetworkError(err) && c.store.Empty() && c.snapshots != nil {
		var snap store.HomeData
		if cacheErr := c.snapshots.Get(entities.SnapshotKeyLearningHome, &snap); cacheErr == nil {
			log.Printf("learning sync: network unreachable, serving offline snapshot")
			c.store.SetData(snap)
			c.store.SetError(apiclient.MessageOf(err))
		}
	}
	return err
}

// Refresh performs a manual, non-blocking refresh.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.engine.Refresh(ctx)
}

// Start schedules the background refresh.
func (c *Controller) Start(ctx context.Context) error {
	return c.engine.Start(ctx)
}

// Close tears the feature down: the engine stops (dropping any in-flight
// batch) and the store returns to its initial state.
func (c *Controller) Close() {
	c.engine.Stop()
	c.store.Reset()
}

// State returns the current store state for view consumers.
func (c *Controller) State() store.State {
	return c.store.State()
}

// Bookmarks returns the bookmarks collection, most recent first.
func (c *Controller) Bookmarks() []entities.Content {
	return c.store.Bookmarks()
}

// Syncing reports whether a background batch is in flight.
func (c *Controller) Syncing() bool {
	return c.engine.IsSyncing()
}

// NextRunTime returns when the next background refresh fires.
func (c *Controller) NextRunTime() *time.Time {
	return c.engine.NextRunTime()
}

// AddContent creates a content item on the server, then prepends the
// server's record to the personalized collection.
func (c *Controller) AddContent(ctx context.Context, content NewContent) (entities.Content, error) {
	created, err := c.service.AddContent(ctx, content)
	if err != nil {
		return entities.Content{}, err
	}
	c.store.AddEntity(created)
	return created, nil
}

// UpdateContent patches a content item on the server, then applies the
// server-confirmed fields to every collection holding the id.
func (c *Controller) UpdateContent(ctx context.Context, id int64, patch entities.ContentPatch) (entities.Content, error) {
	updated, err := c.service.UpdateContent(ctx, id, patch)
	if err != nil {
		return entities.Content{}, err
	}
	c.store.UpdateEntity(updated.ID, entities.ContentPatch{
		Title:       &updated.Title,
		Description: &updated.Description,
		Category:    &updated.Category,
		Progress:    &updated.Progress,
		Rating:      &updated.Rating,
	})
	return updated, nil
}

// DeleteContent removes a content item on the server, then filters the id
// out of every collection.
func (c *Controller) DeleteContent(ctx context.Context, id int64) error {
	if err := c.service.DeleteContent(ctx, id); err != nil {
		return err
	}
	c.store.RemoveEntity(id)
	return nil
}

// RateContent submits a rating and applies the server-confirmed value.
// Nothing is applied before the server responds, so a failure leaves the
// displayed value exactly as it was.
func (c *Controller) RateContent(ctx context.Context, id int64, rating float64) error {
	result, err := c.service.RateContent(ctx, id, rating)
	if err != nil {
		return err
	}
	c.store.ApplyRating(result.ContentID, result.Rating)
	return nil
}

// ToggleBookmark flips the bookmark state on the server and applies the
// confirmed state, stamping the bookmark time locally.
func (c *Controller) ToggleBookmark(ctx context.Context, id int64) (bool, error) {
	result, err := c.service.ToggleBookmark(ctx, id)
	if err != nil {
		return false, err
	}
	c.store.ApplyBookmark(result.ContentID, result.IsBookmarked, time.Now())
	return result.IsBookmarked, nil
}

// UpdateProgress reports progress and applies the server-confirmed value
// to every copy of the entity.
func (c *Controller) UpdateProgress(ctx context.Context, id int64, progress int) error {
	result, err := c.service.UpdateProgress(ctx, id, progress)
	if err != nil {
		return err
	}
	c.store.UpdateProgress(result.ContentID, result.Progress)
	return nil
}
