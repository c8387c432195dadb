package friends

import (
	"context"
	"log"
	"time"

	"github.com/vnioa/studymate-sync/internal/apiclient"
	"github.com/vnioa/studymate-sync/internal/cache"
	"github.com/vnioa/studymate-sync/internal/entities"
	"github.com/vnioa/studymate-sync/internal/syncer"
)

// Controller drives the friend list through the shared sync engine. The
// feature has a single read, so a batch is just the list fetch.
type Controller struct {
	service   *Service
	store     *FriendStore
	snapshots *cache.SnapshotStore
	engine    *syncer.Engine[[]entities.Friend]
}

// Config wires a Controller.
type Config struct {
	Service   *Service
	Store     *FriendStore
	Snapshots *cache.SnapshotStore // optional offline fallback
	Schedule  string               // cron, background refresh
	Observer  syncer.Observer      // optional audit hook
}

func NewController(cfg Config) *Controller {
	c := &Controller{
		service:   cfg.Service,
		store:     cfg.Store,
		snapshots: cfg.Snapshots,
	}
	c.engine = syncer.New(syncer.Options[[]entities.Friend]{
		Name:          "friends",
		Fetch:         c.service.List,
		Apply:         c.applyList,
		SetLoading:    cfg.Store.SetLoading,
		SetRefreshing: cfg.Store.SetRefreshing,
		SetError:      cfg.Store.SetError,
		ErrorMessage:  apiclient.MessageOf,
		Schedule:      cfg.Schedule,
		Observer:      cfg.Observer,
	})
	return c
}

func (c *Controller) applyList(friends []entities.Friend) {
	c.store.SetData(friends)

	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.Put(entities.SnapshotKeyFriendsList, friends); err != nil {
		log.Printf("friends sync: failed to write offline snapshot: %v", err)
	}
}

// Load performs the blocking initial fetch, falling back to the offline
// snapshot when the network is unreachable and nothing was ever loaded.
func (c *Controller) Load(ctx context.Context) error {
	err := c.engine.Load(ctx)
	if err == nil {
		return nil
	}

	if apiclient.IsNetworkError(err) && c.store.Empty() && c.snapshots != nil {
		var snap []entities.Friend
		if cacheErr := c.snapshots.Get(entities.SnapshotKeyFriendsList, &snap); cacheErr == nil {
			log.Printf("friends sync: network unreachable, serving offline snapshot")
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

// Close stops the engine and resets the store.
func (c *Controller) Close() {
	c.engine.Stop()
	c.store.Reset()
}

func (c *Controller) State() State {
	return c.store.State()
}

// Syncing reports whether a background batch is in flight.
func (c *Controller) Syncing() bool {
	return c.engine.IsSyncing()
}

// NextRunTime returns when the next background refresh fires.
func (c *Controller) NextRunTime() *time.Time {
	return c.engine.NextRunTime()
}

// Accept confirms a pending request on the server, then applies the
// confirmed status locally.
func (c *Controller) Accept(ctx context.Context, id int64) error {
	friend, err := c.service.Accept(ctx, id)
	if err != nil {
		return err
	}
	c.store.SetStatus(friend.ID, friend.Status)
	return nil
}

// Remove deletes the relation on the server, then drops it from the list.
func (c *Controller) Remove(ctx context.Context, id int64) error {
	if err := c.service.Remove(ctx, id); err != nil {
		return err
	}
	c.store.Remove(id)
	return nil
}
