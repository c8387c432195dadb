// Package store holds the in-memory state of the learning feature: the
// named content collections, the request lifecycle flags and the fixed set
// of transitions that are the only way to mutate them. A ContentStore is a
// plain injectable value, so tests and features create as many independent
// instances as they need.
//
// An entity may appear in several collections at once; every transition
// that touches a shared field applies it to each copy so the collections
// stay field-consistent for a given id. Transitions are total: unknown ids
// are no-ops, never errors.
package store

import (
	"sync"
	"time"

	"github.com/vnioa/studymate-sync/internal/entities"
)

// HomeData is one atomically merged fetch batch for the home view.
type HomeData struct {
	Personalized    []entities.Content  `json:"personalizedContent"`
	Popular         []entities.Content  `json:"popularContent"`
	Recommendations []entities.Content  `json:"recommendations"`
	Statistics      entities.Statistics `json:"statistics"`
}

// State is a point-in-time copy of the store, safe for the caller to keep.
type State struct {
	Personalized    []entities.Content  `json:"personalizedContent"`
	Popular         []entities.Content  `json:"popularContent"`
	Recommendations []entities.Content  `json:"recommendations"`
	Bookmarks       []entities.Content  `json:"bookmarks"`
	Statistics      entities.Statistics `json:"statistics"`
	Loading         bool                `json:"loading"`
	Refreshing      bool                `json:"isRefreshing"`
	Error           string              `json:"error,omitempty"`
	LastUpdated     *time.Time          `json:"lastUpdated,omitempty"`
}

// ContentStore is the single mutable shared resource of the learning
// feature. All writes go through the named transitions below.
type ContentStore struct {
	mu sync.RWMutex

	personalized    []entities.Content
	popular         []entities.Content
	recommendations []entities.Content
	bookmarks       []entities.Content // most-recent-first
	statistics      entities.Statistics

	loading     bool
	refreshing  bool
	err         string
	lastUpdated *time.Time
}

// NewContentStore returns an empty store (the initial state).
func NewContentStore() *ContentStore {
	return &ContentStore{}
}

// SetData merges a fetch batch into the store in one transition: the three
// primary collections and the statistics are replaced, lastUpdated is
// stamped, the error is cleared and loading is forced off. Bookmarks are
// untouched; they are maintained by bookmark confirmations.
func (s *ContentStore) SetData(data HomeData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.personalized = copyContents(data.Personalized)
	s.popular = copyContents(data.Popular)
	s.recommendations = copyContents(data.Recommendations)
	s.statistics = data.Statistics

	now := time.Now()
	s.lastUpdated = &now
	s.err = ""
	s.loading = false
}

// SetLoading flips the blocking-fetch flag.
func (s *ContentStore) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// SetRefreshing flips the non-blocking refresh flag.
func (s *ContentStore) SetRefreshing(refreshing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = refreshing
}

// SetError records a failure message and forces both in-flight flags off.
// An empty message clears the error.
func (s *ContentStore) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = message
	s.loading = false
	s.refreshing = false
}

// UpdateEntity applies a field patch to the entity in each primary
// collection holding id.
func (s *ContentStore) UpdateEntity(id int64, patch entities.ContentPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, list := range [][]entities.Content{s.personalized, s.popular, s.recommendations} {
		if c := findByID(list, id); c != nil {
			applyPatch(c, patch)
		}
	}
}

// AddEntity prepends a new entity to the personalized collection.
func (s *ContentStore) AddEntity(content entities.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personalized = append([]entities.Content{content}, s.personalized...)
}

// RemoveEntity filters id out of every collection. Collections that never
// held the id keep their backing array untouched.
func (s *ContentStore) RemoveEntity(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.personalized = removeByID(s.personalized, id)
	s.popular = removeByID(s.popular, id)
	s.recommendations = removeByID(s.recommendations, id)
	s.bookmarks = removeByID(s.bookmarks, id)
}

// UpdateProgress sets the progress value (clamped to 0-100) on every copy
// of the entity.
func (s *ContentStore) UpdateProgress(id int64, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.forEachCopy(id, func(c *entities.Content) {
		c.Progress = progress
	})
}

// ApplyRating records a server-confirmed rating on every copy of the
// entity and marks it as rated by the user.
func (s *ContentStore) ApplyRating(id int64, rating float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forEachCopy(id, func(c *entities.Content) {
		c.Rating = rating
		c.UserRated = true
	})
}

// ApplyBookmark records a server-confirmed bookmark state on every copy of
// the entity. Bookmarking prepends the entity to the bookmarks collection
// with the given timestamp; un-bookmarking removes it.
func (s *ContentStore) ApplyBookmark(id int64, bookmarked bool, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forEachCopy(id, func(c *entities.Content) {
		c.IsBookmarked = bookmarked
		if bookmarked {
			ts := at
			c.BookmarkedAt = &ts
		} else {
			c.BookmarkedAt = nil
		}
	})

	if !bookmarked {
		s.bookmarks = removeByID(s.bookmarks, id)
		return
	}

	entry, ok := s.lookup(id)
	if !ok {
		return
	}
	ts := at
	entry.IsBookmarked = true
	entry.BookmarkedAt = &ts

	s.bookmarks = removeByID(s.bookmarks, id)
	s.bookmarks = append([]entities.Content{entry}, s.bookmarks...)
}

// Reset returns the store to the initial state. Calling it on an already
// empty store is a no-op.
func (s *ContentStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.personalized = nil
	s.popular = nil
	s.recommendations = nil
	s.bookmarks = nil
	s.statistics = entities.Statistics{}
	s.loading = false
	s.refreshing = false
	s.err = ""
	s.lastUpdated = nil
}

// State returns a copy of the full store state.
func (s *ContentStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		Personalized:    copyContents(s.personalized),
		Popular:         copyContents(s.popular),
		Recommendations: copyContents(s.recommendations),
		Bookmarks:       copyContents(s.bookmarks),
		Statistics:      s.statistics,
		Loading:         s.loading,
		Refreshing:      s.refreshing,
		Error:           s.err,
		LastUpdated:     s.lastUpdated,
	}
}

// Bookmarks returns a copy of the bookmarks collection, most recent first.
func (s *ContentStore) Bookmarks() []entities.Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyContents(s.bookmarks)
}

// Get returns a copy of the entity with id from the first collection
// holding it.
func (s *ContentStore) Get(id int64) (entities.Content, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id)
}

// Empty reports whether the store has never been populated. Used to decide
// whether an offline snapshot fallback is worth applying.
func (s *ContentStore) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated == nil
}

// lookup finds a copy of id across the collections, primary ones first.
// Caller must hold at least the read lock.
func (s *ContentStore) lookup(id int64) (entities.Content, bool) {
	for _, list := range [][]entities.Content{s.personalized, s.popular, s.recommendations, s.bookmarks} {
		if c := findByID(list, id); c != nil {
			return *c, true
		}
	}
	return entities.Content{}, false
}

// forEachCopy runs fn on every stored copy of id, bookmarks included.
// Caller must hold the write lock.
func (s *ContentStore) forEachCopy(id int64, fn func(*entities.Content)) {
	for _, list := range [][]entities.Content{s.personalized, s.popular, s.recommendations, s.bookmarks} {
		if c := findByID(list, id); c != nil {
			fn(c)
		}
	}
}

func findByID(list []entities.Content, id int64) *entities.Content {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

// removeByID filters id out of list. When the id is absent the original
// slice is returned unchanged, backing array included.
func removeByID(list []entities.Content, id int64) []entities.Content {
	if findByID(list, id) == nil {
		return list
	}
	filtered := make([]entities.Content, 0, len(list)-1)
	for _, c := range list {
		if c.ID != id {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func applyPatch(c *entities.Content, patch entities.ContentPatch) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Category != nil {
		c.Category = *patch.Category
	}
	if patch.Progress != nil {
		c.Progress = *patch.Progress
	}
	if patch.Rating != nil {
		c.Rating = *patch.Rating
	}
}

func copyContents(list []entities.Content) []entities.Content {
	if list == nil {
		return nil
	}
	out := make([]entities.Content, len(list))
	copy(out, list)
	return out
}
