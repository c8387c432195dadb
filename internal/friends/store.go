package friends

import (
	"sync"
	"time"

	"github.com/vnioa/studymate-sync/internal/entities"
)

// State is a point-in-time copy of the friend list slice.
type State struct {
	Friends     []entities.Friend `json:"friends"`
	Loading     bool              `json:"loading"`
	Refreshing  bool              `json:"isRefreshing"`
	Error       string            `json:"error,omitempty"`
	LastUpdated *time.Time        `json:"lastUpdated,omitempty"`
}

// FriendStore holds the friend list and its lifecycle flags. All writes
// go through the named transitions below.
type FriendStore struct {
	mu          sync.RWMutex
	friends     []entities.Friend
	loading     bool
	refreshing  bool
	err         string
	lastUpdated *time.Time
}

func NewFriendStore() *FriendStore {
	return &FriendStore{}
}

// SetData replaces the list, stamps the update time and clears any
// previous error. Loading is forced off; a data arrival always ends the
// loading phase.
func (s *FriendStore) SetData(friends []entities.Friend) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.friends = friends
	s.err = ""
	s.loading = false
	now := time.Now()
	s.lastUpdated = &now
}

func (s *FriendStore) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *FriendStore) SetRefreshing(refreshing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = refreshing
}

// SetError records a failure and forces both activity flags off.
func (s *FriendStore) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = message
	s.loading = false
	s.refreshing = false
}

// SetStatus updates a single relation's status in place. Unknown ids are
// a no-op.
func (s *FriendStore) SetStatus(id int64, status entities.FriendStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.friends {
		if s.friends[i].ID == id {
			s.friends[i].Status = status
			return
		}
	}
}

// Remove filters a relation out of the list. When the id is absent the
// backing array is left untouched.
func (s *FriendStore) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.friends {
		if s.friends[i].ID == id {
			out := make([]entities.Friend, 0, len(s.friends)-1)
			out = append(out, s.friends[:i]...)
			out = append(out, s.friends[i+1:]...)
			s.friends = out
			return
		}
	}
}

// Reset returns the store to its initial state. Safe to call repeatedly.
func (s *FriendStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.friends = nil
	s.loading = false
	s.refreshing = false
	s.err = ""
	s.lastUpdated = nil
}

func (s *FriendStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var friends []entities.Friend
	if s.friends != nil {
		friends = make([]entities.Friend, len(s.friends))
		copy(friends, s.friends)
	}
	return State{
		Friends:     friends,
		Loading:     s.loading,
		Refreshing:  s.refreshing,
		Error:       s.err,
		LastUpdated: s.lastUpdated,
	}
}

// Empty reports whether a batch ever landed in the store.
func (s *FriendStore) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated == nil
}
