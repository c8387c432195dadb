package learning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnioa/studymate-sync/internal/apiclient"
	"github.com/vnioa/studymate-sync/internal/cache"
	"github.com/vnioa/studymate-sync/internal/entities"
	"github.com/vnioa/studymate-sync/internal/store"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// homeAPI is a fake StudyMate API serving the four home-view reads.
type homeAPI struct {
	personalized    []entities.Content
	popular         []entities.Content
	recommendations []entities.Content
	statistics      entities.Statistics
	failStatistics  bool
}

func (a *homeAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/learning/personalized", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "contents": a.personalized})
	})
	mux.HandleFunc("GET /api/learning/popular", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "contents": a.popular})
	})
	mux.HandleFunc("GET /api/learning/recommendations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "contents": a.recommendations})
	})
	mux.HandleFunc("GET /api/learning/statistics", func(w http.ResponseWriter, r *http.Request) {
		if a.failStatistics {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{}`))
			return
		}
		writeJSON(w, map[string]any{"success": true, "statistics": a.statistics})
	})
}

func newTestService(serverURL string) *Service {
	client := apiclient.NewClient(apiclient.Options{
		BaseURL:       serverURL,
		RatePerSecond: 1000,
		RateBurst:     1000,
	})
	return NewService(client)
}

func newTestController(serverURL string) (*Controller, *store.ContentStore) {
	contentStore := store.NewContentStore()
	controller := NewController(Config{
		Service: newTestService(serverURL),
		Store:   contentStore,
	})
	return controller, contentStore
}

func newTestSnapshots(t *testing.T) *cache.SnapshotStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "snap.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	snapshots, err := cache.New(db)
	require.NoError(t, err)
	return snapshots
}

// All four reads succeed: the batch lands in one merge.
func TestLoadMergesAllCollections(t *testing.T) {
	api := &homeAPI{
		personalized: []entities.Content{{ID: 1, Title: "X", Progress: 0}},
		statistics:   entities.Statistics{StreakDays: 2},
	}
	mux := http.NewServeMux()
	api.register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	controller, contentStore := newTestController(server.URL)
	defer controller.Close()

	require.NoError(t, controller.Load(context.Background()))

	state := contentStore.State()
	require.Len(t, state.Personalized, 1)
	assert.Equal(t, "X", state.Personalized[0].Title)
	assert.Empty(t, state.Popular)
	assert.Empty(t, state.Recommendations)
	assert.Equal(t, 2, state.Statistics.StreakDays)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
	assert.NotNil(t, state.LastUpdated)
}

// One failing sub-fetch fails the whole batch: nothing reaches the store.
func TestLoadIsAllOrNothing(t *testing.T) {
	api := &homeAPI{
		personalized:   []entities.Content{{ID: 1, Title: "X"}},
		failStatistics: true,
	}
	mux := http.NewServeMux()
	api.register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	controller, contentStore := newTestController(server.URL)
	defer controller.Close()

	err := controller.Load(context.Background())
	require.Error(t, err)

	state := contentStore.State()
	assert.Empty(t, state.Personalized, "partial batch must not be applied")
	assert.Nil(t, state.LastUpdated)
	assert.Equal(t, "서버 오류가 발생했습니다.", state.Error)
	assert.False(t, state.Loading)
}

// A failed refresh leaves previously loaded data in place.
func TestFailedRefreshKeepsPreviousData(t *testing.T) {
	api := &homeAPI{personalized: []entities.Content{{ID: 1, Title: "keep me"}}}
	mux := http.NewServeMux()
	api.register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	controller, contentStore := newTestController(server.URL)
	defer controller.Close()
	require.NoError(t, controller.Load(context.Background()))

	api.failStatistics = true
	require.Error(t, controller.Refresh(context.Background()))

	state := contentStore.State()
	require.Len(t, state.Personalized, 1)
	assert.Equal(t, "keep me", state.Personalized[0].Title)
	assert.False(t, state.Refreshing)
	assert.Equal(t, "서버 오류가 발생했습니다.", state.Error)
}

// Rating is confirm-then-apply: the server-confirmed value lands on every
// collection holding the id.
func TestRateContentAppliesConfirmedValue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/learning/content/5/rating", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// The server may round the submitted value; the client must apply
		// the confirmed one, not its own guess.
		writeJSON(w, map[string]any{"success": true, "contentId": 5, "rating": 4.0})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	controller, contentStore := newTestController(server.URL)
	defer controller.Close()
	contentStore.SetData(store.HomeData{
		Personalized: []entities.Content{{ID: 5, Rating: 3}},
		Popular:      []entities.Content{{ID: 5, Rating: 3}},
	})

	require.NoError(t, controller.RateContent(context.Background(), 5, 4.4))

	state := contentStore.State()
	assert.Equal(t, 4.0, state.Personalized[0].Rating)
	assert.True(t, state.Personalized[0].UserRated)
	assert.Equal(t, 4.0, state.Popular[0].Rating)
}

// A failed mutation applies nothing: no flicker, no rollback needed.
func TestFailedMutationLeavesStoreUntouched(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/learning/content/5/rating", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	controller, contentStore := newTestController(server.URL)
	defer controller.Close()
	contentStore.SetData(store.HomeData{
		Personalized: []entities.Content{{ID: 5, Rating: 3, UserRated: false}},
	})
	before := contentStore.State()

	err := controller.RateContent(context.Background(), 5, 5)
	require.Error(t, err)
	assert.Equal(t, apiclient.KindForbidden, apiclient.KindOf(err))

	after := contentStore.State()
	assert.Equal(t, before.Personalized, after.Personalized)
}

func TestToggleBookmark(t *testing.T) {
	bookmarked := true
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/learning/content/7/bookmark", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "contentId": 7, "isBookmarked": bookmarked})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	controller, contentStore := newTestController(server.URL)
	defer controller.Close()
	contentStore.SetData(store.HomeData{
		Personalized: []entities.Content{{ID: 7, Title: "Focus"}},
	})

	on, err := controller.ToggleBookmark(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, on)

	bookmarks := controller.Bookmarks()
	require.Len(t, bookmarks, 1)
	assert.Equal(t, int64(7), bookmarks[0].ID)
	assert.NotNil(t, bookmarks[0].BookmarkedAt)

	bookmarked = false
	on, err = controller.ToggleBookmark(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Empty(t, controller.Bookmarks())
}

// Deleting an id present in one collection leaves the others untouched.
func TestDeleteContentFiltersEverywhere(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/learning/content/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	controller, contentStore := newTestController(server.URL)
	defer controller.Close()
	contentStore.SetData(store.HomeData{
		Personalized:    []entities.Content{{ID: 1}},
		Popular:         []entities.Content{{ID: 9}, {ID: 3}},
		Recommendations: []entities.Content{{ID: 1}},
	})

	require.NoError(t, controller.DeleteContent(context.Background(), 9))

	state := contentStore.State()
	require.Len(t, state.Popular, 1)
	assert.Equal(t, int64(3), state.Popular[0].ID)
	require.Len(t, state.Personalized, 1)
	require.Len(t, state.Recommendations, 1)
}

func TestAddContentPrepends(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/learning/content", func(w http.ResponseWriter, r *http.Request) {
		var body NewContent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, map[string]any{"success": true, "content": entities.Content{ID: 77, Title: body.Title}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	controller, contentStore := newTestController(server.URL)
	defer controller.Close()
	contentStore.SetData(store.HomeData{
		Personalized: []entities.Content{{ID: 1}},
	})

	created, err := controller.AddContent(context.Background(), NewContent{Title: "새 단어장"})
	require.NoError(t, err)
	assert.Equal(t, int64(77), created.ID)

	state := contentStore.State()
	require.Len(t, state.Personalized, 2)
	assert.Equal(t, int64(77), state.Personalized[0].ID)
	assert.Equal(t, "새 단어장", state.Personalized[0].Title)
}

// Network unreachable with an empty store: the offline snapshot is served
// and the network error stays visible.
func TestLoadFallsBackToOfflineSnapshot(t *testing.T) {
	snapshots := newTestSnapshots(t)
	require.NoError(t, snapshots.Put(entities.SnapshotKeyLearningHome, store.HomeData{
		Personalized: []entities.Content{{ID: 1, Title: "cached"}},
	}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	contentStore := store.NewContentStore()
	controller := NewController(Config{
		Service:   newTestService(server.URL),
		Store:     contentStore,
		Snapshots: snapshots,
	})
	defer controller.Close()

	err := controller.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apiclient.IsNetworkError(err))

	state := contentStore.State()
	require.Len(t, state.Personalized, 1)
	assert.Equal(t, "cached", state.Personalized[0].Title)
	assert.Equal(t, "네트워크 연결을 확인해주세요.", state.Error)
}

// An HTTP-status failure must not fall back to a stale snapshot.
func TestNoSnapshotFallbackOnServerError(t *testing.T) {
	snapshots := newTestSnapshots(t)
	require.NoError(t, snapshots.Put(entities.SnapshotKeyLearningHome, store.HomeData{
		Personalized: []entities.Content{{ID: 1, Title: "cached"}},
	}))

	api := &homeAPI{failStatistics: true}
	mux := http.NewServeMux()
	api.register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	contentStore := store.NewContentStore()
	controller := NewController(Config{
		Service:   newTestService(server.URL),
		Store:     contentStore,
		Snapshots: snapshots,
	})
	defer controller.Close()

	require.Error(t, controller.Load(context.Background()))
	assert.Empty(t, contentStore.State().Personalized)
}

// A successful batch writes the snapshot back for offline use.
func TestLoadWritesSnapshot(t *testing.T) {
	api := &homeAPI{personalized: []entities.Content{{ID: 4, Title: "fresh"}}}
	mux := http.NewServeMux()
	api.register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	snapshots := newTestSnapshots(t)
	contentStore := store.NewContentStore()
	controller := NewController(Config{
		Service:   newTestService(server.URL),
		Store:     contentStore,
		Snapshots: snapshots,
	})
	defer controller.Close()

	require.NoError(t, controller.Load(context.Background()))

	var snap store.HomeData
	require.NoError(t, snapshots.Get(entities.SnapshotKeyLearningHome, &snap))
	require.Len(t, snap.Personalized, 1)
	assert.Equal(t, "fresh", snap.Personalized[0].Title)
}

func TestCloseResetsStore(t *testing.T) {
	api := &homeAPI{personalized: []entities.Content{{ID: 1}}}
	mux := http.NewServeMux()
	api.register(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	controller, contentStore := newTestController(server.URL)
	require.NoError(t, controller.Load(context.Background()))

	controller.Close()

	assert.Equal(t, store.State{}, contentStore.State())
	assert.True(t, contentStore.Empty())
}
