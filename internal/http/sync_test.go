package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnioa/studymate-sync/internal/audit"
	"github.com/vnioa/studymate-sync/internal/syncer"
)

type fakeStatus struct {
	syncing bool
	nextRun *time.Time
}

func (f fakeStatus) Syncing() bool           { return f.syncing }
func (f fakeStatus) NextRunTime() *time.Time { return f.nextRun }

func newAuditService(t *testing.T) *audit.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	service, err := audit.NewService(db)
	require.NoError(t, err)
	return service
}

func TestSyncStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	next := time.Now().Add(10 * time.Minute)

	router := NewRouter(RouterConfig{Sync: NewSyncController(map[string]SyncStatusProvider{
		"learning": fakeStatus{syncing: true, nextRun: &next},
		"friends":  fakeStatus{},
	}, newAuditService(t))})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sync/status", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Features map[string]FeatureStatus `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Features, 2)
	assert.True(t, resp.Features["learning"].Syncing)
	assert.NotNil(t, resp.Features["learning"].NextRun)
	assert.False(t, resp.Features["friends"].Syncing)
}

func TestSyncEventsFilterByFeature(t *testing.T) {
	gin.SetMode(gin.TestMode)

	auditService := newAuditService(t)
	auditService.RecordSync("learning", "batch-1", syncer.StatusSuccess, "", 120*time.Millisecond)
	auditService.RecordSync("friends", "batch-2", syncer.StatusFailed, "timeout", time.Second)

	router := NewRouter(RouterConfig{Sync: NewSyncController(nil, auditService)})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sync/events?feature=friends", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Events []struct {
			Feature string `json:"feature"`
			Status  string `json:"status"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "friends", resp.Events[0].Feature)
}

func TestSyncEventsRejectsBadLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterConfig{Sync: NewSyncController(nil, newAuditService(t))})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sync/events?limit=0", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
