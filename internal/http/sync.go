package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnioa/studymate-sync/internal/audit"
)

// FeatureStatus reports one feature's sync engine state.
type FeatureStatus struct {
	Syncing bool       `json:"syncing"`
	NextRun *time.Time `json:"nextRun,omitempty"`
}

// SyncStatusProvider is the engine surface the status endpoint needs.
type SyncStatusProvider interface {
	Syncing() bool
	NextRunTime() *time.Time
}

// SyncController exposes the sync engines' status and the audit trail.
type SyncController struct {
	features map[string]SyncStatusProvider
	audit    *audit.Service
}

func NewSyncController(features map[string]SyncStatusProvider, auditService *audit.Service) *SyncController {
	return &SyncController{features: features, audit: auditService}
}

// Status reports every feature's engine state.
// GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	statuses := make(map[string]FeatureStatus, len(sc.features))
	for name, feature := range sc.features {
		statuses[name] = FeatureStatus{
			Syncing: feature.Syncing(),
			NextRun: feature.NextRunTime(),
		}
	}
	c.JSON(http.StatusOK, gin.H{"features": statuses})
}

// Events lists recent sync events, optionally filtered by feature.
// GET /api/sync/events?feature=learning&limit=50
func (sc *SyncController) Events(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		respondBadRequest(c, "invalid limit")
		return
	}

	feature := c.Query("feature")
	events, err := func() (any, error) {
		if feature != "" {
			return sc.audit.RecentByFeature(feature, limit)
		}
		return sc.audit.Recent(limit)
	}()
	if err != nil {
		respondInternalError(c, err, "list sync events")
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
