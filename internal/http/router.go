// Package http serves the daemon's local API: the synced state, the
// mutation proxies and the sync status endpoints consumed by the app UI.
package http

import (
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the controllers the router wires up. Nil
// controllers skip their routes, which keeps partial setups (tests,
// disabled features) working.
type RouterConfig struct {
	Learning *LearningController
	Friends  *FriendsController
	Sync     *SyncController
	Health   *HealthController
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.Health != nil {
		router.GET("/api/health", cfg.Health.Status)
	}

	if cfg.Learning != nil {
		router.GET("/api/learning/home", cfg.Learning.Home)
		router.GET("/api/learning/bookmarks", cfg.Learning.Bookmarks)
		router.POST("/api/learning/refresh", cfg.Learning.Refresh)
		router.POST("/api/learning/content", cfg.Learning.AddContent)
		router.PUT("/api/learning/content/:id", cfg.Learning.UpdateContent)
		router.DELETE("/api/learning/content/:id", cfg.Learning.DeleteContent)
		router.POST("/api/learning/content/:id/rating", cfg.Learning.RateContent)
		router.POST("/api/learning/content/:id/bookmark", cfg.Learning.ToggleBookmark)
		router.PUT("/api/learning/content/:id/progress", cfg.Learning.UpdateProgress)
	}

	if cfg.Friends != nil {
		router.GET("/api/friends", cfg.Friends.List)
		router.POST("/api/friends/refresh", cfg.Friends.Refresh)
		router.POST("/api/friends/:id/accept", cfg.Friends.Accept)
		router.DELETE("/api/friends/:id", cfg.Friends.Remove)
	}

	if cfg.Sync != nil {
		router.GET("/api/sync/status", cfg.Sync.Status)
		router.GET("/api/sync/events", cfg.Sync.Events)
	}

	return router
}
