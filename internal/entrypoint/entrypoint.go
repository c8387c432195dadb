package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnioa/studymate-sync/internal/apiclient"
	"github.com/vnioa/studymate-sync/internal/audit"
	"github.com/vnioa/studymate-sync/internal/cache"
	"github.com/vnioa/studymate-sync/internal/config"
	"github.com/vnioa/studymate-sync/internal/friends"
	http_controllers "github.com/vnioa/studymate-sync/internal/http"
	"github.com/vnioa/studymate-sync/internal/learning"
	"github.com/vnioa/studymate-sync/internal/store"
	"github.com/vnioa/studymate-sync/internal/tasks"
	"github.com/vnioa/studymate-sync/internal/tokenstore"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the local API server until SIGINT/SIGTERM, then drains it
// within the configured shutdown timeout. onShutdown runs before the
// listener closes so the sync engines stop feeding the handlers.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting local API at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown requested, waiting up to %v", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the whole daemon: state database, token store, gateway
// client, the per-feature sync engines, the task queue and the local
// API, then blocks in Serve.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting StudyMate sync daemon v%s", version)

	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
	}()

	tokens, err := tokenstore.New(db, tokenstore.KeyConfig{})
	if err != nil {
		log.Fatalf("Failed to initialize token store: %v", err)
	}

	client := apiclient.NewClient(apiclient.Options{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.RequestTimeout,
		Tokens:        tokens,
		RatePerSecond: cfg.API.RatePerSecond,
		RateBurst:     cfg.API.RateBurst,
	})

	snapshots, err := cache.New(db)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}

	auditService, err := audit.NewService(db)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	// Per-feature controllers. Each owns its store and sync engine.
	learningController := learning.NewController(learning.Config{
		Service:   learning.NewService(client),
		Store:     store.NewContentStore(),
		Snapshots: snapshots,
		Schedule:  cfg.LearningSync.Schedule,
		Observer:  auditService,
	})
	friendsController := friends.NewController(friends.Config{
		Service:   friends.NewService(client),
		Store:     friends.NewFriendStore(),
		Snapshots: snapshots,
		Schedule:  cfg.FriendsSync.Schedule,
		Observer:  auditService,
	})

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	// Blocking initial loads run in the background so the local API is
	// up immediately; the stores report loading until a batch lands.
	if cfg.LearningSync.Enabled {
		go func() {
			if err := learningController.Load(runCtx); err != nil {
				log.Printf("learning sync: initial load failed: %v", err)
			}
		}()
		if err := learningController.Start(runCtx); err != nil {
			log.Fatalf("Failed to start learning sync: %v", err)
		}
	}
	if cfg.FriendsSync.Enabled {
		go func() {
			if err := friendsController.Load(runCtx); err != nil {
				log.Printf("friends sync: initial load failed: %v", err)
			}
		}()
		if err := friendsController.Start(runCtx); err != nil {
			log.Fatalf("Failed to start friends sync: %v", err)
		}
	}

	// Task queue for persistent maintenance jobs.
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewCleanupSyncEventsQueue(auditService))
		go taskClient.Start(runCtx)

		go enqueueDailyCleanup(runCtx, taskClient, cfg.Audit.RetentionDays)
	}

	syncStatus := map[string]http_controllers.SyncStatusProvider{
		"learning": learningController,
		"friends":  friendsController,
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Learning: http_controllers.NewLearningController(learningController),
		Friends:  http_controllers.NewFriendsController(friendsController),
		Sync:     http_controllers.NewSyncController(syncStatus, auditService),
		Health:   http_controllers.NewHealthController(db, version),
	})

	onShutdown := func(ctx context.Context) {
		cancelRun()
		learningController.Close()
		friendsController.Close()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
	}

	Serve(router, cfg, onShutdown)
}

// enqueueDailyCleanup puts one audit-trim job on the queue at startup
// and then once a day. The queue persists the job, so a trim enqueued
// right before shutdown still runs after restart.
func enqueueDailyCleanup(ctx context.Context, taskClient *tasks.Client, retentionDays int) {
	enqueue := func() {
		task := tasks.CleanupSyncEventsTask{RetentionDays: retentionDays}
		if _, err := taskClient.Add(task).Save(); err != nil {
			log.Printf("tasks: failed to enqueue sync event cleanup: %v", err)
		}
	}

	enqueue()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}
