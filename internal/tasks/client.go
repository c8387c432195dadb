// Package tasks runs the daemon's background maintenance jobs on a
// persistent queue, so a job enqueued before a crash still runs after
// restart.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

const (
	defaultWorkers         = 1
	defaultReleaseAfter    = 15 * time.Minute
	defaultCleanupInterval = time.Hour
)

// Config tunes the task queue.
type Config struct {
	Workers         int           // concurrent workers
	ReleaseAfter    time.Duration // when stuck tasks go back to the queue
	CleanupInterval time.Duration // completed-task cleanup cadence
}

// Client wraps backlite over a dedicated SQLite file kept alongside the
// main database with a "-tasks" suffix, so queue churn never contends
// with the state database.
type Client struct {
	client  *backlite.Client
	db      *sql.DB
	workers int

	mu      sync.RWMutex
	started bool
}

// NewClient opens the tasks database next to mainDBPath and installs the
// queue schema.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	releaseAfter := cfg.ReleaseAfter
	if releaseAfter <= 0 {
		releaseAfter = defaultReleaseAfter
	}
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}

	db, err := sql.Open("sqlite3", tasksDBPath(mainDBPath)+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("tasks: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      workers,
		ReleaseAfter:    releaseAfter,
		CleanupInterval: cleanupInterval,
		Logger:          &queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("tasks: failed to create queue client: %w", err)
	}
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("tasks: failed to install queue schema: %w", err)
	}

	return &Client{client: client, db: db, workers: workers}, nil
}

func tasksDBPath(mainDBPath string) string {
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-tasks"+ext)
}

// Register registers queues. Must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing. Non-blocking; pair with Stop.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("tasks: queue started with %d workers", c.workers)
	c.client.Start(ctx)
}

// Stop waits for active tasks up to the context deadline. Returns false
// when the deadline cut the wait short.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	success := c.client.Stop(ctx)
	if success {
		log.Println("tasks: queue stopped")
	} else {
		log.Println("tasks: queue stop timed out, some tasks may rerun after restart")
	}
	return success
}

// Close releases the database. Call after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an enqueue operation.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

type queueLogger struct{}

func (l *queueLogger) Info(message string, params ...any) {
	log.Printf("tasks: "+message, params...)
}

func (l *queueLogger) Error(message string, params ...any) {
	log.Printf("tasks: error: "+message, params...)
}
