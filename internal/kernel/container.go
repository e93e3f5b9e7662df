// Package kernel provides dependency injection management for the EchoTune engine.
// It consolidates all services and provides type-safe access to dependencies.
package kernel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/primoscope/echotune/internal/cache"
	"github.com/primoscope/echotune/internal/engine"
	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Kernel holds all application dependencies and provides type-safe access.
// It implements the Service Locator pattern with additional lifecycle management.
type Kernel struct {
	// Core infrastructure
	db     *gorm.DB
	logger *zap.Logger
	cache  cache.Store

	// Domain services
	history *history.GormStore
	engine  *engine.Engine

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty kernel.
// Services should be registered using Set* methods.
func New() *Kernel {
	return &Kernel{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// SetDB registers the database connection
func (c *Kernel) SetDB(db *gorm.DB) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

// DB returns the database connection
func (c *Kernel) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// SetLogger registers the logger
func (c *Kernel) SetLogger(l *zap.Logger) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the logger instance
func (c *Kernel) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

// SetCache registers the profile cache backend
func (c *Kernel) SetCache(store cache.Store) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = store
	return c
}

// Cache returns the profile cache backend
func (c *Kernel) Cache() cache.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// SetHistory registers the listening history store
func (c *Kernel) SetHistory(store *history.GormStore) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = store
	return c
}

// History returns the listening history store
func (c *Kernel) History() *history.GormStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.history
}

// SetEngine registers the recommendation engine
func (c *Kernel) SetEngine(e *engine.Engine) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine = e
	return c
}

// Engine returns the recommendation engine
func (c *Kernel) Engine() *engine.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine
}

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned up).
// This ensures proper dependency ordering during shutdown.
func (c *Kernel) OnCleanup(fn func(context.Context) error) *Kernel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup performs graceful shutdown of all registered services.
// It calls cleanup functions in reverse order of registration.
func (c *Kernel) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Call cleanup functions in reverse order (LIFO)
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			// Log error but continue cleanup
			c.Logger().Error("Cleanup function failed",
				zap.Int("index", i), zap.Error(err))
		}
	}

	return nil
}

// Validate checks that all required dependencies are registered.
// This should be called after initialization and before starting the server.
func (c *Kernel) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	missingDeps := []string{}

	if c.db == nil {
		missingDeps = append(missingDeps, "database (DB)")
	}
	if c.cache == nil {
		missingDeps = append(missingDeps, "profile cache")
	}
	if c.history == nil {
		missingDeps = append(missingDeps, "history store")
	}
	if c.engine == nil {
		missingDeps = append(missingDeps, "recommendation engine")
	}

	if len(missingDeps) > 0 {
		return fmt.Errorf("missing required dependencies: %s", strings.Join(missingDeps, ", "))
	}

	return nil
}
