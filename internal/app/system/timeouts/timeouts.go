// Package timeouts holds the context deadlines handlers and stores apply to
// database and upstream calls.
//
//   - Ping: health checks
//   - Short: single-document reads and writes, token verification lookups
//   - Medium: searches, list queries, aggregation reports
//   - Long: multi-collection writes, upstream HTTP calls (OTP, Telegram)
//   - Batch: bulk ingestion
package timeouts

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 2 * time.Minute
)

// Config holds timeout values. Zero fields leave the current value alone.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides the non-zero fields of cfg. Call it during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&cur.Ping, cfg.Ping)
	set(&cur.Short, cfg.Short)
	set(&cur.Medium, cfg.Medium)
	set(&cur.Long, cfg.Long)
	set(&cur.Batch, cfg.Batch)
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns a snapshot of the active values.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Log writes the active values at info level.
func Log(logger *zap.Logger) {
	c := Current()
	logger.Info("timeouts configured",
		zap.Duration("ping", c.Ping),
		zap.Duration("short", c.Short),
		zap.Duration("medium", c.Medium),
		zap.Duration("long", c.Long),
		zap.Duration("batch", c.Batch),
	)
}
