package cli

import (
	"fmt"
	"log/slog"

	"github.com/roach88/fieldmap/internal/config"
	"github.com/roach88/fieldmap/internal/store"
	"github.com/roach88/fieldmap/internal/store/memory"
	"github.com/roach88/fieldmap/internal/store/redis"
	"github.com/roach88/fieldmap/internal/store/sqlite"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Backends lists the accepted --store values.
var Backends = []string{BackendMemory, BackendSQLite, BackendRedis}

// OpenStore opens the backend cfg selects.
func OpenStore(cfg config.Store, logger *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return memory.New(nil, memory.WithLogger(logger)), nil
	case BackendSQLite:
		return sqlite.Open(cfg.SQLite.Path,
			sqlite.WithPollInterval(cfg.SQLite.PollInterval),
			sqlite.WithLogger(logger),
		)
	case BackendRedis:
		return redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithLogger(logger),
		), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func closeStore(st store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing store", "error", err)
	}
}
