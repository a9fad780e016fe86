package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/qryptovault/internal/client/config"
	"github.com/dmitrijs2005/qryptovault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/qryptovault/internal/client/session"
)

// newSessionStore builds the configured session.Store. The returned close
// function is nil when the store holds no resources of its own.
func newSessionStore(ctx context.Context, c *config.Config, db *sql.DB) (session.Store, func() error, error) {
	switch c.SessionBackend {
	case config.SessionSQLite:
		return session.NewMetadataStore(metadata.NewSQLiteRepository(db)), nil, nil

	case config.SessionMemory:
		return session.NewMemoryStore(), nil, nil

	case config.SessionRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis %s: %w", c.RedisAddr, err)
		}
		return session.NewRedisStore(rdb, session.WithTTL(c.SessionTTL)), rdb.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", session.ErrUnknownBackend, c.SessionBackend)
	}
}
