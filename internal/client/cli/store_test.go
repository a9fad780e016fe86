package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/qryptovault/internal/client/client"
	"github.com/dmitrijs2005/qryptovault/internal/client/config"
	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/pushchan"
	"github.com/dmitrijs2005/qryptovault/internal/client/session"
)

func TestNewSessionStore(t *testing.T) {
	ctx := context.Background()
	db, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)

	tests := []struct {
		name      string
		backend   string
		wantType  any
		wantClose bool
	}{
		{"sqlite", config.SessionSQLite, &session.MetadataStore{}, false},
		{"memory", config.SessionMemory, &session.MemoryStore{}, false},
		{"redis", config.SessionRedis, &session.RedisStore{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.LoadDefaults()
			cfg.SessionBackend = tt.backend
			cfg.RedisAddr = mr.Addr()

			store, closeFn, err := newSessionStore(ctx, cfg, db)
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, store)
			assert.Equal(t, tt.wantClose, closeFn != nil)

			require.NoError(t, store.Set(ctx, models.SessionIdentity{Username: "alice"}))
			id, err := store.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "alice", id.Username)
			require.NoError(t, store.Clear(ctx))

			if closeFn != nil {
				assert.NoError(t, closeFn())
			}
		})
	}
}

func TestNewSessionStore_Errors(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	t.Run("unknown backend", func(t *testing.T) {
		cfg.SessionBackend = "etcd"
		_, _, err := newSessionStore(ctx, cfg, nil)
		assert.ErrorIs(t, err, session.ErrUnknownBackend)
	})

	t.Run("redis down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg.SessionBackend = config.SessionRedis
		cfg.RedisAddr = addr
		_, _, err := newSessionStore(ctx, cfg, nil)
		assert.Error(t, err)
	})
}

func TestNewApp_InvalidDatabase(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = t.TempDir() + "/missing/dir/vault.db"

	_, err := NewApp(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewApp_Wires(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = t.TempDir() + "/vault.db"
	cfg.SessionBackend = config.SessionMemory

	a, err := NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NotNil(t, a.form)
	assert.NotNil(t, a.files)
	assert.NotNil(t, a.inbox)
	assert.False(t, a.isLoggedIn(context.Background()))

	ch, err := a.newChannel()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8000/socket.io/?EIO=4&transport=websocket", ch.(*pushchan.SocketIOChannel).URL())
}
