package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasuganosora/monbattle/cache"
	"github.com/kasuganosora/monbattle/game/arena"
	"github.com/kasuganosora/monbattle/resource"
)

// DataDir is the absolute path of the shipped catalog.
func DataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "data")
}

// SetupCatalog loads the shipped catalog.
func SetupCatalog(t *testing.T) *resource.ResourceLoader {
	t.Helper()
	cat := resource.NewLoader(DataDir())
	require.NoError(t, cat.Load(), "SetupCatalog: Load")
	return cat
}

// SetupTestCache creates the in-process Store and PubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Store, cache.PubSub) {
	t.Helper()
	cfg := cache.Config{LocalPubSubBuf: 1024} // empty RedisAddr selects the local backend
	s, err := cache.NewStore(cfg)
	require.NoError(t, err, "SetupTestCache: NewStore")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	t.Cleanup(func() {
		_ = ps.Close()
		_ = s.Close()
	})
	return s, ps
}

// SetupArena wires a Manager over the shipped catalog and a local cache.
func SetupArena(t *testing.T) (*arena.Manager, *resource.ResourceLoader) {
	t.Helper()
	cat := SetupCatalog(t)
	s, ps := SetupTestCache(t)
	m := arena.NewManager(arena.Options{
		Catalog: cat,
		Store:   s,
		PubSub:  ps,
		Logger:  zap.NewNop(),
	})
	return m, cat
}
