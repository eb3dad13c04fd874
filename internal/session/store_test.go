package session

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilewright/mosaic/internal/mosaic"
)

func TestStore_GetMissing(t *testing.T) {
	store := NewStore(10*time.Minute, clockwork.NewFakeClock())

	sess, ok := store.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, sess)
}

func TestStore_GetOrCreate(t *testing.T) {
	store := NewStore(10*time.Minute, clockwork.NewFakeClock())

	created := store.GetOrCreate("s1")
	require.NotNil(t, created)
	assert.Equal(t, "s1", created.ID)
	assert.NotNil(t, created.Tiles, "new session carries an empty tile cache")
	assert.Empty(t, created.Palette)

	again := store.GetOrCreate("s1")
	assert.Same(t, created, again, "same id returns same session")
	assert.Equal(t, 1, store.Len())
}

func TestStore_TTLExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(10*time.Minute, clock)

	store.GetOrCreate("s1")

	clock.Advance(9 * time.Minute)
	_, ok := store.Get("s1")
	assert.True(t, ok, "should still exist within TTL")

	// The Get above refreshed the expiry; idle out from there.
	clock.Advance(11 * time.Minute)
	_, ok = store.Get("s1")
	assert.False(t, ok, "should be expired after idle TTL")
}

func TestStore_GetRefreshesExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(10*time.Minute, clock)

	store.GetOrCreate("s1")

	for i := 0; i < 5; i++ {
		clock.Advance(8 * time.Minute)
		_, ok := store.Get("s1")
		require.True(t, ok, "touch %d should keep the session alive", i)
	}
}

func TestStore_Evict(t *testing.T) {
	store := NewStore(10*time.Minute, clockwork.NewFakeClock())

	store.GetOrCreate("s1")
	assert.True(t, store.Evict("s1"))
	assert.False(t, store.Evict("s1"), "second evict is a no-op")

	_, ok := store.Get("s1")
	assert.False(t, ok)
}

func TestStore_EvictExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(10*time.Minute, clock)

	store.GetOrCreate("old")
	clock.Advance(7 * time.Minute)
	store.GetOrCreate("fresh")
	clock.Advance(5 * time.Minute) // old: 12m idle, fresh: 5m idle

	evicted := store.EvictExpired()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Get("fresh")
	assert.True(t, ok)
}

func TestStore_EvictionTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(time.Minute, clock)
	store.GetOrCreate("s1")

	stop := store.StartEvictionTimer(30 * time.Second)
	defer stop()

	// Let the session expire, then let the ticker fire.
	clock.Advance(2 * time.Minute)
	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 5*time.Millisecond, "timer should sweep the expired session")
}

func TestSession_StateSurvivesTouch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewStore(10*time.Minute, clock)

	sess := store.GetOrCreate("s1")
	sess.Lock()
	sess.Palette = mosaic.AppendPalette(nil, []mosaic.PaletteEntry{{Index: 0, R: 1}})
	sess.Sources = [][]byte{{0x1}}
	sess.Unlock()

	clock.Advance(time.Minute)
	got, ok := store.Get("s1")
	require.True(t, ok)
	assert.Len(t, got.Palette, 1)
	assert.Len(t, got.Sources, 1)
}
