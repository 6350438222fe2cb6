package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredValueRoundTrip(t *testing.T) {
	src := newFakeSource()
	snap := Snapshot{Refreshed: map[Resource]time.Time{}}
	values := map[Resource]interface{}{
		ResourceGlobal:         src.global,
		ResourceCountry:        src.country,
		ResourceGlobalHistory:  src.history,
		ResourceCountryHistory: src.countryH,
		ResourceCountries:      src.countries,
	}
	for res, v := range values {
		data, err := encodeStored(testNow, v)
		require.NoError(t, err)
		require.NoError(t, decodeStored(&snap, res, data), "resource %s", res)
	}

	assert.Equal(t, *src.global, *snap.Global)
	assert.Equal(t, *src.country, *snap.Country)
	assert.Equal(t, src.history.Cases, snap.GlobalHistory.Cases)
	assert.Equal(t, "USA", snap.CountryHistory.Country)
	assert.Equal(t, src.countries, snap.Countries)
	for _, res := range Resources {
		assert.True(t, testNow.Equal(snap.Refreshed[res]), "resource %s", res)
	}
}

func TestDecodeStoredRejectsGarbage(t *testing.T) {
	snap := Snapshot{Refreshed: map[Resource]time.Time{}}
	assert.Error(t, decodeStored(&snap, ResourceGlobal, []byte("{")))
	assert.Error(t, decodeStored(&snap, ResourceCountries, []byte(`{"value":{"cases":1}}`)))
	assert.Error(t, decodeStored(&snap, Resource("weather"), []byte(`{"value":{}}`)))
	assert.True(t, snap.Empty())
	assert.Empty(t, snap.Refreshed)
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "coviddash:snapshot:globalHistory", snapshotKey(ResourceGlobalHistory))
}

func newRedisStorage(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client, ttl), mr
}

func TestRedisStorageSaveLoad(t *testing.T) {
	storage, mr := newRedisStorage(t, time.Hour)
	ctx := context.Background()
	src := newFakeSource()

	require.NoError(t, storage.Save(ctx, ResourceGlobal, testNow, src.global))
	require.NoError(t, storage.Save(ctx, ResourceCountries, testNow, src.countries))
	assert.Equal(t, time.Hour, mr.TTL("coviddash:snapshot:global"))

	snap, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, *src.global, *snap.Global)
	assert.Equal(t, src.countries, snap.Countries)
	assert.Nil(t, snap.Country, "missing keys are skipped")
	assert.Nil(t, snap.GlobalHistory)
	assert.Nil(t, snap.CountryHistory)
	assert.True(t, testNow.Equal(snap.Refreshed[ResourceGlobal]))
	assert.Len(t, snap.Refreshed, 2)
}

func TestRedisStorageNoTTL(t *testing.T) {
	storage, mr := newRedisStorage(t, 0)
	require.NoError(t, storage.Save(context.Background(), ResourceCountry, testNow, newFakeSource().country))
	assert.True(t, mr.Exists("coviddash:snapshot:country"))
	assert.Zero(t, mr.TTL("coviddash:snapshot:country"))
}

func TestRedisStorageExpired(t *testing.T) {
	storage, mr := newRedisStorage(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, storage.Save(ctx, ResourceGlobal, testNow, newFakeSource().global))

	mr.FastForward(2 * time.Minute)
	snap, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}

func TestRedisStorageSkipsGarbage(t *testing.T) {
	storage, mr := newRedisStorage(t, 0)
	ctx := context.Background()
	require.NoError(t, mr.Set("coviddash:snapshot:global", "{"))
	require.NoError(t, storage.Save(ctx, ResourceCountries, testNow, testCountries(3)))

	snap, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Global)
	assert.Len(t, snap.Countries, 3)
}

func TestRedisStorageUnavailable(t *testing.T) {
	storage, mr := newRedisStorage(t, 0)
	mr.Close()

	_, err := storage.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, storage.Save(context.Background(), ResourceGlobal, testNow, newFakeSource().global))
}

func TestHolderRestoresFromRedis(t *testing.T) {
	storage, _ := newRedisStorage(t, 0)
	ctx := context.Background()

	first := NewHolder(newFakeSource(), DefaultConfig(), WithStorage(storage), WithClock(testClock))
	_, err := first.Activate(ctx)
	require.NoError(t, err)

	src := newFakeSource()
	second := NewHolder(src, DefaultConfig(), WithStorage(storage))
	require.NoError(t, second.Restore(ctx))
	snap := second.State().Snapshot
	for _, res := range Resources {
		assert.True(t, snap.Has(res), "resource %s", res)
		assert.True(t, testNow.Equal(snap.Refreshed[res]), "resource %s", res)
	}
	assert.Equal(t, src.countries, snap.Countries)
}
