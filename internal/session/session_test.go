package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/membercast/internal/errors"
	"github.com/unclebandit/membercast/internal/importer"
	"github.com/unclebandit/membercast/internal/model"
)

func samplePreview() *Preview {
	return NewPreview("members.csv", importer.Result{
		Parsed: []model.ParsedMember{{FirstName: "Anna", LastName: "Berg", Phone: "+46 70 111"}},
		Duplicates: []model.DuplicateMember{{
			ParsedMember: model.ParsedMember{FirstName: "Omar", LastName: "Ali", Phone: "070-222"},
			Existing:     model.Member{ID: 3, FirstName: "Omar", LastName: "Ali", Phone: "070222"},
		}},
		Errors: []string{"Row 4: missing required fields (FirstName, LastName, Mobile)"},
	})
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStore_SaveGetDelete(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	p := samplePreview()

	require.NoError(t, store.Save(ctx, p))
	assert.True(t, mr.Exists(keyPrefix+p.ID))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+p.ID))

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Filename, got.Filename)
	assert.Equal(t, p.Result.Parsed, got.Result.Parsed)
	require.Len(t, got.Result.Duplicates, 1)
	assert.Equal(t, int64(3), got.Result.Duplicates[0].Existing.ID)
	assert.Equal(t, "070-222", got.Result.Duplicates[0].Phone)
	assert.Equal(t, p.Result.Errors, got.Result.Errors)

	require.NoError(t, store.Delete(ctx, p.ID))
	_, err = store.Get(ctx, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrImportSessionNotFound)
}

func TestRedisStore_Expires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	p := samplePreview()
	require.NoError(t, store.Save(ctx, p))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrImportSessionNotFound)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "{"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrImportSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	p := samplePreview()
	require.NoError(t, store.Save(ctx, p))

	got, err := store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Result, got.Result)

	clock = clock.Add(time.Minute)
	_, err = store.Get(ctx, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrImportSessionNotFound)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrImportSessionNotFound)
}

func TestStores_TakeOnce(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"redis":  redisStore,
		"memory": NewMemoryStore(time.Minute),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := samplePreview()
			require.NoError(t, store.Save(ctx, p))

			got, err := store.Take(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, p.Result.Parsed, got.Result.Parsed)

			_, err = store.Take(ctx, p.ID)
			assert.ErrorIs(t, err, appErrors.ErrImportSessionNotFound)
			_, err = store.Get(ctx, p.ID)
			assert.ErrorIs(t, err, appErrors.ErrImportSessionNotFound)
		})
	}
}

func TestStores_ConcurrentTake(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"redis":  redisStore,
		"memory": NewMemoryStore(time.Minute),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := samplePreview()
			require.NoError(t, store.Save(ctx, p))

			var wins atomic.Int32
			var wg sync.WaitGroup
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := store.Take(ctx, p.ID); err == nil {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), wins.Load())
		})
	}
}

func TestMemoryStore_TakeExpired(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	p := samplePreview()
	require.NoError(t, store.Save(ctx, p))
	clock = clock.Add(time.Minute)

	_, err := store.Take(ctx, p.ID)
	assert.ErrorIs(t, err, appErrors.ErrImportSessionNotFound)
	assert.Empty(t, store.previews)
}

func TestNewPreview_UniqueIDs(t *testing.T) {
	a := NewPreview("a.csv", importer.Result{})
	b := NewPreview("a.csv", importer.Result{})
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 36)
}
