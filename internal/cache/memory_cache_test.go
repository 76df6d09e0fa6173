package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetJSON(ctx, "k", payload{Name: "a", Count: 2}, time.Minute))

	var got payload
	hit, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Name: "a", Count: 2}, got)

	now = now.Add(time.Minute)
	hit, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCache_Del(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	require.NoError(t, c.SetJSON(ctx, "a", 1, 0))
	require.NoError(t, c.SetJSON(ctx, "b", 2, 0))
	require.NoError(t, c.Del(ctx, "a", "b"))

	var v int
	hit, _ := c.GetJSON(ctx, "a", &v)
	assert.False(t, hit)
}

func TestMemoryCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	require.NoError(t, c.SetJSON(ctx, "k", "text", 0))

	var dst payload
	hit, err := c.GetJSON(ctx, "k", &dst)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	log, hook := logtest.NewNullLogger()

	calls := 0
	load := func(context.Context) ([]payload, error) {
		calls++
		return []payload{{Name: "alice", Count: calls}}, nil
	}

	got, err := GetOrLoad(ctx, c, log, "records", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []payload{{Name: "alice", Count: 1}}, got)

	got, err = GetOrLoad(ctx, c, log, "records", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second read is served from the cache")
	assert.Equal(t, 1, got[0].Count)

	require.NoError(t, c.Del(ctx, "records"))
	_, err = GetOrLoad(ctx, c, log, "records", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Empty(t, hook.AllEntries())
}

func TestGetOrLoad_LoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	log, _ := logtest.NewNullLogger()

	_, err := GetOrLoad(ctx, c, log, "k", 0, func(context.Context) (int, error) { return 0, errors.New("down") })
	require.Error(t, err)

	var v int
	hit, _ := c.GetJSON(ctx, "k", &v)
	assert.False(t, hit)
}
