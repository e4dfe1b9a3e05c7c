package cache

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) DelPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
		}
	}
	return nil
}

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) (string, error) {
	return "", fmt.Errorf("i/o timeout")
}
func (brokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return fmt.Errorf("i/o timeout")
}
func (brokenStore) Del(ctx context.Context, keys ...string) error { return fmt.Errorf("i/o timeout") }
func (brokenStore) DelPattern(ctx context.Context, pattern string) error {
	return fmt.Errorf("i/o timeout")
}

type payload struct {
	Title string `json:"title"`
}

func TestNoteRoundTrip(t *testing.T) {
	c := New(newFakeStore(), time.Minute)
	ctx := context.Background()

	c.SetNote(ctx, "owner-1", "note-1", payload{Title: "T"})

	var got payload
	require.True(t, c.GetNote(ctx, "owner-1", "note-1", &got))
	assert.Equal(t, "T", got.Title)

	assert.False(t, c.GetNote(ctx, "owner-1", "note-2", &got))
	assert.False(t, c.GetNote(ctx, "owner-2", "note-1", &got), "keys are owner-scoped")
}

func TestInvalidateNoteDropsOwnerEntries(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Minute)
	ctx := context.Background()

	c.SetNote(ctx, "owner-1", "note-1", payload{Title: "T"})
	c.SetList(ctx, "owner-1", []payload{{Title: "T"}})
	c.SetSearch(ctx, "owner-1", "milk", []payload{{Title: "T"}})
	c.SetNote(ctx, "owner-2", "note-9", payload{Title: "other"})

	c.InvalidateNote(ctx, "owner-1", "note-1")

	var got payload
	assert.False(t, c.GetNote(ctx, "owner-1", "note-1", &got))
	var list []payload
	assert.False(t, c.GetList(ctx, "owner-1", &list))
	assert.False(t, c.GetSearch(ctx, "owner-1", "milk", &list), "every cached search for the owner is dropped")
	assert.True(t, c.GetNote(ctx, "owner-2", "note-9", &got), "other owners' entries survive")
}

func TestSearchEntriesUseHalfTTL(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Minute)
	ctx := context.Background()

	c.SetNote(ctx, "owner-1", "note-1", payload{})
	c.SetSearch(ctx, "owner-1", "q", []payload{})

	assert.Equal(t, time.Minute, store.ttls["notes:note:owner-1:note-1"])
	assert.Equal(t, 30*time.Second, store.ttls["notes:owner:owner-1:search:q"])
}

func TestNilStoreDisablesCaching(t *testing.T) {
	c := New(nil, time.Minute)
	ctx := context.Background()

	c.SetNote(ctx, "owner-1", "note-1", payload{Title: "T"})
	var got payload
	assert.False(t, c.GetNote(ctx, "owner-1", "note-1", &got))
	c.InvalidateNote(ctx, "owner-1", "note-1") // must not panic
}

func TestBrokenStoreDegradesToMiss(t *testing.T) {
	c := New(brokenStore{}, time.Minute)
	ctx := context.Background()

	c.SetNote(ctx, "owner-1", "note-1", payload{Title: "T"})
	var got payload
	assert.False(t, c.GetNote(ctx, "owner-1", "note-1", &got))
	c.InvalidateNote(ctx, "owner-1", "note-1") // errors absorbed, nothing propagates
}

func TestCorruptEntryTreatedAsMiss(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Minute)
	ctx := context.Background()

	store.data["notes:note:owner-1:note-1"] = "{not json"
	var got payload
	assert.False(t, c.GetNote(ctx, "owner-1", "note-1", &got))
}
