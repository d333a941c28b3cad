package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_AddReturnsItemImmediately(t *testing.T) {
	store := NewLocalStore()

	item := store.Add(Snapshot{ImageURL: "https://example.com/p.png", Caption: "front door"})

	assert.True(t, IsLocalID(item.ID))
	assert.Equal(t, TypeSnapshot, item.Type)
	assert.False(t, item.Read)
	assert.False(t, item.Timestamp.IsZero())
	require.NotNil(t, item.Payload.Snapshot)
	assert.Equal(t, "front door", item.Payload.Snapshot.Caption)
}

func TestLocalStore_IDsAreUnique(t *testing.T) {
	store := NewLocalStore()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		item := store.Add(Snapshot{ImageURL: "https://example.com/p.png"})
		assert.False(t, seen[item.ID], "duplicate local id %s", item.ID)
		seen[item.ID] = true
	}
}

func TestLocalStore_MarkRead(t *testing.T) {
	store := NewLocalStore()
	item := store.Add(Snapshot{ImageURL: "https://example.com/p.png"})

	assert.True(t, store.MarkRead(item.ID))
	assert.False(t, store.MarkRead("local-nonexistent"))

	items := store.List()
	require.Len(t, items, 1)
	assert.True(t, items[0].Read)

	// Second call is a no-op, the flag never reverts.
	assert.True(t, store.MarkRead(item.ID))
	assert.True(t, store.List()[0].Read)
}

func TestLocalStore_Contains(t *testing.T) {
	store := NewLocalStore()
	item := store.Add(Snapshot{ImageURL: "https://example.com/p.png"})

	assert.True(t, store.Contains(item.ID))
	assert.False(t, store.Contains("fb-abc123"))
}

func TestLocalStore_ListReturnsCopy(t *testing.T) {
	store := NewLocalStore()
	store.Add(Snapshot{ImageURL: "https://example.com/p.png"})

	items := store.List()
	items[0].Read = true

	assert.False(t, store.List()[0].Read, "mutating the returned slice must not affect the store")
}
