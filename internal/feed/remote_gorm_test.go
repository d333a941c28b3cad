package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupGORMStore(t *testing.T) *GORMStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	store, err := NewGORMStore(db, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestGORMStore_AppendAndFetch(t *testing.T) {
	store := setupGORMStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, TypeDoorbell, Payload{Message: DoorbellMessage}))
	require.NoError(t, store.Append(ctx, TypeCookingList, Payload{Items: []string{"Pasta", "Salad"}}))

	items, err := store.fetchPage(ctx, 50)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byType := make(map[NotificationType]NotificationItem)
	for _, item := range items {
		assert.NotEmpty(t, item.ID)
		assert.False(t, item.Read)
		assert.False(t, item.Timestamp.IsZero())
		byType[item.Type] = item
	}
	assert.Equal(t, DoorbellMessage, byType[TypeDoorbell].Payload.Message)
	assert.Equal(t, []string{"Pasta", "Salad"}, byType[TypeCookingList].Payload.Items)
}

func TestGORMStore_FetchPageHonorsLimit(t *testing.T) {
	store := setupGORMStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, TypeDoorbell, Payload{Message: DoorbellMessage}))
	}

	items, err := store.fetchPage(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestGORMStore_MarkRead(t *testing.T) {
	store := setupGORMStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, TypeDoorbell, Payload{Message: DoorbellMessage}))
	items, err := store.fetchPage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, store.MarkRead(ctx, items[0].ID))

	items, err = store.fetchPage(ctx, 1)
	require.NoError(t, err)
	assert.True(t, items[0].Read)

	// Marking again converges on the same state.
	require.NoError(t, store.MarkRead(ctx, items[0].ID))
	items, err = store.fetchPage(ctx, 1)
	require.NoError(t, err)
	assert.True(t, items[0].Read)
}

func TestGORMStore_MarkRead_NotFound(t *testing.T) {
	store := setupGORMStore(t)

	err := store.MarkRead(context.Background(), "no-such-id")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGORMStore_TrimToLatest(t *testing.T) {
	store := setupGORMStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := FeedRecord{
			ID:        fmt.Sprintf("rec-%d", i),
			Type:      string(TypeDoorbell),
			Payload:   `"Someone is at the door!"`,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Read:      false,
		}
		require.NoError(t, store.db.Create(&rec).Error)
	}

	removed, err := store.TrimToLatest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	items, err := store.fetchPage(ctx, 50)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// The newest records survive.
	assert.ElementsMatch(t, []string{"rec-3", "rec-4"}, []string{items[0].ID, items[1].ID})

	removed, err = store.TrimToLatest(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, removed, "trim is a no-op when within the retention window")
}

func TestGORMStore_SubscribeDeliversWholePage(t *testing.T) {
	store := setupGORMStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.Append(ctx, TypeDoorbell, Payload{Message: DoorbellMessage}))

	deliveries, errs, err := store.Subscribe(ctx, 50)
	require.NoError(t, err)

	select {
	case page := <-deliveries:
		require.Len(t, page, 1)
		assert.Equal(t, TypeDoorbell, page[0].Type)
	case err := <-errs:
		t.Fatalf("unexpected subscription error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("first delivery never arrived")
	}

	// A write becomes visible through a later whole-page delivery.
	require.NoError(t, store.Append(ctx, TypeCookingList, Payload{Items: []string{"Soup"}}))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case page := <-deliveries:
			if len(page) == 2 {
				return
			}
		case err := <-errs:
			t.Fatalf("unexpected subscription error: %v", err)
		case <-deadline:
			t.Fatal("delivery reflecting the append never arrived")
		}
	}
}
