package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationItem_JSONShape(t *testing.T) {
	at := time.Date(2024, 5, 17, 9, 30, 0, 250e6, time.UTC)
	item := NotificationItem{
		ID:        "fb-abc",
		Type:      TypeCookingList,
		Timestamp: at,
		Payload:   Payload{Items: []string{"Pasta", "Salad"}},
		Read:      false,
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"2024-05-17T09:30:00.250Z"`, string(raw["timestamp"]))
	assert.JSONEq(t, `["Pasta","Salad"]`, string(raw["payload"]))

	var back NotificationItem
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, item.ID, back.ID)
	assert.Equal(t, item.Payload.Items, back.Payload.Items)
	assert.True(t, back.Timestamp.Equal(at))
}

func TestNotificationItem_SnapshotPayload(t *testing.T) {
	item := NotificationItem{
		ID:        "local-01H",
		Type:      TypeSnapshot,
		Timestamp: time.Now().UTC(),
		Payload: Payload{Snapshot: &Snapshot{
			ImageURL:   "data:image/png;base64,abc",
			Caption:    "visitor",
			DataAIHint: "visitor selfie",
		}},
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var back NotificationItem
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Payload.Snapshot)
	assert.Equal(t, "visitor selfie", back.Payload.Snapshot.DataAIHint)
}

func TestDecodePayload_UnknownType(t *testing.T) {
	_, err := decodePayload(NotificationType("carrier_pigeon"), json.RawMessage(`"hi"`))
	assert.Error(t, err)
}

func TestTimestampLayout_LexicographicOrderMatchesChronological(t *testing.T) {
	base := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(5 * time.Millisecond),
		base.Add(50 * time.Millisecond),
		base.Add(time.Second),
		base.Add(time.Minute),
	}

	prev := ""
	for _, ts := range times {
		s := ts.Format(TimestampLayout)
		assert.True(t, prev < s, "%q should sort before %q", prev, s)
		prev = s
	}
}

func TestNormalizeCookingItems(t *testing.T) {
	got := NormalizeCookingItems([]string{"  ", "Pasta", "", "Salad "})
	assert.Equal(t, []string{"Pasta", "Salad"}, got)

	assert.Empty(t, NormalizeCookingItems([]string{" ", "\t", ""}))
	assert.Empty(t, NormalizeCookingItems(nil))
}
