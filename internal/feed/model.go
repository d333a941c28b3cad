package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NotificationType defines the kind of feed item. The payload shape
// depends on it.
type NotificationType string

const (
	TypeDoorbell    NotificationType = "doorbell"
	TypeSnapshot    NotificationType = "snapshot"
	TypeCookingList NotificationType = "cooking_list"
)

// DoorbellMessage is the fixed text persisted for every doorbell ring.
const DoorbellMessage = "Someone is at the door!"

// TimestampLayout is the fixed-width millisecond ISO-8601 form timestamps
// are serialized with. Fixed width keeps lexicographic order equal to
// chronological order, which the remote store's child ordering relies on.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Snapshot is the payload of a photo message left by a visitor.
type Snapshot struct {
	ImageURL   string `json:"imageUrl"`
	Caption    string `json:"caption"`
	DataAIHint string `json:"dataAiHint,omitempty"`
}

// Payload is the type-dependent variant data of a notification. Exactly one
// field is populated, matching the item's NotificationType.
type Payload struct {
	Message  string    // doorbell
	Items    []string  // cooking_list
	Snapshot *Snapshot // snapshot
}

// encode serializes the variant the way the feed stores it: a bare string
// for doorbell, a string array for cooking lists, an object for snapshots.
func (p Payload) encode(typ NotificationType) (json.RawMessage, error) {
	switch typ {
	case TypeDoorbell:
		return json.Marshal(p.Message)
	case TypeCookingList:
		return json.Marshal(p.Items)
	case TypeSnapshot:
		if p.Snapshot == nil {
			return nil, fmt.Errorf("snapshot payload is nil")
		}
		return json.Marshal(p.Snapshot)
	default:
		return nil, fmt.Errorf("unknown notification type %q", typ)
	}
}

func decodePayload(typ NotificationType, raw json.RawMessage) (Payload, error) {
	var p Payload
	switch typ {
	case TypeDoorbell:
		if err := json.Unmarshal(raw, &p.Message); err != nil {
			return Payload{}, fmt.Errorf("decoding doorbell payload: %w", err)
		}
	case TypeCookingList:
		if err := json.Unmarshal(raw, &p.Items); err != nil {
			return Payload{}, fmt.Errorf("decoding cooking list payload: %w", err)
		}
	case TypeSnapshot:
		var s Snapshot
		if err := json.Unmarshal(raw, &s); err != nil {
			return Payload{}, fmt.Errorf("decoding snapshot payload: %w", err)
		}
		p.Snapshot = &s
	default:
		return Payload{}, fmt.Errorf("unknown notification type %q", typ)
	}
	return p, nil
}

// NotificationItem is the unit of the merged feed.
//
// ID is immutable once assigned (server-generated for remote items,
// locally generated for ephemeral ones). Timestamp is the sole sort key
// and is never recomputed. Read only ever transitions false -> true.
type NotificationItem struct {
	ID        string
	Type      NotificationType
	Timestamp time.Time
	Payload   Payload
	Read      bool
}

type notificationItemJSON struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Timestamp string           `json:"timestamp"`
	Payload   json.RawMessage  `json:"payload"`
	Read      bool             `json:"read"`
}

// MarshalJSON emits the interchange shape: the timestamp as an ISO-8601
// string and the payload in its type-dependent form.
func (n NotificationItem) MarshalJSON() ([]byte, error) {
	raw, err := n.Payload.encode(n.Type)
	if err != nil {
		return nil, err
	}
	return json.Marshal(notificationItemJSON{
		ID:        n.ID,
		Type:      n.Type,
		Timestamp: n.Timestamp.UTC().Format(TimestampLayout),
		Payload:   raw,
		Read:      n.Read,
	})
}

func (n *NotificationItem) UnmarshalJSON(data []byte) error {
	var aux notificationItemJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, aux.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing notification timestamp: %w", err)
	}
	payload, err := decodePayload(aux.Type, aux.Payload)
	if err != nil {
		return err
	}
	n.ID = aux.ID
	n.Type = aux.Type
	n.Timestamp = ts
	n.Payload = payload
	n.Read = aux.Read
	return nil
}

// NormalizeCookingItems trims each requested dish and drops blank entries,
// preserving order. The result may be empty.
func NormalizeCookingItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
