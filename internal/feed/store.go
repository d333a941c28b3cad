package feed

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyCookingList is returned when a cooking list has no usable entries
// after trimming. It is a validation failure; no store call is made.
var ErrEmptyCookingList = errors.New("cooking list has no usable entries")

// ErrNotFound is returned when a mark-read targets an id unknown to either
// origin store.
var ErrNotFound = errors.New("notification not found")

// PersistenceError wraps a failure reported by the remote feed store.
// Writes are not retried automatically; the in-flight item is never
// partially applied to local state because remote state only updates
// through subscription deliveries.
type PersistenceError struct {
	Op  string // "append", "mark-read", "subscribe", "trim"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("feed store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store is the port to the remote durable notification store.
//
// Subscribe delivers the entire current page of the newest `limit` records
// on every observed change, never a diff; the consumer must replace its
// whole remote copy on each delivery. Read failures are reported on the
// error stream; the adapter may keep the subscription alive underneath.
// Both channels close when ctx is done.
type Store interface {
	Append(ctx context.Context, typ NotificationType, payload Payload) error
	MarkRead(ctx context.Context, id string) error
	Subscribe(ctx context.Context, limit int) (<-chan []NotificationItem, <-chan error, error)

	// TrimToLatest enforces the store-level "keep latest N" retention
	// policy, deleting everything older. Returns the number removed.
	TrimToLatest(ctx context.Context, keep int) (int64, error)
}
