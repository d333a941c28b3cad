package feed

import (
	"context"
	"encoding/json"
	"time"

	"firebase.google.com/go/v4/db"
	"go.uber.org/zap"
)

// notificationsPath is the Realtime Database path holding persisted
// notifications.
const notificationsPath = "notifications"

// remoteRecord is the wire shape of a persisted notification, without its
// server-assigned key.
type remoteRecord struct {
	Type      NotificationType `json:"type"`
	Payload   json.RawMessage  `json:"payload"`
	Timestamp string           `json:"timestamp"`
	Read      bool             `json:"read"`
}

func (r remoteRecord) toItem(key string) (NotificationItem, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return NotificationItem{}, err
	}
	payload, err := decodePayload(r.Type, r.Payload)
	if err != nil {
		return NotificationItem{}, err
	}
	return NotificationItem{
		ID:        key,
		Type:      r.Type,
		Timestamp: ts,
		Payload:   payload,
		Read:      r.Read,
	}, nil
}

// FirebaseStore implements Store against a Firebase Realtime Database.
//
// The Admin SDK has no change-listener API, so Subscribe polls the
// timestamp-ordered page on an interval and delivers it whenever it
// differs from the previous delivery. Every consumer still observes
// whole-snapshot updates, never diffs.
type FirebaseStore struct {
	ref          *db.Ref
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewFirebaseStore creates the adapter on top of an initialized Realtime
// Database client.
func NewFirebaseStore(client *db.Client, pollInterval time.Duration, logger *zap.Logger) *FirebaseStore {
	return &FirebaseStore{
		ref:          client.NewRef(notificationsPath),
		pollInterval: pollInterval,
		logger:       logger.Named("FirebaseStore"),
	}
}

// Append creates a new record under a store-generated key with
// timestamp=now and read=false. Failures are reported as a
// PersistenceError; the notification is then simply not sent, there is no
// automatic retry and no optimistic local entry to roll back.
func (s *FirebaseStore) Append(ctx context.Context, typ NotificationType, payload Payload) error {
	raw, err := payload.encode(typ)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	rec := remoteRecord{
		Type:      typ,
		Payload:   raw,
		Timestamp: time.Now().UTC().Format(TimestampLayout),
		Read:      false,
	}
	newRef, err := s.ref.Push(ctx, rec)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	s.logger.Debug("Notification appended",
		zap.String("id", newRef.Key),
		zap.String("type", string(typ)),
	)
	return nil
}

// MarkRead patches only the read field of the identified record to true.
func (s *FirebaseStore) MarkRead(ctx context.Context, id string) error {
	child := s.ref.Child(id)

	var existing map[string]interface{}
	if err := child.Get(ctx, &existing); err != nil {
		return &PersistenceError{Op: "mark-read", Err: err}
	}
	if len(existing) == 0 {
		return ErrNotFound
	}

	if err := child.Update(ctx, map[string]interface{}{"read": true}); err != nil {
		return &PersistenceError{Op: "mark-read", Err: err}
	}
	return nil
}

// Subscribe opens the live page of the newest `limit` records.
func (s *FirebaseStore) Subscribe(ctx context.Context, limit int) (<-chan []NotificationItem, <-chan error, error) {
	items, errs := pollSubscription(ctx, s.pollInterval, limit, s.fetchPage)
	return items, errs, nil
}

func (s *FirebaseStore) fetchPage(ctx context.Context, limit int) ([]NotificationItem, error) {
	nodes, err := s.ref.OrderByChild("timestamp").LimitToLast(limit).GetOrdered(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]NotificationItem, 0, len(nodes))
	for _, node := range nodes {
		var rec remoteRecord
		if err := node.Unmarshal(&rec); err != nil {
			s.logger.Warn("Skipping malformed notification record",
				zap.String("id", node.Key()),
				zap.Error(err),
			)
			continue
		}
		item, err := rec.toItem(node.Key())
		if err != nil {
			s.logger.Warn("Skipping undecodable notification record",
				zap.String("id", node.Key()),
				zap.Error(err),
			)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// TrimToLatest deletes every record beyond the newest `keep`, implementing
// the store-level retention policy.
func (s *FirebaseStore) TrimToLatest(ctx context.Context, keep int) (int64, error) {
	nodes, err := s.ref.OrderByChild("timestamp").GetOrdered(ctx)
	if err != nil {
		return 0, &PersistenceError{Op: "trim", Err: err}
	}
	if len(nodes) <= keep {
		return 0, nil
	}

	// GetOrdered returns ascending order, so the surplus oldest records
	// sit at the front.
	var removed int64
	for _, node := range nodes[:len(nodes)-keep] {
		if err := s.ref.Child(node.Key()).Delete(ctx); err != nil {
			return removed, &PersistenceError{Op: "trim", Err: err}
		}
		removed++
	}
	return removed, nil
}
