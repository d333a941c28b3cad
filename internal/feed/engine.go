package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// DefaultRemoteRecordLimit caps the remote subscription window when no
// explicit limit is configured.
const DefaultRemoteRecordLimit = 50

// Engine merges the remote durable feed and the local ephemeral store into
// one time-ordered view, and is the single source of truth the HTTP layer
// reads from and writes through.
//
// Remote state only changes via subscription deliveries: writes are
// fire-and-forget and their effect is observed on a later delivery, so a
// caller must not assume an appended item is visible immediately after the
// call returns.
type Engine struct {
	store  Store
	local  *LocalStore
	limit  int
	logger *zap.Logger

	mu      sync.RWMutex
	remote  []NotificationItem
	loading bool

	cancel context.CancelFunc
	done   chan struct{}

	subMu     sync.Mutex
	subs      map[int]chan []NotificationItem
	nextSubID int
}

// NewEngine constructs the engine. remoteRecordLimit <= 0 falls back to
// DefaultRemoteRecordLimit.
func NewEngine(store Store, local *LocalStore, remoteRecordLimit int, logger *zap.Logger) *Engine {
	if remoteRecordLimit <= 0 {
		remoteRecordLimit = DefaultRemoteRecordLimit
	}
	return &Engine{
		store:   store,
		local:   local,
		limit:   remoteRecordLimit,
		logger:  logger.Named("FeedEngine"),
		loading: true,
		subs:    make(map[int]chan []NotificationItem),
	}
}

// Start opens the remote subscription. The loading flag stays true until
// the first delivery or the first subscription error arrives.
func (e *Engine) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	deliveries, errs, err := e.store.Subscribe(ctx, e.limit)
	if err != nil {
		cancel()
		return fmt.Errorf("opening feed subscription: %w", err)
	}
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.consume(deliveries, errs)
	return nil
}

// Close releases the remote subscription and waits for the consumer to
// drain. The local store needs no cleanup; it is process-scoped.
func (e *Engine) Close() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
}

func (e *Engine) consume(deliveries <-chan []NotificationItem, errs <-chan error) {
	defer close(e.done)
	for {
		select {
		case page, ok := <-deliveries:
			if !ok {
				return
			}
			// Whole-snapshot delivery: replace, never append.
			e.mu.Lock()
			e.remote = page
			e.loading = false
			e.mu.Unlock()
			e.logger.Debug("Remote feed delivery applied", zap.Int("records", len(page)))
			e.notifySubscribers()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			e.mu.Lock()
			wasLoading := e.loading
			if wasLoading {
				// Surface an empty remote set rather than blocking the
				// dashboard behind a dead subscription.
				e.remote = nil
				e.loading = false
			}
			e.mu.Unlock()
			e.logger.Error("Remote feed subscription error", zap.Error(err))
			if wasLoading {
				e.notifySubscribers()
			}
		}
	}
}

// AddDoorbellAlert persists a doorbell ring with the fixed message.
func (e *Engine) AddDoorbellAlert(ctx context.Context) error {
	if err := e.store.Append(ctx, TypeDoorbell, Payload{Message: DoorbellMessage}); err != nil {
		e.logger.Error("Failed to append doorbell alert", zap.Error(err))
		return err
	}
	return nil
}

// AddCookingList persists a cooking wishlist after trimming entries and
// dropping blanks. A list with no usable entries is rejected before any
// store call.
func (e *Engine) AddCookingList(ctx context.Context, items []string) error {
	filtered := NormalizeCookingItems(items)
	if len(filtered) == 0 {
		return ErrEmptyCookingList
	}
	if err := e.store.Append(ctx, TypeCookingList, Payload{Items: filtered}); err != nil {
		e.logger.Error("Failed to append cooking list", zap.Error(err))
		return err
	}
	return nil
}

// AddSnapshotAlert stores a photo message in the local ephemeral store only;
// it never touches the remote store and does not survive a process restart.
// The created item is returned immediately.
func (e *Engine) AddSnapshotAlert(snapshot Snapshot) NotificationItem {
	item := e.local.Add(snapshot)
	e.notifySubscribers()
	return item
}

// MarkAsRead flips the read flag on the identified item. Membership in the
// local store is checked first because ids from the two origins are not
// distinguishable by format alone. Remote failures are surfaced to the
// caller rather than swallowed.
func (e *Engine) MarkAsRead(ctx context.Context, id string) error {
	if e.local.Contains(id) {
		e.local.MarkRead(id)
		e.notifySubscribers()
		return nil
	}
	if err := e.store.MarkRead(ctx, id); err != nil {
		e.logger.Error("Failed to mark notification as read",
			zap.String("id", id),
			zap.Error(err),
		)
		return err
	}
	// The flipped flag becomes visible through the next subscription delivery.
	return nil
}

// Notifications returns the merged view: both origins concatenated and
// sorted by timestamp descending, recomputed fresh on every call so a
// stale partial merge can never be observed. Ties keep origin-store order.
func (e *Engine) Notifications() []NotificationItem {
	e.mu.RLock()
	merged := make([]NotificationItem, 0, len(e.remote)+8)
	merged = append(merged, e.remote...)
	e.mu.RUnlock()

	merged = append(merged, e.local.List()...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	return merged
}

// UnreadCount counts merged items with read=false.
func (e *Engine) UnreadCount() int {
	count := 0
	for _, n := range e.Notifications() {
		if !n.Read {
			count++
		}
	}
	return count
}

// IsLoading reports whether the remote subscription has yet to deliver its
// first snapshot or error. Local-only data is never "loading".
func (e *Engine) IsLoading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// Subscribe registers a live consumer of the merged view. The channel
// receives the freshly merged feed after every state change, keeping only
// the latest value when the consumer lags. The returned func unsubscribes.
func (e *Engine) Subscribe() (<-chan []NotificationItem, func()) {
	ch := make(chan []NotificationItem, 1)

	e.subMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subs[id] = ch
	e.subMu.Unlock()

	unsubscribe := func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
	return ch, unsubscribe
}

func (e *Engine) notifySubscribers() {
	feed := e.Notifications()

	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- feed:
		default:
			// Slow consumer: drop its stale value and replace it.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- feed:
			default:
			}
		}
	}
}
