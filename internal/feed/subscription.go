package feed

import (
	"context"
	"reflect"
	"time"
)

// pollSubscription drives a Store.Subscribe implementation over a fetch
// function. The first successful fetch always delivers, so consumers can
// clear their loading state; later fetches deliver only when the page
// changed. Fetch errors go to the error stream while polling continues,
// which is the transport-level recovery left beneath the Store contract.
// Both channels close when ctx is done.
func pollSubscription(
	ctx context.Context,
	interval time.Duration,
	limit int,
	fetch func(context.Context, int) ([]NotificationItem, error),
) (<-chan []NotificationItem, <-chan error) {
	out := make(chan []NotificationItem, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last []NotificationItem
		delivered := false
		for {
			page, err := fetch(ctx, limit)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				select {
				case errs <- &PersistenceError{Op: "subscribe", Err: err}:
				default:
					// Error stream consumer is behind; the next poll reports again.
				}
			case !delivered || !reflect.DeepEqual(page, last):
				last = page
				delivered = true
				select {
				case out <- page:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out, errs
}
