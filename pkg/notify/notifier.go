package notify

import (
	"context"
	"sync"
	"time"

	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
)

// Notifier announces committed changes. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, name string, payload any)
}

// AsyncNotifier publishes on a detached goroutine bounded by timeout.
type AsyncNotifier struct {
	publisher Publisher
	log       *logger.Logger
	timeout   time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncNotifier(publisher Publisher, log *logger.Logger, timeout time.Duration) *AsyncNotifier {
	return &AsyncNotifier{
		publisher: publisher,
		log:       log,
		timeout:   timeout,
	}
}

func (n *AsyncNotifier) Notify(ctx context.Context, name string, payload any) {
	evt, err := NewEvent(name, payload)
	if err != nil {
		n.log.Warn("Failed to build notification", "event", name, "error", err)
		return
	}

	// the request context is canceled as soon as the handler returns
	detached := context.WithoutCancel(ctx)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.log.Debug("Notifier closed, dropping notification", "event", evt.Name, "event_id", evt.ID)
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()

		pubCtx, cancel := context.WithTimeout(detached, n.timeout)
		defer cancel()

		if err := n.publisher.Publish(pubCtx, evt); err != nil {
			n.log.Warn("Failed to publish notification",
				"event", evt.Name,
				"event_id", evt.ID,
				"error", err,
			)
			return
		}
		n.log.Debug("Notification published", "event", evt.Name, "event_id", evt.ID)
	}()
}

// Close waits for in-flight publishes, then closes the publisher.
// It gives up waiting when ctx is done. Notifications sent after Close are
// dropped. Calling Close again is a no-op.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		n.log.Warn("Timed out waiting for in-flight notifications")
	}
	return n.publisher.Close()
}

type nop struct{}

// Nop returns a Notifier that does nothing.
func Nop() Notifier {
	return nop{}
}

func (nop) Notify(context.Context, string, any) {}
