package notify

import (
	"context"
	"time"

	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
)

const (
	relayInitialBackoff = time.Second
	relayMaxBackoff     = 30 * time.Second
)

// RunRelay keeps broker.Relay running until ctx is done, restarting it with
// exponential backoff after failures.
func RunRelay(ctx context.Context, broker Broker, sink Publisher, log *logger.Logger) {
	backoff := relayInitialBackoff
	for {
		started := time.Now()
		err := broker.Relay(ctx, sink)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > relayMaxBackoff {
			backoff = relayInitialBackoff
		}
		log.Warn("Event relay stopped, restarting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, relayMaxBackoff)
	}
}
