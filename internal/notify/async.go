package notify

import (
	"context"
	"sync"
	"time"

	"bitebuddy-be/internal/logger"

	"go.uber.org/zap"
)

// Async hands notices to next on a background goroutine and returns at once.
// Failures are logged and otherwise dropped.
type Async struct {
	next    Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, timeout time.Duration) *Async {
	return &Async{next: next, timeout: timeout}
}

func (a *Async) NotifyOTP(ctx context.Context, n OTPNotice) error {
	// Detach from the request so delivery survives the response being written.
	bg := context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(bg, a.timeout)
		defer cancel()

		if err := a.next.NotifyOTP(ctx, n); err != nil {
			logger.FromCtx(ctx).Warn("otp notification failed",
				zap.Int64("order_id", n.OrderID),
				zap.String("order_number", n.OrderNumber),
				zap.Error(err),
			)
		}
	}()

	return nil
}

// Wait blocks until in-flight notifications finish.
func (a *Async) Wait() {
	a.wg.Wait()
}
