// Package notify delivers issued delivery codes to the customer out of band.
package notify

import (
	"context"
	"strings"
	"time"

	"bitebuddy-be/internal/logger"

	"go.uber.org/zap"
)

// OTPNotice is sent once per issued code.
type OTPNotice struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Phone       string    `json:"phone"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Notifier interface {
	NotifyOTP(ctx context.Context, n OTPNotice) error
}

// LogNotifier writes the notice to the log with the code masked. It is the
// fallback when no message bus is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyOTP(ctx context.Context, n OTPNotice) error {
	logger.FromCtx(ctx).Info("otp issued",
		zap.Int64("order_id", n.OrderID),
		zap.String("order_number", n.OrderNumber),
		zap.String("code", MaskCode(n.Code)),
		zap.Time("expires_at", n.ExpiresAt),
	)
	return nil
}

func MaskCode(code string) string {
	return strings.Repeat("*", len(code))
}
