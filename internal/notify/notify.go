// Package notify builds match digests and hands them to an external sender.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jobsentinel/jobsentinel/internal/alert"
	"github.com/jobsentinel/jobsentinel/internal/logger"
	"github.com/jobsentinel/jobsentinel/internal/matching"
)

// Payload is one outbound notification.
type Payload struct {
	Channel string
	Target  string
	Subject string
	Content string
}

// Sender delivers a payload over its channel. Delivery mechanics live
// outside this core.
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// DeliveryStatus is the recorded result of a dispatch attempt.
type DeliveryStatus string

const (
	StatusSkipped DeliveryStatus = "skipped"
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
)

// Outcome records a dispatch attempt. Failed dispatches are not retried
// within the same tick; the next scheduled run retries naturally.
type Outcome struct {
	Status DeliveryStatus
	Error  string
	At     time.Time
}

// Dispatcher turns ranked matches into a digest notification.
type Dispatcher struct {
	sender Sender
	logger *zap.Logger

	now func() time.Time
}

func NewDispatcher(sender Sender, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Dispatch sends a digest of the matches to the alert's target. Zero
// matches is a no-op, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, a *alert.Alert, matches []*matching.Match) Outcome {
	at := d.now()

	if len(matches) == 0 {
		return Outcome{Status: StatusSkipped, At: at}
	}

	payload := Payload{
		Channel: string(a.Method),
		Target:  a.Target,
		Subject: DigestSubject(a, matches),
		Content: DigestBody(a, matches),
	}

	if err := d.sender.Send(ctx, payload); err != nil {
		d.logger.Warn("notification dispatch failed",
			zap.String(logger.FieldAlertID, a.ID),
			zap.String("channel", payload.Channel),
			zap.Error(err),
		)
		return Outcome{Status: StatusFailed, Error: err.Error(), At: at}
	}

	d.logger.Info("notification dispatched",
		zap.String(logger.FieldAlertID, a.ID),
		zap.String("channel", payload.Channel),
		zap.Int("matches", len(matches)),
	)

	return Outcome{Status: StatusSent, At: at}
}
