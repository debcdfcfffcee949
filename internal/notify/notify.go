// Package notify dispatches best-effort messages to the parties on workflow
// events. Delivery is fire and forget: failures are logged and never
// retried synchronously, and no workflow operation depends on the outcome.
package notify

import (
	"context"
	"log/slog"

	id "bhulekh/pkg/domain"
)

// Message is one notification to one recipient.
type Message struct {
	Recipient  string // phone or email as the channel expects
	TransferID id.TransferID
	Subject    string
	Body       string
}

// Sender delivers a single message over one channel (SMS, email).
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher fans a message out to senders, swallowing failures.
type Dispatcher struct {
	senders []Sender
	logger  *slog.Logger
}

func NewDispatcher(logger *slog.Logger, senders ...Sender) *Dispatcher {
	return &Dispatcher{senders: senders, logger: logger}
}

// Notify sends msg through every channel. Errors are logged only.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	if msg.Recipient == "" {
		return
	}
	for _, sender := range d.senders {
		if err := sender.Send(ctx, msg); err != nil {
			d.logger.WarnContext(ctx, "notification delivery failed",
				"transfer_id", msg.TransferID,
				"error", err,
			)
		}
	}
}

// LogSender stands in for a real SMS/email gateway in dev mode.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "notification",
		"recipient", msg.Recipient,
		"transfer_id", msg.TransferID,
		"subject", msg.Subject,
	)
	return nil
}
