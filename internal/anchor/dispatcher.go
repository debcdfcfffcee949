package anchor

import (
	"context"
	"log/slog"
	"time"

	id "bhulekh/pkg/domain"
	"bhulekh/pkg/platform/circuit"
)

// RefWriter attaches a confirmed receipt to the transfer record. The store
// layer implements it with its own version-checked write so a confirmation
// can never clobber a concurrent workflow mutation.
type RefWriter interface {
	AttachAnchorRef(ctx context.Context, transferID id.TransferID, milestone, txRef string, confirmedAt time.Time) error
}

// Enqueuer is the surface workflow code sees: hand over a submission and
// move on.
type Enqueuer interface {
	Enqueue(sub Submission)
}

// Dispatcher delivers submissions to the ledger off the request path. A
// bounded channel decouples workflow operations from ledger latency; the
// circuit breaker sheds calls during an outage; the retry queue holds
// everything that could not be delivered.
type Dispatcher struct {
	anchorer Anchorer
	refs     RefWriter
	queue    RetryQueue
	breaker  *circuit.Breaker
	metrics  *Metrics
	logger   *slog.Logger

	inbox         chan Submission
	maxAttempts   int
	retryInterval time.Duration
	callTimeout   time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithMaxAttempts(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.retryInterval = interval
		}
	}
}

func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.callTimeout = timeout
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(d *Dispatcher) { d.breaker = b }
}

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher wires the delivery loop. queue may be memory- or
// redis-backed; refs receives confirmed receipts.
func NewDispatcher(anchorer Anchorer, refs RefWriter, queue RetryQueue, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		anchorer:      anchorer,
		refs:          refs,
		queue:         queue,
		logger:        logger,
		inbox:         make(chan Submission, 256),
		maxAttempts:   10,
		retryInterval: 30 * time.Second,
		callTimeout:   5 * time.Second,
		breaker:       circuit.New("anchor-ledger", circuit.WithFailureThreshold(5)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue hands a submission to the dispatcher without blocking. When the
// inbox is full the submission goes straight to the retry queue; the
// workflow operation has already completed either way.
func (d *Dispatcher) Enqueue(sub Submission) {
	if d.metrics != nil {
		d.metrics.Submitted.Inc()
	}
	select {
	case d.inbox <- sub:
	default:
		d.pushRetry(context.Background(), sub)
	}
}

// Run processes the inbox and periodically re-drives the retry backlog until
// ctx ends.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub := <-d.inbox:
			d.process(ctx, sub)
		case <-ticker.C:
			d.drainRetries(ctx)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, sub Submission) {
	if !d.breaker.Allow() {
		d.pushRetry(ctx, sub)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	receipt, err := d.anchorer.Submit(callCtx, sub)
	cancel()

	if err != nil {
		if d.metrics != nil {
			d.metrics.Failed.Inc()
		}
		_, change := d.breaker.RecordFailure()
		if change.Opened {
			if d.metrics != nil {
				d.metrics.BreakerOpens.Inc()
			}
			d.logger.WarnContext(ctx, "anchor ledger circuit opened",
				"transfer_id", sub.TransferID)
		}

		sub.Attempts++
		if sub.Attempts >= d.maxAttempts {
			if d.metrics != nil {
				d.metrics.Dropped.Inc()
			}
			d.logger.ErrorContext(ctx, "anchor submission abandoned",
				"transfer_id", sub.TransferID,
				"milestone", sub.Milestone,
				"attempts", sub.Attempts,
				"error", err,
			)
			return
		}
		d.pushRetry(ctx, sub)
		return
	}

	d.breaker.RecordSuccess()
	if d.metrics != nil {
		d.metrics.Confirmed.Inc()
	}
	if err := d.refs.AttachAnchorRef(ctx, sub.TransferID, string(sub.Milestone), receipt.TxRef, receipt.ConfirmedAt); err != nil {
		d.logger.ErrorContext(ctx, "failed to attach anchor receipt",
			"transfer_id", sub.TransferID,
			"tx_ref", receipt.TxRef,
			"error", err,
		)
	}
}

func (d *Dispatcher) drainRetries(ctx context.Context) {
	subs, err := d.queue.Pop(ctx, 32)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to read anchor retry queue", "error", err)
		return
	}
	for _, sub := range subs {
		d.process(ctx, sub)
	}
}

func (d *Dispatcher) pushRetry(ctx context.Context, sub Submission) {
	if d.metrics != nil {
		d.metrics.Retried.Inc()
	}
	if err := d.queue.Push(ctx, sub); err != nil {
		if d.metrics != nil {
			d.metrics.Dropped.Inc()
		}
		d.logger.ErrorContext(ctx, "anchor submission lost: retry queue unavailable",
			"transfer_id", sub.TransferID,
			"milestone", sub.Milestone,
			"error", err,
		)
	}
}
