// Package service orchestrates the property-transfer workflow. Handlers stay
// thin; every rule lives here or in the models/stage packages beneath.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bhulekh/internal/anchor"
	"bhulekh/internal/audit"
	"bhulekh/internal/notify"
	"bhulekh/internal/registry"
	"bhulekh/internal/transfer/metrics"
	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/store"
	id "bhulekh/pkg/domain"
	dErrors "bhulekh/pkg/domain-errors"
	"bhulekh/pkg/platform/sentinel"
)

// AuditPublisher receives one event per accepted mutation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
	List(ctx context.Context, transferID string) ([]audit.Event, error)
}

// Notifier delivers best-effort messages; it never returns an error.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message)
}

// Service carries the workflow dependencies. The store is required;
// everything else degrades gracefully when absent.
type Service struct {
	store    store.Store
	audits   AuditPublisher
	anchors  anchor.Enqueuer
	ledger   anchor.HistoryReader
	notifier Notifier
	registry registry.Client
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audits = p }
}

func WithAnchors(e anchor.Enqueuer) Option {
	return func(s *Service) { s.anchors = e }
}

func WithLedgerReader(r anchor.HistoryReader) Option {
	return func(s *Service) { s.ledger = r }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithRegistry(c registry.Client) Option {
	return func(s *Service) { s.registry = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs a Service.
func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("transfer store is required")
	}
	s := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// save writes the mutated record and translates store sentinels into the
// caller-facing taxonomy.
func (s *Service) save(ctx context.Context, rec *models.TransferRecord) error {
	err := s.store.Update(ctx, rec)
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrVersionConflict) {
		if s.metrics != nil {
			s.metrics.VersionConflicts.Inc()
		}
		return dErrors.Newf(dErrors.CodeConflict,
			"transfer %s was modified concurrently; re-read and retry", rec.TransferID)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "transfer %s not found", rec.TransferID)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist transfer")
}

func (s *Service) load(ctx context.Context, transferID id.TransferID) (*models.TransferRecord, error) {
	rec, err := s.store.Get(ctx, transferID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "transfer %s not found", transferID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer")
	}
	return rec, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audits != nil {
		s.audits.Emit(ctx, event)
	}
}

func (s *Service) enqueueAnchor(rec *models.TransferRecord, milestone anchor.Milestone, extra map[string]string) {
	if s.anchors == nil {
		return
	}
	meta := map[string]string{"scheme": anchor.HashScheme}
	for k, v := range extra {
		meta[k] = v
	}
	s.anchors.Enqueue(anchor.Submission{
		Milestone:  milestone,
		TransferID: rec.TransferID,
		DataHash:   anchor.CanonicalHash(rec, extra),
		Metadata:   meta,
	})
}

func (s *Service) notifyParties(ctx context.Context, rec *models.TransferRecord, subject, body string) {
	if s.notifier == nil {
		return
	}
	for _, recipient := range []string{rec.Seller.Phone, rec.Buyer.Phone} {
		s.notifier.Notify(ctx, notify.Message{
			Recipient:  recipient,
			TransferID: rec.TransferID,
			Subject:    subject,
			Body:       body,
		})
	}
}

func auditDetails(pairs ...string) map[string]string {
	details := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			details[pairs[i]] = pairs[i+1]
		}
	}
	return details
}

func newAuditEntry(action audit.Action, actor string, now time.Time, details map[string]string, origin string) models.AuditEntry {
	return models.AuditEntry{
		Action:      string(action),
		PerformedBy: actor,
		Timestamp:   now,
		Details:     details,
		Origin:      origin,
	}
}
