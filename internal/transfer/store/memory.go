package store

import (
	"context"
	"sync"
	"time"

	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
	"bhulekh/pkg/platform/sentinel"
)

// InMemory keeps records in a map guarded by a RWMutex. It mirrors the
// postgres store's versioning semantics exactly so the service suites
// exercise the same concurrency behavior the production store enforces.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.TransferID]*models.TransferRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.TransferID]*models.TransferRecord)}
}

func (s *InMemory) Create(_ context.Context, rec *models.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.TransferID]; exists {
		return sentinel.ErrVersionConflict
	}
	s.records[rec.TransferID] = rec.Clone()
	return nil
}

func (s *InMemory) Get(_ context.Context, transferID id.TransferID) (*models.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[transferID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, rec *models.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.records[rec.TransferID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != rec.Version {
		return sentinel.ErrVersionConflict
	}
	rec.Version++
	s.records[rec.TransferID] = rec.Clone()
	return nil
}

func (s *InMemory) FindByParty(_ context.Context, accountRef string) ([]*models.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []*models.TransferRecord
	for _, rec := range s.records {
		if accountRef != "" && (rec.Seller.AccountRef == accountRef || rec.Buyer.AccountRef == accountRef) {
			found = append(found, rec.Clone())
		}
	}
	return found, nil
}

func (s *InMemory) FindActiveAtStage(_ context.Context, at stage.Stage) ([]*models.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []*models.TransferRecord
	for _, rec := range s.records {
		if rec.Status == models.StatusActive && rec.CurrentStage == at {
			found = append(found, rec.Clone())
		}
	}
	return found, nil
}

func (s *InMemory) AttachAnchorRef(_ context.Context, transferID id.TransferID, milestone, txRef string, confirmedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[transferID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.AttachAnchorRef(models.AnchorRef{Milestone: milestone, TxRef: txRef, ConfirmedAt: confirmedAt})
	rec.Version++
	return nil
}
