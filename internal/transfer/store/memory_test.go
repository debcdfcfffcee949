package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
	"bhulekh/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	now   time.Time
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newRecord(transferID id.TransferID) *models.TransferRecord {
	rec, err := models.NewTransferRecord(
		transferID, "PROP-42", models.TypeSale,
		models.Party{Name: "Asha Rao", AccountRef: "ACCT-S", Consent: models.Consent{Given: true}},
		models.Party{Name: "Vikram Singh", AccountRef: "ACCT-B", Consent: models.Consent{Given: true}},
		s.now,
	)
	s.Require().NoError(err)
	rec.SaleAmount = 500_000
	return rec
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	ctx := context.Background()

	s.Run("round trips a record", func() {
		rec := s.newRecord("TRF-1-aaaa")
		s.Require().NoError(s.store.Create(ctx, rec))

		got, err := s.store.Get(ctx, "TRF-1-aaaa")
		s.Require().NoError(err)
		s.Equal(rec.TransferID, got.TransferID)
		s.EqualValues(1, got.Version)
	})

	s.Run("returned records are private copies", func() {
		rec := s.newRecord("TRF-1-bbbb")
		s.Require().NoError(s.store.Create(ctx, rec))

		got, err := s.store.Get(ctx, "TRF-1-bbbb")
		s.Require().NoError(err)
		got.Seller.Name = "Tampered"

		again, err := s.store.Get(ctx, "TRF-1-bbbb")
		s.Require().NoError(err)
		s.Equal("Asha Rao", again.Seller.Name)
	})

	s.Run("missing records return ErrNotFound", func() {
		_, err := s.store.Get(ctx, "TRF-0-missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate create conflicts", func() {
		rec := s.newRecord("TRF-1-cccc")
		s.Require().NoError(s.store.Create(ctx, rec))
		s.Require().ErrorIs(s.store.Create(ctx, s.newRecord("TRF-1-cccc")), sentinel.ErrVersionConflict)
	})
}

func (s *MemoryStoreSuite) TestUpdateVersioning() {
	ctx := context.Background()

	s.Run("accepted writes advance the version", func() {
		rec := s.newRecord("TRF-2-aaaa")
		s.Require().NoError(s.store.Create(ctx, rec))

		got, err := s.store.Get(ctx, rec.TransferID)
		s.Require().NoError(err)
		got.ApplyAdvance(stage.AgreementSigned, s.now.Add(time.Hour))
		s.Require().NoError(s.store.Update(ctx, got))
		s.EqualValues(2, got.Version)

		stored, err := s.store.Get(ctx, rec.TransferID)
		s.Require().NoError(err)
		s.EqualValues(2, stored.Version)
		s.Equal(stage.AgreementSigned, stored.CurrentStage)
	})

	s.Run("stale writes conflict", func() {
		rec := s.newRecord("TRF-2-bbbb")
		s.Require().NoError(s.store.Create(ctx, rec))

		first, err := s.store.Get(ctx, rec.TransferID)
		s.Require().NoError(err)
		second, err := s.store.Get(ctx, rec.TransferID)
		s.Require().NoError(err)

		s.Require().NoError(s.store.Update(ctx, first))
		s.Require().ErrorIs(s.store.Update(ctx, second), sentinel.ErrVersionConflict)
	})

	s.Run("exactly one of many concurrent writers wins", func() {
		rec := s.newRecord("TRF-2-cccc")
		s.Require().NoError(s.store.Create(ctx, rec))

		const writers = 16
		var wg sync.WaitGroup
		results := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := s.store.Get(ctx, rec.TransferID)
				if err != nil {
					results <- err
					return
				}
				got.ApplyHold(models.StatusOnHold, s.now)
				results <- s.store.Update(ctx, got)
			}()
		}
		wg.Wait()
		close(results)

		wins, conflicts := 0, 0
		for err := range results {
			switch {
			case err == nil:
				wins++
			default:
				s.Require().ErrorIs(err, sentinel.ErrVersionConflict)
				conflicts++
			}
		}
		s.Equal(1, wins)
		s.Equal(writers-1, conflicts)
	})
}

func (s *MemoryStoreSuite) TestQueries() {
	ctx := context.Background()

	s.Run("finds transfers by either party side", func() {
		s.Require().NoError(s.store.Create(ctx, s.newRecord("TRF-3-aaaa")))

		other := s.newRecord("TRF-3-bbbb")
		other.Seller.AccountRef = "ACCT-X"
		other.Buyer.AccountRef = "ACCT-S"
		s.Require().NoError(s.store.Create(ctx, other))

		found, err := s.store.FindByParty(ctx, "ACCT-S")
		s.Require().NoError(err)
		s.Len(found, 2)

		found, err = s.store.FindByParty(ctx, "ACCT-X")
		s.Require().NoError(err)
		s.Len(found, 1)

		found, err = s.store.FindByParty(ctx, "")
		s.Require().NoError(err)
		s.Empty(found)
	})

	s.Run("finds only active transfers at a stage", func() {
		pending := s.newRecord("TRF-3-cccc")
		pending.ApplyAdvance(stage.AgreementSigned, s.now)
		s.Require().NoError(s.store.Create(ctx, pending))

		held := s.newRecord("TRF-3-dddd")
		held.ApplyAdvance(stage.AgreementSigned, s.now)
		held.ApplyHold(models.StatusOnHold, s.now)
		s.Require().NoError(s.store.Create(ctx, held))

		found, err := s.store.FindActiveAtStage(ctx, stage.AgreementSigned)
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal(pending.TransferID, found[0].TransferID)
	})
}

func (s *MemoryStoreSuite) TestAttachAnchorRef() {
	ctx := context.Background()
	rec := s.newRecord("TRF-4-aaaa")
	s.Require().NoError(s.store.Create(ctx, rec))

	s.Run("appends the receipt and bumps the version", func() {
		s.Require().NoError(s.store.AttachAnchorRef(ctx, rec.TransferID, "initiation", "LEDGER-TX-1", s.now))

		got, err := s.store.Get(ctx, rec.TransferID)
		s.Require().NoError(err)
		s.Require().Len(got.AnchorRefs, 1)
		s.Equal("LEDGER-TX-1", got.AnchorRefs[0].TxRef)
		s.EqualValues(2, got.Version)
	})

	s.Run("missing records return ErrNotFound", func() {
		s.Require().ErrorIs(s.store.AttachAnchorRef(ctx, "TRF-0-missing", "initiation", "TX", s.now), sentinel.ErrNotFound)
	})
}
