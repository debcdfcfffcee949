//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
	"bhulekh/pkg/platform/sentinel"
	"bhulekh/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	now   time.Time
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "transfers"))
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) newRecord(transferID id.TransferID) *models.TransferRecord {
	rec, err := models.NewTransferRecord(
		transferID, "PROP-42", models.TypeSale,
		models.Party{Name: "Asha Rao", AccountRef: "ACCT-S", Consent: models.Consent{Given: true}},
		models.Party{Name: "Vikram Singh", AccountRef: "ACCT-B", Consent: models.Consent{Given: true}},
		s.now,
	)
	s.Require().NoError(err)
	rec.SaleAmount = 500_000
	rec.Witnesses = []models.Witness{{Name: "W One"}, {Name: "W Two"}}
	return rec
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	rec := s.newRecord("TRF-1-aaaa")
	rec.AppendAudit(models.AuditEntry{Action: "transfer_initiated", PerformedBy: "official-1",
		Timestamp: s.now, Details: map[string]string{"transfer_type": "sale"}})
	s.Require().NoError(s.store.Create(ctx, rec))

	got, err := s.store.Get(ctx, rec.TransferID)
	s.Require().NoError(err)

	s.Equal(rec.TransferID, got.TransferID)
	s.Equal(rec.PropertyRef, got.PropertyRef)
	s.Equal(stage.Initiated, got.CurrentStage)
	s.EqualValues(1, got.Version)
	s.Len(got.Witnesses, 2)
	s.Require().Len(got.AuditLog, 1)
	s.Equal("sale", got.AuditLog[0].Details["transfer_type"])
	s.Require().Len(got.RequiredApprovals, 3)
	s.NoError(got.CheckStageInvariant())
}

func (s *PostgresStoreSuite) TestVersionedUpdate() {
	ctx := context.Background()
	rec := s.newRecord("TRF-2-aaaa")
	s.Require().NoError(s.store.Create(ctx, rec))

	s.Run("accepted writes advance the version", func() {
		got, err := s.store.Get(ctx, rec.TransferID)
		s.Require().NoError(err)
		got.ApplyAdvance(stage.AgreementSigned, s.now.Add(time.Hour))

		s.Require().NoError(s.store.Update(ctx, got))
		s.EqualValues(2, got.Version)

		stored, err := s.store.Get(ctx, rec.TransferID)
		s.Require().NoError(err)
		s.Equal(stage.AgreementSigned, stored.CurrentStage)
		s.EqualValues(2, stored.Version)
	})

	s.Run("stale writes conflict", func() {
		stale, err := s.store.Get(ctx, rec.TransferID)
		s.Require().NoError(err)
		fresh, err := s.store.Get(ctx, rec.TransferID)
		s.Require().NoError(err)

		fresh.ApplyHold(models.StatusOnHold, s.now)
		s.Require().NoError(s.store.Update(ctx, fresh))

		stale.ApplyHold(models.StatusDisputed, s.now)
		s.Require().ErrorIs(s.store.Update(ctx, stale), sentinel.ErrVersionConflict)
	})

	s.Run("updating a missing record is ErrNotFound", func() {
		ghost := s.newRecord("TRF-2-zzzz")
		s.Require().ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestQueries() {
	ctx := context.Background()

	first := s.newRecord("TRF-3-aaaa")
	s.Require().NoError(s.store.Create(ctx, first))

	second := s.newRecord("TRF-3-bbbb")
	second.Buyer.AccountRef = "ACCT-X"
	second.ApplyAdvance(stage.AgreementSigned, s.now)
	s.Require().NoError(s.store.Create(ctx, second))

	held := s.newRecord("TRF-3-cccc")
	held.ApplyAdvance(stage.AgreementSigned, s.now)
	held.ApplyHold(models.StatusOnHold, s.now)
	s.Require().NoError(s.store.Create(ctx, held))

	s.Run("by party matches either side", func() {
		found, err := s.store.FindByParty(ctx, "ACCT-S")
		s.Require().NoError(err)
		s.Len(found, 3)

		found, err = s.store.FindByParty(ctx, "ACCT-X")
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal(second.TransferID, found[0].TransferID)
	})

	s.Run("active at stage excludes held records", func() {
		found, err := s.store.FindActiveAtStage(ctx, stage.AgreementSigned)
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal(second.TransferID, found[0].TransferID)
	})
}

func (s *PostgresStoreSuite) TestAttachAnchorRef() {
	ctx := context.Background()
	rec := s.newRecord("TRF-4-aaaa")
	s.Require().NoError(s.store.Create(ctx, rec))

	s.Require().NoError(s.store.AttachAnchorRef(ctx, rec.TransferID, "initiation", "LEDGER-TX-1", s.now))

	got, err := s.store.Get(ctx, rec.TransferID)
	s.Require().NoError(err)
	s.Require().Len(got.AnchorRefs, 1)
	s.Equal("LEDGER-TX-1", got.AnchorRefs[0].TxRef)
	s.EqualValues(2, got.Version)
}
