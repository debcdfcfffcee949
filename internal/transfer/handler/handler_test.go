package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"bhulekh/internal/audit"
	auditmemory "bhulekh/internal/audit/store/memory"
	httpapi "bhulekh/internal/http"
	"bhulekh/internal/transfer/handler"
	"bhulekh/internal/transfer/service"
	"bhulekh/internal/transfer/store"
)

type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(store.NewInMemory(),
		service.WithAuditPublisher(audit.NewPublisher(auditmemory.NewInMemoryStore(), logger)),
		service.WithLogger(logger),
	)
	s.Require().NoError(err)

	s.router = httpapi.NewRouter(httpapi.Options{
		Transfers: handler.New(svc, logger),
		Logger:    logger,
	})
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "official-1")
	req.Header.Set("X-Origin", "web")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *HandlerSuite) initiateBody() map[string]any {
	return map[string]any{
		"property_ref":  "PROP-42",
		"transfer_type": "sale",
		"sale_amount":   500000,
		"jurisdiction":  "Maharashtra",
		"seller": map[string]any{
			"name": "Asha Rao", "account_ref": "ACCT-S", "consent_given": true,
		},
		"buyer": map[string]any{
			"name": "Vikram Singh", "account_ref": "ACCT-B", "consent_given": true,
		},
		"witnesses": []map[string]any{{"name": "W One"}, {"name": "W Two"}},
	}
}

func (s *HandlerSuite) mustInitiate() string {
	rec := s.do(http.MethodPost, "/transfers", s.initiateBody())
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return s.decode(rec)["transfer_id"].(string)
}

func (s *HandlerSuite) TestInitiate() {
	s.Run("creates a transfer", func() {
		rec := s.do(http.MethodPost, "/transfers", s.initiateBody())
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

		body := s.decode(rec)
		s.Contains(body["transfer_id"], "TRF-")
		s.Equal("initiated", body["current_stage"])
		s.Equal("active", body["status"])
	})

	s.Run("malformed JSON is a 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("bad_request", s.decode(rec)["error"])
	})

	s.Run("validation failures are a 422", func() {
		body := s.initiateBody()
		body["sale_amount"] = 0
		rec := s.do(http.MethodPost, "/transfers", body)

		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Equal("validation", s.decode(rec)["error"])
	})

	s.Run("wrong content type is rejected", func() {
		req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString("property_ref=PROP-42"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusUnsupportedMediaType, rec.Code)
	})
}

func (s *HandlerSuite) TestGet() {
	s.Run("round trips a transfer", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodGet, "/transfers/"+transferID, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal(transferID, s.decode(rec)["transfer_id"])
	})

	s.Run("missing transfer is a 404", func() {
		rec := s.do(http.MethodGet, "/transfers/TRF-0-missing", nil)
		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal("not_found", s.decode(rec)["error"])
	})

	s.Run("malformed id is a 400", func() {
		rec := s.do(http.MethodGet, "/transfers/not-an-id", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestAdvance() {
	s.Run("advances along the path", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/advance", transferID),
			map[string]any{"target_stage": "agreement_signed"})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		s.Equal("agreement_signed", s.decode(rec)["current_stage"])
	})

	s.Run("illegal jumps are a 409", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/advance", transferID),
			map[string]any{"target_stage": "registration_complete"})
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("invalid_transition", s.decode(rec)["error"])
	})
}

func (s *HandlerSuite) TestApprovals() {
	s.Run("records a sign-off", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/approvals", transferID),
			map[string]any{"stage": "surveyor_approved", "approver_role": "surveyor"})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	})

	s.Run("role mismatch is a 403", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/approvals", transferID),
			map[string]any{"stage": "tehsildar_approved", "approver_role": "surveyor"})
		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal("unauthorized", s.decode(rec)["error"])
	})
}

func (s *HandlerSuite) TestLifecycle() {
	s.Run("cancel then mutate is a 409", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/cancel", transferID),
			map[string]any{"reason": "withdrawn"})
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal("cancelled", s.decode(rec)["status"])

		rec = s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/advance", transferID),
			map[string]any{"target_stage": "agreement_signed"})
		s.Equal(http.StatusConflict, rec.Code)
		s.Equal("terminal_state", s.decode(rec)["error"])
	})

	s.Run("hold and resume", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/hold", transferID),
			map[string]any{"disputed": true, "reason": "ownership contested"})
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal("disputed", s.decode(rec)["status"])

		rec = s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/resume", transferID), map[string]any{})
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal("active", s.decode(rec)["status"])
	})

	s.Run("payment receipts are recorded once", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/payments", transferID),
			map[string]any{"fee": "stamp_duty", "receipt_ref": "RCPT-1"})
		s.Require().Equal(http.StatusOK, rec.Code)

		rec = s.do(http.MethodPost, fmt.Sprintf("/transfers/%s/payments", transferID),
			map[string]any{"fee": "stamp_duty", "receipt_ref": "RCPT-2"})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})
}

func (s *HandlerSuite) TestQueries() {
	s.Run("lists by party", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodGet, "/transfers?party=ACCT-S", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		body := s.decode(rec)
		s.EqualValues(1, body["count"])
		transfers := body["transfers"].([]any)
		s.Equal(transferID, transfers[0].(map[string]any)["transfer_id"])
	})

	s.Run("pending approvals validates the role", func() {
		rec := s.do(http.MethodGet, "/approvals/pending?role=clerk", nil)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("fee quote", func() {
		rec := s.do(http.MethodGet, "/fees/quote?jurisdiction=Maharashtra&sale_amount=1000000&guidance_value=900000", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		body := s.decode(rec)
		s.EqualValues(60000, body["stamp_duty"])
		s.EqualValues(10000, body["registration_fee"])
		s.EqualValues(1000, body["mutation_fee"])
	})

	s.Run("verification history", func() {
		transferID := s.mustInitiate()
		rec := s.do(http.MethodGet, fmt.Sprintf("/transfers/%s/history", transferID), nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		body := s.decode(rec)
		s.NotNil(body["record"])
		s.NotEmpty(body["trail"])
	})
}

func (s *HandlerSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, rec.Code)
}
