// Package handler is the HTTP surface for the transfer workflow. Handlers
// decode, delegate, and translate; every rule lives in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bhulekh/internal/transfer/fees"
	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/service"
	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
	dErrors "bhulekh/pkg/domain-errors"
	"bhulekh/pkg/platform/httputil"
	"bhulekh/pkg/requestcontext"
)

// Service is the workflow surface the handler needs.
type Service interface {
	Initiate(ctx context.Context, params service.InitiateParams) (*models.TransferRecord, error)
	Get(ctx context.Context, transferID id.TransferID) (*models.TransferRecord, error)
	AdvanceStage(ctx context.Context, transferID id.TransferID, target stage.Stage, approval *service.ApprovalInput) (*models.TransferRecord, error)
	AddApproval(ctx context.Context, transferID id.TransferID, input service.ApprovalInput) (*models.TransferRecord, error)
	Reject(ctx context.Context, transferID id.TransferID, reason string) (*models.TransferRecord, error)
	Cancel(ctx context.Context, transferID id.TransferID, reason string) (*models.TransferRecord, error)
	Hold(ctx context.Context, transferID id.TransferID, disputed bool, reason string) (*models.TransferRecord, error)
	Resume(ctx context.Context, transferID id.TransferID) (*models.TransferRecord, error)
	RecordPayment(ctx context.Context, transferID id.TransferID, kind models.FeeKind, receiptRef string) (*models.TransferRecord, error)
	ListByParty(ctx context.Context, accountRef string) ([]*models.TransferRecord, error)
	ListPendingApprovals(ctx context.Context, role string) ([]*models.TransferRecord, error)
	CalculateFees(ctx context.Context, jurisdiction string, saleAmount, guidanceValue int64) (fees.Schedule, error)
	VerificationHistory(ctx context.Context, transferID id.TransferID) (*service.History, error)
}

// Handler handles transfer endpoints.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

// New creates a transfer Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Register mounts the transfer routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/transfers", func(r chi.Router) {
		r.Post("/", h.handleInitiate)
		r.Get("/", h.handleListByParty)
		r.Route("/{transferID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Get("/history", h.handleHistory)
			r.Post("/advance", h.handleAdvance)
			r.Post("/approvals", h.handleAddApproval)
			r.Post("/reject", h.handleReject)
			r.Post("/cancel", h.handleCancel)
			r.Post("/hold", h.handleHold)
			r.Post("/resume", h.handleResume)
			r.Post("/payments", h.handleRecordPayment)
		})
	})
	r.Get("/approvals/pending", h.handleListPendingApprovals)
	r.Get("/fees/quote", h.handleFeeQuote)
}

func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDecodeError(ctx, w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.svc.Initiate(ctx, params)
	if err != nil {
		h.writeServiceError(ctx, w, "initiate transfer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.svc.Get(ctx, transferID)
	if err != nil {
		h.writeServiceError(ctx, w, "get transfer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.svc.VerificationHistory(ctx, transferID)
	if err != nil {
		h.writeServiceError(ctx, w, "load verification history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDecodeError(ctx, w, err)
		return
	}
	var approval *service.ApprovalInput
	if req.Approval != nil {
		input := req.Approval.toInput()
		approval = &input
	}

	rec, err := h.svc.AdvanceStage(ctx, transferID, stage.Stage(req.TargetStage), approval)
	if err != nil {
		h.writeServiceError(ctx, w, "advance transfer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleAddApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req approvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDecodeError(ctx, w, err)
		return
	}

	rec, err := h.svc.AddApproval(ctx, transferID, req.toInput())
	if err != nil {
		h.writeServiceError(ctx, w, "record approval", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.terminate(w, r, h.svc.Reject, "reject transfer")
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.terminate(w, r, h.svc.Cancel, "cancel transfer")
}

func (h *Handler) terminate(w http.ResponseWriter, r *http.Request,
	op func(context.Context, id.TransferID, string) (*models.TransferRecord, error), what string) {
	ctx := r.Context()
	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req terminateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDecodeError(ctx, w, err)
		return
	}

	rec, err := op(ctx, transferID, req.Reason)
	if err != nil {
		h.writeServiceError(ctx, w, what, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleHold(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req holdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDecodeError(ctx, w, err)
		return
	}

	rec, err := h.svc.Hold(ctx, transferID, req.Disputed, req.Reason)
	if err != nil {
		h.writeServiceError(ctx, w, "hold transfer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.svc.Resume(ctx, transferID)
	if err != nil {
		h.writeServiceError(ctx, w, "resume transfer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDecodeError(ctx, w, err)
		return
	}
	kind, err := req.kind()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.svc.RecordPayment(ctx, transferID, kind, req.ReceiptRef)
	if err != nil {
		h.writeServiceError(ctx, w, "record payment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleListByParty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountRef := r.URL.Query().Get("party")
	recs, err := h.svc.ListByParty(ctx, accountRef)
	if err != nil {
		h.writeServiceError(ctx, w, "list transfers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Transfers: recs, Count: len(recs)})
}

func (h *Handler) handleListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := r.URL.Query().Get("role")
	recs, err := h.svc.ListPendingApprovals(ctx, role)
	if err != nil {
		h.writeServiceError(ctx, w, "list pending approvals", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Transfers: recs, Count: len(recs)})
}

func (h *Handler) handleFeeQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	saleAmount, err := parseAmount(q.Get("sale_amount"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	guidanceValue, err := parseAmount(q.Get("guidance_value"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	schedule, err := h.svc.CalculateFees(ctx, q.Get("jurisdiction"), saleAmount, guidanceValue)
	if err != nil {
		h.writeServiceError(ctx, w, "quote fees", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, schedule)
}

type listResponse struct {
	Transfers []*models.TransferRecord `json:"transfers"`
	Count     int                      `json:"count"`
}

func parseAmount(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "amount %q is not a whole number", raw)
	}
	return n, nil
}

func (h *Handler) writeDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.WarnContext(ctx, "invalid request body",
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, what string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "request failed",
			"operation", what,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "request rejected",
			"operation", what,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
