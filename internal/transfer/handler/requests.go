package handler

import (
	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/service"
	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
	dErrors "bhulekh/pkg/domain-errors"
)

type partyRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	NationalID   string `json:"national_id,omitempty"`
	AccountRef   string `json:"account_ref,omitempty"`
	ConsentGiven bool   `json:"consent_given"`
}

type witnessRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	SignatureHash string `json:"signature_hash,omitempty"`
}

type initiateRequest struct {
	PropertyRef         string           `json:"property_ref"`
	TransferType        string           `json:"transfer_type"`
	Seller              partyRequest     `json:"seller"`
	Buyer               partyRequest     `json:"buyer"`
	Witnesses           []witnessRequest `json:"witnesses,omitempty"`
	SaleAmount          int64            `json:"sale_amount,omitempty"`
	MarketValue         int64            `json:"market_value,omitempty"`
	GuidanceValue       int64            `json:"guidance_value,omitempty"`
	Jurisdiction        string           `json:"jurisdiction,omitempty"`
	ExchangePropertyRef string           `json:"exchange_property_ref,omitempty"`
}

func (req initiateRequest) toParams() (service.InitiateParams, error) {
	propertyRef, err := id.ParsePropertyRef(req.PropertyRef)
	if err != nil {
		return service.InitiateParams{}, err
	}
	params := service.InitiateParams{
		PropertyRef:         propertyRef,
		TransferType:        models.TransferType(req.TransferType),
		Seller:              toPartyInput(req.Seller),
		Buyer:               toPartyInput(req.Buyer),
		SaleAmount:          req.SaleAmount,
		MarketValue:         req.MarketValue,
		GuidanceValue:       req.GuidanceValue,
		Jurisdiction:        req.Jurisdiction,
		ExchangePropertyRef: id.PropertyRef(req.ExchangePropertyRef),
	}
	for _, w := range req.Witnesses {
		params.Witnesses = append(params.Witnesses, service.WitnessInput{
			Name:          w.Name,
			Phone:         w.Phone,
			SignatureHash: w.SignatureHash,
		})
	}
	return params, nil
}

func toPartyInput(p partyRequest) service.PartyInput {
	return service.PartyInput{
		Name:         p.Name,
		Phone:        p.Phone,
		Email:        p.Email,
		NationalID:   p.NationalID,
		AccountRef:   p.AccountRef,
		ConsentGiven: p.ConsentGiven,
	}
}

type approvalRequest struct {
	Stage            string   `json:"stage"`
	ApproverRole     string   `json:"approver_role"`
	SignatureHash    string   `json:"signature_hash,omitempty"`
	Remarks          string   `json:"remarks,omitempty"`
	AttachmentHashes []string `json:"attachment_hashes,omitempty"`
}

func (req approvalRequest) toInput() service.ApprovalInput {
	return service.ApprovalInput{
		Stage:            stage.ApprovalStage(req.Stage),
		ApproverRole:     stage.Role(req.ApproverRole),
		SignatureHash:    req.SignatureHash,
		Remarks:          req.Remarks,
		AttachmentHashes: req.AttachmentHashes,
	}
}

type advanceRequest struct {
	TargetStage string           `json:"target_stage"`
	Approval    *approvalRequest `json:"approval,omitempty"`
}

type terminateRequest struct {
	Reason string `json:"reason"`
}

type holdRequest struct {
	Disputed bool   `json:"disputed,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type paymentRequest struct {
	Fee        string `json:"fee"`
	ReceiptRef string `json:"receipt_ref"`
}

func (req paymentRequest) kind() (models.FeeKind, error) {
	switch kind := models.FeeKind(req.Fee); kind {
	case models.FeeStampDuty, models.FeeRegistrationFee, models.FeeMutationFee:
		return kind, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown fee bucket %q", req.Fee)
	}
}
