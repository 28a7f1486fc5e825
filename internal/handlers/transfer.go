package handlers

import (
	"net/http"
	"time"

	"github.com/aquabank/backend/internal/api"
	"github.com/aquabank/backend/internal/middleware"
	"github.com/aquabank/backend/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferHandler exposes the transfer service's single endpoint.
type TransferHandler struct {
	transfers *services.TransferService
	validator *services.ValidationHelper
}

func NewTransferHandler(transfers *services.TransferService) *TransferHandler {
	return &TransferHandler{
		transfers: transfers,
		validator: services.NewValidationHelper(),
	}
}

type transferRequest struct {
	DestinationAccountNumber int             `json:"destinationAccountNumber" validate:"required"`
	Amount                   decimal.Decimal `json:"amount"`
	IdempotencyKey           string          `json:"idempotencyKey" validate:"required,uuid"`
}

// CreateTransfer runs the transfer saga for the authenticated caller.
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		resp := api.Fail(http.StatusUnauthorized, api.ErrUserUnauthorized, "Unauthorized")
		api.Write(w, resp)
		observe("transfer", resp.StatusCode, start)
		return
	}

	var req transferRequest
	if resp, ok := decodeJSON(w, r, &req); !ok {
		api.Write(w, resp)
		observe("transfer", resp.StatusCode, start)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		resp := api.Fail(http.StatusBadRequest, api.ErrInvalidValue, services.ValidationMessage(err))
		api.Write(w, resp)
		observe("transfer", resp.StatusCode, start)
		return
	}

	resp := h.transfers.Transfer(r.Context(), services.TransferInput{
		IdempotencyKey:    uuid.MustParse(req.IdempotencyKey),
		OriginAccountID:   accountID,
		DestinationNumber: req.DestinationAccountNumber,
		Amount:            req.Amount,
	})
	api.Write(w, resp)
	observe("transfer", resp.StatusCode, start)
}
