package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/aquabank/backend/internal/api"
	"github.com/aquabank/backend/internal/middleware"
	"github.com/aquabank/backend/internal/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountHandler exposes the account service's movement and balance
// endpoints over the transport-free MovementService.
type AccountHandler struct {
	movements *services.MovementService
	validator *services.ValidationHelper
}

func NewAccountHandler(movements *services.MovementService) *AccountHandler {
	return &AccountHandler{
		movements: movements,
		validator: services.NewValidationHelper(),
	}
}

type movementRequest struct {
	DestinationAccountNumber *int            `json:"destinationAccountNumber"`
	Amount                   decimal.Decimal `json:"amount"`
	MovementType             string          `json:"movementType" validate:"required"`
	IdempotencyKey           string          `json:"idempotencyKey" validate:"required,uuid"`
}

// CreateMovement posts a movement against the caller's account, or a
// credit to another account resolved by number.
func (h *AccountHandler) CreateMovement(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		resp := api.Fail(http.StatusUnauthorized, api.ErrUserUnauthorized, "Unauthorized")
		api.Write(w, resp)
		observe("movement", resp.StatusCode, start)
		return
	}

	var req movementRequest
	if resp, ok := decodeJSON(w, r, &req); !ok {
		api.Write(w, resp)
		observe("movement", resp.StatusCode, start)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		resp := api.Fail(http.StatusBadRequest, api.ErrInvalidValue, services.ValidationMessage(err))
		api.Write(w, resp)
		observe("movement", resp.StatusCode, start)
		return
	}
	key := uuid.MustParse(req.IdempotencyKey)

	resp := h.movements.Process(r.Context(), services.MovementInput{
		IdempotencyKey:    key,
		OriginAccountID:   accountID,
		DestinationNumber: req.DestinationAccountNumber,
		MovementType:      req.MovementType,
		Amount:            req.Amount,
	})
	api.Write(w, resp)
	observe("movement", resp.StatusCode, start)
}

// GetBalance reports the caller's derived balance.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		resp := api.Fail(http.StatusUnauthorized, api.ErrUserUnauthorized, "Unauthorized")
		api.Write(w, resp)
		observe("balance", resp.StatusCode, start)
		return
	}

	resp := h.movements.BalanceFor(r.Context(), accountID)
	api.Write(w, resp)
	observe("balance", resp.StatusCode, start)
}

// decodeJSON applies the shared request-body rules: size cap, unknown
// fields rejected, exactly one JSON object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) (api.Response, bool) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		log.Printf("[HTTP] Invalid request body: %v", err)
		return api.Fail(http.StatusBadRequest, api.ErrInvalidValue, "Invalid request body"), false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return api.Fail(http.StatusBadRequest, api.ErrInvalidValue, "Request body must only contain a single JSON object"), false
	}
	return api.Response{}, true
}
