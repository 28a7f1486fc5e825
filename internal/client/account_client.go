package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aquabank/backend/internal/api"
	"github.com/aquabank/backend/internal/middleware"
	"github.com/aquabank/backend/internal/services"
	"github.com/shopspring/decimal"
)

// AccountServiceClient talks to the account service's movement endpoint on
// behalf of the transfer saga. The inbound caller's bearer token is taken
// from the request context and forwarded, so the remote leg runs under the
// same identity as the transfer request.
type AccountServiceClient struct {
	baseURL string
	http    *http.Client
}

func NewAccountServiceClient(baseURL string, timeout time.Duration) *AccountServiceClient {
	return &AccountServiceClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type movementRequest struct {
	DestinationAccountNumber int             `json:"destinationAccountNumber"`
	Amount                   decimal.Decimal `json:"amount"`
	MovementType             string          `json:"movementType"`
	IdempotencyKey           string          `json:"idempotencyKey"`
}

func (c *AccountServiceClient) SendMovement(ctx context.Context, req services.RemoteMovementRequest) (*api.Response, error) {
	payload, err := json.Marshal(movementRequest{
		DestinationAccountNumber: req.DestinationAccountNumber,
		Amount:                   req.Amount,
		MovementType:             req.MovementType,
		IdempotencyKey:           req.IdempotencyKey.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode movement request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/movements", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build movement request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token, ok := middleware.BearerTokenFromContext(ctx); ok {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call account service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return &api.Response{Success: true, StatusCode: http.StatusNoContent}, nil
	}

	var envelope api.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		log.Printf("[CLIENT] Unreadable account service response (status %d): %v", resp.StatusCode, err)
		return nil, fmt.Errorf("decode account service response: %w", err)
	}
	return &envelope, nil
}
