package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	Timestamp      time.Time       `json:"timestamp"`
	EventType      string          `json:"event_type"`
	IdempotencyKey string          `json:"idempotency_key"`
	AccountID      string          `json:"account_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	Details        any             `json:"details"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogMovement(key, accountID string, movementType string, amount decimal.Decimal, status string) {
	event := Event{
		Timestamp:      time.Now(),
		EventType:      "MOVEMENT",
		IdempotencyKey: key,
		AccountID:      accountID,
		Amount:         amount,
		Status:         status,
		Details: map[string]string{
			"movement_type": movementType,
		},
	}
	a.log(event)
}

func (a *Logger) LogTransfer(key, fromAccount, toAccount string, amount decimal.Decimal, status string) {
	event := Event{
		Timestamp:      time.Now(),
		EventType:      "TRANSFER",
		IdempotencyKey: key,
		Amount:         amount,
		Status:         status,
		Details: map[string]string{
			"from_account": fromAccount,
			"to_account":   toAccount,
		},
	}
	a.log(event)
}

func (a *Logger) LogError(key, accountID string, err error) {
	event := Event{
		Timestamp:      time.Now(),
		EventType:      "ERROR",
		IdempotencyKey: key,
		AccountID:      accountID,
		Status:         "FAILED",
		Details:        map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
