package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transfer is the transfer service's immutable record of a completed
// cross-service transfer. It is written only after the remote credit leg
// succeeded; account ids are plain references, not foreign keys.
type Transfer struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	OriginAccountID      uuid.UUID       `json:"originAccountId" db:"origin_account_id"`
	DestinationAccountID uuid.UUID       `json:"destinationAccountId" db:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	MovedAt              time.Time       `json:"movedAt" db:"moved_at"`
}

// TransferMovementResult is the data payload the account service returns for
// a transfer credit, and what the transfer saga parses out of the remote
// response.
type TransferMovementResult struct {
	DestinationAccountID uuid.UUID `json:"destinationAccountId"`
	MovementTimestamp    time.Time `json:"movementTimestamp"`
}

// BalanceResult is the data payload of the balance query.
type BalanceResult struct {
	AccountNumber  int             `json:"accountNumber"`
	HolderName     string          `json:"holderName"`
	Balance        decimal.Decimal `json:"balance"`
	QueryTimestamp time.Time       `json:"queryTimestamp"`
}
