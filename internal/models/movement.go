package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType is the direction flag of a ledger entry.
type MovementType string

const (
	MovementCredit MovementType = "C"
	MovementDebit  MovementType = "D"
)

// ParseMovementType maps the wire token onto a direction flag. Tokens are
// trimmed and case-folded; anything other than "C" or "D" is rejected.
func ParseMovementType(s string) (MovementType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "C":
		return MovementCredit, true
	case "D":
		return MovementDebit, true
	default:
		return "", false
	}
}

// Movement is one immutable ledger entry. Amount is always positive; the
// direction lives in Type, never in the sign. Entries are never updated or
// deleted; balance is derived by folding them.
type Movement struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	AccountID       uuid.UUID       `json:"accountId" db:"account_id"`
	Type            MovementType    `json:"movementType" db:"movement_type"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	OriginAccountID uuid.UUID       `json:"originAccountId" db:"origin_account_id"` // display only
}
