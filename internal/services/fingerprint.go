package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fingerprints bind an idempotency key to the request that first used it.
// The same key with a different fingerprint is a conflict, never a replay.
// Amounts are fixed to 2 decimal places and the movement type is normalized
// so that formatting differences do not defeat replay detection.

func MovementFingerprint(origin uuid.UUID, destinationNumber *int, movementType string, amount decimal.Decimal) string {
	destination := ""
	if destinationNumber != nil {
		destination = strconv.Itoa(*destinationNumber)
	}
	return fmt.Sprintf("movement|%s|%s|%s|%s",
		origin, destination, NormalizeMovementType(movementType), amount.StringFixed(2))
}

func TransferFingerprint(origin uuid.UUID, destinationNumber int, amount decimal.Decimal) string {
	return fmt.Sprintf("transfer|%s|%d|%s", origin, destinationNumber, amount.StringFixed(2))
}

// NormalizeMovementType trims and upper-cases the raw token so "c", " C "
// and "C" all mean the same movement.
func NormalizeMovementType(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
