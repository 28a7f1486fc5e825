package models

import "github.com/google/uuid"

// Account is a checking account hosted by the account service. Credential
// material lives with the excluded auth stack; movements only care about the
// active flag.
type Account struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Number     int       `json:"number" db:"number"` // human-readable sequential number
	HolderName string    `json:"holderName" db:"holder_name"`
	Active     bool      `json:"active" db:"active"`
}
