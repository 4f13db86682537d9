// Package ledger implements the destination ledger store: ledgers,
// account identities, and per-(account, ledger) balances backed by SQLite.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Ledger is a destination record representing one currency/unit-of-account.
type Ledger struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Prefix    string    `json:"prefix"`
	Suffix    string    `json:"suffix"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

// Spec describes a ledger to create. Empty display fields take defaults.
type Spec struct {
	ID     string
	Symbol string
	Prefix string
	Suffix string
	Icon   string
}

// Identity is the target-side record of an account.
type Identity struct {
	AccountID uuid.UUID `json:"account_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Balance is the quantity of one ledger held by one account.
type Balance struct {
	AccountID uuid.UUID `json:"account_id"`
	LedgerID  string    `json:"ledger_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats summarizes store contents for the operator surface.
type Stats struct {
	Ledgers    int     `json:"ledgers"`
	Identities int     `json:"identities"`
	Balances   int     `json:"balances"`
	Runs       int     `json:"runs"`
	TotalHeld  float64 `json:"total_held"`
}
