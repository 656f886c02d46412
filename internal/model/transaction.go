// Package model defines the core data structures for the ledger.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction is a single row produced by a source adapter. Amounts keep the
// source's native sign convention. Rows are never mutated after import.
type RawTransaction struct {
	TransactionDate   time.Time
	PostDate          *time.Time
	Amount            decimal.Decimal
	ID                string
	Description       string
	CategorySource    string // category as provided by the bank, if any
	Source            string // bank or export name, e.g. "Chase_1234"
	AccountID         string
	AccountType       AccountType
	AdditionalDetails string
}

// GenerateID creates a content hash for duplicate detection. The occurrence
// counter distinguishes identical rows inside the same export (two coffees on
// the same day) while keeping re-imports of the same file idempotent.
func (t *RawTransaction) GenerateID(occurrence int) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%d",
		t.TransactionDate.Format("2006-01-02"),
		t.Amount.String(),
		t.Description,
		t.Source,
		t.AccountID,
		occurrence)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// AssignIDs fills in the ID of every row that does not have one yet.
func AssignIDs(rows []RawTransaction) {
	seen := make(map[string]int, len(rows))
	for i := range rows {
		if rows[i].ID != "" {
			continue
		}
		key := rows[i].GenerateID(0)
		n := seen[key]
		seen[key] = n + 1
		if n == 0 {
			rows[i].ID = key
			continue
		}
		rows[i].ID = rows[i].GenerateID(n)
	}
}

// EnrichedTransaction is a RawTransaction after the enrichment pipeline.
// Raw is a snapshot of the input row and still carries the source sign.
type EnrichedTransaction struct {
	Raw                RawTransaction
	Amount             decimal.Decimal // normalized: outflow negative, inflow positive
	OriginalAmount     decimal.Decimal
	RefundedAmount     decimal.Decimal
	AbsoluteAmount     decimal.Decimal
	Type               TransactionType
	RefundStatus       RefundStatus
	RefundMatchID      string
	RecurringFrequency RecurringFrequency
	Category           string
	Subcategory        string
	Merchant           string
	SpendingType       SpendingType
	AmountBucket       string
	Month              string
	DayOfWeek          string
	IsRecurring        bool
	IsWeekend          bool
}

// NewEnriched starts an enriched row from a raw one with every enrichment
// column at its default.
func NewEnriched(raw RawTransaction) EnrichedTransaction {
	return EnrichedTransaction{
		Raw:            raw,
		Amount:         raw.Amount,
		OriginalAmount: raw.Amount,
		RefundedAmount: decimal.Zero,
		Type:           TypeCharge,
		RefundStatus:   RefundNone,
	}
}
