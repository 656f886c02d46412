// Package service defines the interfaces shared by the CLI, storage and exports.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// TransactionFilter narrows enriched-transaction queries. Zero values mean
// "no constraint".
type TransactionFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	MinAmount     *decimal.Decimal // on the absolute amount
	MaxAmount     *decimal.Decimal
	RunID         string // empty selects the latest completed run
	Category      string
	Merchant      string // case-insensitive substring
	Source        string
	SpendingType  model.SpendingType
	RefundStatus  model.RefundStatus
	Type          model.TransactionType
	Limit         int
	Offset        int
	RecurringOnly bool
}

// Storage defines the contract for the ledger's persistence layer.
type Storage interface {
	// Raw imports
	SaveRawTransactions(ctx context.Context, rows []model.RawTransaction) (int, error)
	GetRawTransactions(ctx context.Context) ([]model.RawTransaction, error)
	RawTransactionCount(ctx context.Context) (int, error)

	// Enrichment runs
	SaveEnrichmentRun(ctx context.Context, run *model.EnrichmentRun, rows []model.EnrichedTransaction) error
	LatestRun(ctx context.Context) (*model.EnrichmentRun, error)
	GetRun(ctx context.Context, id string) (*model.EnrichmentRun, error)
	GetEnrichedTransactions(ctx context.Context, filter TransactionFilter) ([]model.EnrichedTransaction, error)
	PruneRuns(ctx context.Context, keep int) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range, inclusive. A zero bound
// is open.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}
