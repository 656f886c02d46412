package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// TransactionFetcher defines the contract for fetching transaction data.
type TransactionFetcher interface {
	Transactions(ctx context.Context, startDate, endDate time.Time) ([]model.RawTransaction, error)
	Accounts(ctx context.Context) ([]Account, error)
}
