package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// MockClient is a TransactionFetcher for tests.
type MockClient struct {
	TransactionsFn func(ctx context.Context, startDate, endDate time.Time) ([]model.RawTransaction, error)
	AccountsFn     func(ctx context.Context) ([]Account, error)

	TransactionsCalls []TransactionsCall
	AccountsCalls     int
}

// TransactionsCall records the parameters of a Transactions call.
type TransactionsCall struct {
	StartDate time.Time
	EndDate   time.Time
}

// NewMockClient creates a new mock Plaid client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Transactions implements TransactionFetcher.
func (m *MockClient) Transactions(ctx context.Context, startDate, endDate time.Time) ([]model.RawTransaction, error) {
	m.TransactionsCalls = append(m.TransactionsCalls, TransactionsCall{StartDate: startDate, EndDate: endDate})
	if m.TransactionsFn != nil {
		return m.TransactionsFn(ctx, startDate, endDate)
	}
	return []model.RawTransaction{}, nil
}

// Accounts implements TransactionFetcher.
func (m *MockClient) Accounts(ctx context.Context) ([]Account, error) {
	m.AccountsCalls++
	if m.AccountsFn != nil {
		return m.AccountsFn(ctx)
	}
	return []Account{}, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.TransactionsCalls = nil
	m.AccountsCalls = 0
}

var _ TransactionFetcher = (*MockClient)(nil)
