package enrich

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/rules"
)

var baseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return baseDate.AddDate(0, 0, n)
}

type rawOption func(*model.RawTransaction)

func onDay(n int) rawOption {
	return func(r *model.RawTransaction) { r.TransactionDate = day(n) }
}

func fromSource(source string) rawOption {
	return func(r *model.RawTransaction) { r.Source = source }
}

func withCategory(category string) rawOption {
	return func(r *model.RawTransaction) { r.CategorySource = category }
}

func rawTxn(description, amount string, account model.AccountType, opts ...rawOption) model.RawTransaction {
	r := model.RawTransaction{
		TransactionDate: baseDate,
		Description:     description,
		Amount:          decimal.RequireFromString(amount),
		Source:          "Chase_1234",
		AccountID:       "1234",
		AccountType:     account,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func batch(rows ...model.RawTransaction) []model.RawTransaction {
	model.AssignIDs(rows)
	return rows
}

func compiledDefaults(t *testing.T) *rules.Compiled {
	t.Helper()
	compiled, err := rules.Default().Compile()
	require.NoError(t, err)
	return compiled
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(rules.Default())
	require.NoError(t, err)
	return p
}

func toEnriched(raws []model.RawTransaction) []model.EnrichedTransaction {
	rows := make([]model.EnrichedTransaction, len(raws))
	for i := range raws {
		rows[i] = model.NewEnriched(raws[i])
	}
	return rows
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
