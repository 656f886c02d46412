package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

var testDay = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Helper function to create test transactions.
func createTestTransactions(count int) []model.RawTransaction {
	txns := make([]model.RawTransaction, count)
	for i := range txns {
		txns[i] = model.RawTransaction{
			TransactionDate: testDay.AddDate(0, 0, i),
			Description:     "MERCHANT " + string(rune('A'+i)),
			Amount:          decimal.NewFromInt(int64(i+1) * 10).Add(decimal.RequireFromString("0.25")),
			CategorySource:  "Shopping",
			Source:          "Amex_1005",
			AccountID:       "1005",
			AccountType:     model.AccountCreditCard,
		}
	}
	model.AssignIDs(txns)
	return txns
}

func enrichedFrom(raws []model.RawTransaction) []model.EnrichedTransaction {
	rows := make([]model.EnrichedTransaction, len(raws))
	for i, r := range raws {
		e := model.NewEnriched(r)
		e.Category = "Shopping"
		e.Subcategory = "General"
		e.Merchant = r.Description
		e.SpendingType = model.SpendingDiscretionary
		e.AbsoluteAmount = r.Amount.Abs()
		e.Month = r.TransactionDate.Format("2006-01")
		e.DayOfWeek = r.TransactionDate.Weekday().String()
		rows[i] = e
	}
	return rows
}

func newRun(id string, started time.Time) *model.EnrichmentRun {
	return &model.EnrichmentRun{ID: id, RuleSetHash: "abc123", StartedAt: started, Status: model.RunPending}
}

func TestMigrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	for _, table := range []string{"raw_transactions", "enrichment_runs", "enriched_transactions"} {
		var n int
		err := store.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s", table)
	}
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSaveRawTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions(3)
	post := testDay.AddDate(0, 0, 2)
	txns[0].PostDate = &post
	txns[1].AdditionalDetails = "gift"

	inserted, err := store.SaveRawTransactions(ctx, txns)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	// Re-import is idempotent.
	inserted, err = store.SaveRawTransactions(ctx, txns)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	count, err := store.RawTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, err := store.GetRawTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range txns {
		assert.Equal(t, txns[i].ID, got[i].ID, "import order is kept")
		assert.True(t, txns[i].Amount.Equal(got[i].Amount))
		assert.Equal(t, txns[i].TransactionDate, got[i].TransactionDate)
		assert.Equal(t, txns[i].AccountType, got[i].AccountType)
	}
	require.NotNil(t, got[0].PostDate)
	assert.Equal(t, post, *got[0].PostDate)
	assert.Nil(t, got[1].PostDate)
	assert.Equal(t, "gift", got[1].AdditionalDetails)
}

func TestSaveRawTransactions_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		mutate func(*model.RawTransaction)
		name   string
	}{
		{name: "missing id", mutate: func(r *model.RawTransaction) { r.ID = "" }},
		{name: "missing date", mutate: func(r *model.RawTransaction) { r.TransactionDate = time.Time{} }},
		{name: "missing source", mutate: func(r *model.RawTransaction) { r.Source = " " }},
		{name: "missing account type", mutate: func(r *model.RawTransaction) { r.AccountType = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns := createTestTransactions(2)
			tt.mutate(&txns[1])
			_, err := store.SaveRawTransactions(ctx, txns)
			require.ErrorIs(t, err, ErrInvalidTransaction)

			count, err := store.RawTransactionCount(ctx)
			require.NoError(t, err)
			assert.Zero(t, count, "nothing saved from a bad batch")
		})
	}

	//nolint:staticcheck // nil context is the case under test
	_, err := store.SaveRawTransactions(nil, createTestTransactions(1))
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestSaveEnrichmentRun(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.LatestRun(ctx)
	require.ErrorIs(t, err, common.ErrNoRuns)
	_, err = store.GetEnrichedTransactions(ctx, service.TransactionFilter{})
	require.ErrorIs(t, err, common.ErrNoRuns)

	raws := createTestTransactions(4)
	_, err = store.SaveRawTransactions(ctx, raws)
	require.NoError(t, err)

	rows := enrichedFrom(raws)
	rows[1].Type = model.TypeRefund
	rows[1].RefundStatus = model.RefundMatched
	rows[1].RefundMatchID = raws[0].ID
	rows[0].RefundStatus = model.RefundRefunded
	rows[0].RefundedAmount = decimal.RequireFromString("20.25")
	rows[2].IsRecurring = true
	rows[2].RecurringFrequency = model.FrequencyMonthly
	rows[3].IsWeekend = true

	run := newRun("run-1", time.Now().UTC())
	require.NoError(t, store.SaveEnrichmentRun(ctx, run, rows))
	assert.Equal(t, model.RunCompleted, run.Status)
	assert.False(t, run.CompletedAt.IsZero())
	assert.Equal(t, 4, run.RowCount)

	latest, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest.ID)
	assert.Equal(t, "abc123", latest.RuleSetHash)
	assert.Equal(t, 4, latest.RowCount)

	got, err := store.GetEnrichedTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, raws[0].ID, got[0].Raw.ID)
	assert.Equal(t, model.RefundRefunded, got[0].RefundStatus)
	assert.True(t, got[0].RefundedAmount.Equal(decimal.RequireFromString("20.25")))
	assert.Equal(t, model.TypeRefund, got[1].Type)
	assert.Equal(t, raws[0].ID, got[1].RefundMatchID)
	assert.True(t, got[2].IsRecurring)
	assert.Equal(t, model.FrequencyMonthly, got[2].RecurringFrequency)
	assert.True(t, got[3].IsWeekend)
	assert.Equal(t, "General", got[3].Subcategory)
	assert.Equal(t, model.SpendingDiscretionary, got[3].SpendingType)
	assert.Equal(t, raws[3].Description, got[3].Raw.Description)
}

func TestSaveEnrichmentRun_Atomic(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	raws := createTestTransactions(3)
	_, err := store.SaveRawTransactions(ctx, raws[:2])
	require.NoError(t, err)

	// The third row references a raw transaction that was never imported,
	// so the insert fails part-way through.
	err = store.SaveEnrichmentRun(ctx, newRun("run-bad", time.Now().UTC()), enrichedFrom(raws))
	require.Error(t, err)

	_, err = store.LatestRun(ctx)
	require.ErrorIs(t, err, common.ErrNoRuns, "a failed run leaves nothing behind")

	var n int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enriched_transactions`).Scan(&n))
	assert.Zero(t, n)
}

func TestSaveEnrichmentRun_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveEnrichmentRun(ctx, nil, nil), ErrNilParameter)
	assert.ErrorIs(t, store.SaveEnrichmentRun(ctx, newRun("", time.Now()), nil), ErrInvalidRun)
	assert.ErrorIs(t, store.SaveEnrichmentRun(ctx, newRun("r", time.Time{}), nil), ErrInvalidRun)

	rows := []model.EnrichedTransaction{model.NewEnriched(model.RawTransaction{})}
	assert.ErrorIs(t, store.SaveEnrichmentRun(ctx, newRun("r", time.Now()), rows), ErrInvalidRun)
}

func TestGetEnrichedTransactions_Filters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	raws := createTestTransactions(5) // amounts 10.25 .. 50.25, one per day
	raws[4].Source = "Chase_4321"
	_, err := store.SaveRawTransactions(ctx, raws)
	require.NoError(t, err)

	rows := enrichedFrom(raws)
	rows[0].Category = "Food"
	rows[0].Merchant = "SAFEWAY"
	rows[1].Type = model.TypeIncome
	rows[1].SpendingType = model.SpendingIncomeRefund
	rows[2].IsRecurring = true
	rows[3].RefundStatus = model.RefundRefunded
	require.NoError(t, store.SaveEnrichmentRun(ctx, newRun("run-1", time.Now().UTC()), rows))

	day := func(n int) *time.Time { d := testDay.AddDate(0, 0, n); return &d }
	amt := func(s string) *decimal.Decimal { d := decimal.RequireFromString(s); return &d }

	tests := []struct {
		name   string
		filter service.TransactionFilter
		want   []int
	}{
		{name: "no filter", want: []int{0, 1, 2, 3, 4}},
		{name: "date range", filter: service.TransactionFilter{StartDate: day(1), EndDate: day(3)}, want: []int{1, 2, 3}},
		{name: "category case-insensitive", filter: service.TransactionFilter{Category: "food"}, want: []int{0}},
		{name: "merchant substring", filter: service.TransactionFilter{Merchant: "safe"}, want: []int{0}},
		{name: "source", filter: service.TransactionFilter{Source: "Chase_4321"}, want: []int{4}},
		{name: "spending type", filter: service.TransactionFilter{SpendingType: model.SpendingIncomeRefund}, want: []int{1}},
		{name: "transaction type", filter: service.TransactionFilter{Type: model.TypeIncome}, want: []int{1}},
		{name: "refund status", filter: service.TransactionFilter{RefundStatus: model.RefundRefunded}, want: []int{3}},
		{name: "recurring only", filter: service.TransactionFilter{RecurringOnly: true}, want: []int{2}},
		{name: "amount range", filter: service.TransactionFilter{MinAmount: amt("20"), MaxAmount: amt("40.25")}, want: []int{1, 2, 3}},
		{name: "limit and offset", filter: service.TransactionFilter{Limit: 2, Offset: 1}, want: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetEnrichedTransactions(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, g := range got {
				ids[i] = g.Raw.ID
			}
			want := make([]string, len(tt.want))
			for i, idx := range tt.want {
				want[i] = raws[idx].ID
			}
			assert.Equal(t, want, ids)
		})
	}

	_, err = store.GetEnrichedTransactions(ctx, service.TransactionFilter{StartDate: day(3), EndDate: day(1)})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestRunsAndPruning(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	raws := createTestTransactions(2)
	_, err := store.SaveRawTransactions(ctx, raws)
	require.NoError(t, err)

	start := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		rows := enrichedFrom(raws)
		rows[0].Category = id
		require.NoError(t, store.SaveEnrichmentRun(ctx, newRun(id, start.Add(time.Duration(i)*time.Minute)), rows))
	}

	latest, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-3", latest.ID)

	old, err := store.GetEnrichedTransactions(ctx, service.TransactionFilter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, old, 2)
	assert.Equal(t, "run-1", old[0].Category)

	run, err := store.GetRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, model.RunCompleted, run.Status)

	_, err = store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.PruneRuns(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidRun)

	removed, err := store.PruneRuns(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = store.GetRun(ctx, "run-1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	var n int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enriched_transactions`).Scan(&n))
	assert.Equal(t, 2, n, "rows of pruned runs are deleted")

	count, err := store.RawTransactionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "raw imports survive pruning")
}
