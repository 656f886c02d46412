package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/rules"
)

func find(t *testing.T, rows []model.EnrichedTransaction, description string) model.EnrichedTransaction {
	t.Helper()
	for _, r := range rows {
		if r.Raw.Description == description {
			return r
		}
	}
	require.Failf(t, "row not found", "description %q", description)
	return model.EnrichedTransaction{}
}

func mixedLedger() []model.RawTransaction {
	return batch(
		rawTxn("NETFLIX.COM", "-15.99", model.AccountChecking, onDay(0)),
		rawTxn("NETFLIX.COM", "-15.99", model.AccountChecking, onDay(30)),
		rawTxn("AMAZON MKTPLACE", "-52.00", model.AccountChecking, onDay(2)),
		rawTxn("AMAZON MKTPLACE REFUND", "-52.00", model.AccountChecking, onDay(8)),
		rawTxn("GROCERY STORE", "84.30", model.AccountCreditCard, onDay(3)),
		rawTxn("ONLINE TRANSFER TO CHASE CREDIT CARD", "-500.00", model.AccountChecking, onDay(4), fromSource("WellsFargo")),
		rawTxn("ACME PAYROLL", "-2500", model.AccountChecking, onDay(5), withCategory("Direct Deposit")),
		rawTxn("AUTOPAY PAYMENT - THANK YOU", "-500", model.AccountCreditCard, onDay(6)),
		rawTxn("TRANSFER TO SAVINGS", "-100", model.AccountChecking, onDay(7)),
		rawTxn("SHOE STORE", "80", model.AccountCreditCard, onDay(9)),
		rawTxn("SHOE STORE REFUND", "-80", model.AccountCreditCard, onDay(10)),
		rawTxn("SHOE STORE REFUND", "-80", model.AccountCreditCard, onDay(11)),
		rawTxn("SAVINGS INTEREST", "1.20", model.AccountType("Savings"), onDay(12)),
	)
}

func TestPipelineScenarios(t *testing.T) {
	p := newTestPipeline(t)
	rows, err := p.Run(context.Background(), mixedLedger())
	require.NoError(t, err)
	require.Len(t, rows, 13)

	t.Run("monthly subscription", func(t *testing.T) {
		for _, r := range rows[:2] {
			assert.True(t, r.IsRecurring)
			assert.Equal(t, model.FrequencyMonthly, r.RecurringFrequency)
			assert.Equal(t, "NETFLIX", r.Merchant)
		}
	})

	t.Run("refund linked to charge", func(t *testing.T) {
		charge := find(t, rows, "AMAZON MKTPLACE")
		refund := find(t, rows, "AMAZON MKTPLACE REFUND")

		assert.Equal(t, model.TypeCharge, charge.Type)
		assert.Equal(t, model.RefundRefunded, charge.RefundStatus)
		assert.True(t, dec("52.00").Equal(charge.RefundedAmount))
		assert.Equal(t, model.TypeRefund, refund.Type)
		assert.Equal(t, model.RefundMatched, refund.RefundStatus)
	})

	t.Run("card charge made negative", func(t *testing.T) {
		r := find(t, rows, "GROCERY STORE")
		assert.Equal(t, model.TypeCharge, r.Type)
		assert.True(t, dec("-84.30").Equal(r.Amount))
		assert.True(t, dec("84.30").Equal(r.Raw.Amount))
	})

	t.Run("online transfer to card is a card payment", func(t *testing.T) {
		r := find(t, rows, "ONLINE TRANSFER TO CHASE CREDIT CARD")
		assert.Equal(t, model.TypeCreditPaymentSent, r.Type)
		assert.True(t, dec("-500.00").Equal(r.Amount))
		assert.Equal(t, model.SpendingCreditPayment, r.SpendingType)
	})

	t.Run("unknown account surfaces as undefined", func(t *testing.T) {
		r := find(t, rows, "SAVINGS INTEREST")
		assert.Equal(t, model.TypeUndefined, r.Type)
	})
}

func TestPipelineEmptyInput(t *testing.T) {
	p := newTestPipeline(t)

	rows, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestPipelineIsIdempotent(t *testing.T) {
	p := newTestPipeline(t)
	raws := mixedLedger()

	first, err := p.Run(context.Background(), raws)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), raws)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPipelineDoesNotMutateInput(t *testing.T) {
	p := newTestPipeline(t)
	raws := mixedLedger()
	post := day(40)
	raws[0].PostDate = &post
	before := make([]model.RawTransaction, len(raws))
	copy(before, raws)

	rows, err := p.Run(context.Background(), raws)
	require.NoError(t, err)

	assert.Equal(t, before, raws)
	assert.NotSame(t, raws[0].PostDate, rows[0].Raw.PostDate)
}

func TestPipelineInvariants(t *testing.T) {
	p := newTestPipeline(t)
	rows, err := p.Run(context.Background(), mixedLedger())
	require.NoError(t, err)

	for _, r := range rows {
		if r.Type == model.TypeIncome {
			assert.False(t, r.Amount.IsNegative(), "income %q is negative", r.Raw.Description)
		}
		if r.Raw.AccountType == model.AccountCreditCard && r.Type == model.TypeCharge {
			assert.False(t, r.Amount.IsPositive(), "card charge %q is positive", r.Raw.Description)
		}
		assert.True(t, r.Amount.Equal(r.OriginalAmount))
		assert.NotEmpty(t, r.Merchant)
		assert.NotEmpty(t, r.SpendingType)
	}
	assertInjective(t, rows)
}

func TestPipelineMissingField(t *testing.T) {
	tests := []struct {
		mutate func(*model.RawTransaction)
		field  string
	}{
		{field: "transaction_date", mutate: func(r *model.RawTransaction) { r.TransactionDate = time.Time{} }},
		{field: "source", mutate: func(r *model.RawTransaction) { r.Source = "" }},
		{field: "account_type", mutate: func(r *model.RawTransaction) { r.AccountType = "" }},
	}

	p := newTestPipeline(t)
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			raws := mixedLedger()
			tt.mutate(&raws[2])

			rows, err := p.Run(context.Background(), raws)
			require.ErrorIs(t, err, common.ErrMissingColumn)
			assert.Nil(t, rows)

			var mfe *common.MissingFieldError
			require.ErrorAs(t, err, &mfe)
			assert.Equal(t, tt.field, mfe.Field)
			assert.Equal(t, 3, mfe.Row)
		})
	}
}

func TestPipelineCancelled(t *testing.T) {
	p := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows, err := p.Run(ctx, mixedLedger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rows)
}

func TestRunWithStats(t *testing.T) {
	p := newTestPipeline(t)
	_, stats, err := p.RunWithStats(context.Background(), mixedLedger())
	require.NoError(t, err)

	assert.Equal(t, 13, stats.Rows)
	assert.Equal(t, 2, stats.Refunds)
	assert.Equal(t, 2, stats.Recurring)
	assert.Equal(t, 1, stats.Types[model.TypeUndefined])
	assert.Equal(t, 3, stats.Types[model.TypeRefund])
}

func TestNewPipelineRejectsInvalidRules(t *testing.T) {
	rs := rules.Default()
	rs.Classifier.OnlineTransferOut = "("

	_, err := NewPipeline(rs)
	assert.ErrorIs(t, err, common.ErrInvalidRuleSet)
}

func TestRuleSetSwap(t *testing.T) {
	rs := rules.Default()
	rs.Classifier.SourceOverrides = []string{"SoFi"}
	p, err := NewPipeline(rs)
	require.NoError(t, err)

	rows, err := p.Run(context.Background(), batch(
		rawTxn("ONLINE TRANSFER TO CHASE CREDIT CARD", "-500.00", model.AccountChecking, fromSource("SoFi")),
		rawTxn("ONLINE TRANSFER TO CHASE CREDIT CARD", "-500.00", model.AccountChecking, fromSource("WellsFargo")),
	))
	require.NoError(t, err)

	assert.Equal(t, model.TypeCreditPaymentSent, rows[0].Type)
	assert.Equal(t, model.TypeTransferOutgoing, rows[1].Type)
	assert.NotEqual(t, newTestPipeline(t).RuleSetHash(), p.RuleSetHash())
}
