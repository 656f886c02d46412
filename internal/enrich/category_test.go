package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/spice-ledger/internal/model"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name        string
		raw         model.RawTransaction
		typ         model.TransactionType
		category    string
		subcategory string
		spending    model.SpendingType
	}{
		{
			name:        "income short-circuits",
			raw:         rawTxn("ACME PAYROLL", "2000", model.AccountChecking),
			typ:         model.TypeIncome,
			category:    "Income",
			subcategory: "Salary/Wages",
			spending:    model.SpendingIncomeRefund,
		},
		{
			name:        "merchant keyword with source group",
			raw:         rawTxn("AMAZON MKTPLACE", "-25", model.AccountCreditCard, withCategory("Shopping")),
			typ:         model.TypeCharge,
			category:    "Shopping",
			subcategory: "Online Marketplace",
			spending:    model.SpendingDiscretionary,
		},
		{
			name:        "grocery subcategory is non-discretionary",
			raw:         rawTxn("SAFEWAY #1234", "-60", model.AccountCreditCard, withCategory("Groceries")),
			typ:         model.TypeCharge,
			category:    "Food",
			subcategory: "Supermarket",
			spending:    model.SpendingNonDiscretionary,
		},
		{
			name:        "utilities",
			raw:         rawTxn("PG&E WEB ONLINE", "-120", model.AccountChecking, withCategory("Bills & Utilities")),
			typ:         model.TypeCharge,
			category:    "Utilities",
			subcategory: "Electricity/Gas",
			spending:    model.SpendingNonDiscretionary,
		},
		{
			name:        "category source substring",
			raw:         rawTxn("LA TAQUERIA", "-18", model.AccountCreditCard, withCategory("Food & Drink")),
			typ:         model.TypeCharge,
			category:    "Food",
			subcategory: "Dining",
			spending:    model.SpendingDiscretionary,
		},
		{
			name:        "nothing matches",
			raw:         rawTxn("MYSTERY VENDOR", "-10", model.AccountCreditCard),
			typ:         model.TypeCharge,
			category:    model.CategoryUndefined,
			subcategory: "General",
			spending:    model.SpendingDiscretionary,
		},
		{
			name:        "savings transfer",
			raw:         rawTxn("TRANSFER TO VAULT", "-100", model.AccountChecking),
			typ:         model.TypeTransferOutgoing,
			category:    "Transfer",
			subcategory: "Savings Transfer",
			spending:    model.SpendingTransfer,
		},
		{
			name:        "bank withdrawal charge counts as transfer",
			raw:         rawTxn("WELLS FARGO ATM", "-200", model.AccountChecking),
			typ:         model.TypeCharge,
			category:    model.CategoryUndefined,
			subcategory: "Bank Withdrawal",
			spending:    model.SpendingTransfer,
		},
		{
			name:        "card payment",
			raw:         rawTxn("CHASE AUTOPAY", "-300", model.AccountChecking),
			typ:         model.TypeCreditPaymentSent,
			category:    "Payment",
			subcategory: "Chase Credit Card Payment",
			spending:    model.SpendingCreditPayment,
		},
		{
			name:        "refund",
			raw:         rawTxn("UBER REFUND", "8", model.AccountCreditCard),
			typ:         model.TypeRefund,
			category:    "Transportation",
			subcategory: "Service Refund",
			spending:    model.SpendingIncomeRefund,
		},
	}

	compiled := compiledDefaults(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := toEnriched([]model.RawTransaction{tt.raw})
			rows[0].Type = tt.typ

			Categorize(rows, compiled)

			assert.Equal(t, tt.category, rows[0].Category)
			assert.Equal(t, tt.subcategory, rows[0].Subcategory)
			assert.Equal(t, tt.spending, rows[0].SpendingType)
		})
	}
}

func TestMerchant(t *testing.T) {
	subs := compiledDefaults(t).Merchant

	tests := []struct {
		description string
		want        string
	}{
		{"SQ *BLUE BOTTLE COFFEE", "BLUE"},
		{"PAYPAL *SPOTIFY", "SPOTIFY"},
		{"NETFLIX.COM", "NETFLIX"},
		{"AMZN MKTP US*2K1AB3CD0", "AMZN"},
		{"UBER TRIP HELP.UBER.COM", "UBER"},
		{"TRADER JOE'S 03/14", "TRADER"},
		{"***", "***"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, Merchant(tt.description, subs))
		})
	}
}

func TestAmountBucket(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "Under $10"},
		{"9.99", "Under $10"},
		{"10", "$10-$50"},
		{"-15.99", "$10-$50"},
		{"50", "$50-$100"},
		{"100", "$100-$250"},
		{"250", "$250-$500"},
		{"999.99", "$500-$1000"},
		{"1000", "Over $1000"},
		{"-25000", "Over $1000"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountBucket(dec(tt.amount)))
		})
	}
}

func TestAddFeatures(t *testing.T) {
	saturday := rawTxn("COFFEE", "-4.50", model.AccountChecking)
	saturday.TransactionDate = saturday.TransactionDate.AddDate(0, 5, 0) // 2024-06-01
	rows := toEnriched([]model.RawTransaction{saturday, rawTxn("COFFEE", "-4.50", model.AccountChecking)})

	AddFeatures(rows)

	assert.True(t, dec("4.50").Equal(rows[0].AbsoluteAmount))
	assert.Equal(t, "Under $10", rows[0].AmountBucket)
	assert.Equal(t, "2024-06", rows[0].Month)
	assert.Equal(t, "Saturday", rows[0].DayOfWeek)
	assert.True(t, rows[0].IsWeekend)

	assert.Equal(t, "2024-01", rows[1].Month)
	assert.Equal(t, "Monday", rows[1].DayOfWeek)
	assert.False(t, rows[1].IsWeekend)
}
