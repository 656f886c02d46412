package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawTransaction_GenerateID(t *testing.T) {
	base := RawTransaction{
		TransactionDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:     "STARBUCKS",
		Amount:          decimal.RequireFromString("5.25"),
		Source:          "Chase_1234",
		AccountID:       "1234",
	}

	tests := []struct {
		name     string
		mutate   func(*RawTransaction)
		wantSame bool
	}{
		{name: "identical rows", mutate: func(*RawTransaction) {}, wantSame: true},
		{name: "trailing zeros do not matter", mutate: func(r *RawTransaction) {
			r.Amount = decimal.RequireFromString("5.250")
		}, wantSame: true},
		{name: "different amount", mutate: func(r *RawTransaction) {
			r.Amount = decimal.RequireFromString("6.25")
		}},
		{name: "different date", mutate: func(r *RawTransaction) {
			r.TransactionDate = r.TransactionDate.AddDate(0, 0, 1)
		}},
		{name: "different source", mutate: func(r *RawTransaction) {
			r.Source = "Amex_1"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			if tt.wantSame {
				assert.Equal(t, base.GenerateID(0), other.GenerateID(0))
			} else {
				assert.NotEqual(t, base.GenerateID(0), other.GenerateID(0))
			}
		})
	}
}

func TestAssignIDs(t *testing.T) {
	row := RawTransaction{
		TransactionDate: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Description:     "BLUE BOTTLE",
		Amount:          decimal.RequireFromString("4.50"),
		Source:          "Amex",
	}
	rows := []RawTransaction{row, row, {ID: "keep-me"}}

	AssignIDs(rows)

	require.NotEmpty(t, rows[0].ID)
	require.NotEmpty(t, rows[1].ID)
	assert.NotEqual(t, rows[0].ID, rows[1].ID, "duplicate rows in one export must stay distinct")
	assert.Equal(t, "keep-me", rows[2].ID)

	again := []RawTransaction{row, row}
	AssignIDs(again)
	assert.Equal(t, rows[0].ID, again[0].ID, "re-import must reproduce IDs")
	assert.Equal(t, rows[1].ID, again[1].ID)
}

func TestParseAccountType(t *testing.T) {
	tests := []struct {
		in   string
		want AccountType
	}{
		{"Credit Card", AccountCreditCard},
		{"credit_card", AccountCreditCard},
		{"CreditCard", AccountCreditCard},
		{"Checkings", AccountChecking},
		{" checking ", AccountChecking},
		{"Savings", AccountType("Savings")},
		{"", AccountType("")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseAccountType(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.False(t, AccountType("Savings").Known())
	assert.True(t, AccountChecking.Known())
}

func TestNewEnriched(t *testing.T) {
	raw := RawTransaction{Amount: decimal.RequireFromString("-12.00")}
	e := NewEnriched(raw)

	assert.Equal(t, TypeCharge, e.Type)
	assert.Equal(t, RefundNone, e.RefundStatus)
	assert.True(t, e.RefundedAmount.IsZero())
	assert.True(t, e.Amount.Equal(raw.Amount))
	assert.Equal(t, FrequencyNone, e.RecurringFrequency)
}
