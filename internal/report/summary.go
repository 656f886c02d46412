// Package report aggregates an enriched ledger into summaries for the CLI and
// the spreadsheet export.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// DefaultTopMerchants is how many merchants Summarize ranks when asked for zero.
const DefaultTopMerchants = 10

// TypeOrder is the display order of transaction types.
var TypeOrder = []model.TransactionType{
	model.TypeCharge,
	model.TypeRefund,
	model.TypeIncome,
	model.TypePayment,
	model.TypeTransferIncoming,
	model.TypeTransferOutgoing,
	model.TypeCreditPaymentSent,
	model.TypeCreditPaymentReceived,
	model.TypeUndefined,
}

// SpendingOrder is the display order of spending types.
var SpendingOrder = []model.SpendingType{
	model.SpendingDiscretionary,
	model.SpendingNonDiscretionary,
	model.SpendingIncomeRefund,
	model.SpendingCreditPayment,
	model.SpendingTransfer,
}

// Total is a named sum of normalized amounts.
type Total struct {
	Name  string
	Total decimal.Decimal
	Count int
}

// MonthTotal is the cash flow of one calendar month.
type MonthTotal struct {
	Month   string
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
}

// Net returns inflow plus outflow.
func (m MonthTotal) Net() decimal.Decimal {
	return m.Inflow.Add(m.Outflow)
}

// Summary is an aggregate view over enriched rows. Inflow and outflow leave
// out transfers and card payments, which only move money between the
// user's own accounts.
type Summary struct {
	Period        service.DateRange
	Inflow        decimal.Decimal
	Outflow       decimal.Decimal
	RefundedTotal decimal.Decimal
	ByType        map[model.TransactionType]int
	BySpending    []Total
	ByCategory    []Total // outflow only, largest spend first
	TopMerchants  []Total // outflow only, largest spend first
	Monthly       []MonthTotal
	Rows          int
	Recurring     int
	Unclassified  int
}

// Net returns inflow plus outflow.
func (s Summary) Net() decimal.Decimal {
	return s.Inflow.Add(s.Outflow)
}

// Summarize aggregates rows. topMerchants <= 0 uses DefaultTopMerchants.
func Summarize(rows []model.EnrichedTransaction, topMerchants int) Summary {
	if topMerchants <= 0 {
		topMerchants = DefaultTopMerchants
	}

	s := Summary{
		Rows:          len(rows),
		Inflow:        decimal.Zero,
		Outflow:       decimal.Zero,
		RefundedTotal: decimal.Zero,
		ByType:        make(map[model.TransactionType]int),
	}

	spending := make(map[model.SpendingType]*Total)
	categories := make(map[string]*Total)
	merchants := make(map[string]*Total)
	months := make(map[string]*MonthTotal)

	for _, e := range rows {
		s.ByType[e.Type]++
		s.RefundedTotal = s.RefundedTotal.Add(e.RefundedAmount)
		if e.IsRecurring {
			s.Recurring++
		}
		if e.Category == model.CategoryUndefined {
			s.Unclassified++
		}
		s.Period = extend(s.Period, e.Raw.TransactionDate)

		add(spending, e.SpendingType, string(e.SpendingType), e.Amount)

		if !countsAsCashFlow(e) {
			continue
		}

		month := months[e.Month]
		if month == nil {
			month = &MonthTotal{Month: e.Month, Inflow: decimal.Zero, Outflow: decimal.Zero}
			months[e.Month] = month
		}

		if e.Amount.IsPositive() {
			s.Inflow = s.Inflow.Add(e.Amount)
			month.Inflow = month.Inflow.Add(e.Amount)
			continue
		}
		s.Outflow = s.Outflow.Add(e.Amount)
		month.Outflow = month.Outflow.Add(e.Amount)
		add(categories, e.Category, e.Category, e.Amount)
		add(merchants, e.Merchant, e.Merchant, e.Amount)
	}

	for _, st := range SpendingOrder {
		if t, ok := spending[st]; ok {
			s.BySpending = append(s.BySpending, *t)
		}
	}
	s.ByCategory = bySpend(categories)
	s.TopMerchants = bySpend(merchants)
	if len(s.TopMerchants) > topMerchants {
		s.TopMerchants = s.TopMerchants[:topMerchants]
	}

	for _, m := range months {
		s.Monthly = append(s.Monthly, *m)
	}
	sort.Slice(s.Monthly, func(i, j int) bool { return s.Monthly[i].Month < s.Monthly[j].Month })

	return s
}

func countsAsCashFlow(e model.EnrichedTransaction) bool {
	switch e.Type {
	case model.TypeCreditPaymentSent, model.TypeCreditPaymentReceived, model.TypeUndefined:
		return false
	}
	switch e.SpendingType {
	case model.SpendingTransfer, model.SpendingCreditPayment:
		return false
	}
	return !e.Type.IsTransfer()
}

func add[K comparable](m map[K]*Total, key K, name string, amount decimal.Decimal) {
	t := m[key]
	if t == nil {
		t = &Total{Name: name, Total: decimal.Zero}
		m[key] = t
	}
	t.Total = t.Total.Add(amount)
	t.Count++
}

// bySpend orders outflow totals largest first, then by name.
func bySpend(m map[string]*Total) []Total {
	out := make([]Total, 0, len(m))
	for _, t := range m {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c < 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func extend(r service.DateRange, t time.Time) service.DateRange {
	if r.Start.IsZero() || t.Before(r.Start) {
		r.Start = t
	}
	if r.End.IsZero() || t.After(r.End) {
		r.End = t
	}
	return r
}
