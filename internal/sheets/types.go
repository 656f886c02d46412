package sheets

import (
	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
)

// Tab titles.
const (
	TransactionsTab = "Transactions"
	SummaryTab      = "Summary"
	MonthlyTab      = "Monthly"
)

// Tab is the full contents of one worksheet, header row first.
type Tab struct {
	Title string
	Rows  [][]any
	// Columns holding amounts, formatted as currency.
	AmountColumns []int
}

// BuildTabs lays out the enriched ledger and its summary as worksheets.
func BuildTabs(rows []model.EnrichedTransaction, summary report.Summary) []Tab {
	return []Tab{
		transactionsTab(rows),
		summaryTab(summary),
		monthlyTab(summary),
	}
}

func transactionsTab(rows []model.EnrichedTransaction) Tab {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, toRow(export.Columns))
	for _, e := range rows {
		values = append(values, toRow(export.Record(e)))
	}

	var amounts []int
	for i, col := range export.Columns {
		switch col {
		case "amount", "original_amount", "refunded_amount", "absolute_amount":
			amounts = append(amounts, i)
		}
	}
	return Tab{Title: TransactionsTab, Rows: values, AmountColumns: amounts}
}

func summaryTab(s report.Summary) Tab {
	values := [][]any{
		{"Ledger Summary", s.Period.Start.Format("Jan 2, 2006") + " - " + s.Period.End.Format("Jan 2, 2006")},
		{},
		{"Transactions", s.Rows},
		{"Inflow", s.Inflow.StringFixed(2)},
		{"Outflow", s.Outflow.StringFixed(2)},
		{"Net", s.Net().StringFixed(2)},
		{"Refunded", s.RefundedTotal.StringFixed(2)},
		{"Recurring", s.Recurring},
		{"Unclassified", s.Unclassified},
	}
	values = appendTotals(values, "Spending Type", s.BySpending)
	values = appendTotals(values, "Category", s.ByCategory)
	values = appendTotals(values, "Merchant", s.TopMerchants)
	return Tab{Title: SummaryTab, Rows: values}
}

func appendTotals(values [][]any, heading string, totals []report.Total) [][]any {
	if len(totals) == 0 {
		return values
	}
	values = append(values, []any{}, []any{heading, "Total", "Count"})
	for _, t := range totals {
		values = append(values, []any{t.Name, t.Total.StringFixed(2), t.Count})
	}
	return values
}

func monthlyTab(s report.Summary) Tab {
	values := make([][]any, 0, len(s.Monthly)+1)
	values = append(values, []any{"Month", "Inflow", "Outflow", "Net"})
	for _, m := range s.Monthly {
		values = append(values, []any{m.Month, m.Inflow.StringFixed(2), m.Outflow.StringFixed(2), m.Net().StringFixed(2)})
	}
	return Tab{Title: MonthlyTab, Rows: values, AmountColumns: []int{1, 2, 3}}
}

func toRow(record []string) []any {
	row := make([]any, len(record))
	for i, v := range record {
		row[i] = v
	}
	return row
}
