package enrich

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

type amountBin struct {
	below decimal.Decimal
	label string
}

// Left-closed bins over the absolute amount; anything past the last bound is "Over $1000".
var amountBins = []amountBin{
	{below: decimal.NewFromInt(10), label: "Under $10"},
	{below: decimal.NewFromInt(50), label: "$10-$50"},
	{below: decimal.NewFromInt(100), label: "$50-$100"},
	{below: decimal.NewFromInt(250), label: "$100-$250"},
	{below: decimal.NewFromInt(500), label: "$250-$500"},
	{below: decimal.NewFromInt(1000), label: "$500-$1000"},
}

const overLastBin = "Over $1000"

// AmountBucket labels an amount by the size of its magnitude.
func AmountBucket(amount decimal.Decimal) string {
	abs := amount.Abs()
	for _, bin := range amountBins {
		if abs.LessThan(bin.below) {
			return bin.label
		}
	}
	return overLastBin
}

// AddFeatures fills the derived reporting columns.
func AddFeatures(rows []model.EnrichedTransaction) {
	for i := range rows {
		row := &rows[i]
		date := row.Raw.TransactionDate
		row.AbsoluteAmount = row.Amount.Abs()
		row.AmountBucket = AmountBucket(row.Amount)
		row.Month = date.Format("2006-01")
		row.DayOfWeek = date.Weekday().String()
		row.IsWeekend = date.Weekday() == time.Saturday || date.Weekday() == time.Sunday
	}
}
