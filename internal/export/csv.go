// Package export writes enriched ledgers to flat files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Veraticus/spice-ledger/internal/model"
)

const dateFormat = "2006-01-02"

// Columns is the header of an enriched ledger CSV: the consolidated input
// columns followed by every enrichment column.
var Columns = []string{
	"transaction_date", "post_date", "description", "amount", "category", "source",
	"account_id", "additional_details", "account_type",
	"transaction_type", "original_amount", "refund_status", "refunded_amount", "refund_match_id",
	"is_recurring", "recurring_frequency", "category_enriched", "subcategory", "merchant",
	"spending_type", "absolute_amount", "amount_bucket", "transaction_month", "day_of_week", "is_weekend",
}

// Record renders one enriched row in Columns order. "amount" is the
// normalized amount; the source-signed value is not repeated.
func Record(e model.EnrichedTransaction) []string {
	post := ""
	if e.Raw.PostDate != nil {
		post = e.Raw.PostDate.Format(dateFormat)
	}
	return []string{
		e.Raw.TransactionDate.Format(dateFormat),
		post,
		e.Raw.Description,
		e.Amount.StringFixed(2),
		e.Raw.CategorySource,
		e.Raw.Source,
		e.Raw.AccountID,
		e.Raw.AdditionalDetails,
		string(e.Raw.AccountType),
		string(e.Type),
		e.OriginalAmount.StringFixed(2),
		string(e.RefundStatus),
		e.RefundedAmount.StringFixed(2),
		e.RefundMatchID,
		strconv.FormatBool(e.IsRecurring),
		string(e.RecurringFrequency),
		e.Category,
		e.Subcategory,
		e.Merchant,
		string(e.SpendingType),
		e.AbsoluteAmount.StringFixed(2),
		e.AmountBucket,
		e.Month,
		e.DayOfWeek,
		strconv.FormatBool(e.IsWeekend),
	}
}

// WriteCSV writes rows, including the header, to w.
func WriteCSV(w io.Writer, rows []model.EnrichedTransaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(Record(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
