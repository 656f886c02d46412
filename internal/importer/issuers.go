package importer

import (
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// AmexParser parses American Express card activity exports. Amex already
// reports charges positive and credits negative.
type AmexParser struct{}

// Format returns the parser name.
func (p *AmexParser) Format() string { return FormatAmex }

// Parse reads an Amex CSV.
func (p *AmexParser) Parse(r io.Reader, meta FileMeta) (*Result, error) {
	return parseIssuer(r, meta, issuerLayout{
		date:    "Date",
		desc:    "Description",
		amount:  "Amount",
		cat:     "Category",
		details: "Extended Details",
	})
}

// ChaseParser parses Chase card activity exports. Chase reports charges
// negative, so amounts are flipped to match the Amex convention.
type ChaseParser struct{}

// Format returns the parser name.
func (p *ChaseParser) Format() string { return FormatChase }

// Parse reads a Chase CSV.
func (p *ChaseParser) Parse(r io.Reader, meta FileMeta) (*Result, error) {
	return parseIssuer(r, meta, issuerLayout{
		date:    "Transaction Date",
		post:    "Post Date",
		desc:    "Description",
		amount:  "Amount",
		cat:     "Category",
		details: "Memo",
		flip:    true,
	})
}

type issuerLayout struct {
	date    string
	post    string
	desc    string
	amount  string
	cat     string
	details string
	flip    bool
}

func parseIssuer(r io.Reader, meta FileMeta, layout issuerLayout) (*Result, error) {
	if meta.Source == "" {
		return nil, &common.MissingFieldError{Field: "source", Row: 0}
	}
	if meta.AccountType == "" {
		meta.AccountType = model.AccountCreditCard
	}

	t, err := openTable(r, layout.date, layout.desc, layout.amount)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", t.line+1, err)
		}

		date, err := parseDate(t.get(rec, layout.date))
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: t.line, Reason: err.Error()})
			continue
		}
		amount, err := parseAmount(t.get(rec, layout.amount))
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: t.line, Reason: err.Error()})
			continue
		}
		if layout.flip {
			amount = amount.Neg()
		}

		txn := model.RawTransaction{
			TransactionDate:   date,
			Description:       t.get(rec, layout.desc),
			Amount:            amount,
			CategorySource:    t.get(rec, layout.cat),
			Source:            meta.Source,
			AccountID:         meta.AccountID,
			AccountType:       meta.AccountType,
			AdditionalDetails: t.get(rec, layout.details),
		}
		if layout.post != "" {
			if d, err := parseDate(t.get(rec, layout.post)); err == nil {
				txn.PostDate = &d
			}
		}
		result.Rows = append(result.Rows, txn)
	}

	model.AssignIDs(result.Rows)
	return result, nil
}
