package importer

import (
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Columns of the consolidated ledger layout.
const (
	ColTransactionDate   = "transaction_date"
	ColPostDate          = "post_date"
	ColDescription       = "description"
	ColAmount            = "amount"
	ColCategory          = "category"
	ColSource            = "source"
	ColAccountID         = "account_id"
	ColAdditionalDetails = "additional_details"
	ColAccountType       = "account_type"
)

// ConsolidatedParser reads the normalized multi-source layout, one row per
// transaction with its own source and account type.
type ConsolidatedParser struct{}

// Format returns the parser name.
func (p *ConsolidatedParser) Format() string { return FormatConsolidated }

// Parse reads a consolidated CSV. A missing required column, or a row without
// a source or account type, fails the whole file; rows whose date or amount
// cannot be parsed are skipped and reported.
func (p *ConsolidatedParser) Parse(r io.Reader, meta FileMeta) (*Result, error) {
	t, err := openTable(r, ColTransactionDate, ColDescription, ColAmount, ColSource, ColAccountType)
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

		txn, skip, err := p.parseRow(t, rec, meta)
		if err != nil {
			return nil, err
		}
		if skip != "" {
			result.Skipped = append(result.Skipped, SkippedRow{Line: t.line, Reason: skip})
			continue
		}
		result.Rows = append(result.Rows, txn)
	}

	model.AssignIDs(result.Rows)
	return result, nil
}

func (p *ConsolidatedParser) parseRow(t *table, rec []string, meta FileMeta) (model.RawTransaction, string, error) {
	source := t.get(rec, ColSource)
	if source == "" {
		source = meta.Source
	}
	if source == "" {
		return model.RawTransaction{}, "", &common.MissingFieldError{Field: ColSource, Row: t.line}
	}

	accountType := model.ParseAccountType(t.get(rec, ColAccountType))
	if accountType == "" {
		accountType = meta.AccountType
	}
	if accountType == "" {
		return model.RawTransaction{}, "", &common.MissingFieldError{Field: ColAccountType, Row: t.line}
	}

	date, err := parseDate(t.get(rec, ColTransactionDate))
	if err != nil {
		return model.RawTransaction{}, err.Error(), nil
	}
	amount, err := parseAmount(t.get(rec, ColAmount))
	if err != nil {
		return model.RawTransaction{}, err.Error(), nil
	}

	txn := model.RawTransaction{
		TransactionDate:   date,
		Description:       t.get(rec, ColDescription),
		Amount:            amount,
		CategorySource:    t.get(rec, ColCategory),
		Source:            source,
		AccountID:         t.get(rec, ColAccountID),
		AccountType:       accountType,
		AdditionalDetails: t.get(rec, ColAdditionalDetails),
	}
	if txn.AccountID == "" {
		txn.AccountID = meta.AccountID
	}
	if post := t.get(rec, ColPostDate); post != "" {
		if d, err := parseDate(post); err == nil {
			txn.PostDate = &d
		}
	}
	return txn, "", nil
}
