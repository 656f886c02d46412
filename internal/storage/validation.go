package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidRun         = errors.New("invalid enrichment run")
	ErrInvalidPath        = errors.New("invalid path")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRawTransactions(rows []model.RawTransaction) error {
	for i := range rows {
		if err := validateRawTransaction(&rows[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

func validateRawTransaction(txn *model.RawTransaction) error {
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.TransactionDate.IsZero() {
		return fmt.Errorf("%w: missing transaction date", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Source) == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidTransaction)
	}
	if strings.TrimSpace(string(txn.AccountType)) == "" {
		return fmt.Errorf("%w: missing account type", ErrInvalidTransaction)
	}
	return nil
}

func validateRun(run *model.EnrichmentRun, rows []model.EnrichedTransaction) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidRun)
	}
	for i := range rows {
		if rows[i].Raw.ID == "" {
			return fmt.Errorf("%w: row %d has no raw ID", ErrInvalidRun, i)
		}
	}
	return nil
}
