package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

const dateLayout = "2006-01-02"

// SaveRawTransactions stores imported rows, ignoring any whose ID is already
// present. It returns how many rows were new.
func (s *SQLiteStorage) SaveRawTransactions(ctx context.Context, rows []model.RawTransaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateRawTransactions(rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO raw_transactions (
			id, transaction_date, post_date, description, amount,
			category_source, source, account_id, account_type, additional_details
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, txn := range rows {
		var postDate sql.NullString
		if txn.PostDate != nil {
			postDate = sql.NullString{String: txn.PostDate.Format(dateLayout), Valid: true}
		}

		res, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.TransactionDate.Format(dateLayout),
			postDate,
			txn.Description,
			txn.Amount.String(),
			txn.CategorySource,
			txn.Source,
			txn.AccountID,
			string(txn.AccountType),
			txn.AdditionalDetails,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}

	slog.Debug("Saved raw transactions", "received", len(rows), "inserted", inserted)
	return inserted, nil
}

// GetRawTransactions returns every imported row in import order.
func (s *SQLiteStorage) GetRawTransactions(ctx context.Context) ([]model.RawTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+rawColumns+`
		FROM raw_transactions r
		ORDER BY r.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.RawTransaction
	for rows.Next() {
		var txn model.RawTransaction
		if err := scanRaw(rows, &txn); err != nil {
			return nil, err
		}
		result = append(result, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return result, nil
}

// RawTransactionCount returns the number of imported rows.
func (s *SQLiteStorage) RawTransactionCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

const rawColumns = `r.id, r.transaction_date, r.post_date, r.description, r.amount,
	r.category_source, r.source, r.account_id, r.account_type, r.additional_details`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRaw(row scanner, txn *model.RawTransaction, extra ...any) error {
	var date, accountType string
	var postDate sql.NullString

	dest := []any{
		&txn.ID, &date, &postDate, &txn.Description, &txn.Amount,
		&txn.CategorySource, &txn.Source, &txn.AccountID, &accountType, &txn.AdditionalDetails,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return fmt.Errorf("failed to scan transaction: %w", err)
	}

	var err error
	if txn.TransactionDate, err = time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("transaction %s: bad date %q: %w", txn.ID, date, err)
	}
	if postDate.Valid {
		d, err := time.Parse(dateLayout, postDate.String)
		if err != nil {
			return fmt.Errorf("transaction %s: bad post date %q: %w", txn.ID, postDate.String, err)
		}
		txn.PostDate = &d
	}
	txn.AccountType = model.AccountType(accountType)
	return nil
}

func decimalArg(d *decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
