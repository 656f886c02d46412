package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// SaveEnrichmentRun stores a run and all of its rows in one SQL transaction.
// Either the whole run becomes visible or nothing does. On success run is
// marked completed.
func (s *SQLiteStorage) SaveEnrichmentRun(ctx context.Context, run *model.EnrichmentRun, rows []model.EnrichedTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run, rows); err != nil {
		return err
	}

	completedAt := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO enrichment_runs (id, rule_set_hash, status, row_count, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.RuleSetHash, string(model.RunCompleted), len(rows), run.StartedAt.UTC(), completedAt); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO enriched_transactions (
			run_id, position, raw_id, transaction_type, amount, original_amount,
			refund_status, refunded_amount, refund_match_id, is_recurring, recurring_frequency,
			category, subcategory, merchant, spending_type, absolute_amount,
			amount_bucket, transaction_month, day_of_week, is_weekend
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, e.Raw.ID, string(e.Type), e.Amount.String(), e.OriginalAmount.String(),
			string(e.RefundStatus), e.RefundedAmount.String(), e.RefundMatchID, e.IsRecurring, string(e.RecurringFrequency),
			e.Category, e.Subcategory, e.Merchant, string(e.SpendingType), e.AbsoluteAmount.String(),
			e.AmountBucket, e.Month, e.DayOfWeek, e.IsWeekend,
		); err != nil {
			return fmt.Errorf("failed to insert enriched row %d (%s): %w", i, e.Raw.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}

	run.Status = model.RunCompleted
	run.CompletedAt = completedAt
	run.RowCount = len(rows)

	slog.Info("Saved enrichment run", "run_id", run.ID, "rows", len(rows))
	return nil
}

// LatestRun returns the most recently completed run, or common.ErrNoRuns.
func (s *SQLiteStorage) LatestRun(ctx context.Context) (*model.EnrichmentRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getRun(ctx, `
		SELECT id, rule_set_hash, status, row_count, started_at, completed_at
		FROM enrichment_runs
		WHERE status = ?
		ORDER BY completed_at DESC, started_at DESC
		LIMIT 1
	`, string(model.RunCompleted))
}

// GetRun returns the run with the given ID, or common.ErrNotFound.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.EnrichmentRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	run, err := s.getRun(ctx, `
		SELECT id, rule_set_hash, status, row_count, started_at, completed_at
		FROM enrichment_runs
		WHERE id = ?
	`, id)
	if errors.Is(err, common.ErrNoRuns) {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return run, err
}

func (s *SQLiteStorage) getRun(ctx context.Context, query string, args ...any) (*model.EnrichmentRun, error) {
	var run model.EnrichmentRun
	var status string
	var completedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&run.ID, &run.RuleSetHash, &status, &run.RowCount, &run.StartedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	run.Status = model.RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	return &run, nil
}

// GetEnrichedTransactions returns the rows of one run, in pipeline order,
// narrowed by filter. Without a RunID the latest completed run is used.
func (s *SQLiteStorage) GetEnrichedTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.EnrichedTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.EndDate, *filter.StartDate)
	}

	runID := filter.RunID
	if runID == "" {
		run, err := s.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		runID = run.ID
	}

	query, args := buildEnrichedQuery(runID, filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query enriched transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.EnrichedTransaction
	for rows.Next() {
		var e model.EnrichedTransaction
		var txnType, refundStatus, frequency, spending string
		if err := scanRaw(rows, &e.Raw,
			&txnType, &e.Amount, &e.OriginalAmount, &refundStatus, &e.RefundedAmount, &e.RefundMatchID,
			&e.IsRecurring, &frequency, &e.Category, &e.Subcategory, &e.Merchant, &spending,
			&e.AbsoluteAmount, &e.AmountBucket, &e.Month, &e.DayOfWeek, &e.IsWeekend,
		); err != nil {
			return nil, err
		}
		e.Type = model.TransactionType(txnType)
		e.RefundStatus = model.RefundStatus(refundStatus)
		e.RecurringFrequency = model.RecurringFrequency(frequency)
		e.SpendingType = model.SpendingType(spending)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enriched transactions: %w", err)
	}
	return result, nil
}

func buildEnrichedQuery(runID string, f service.TransactionFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`
		SELECT ` + rawColumns + `,
			e.transaction_type, e.amount, e.original_amount, e.refund_status, e.refunded_amount, e.refund_match_id,
			e.is_recurring, e.recurring_frequency, e.category, e.subcategory, e.merchant, e.spending_type,
			e.absolute_amount, e.amount_bucket, e.transaction_month, e.day_of_week, e.is_weekend
		FROM enriched_transactions e
		JOIN raw_transactions r ON r.id = e.raw_id
		WHERE e.run_id = ?`)
	args := []any{runID}

	where := func(clause string, arg any) {
		b.WriteString(" AND " + clause)
		args = append(args, arg)
	}

	if f.StartDate != nil {
		where("r.transaction_date >= ?", f.StartDate.Format(dateLayout))
	}
	if f.EndDate != nil {
		where("r.transaction_date <= ?", f.EndDate.Format(dateLayout))
	}
	if f.Category != "" {
		where("e.category = ? COLLATE NOCASE", f.Category)
	}
	if f.Merchant != "" {
		where("e.merchant LIKE ?", "%"+f.Merchant+"%")
	}
	if f.Source != "" {
		where("r.source = ? COLLATE NOCASE", f.Source)
	}
	if f.SpendingType != "" {
		where("e.spending_type = ?", string(f.SpendingType))
	}
	if f.RefundStatus != "" {
		where("e.refund_status = ?", string(f.RefundStatus))
	}
	if f.Type != "" {
		where("e.transaction_type = ?", string(f.Type))
	}
	if f.MinAmount != nil {
		where("CAST(e.absolute_amount AS REAL) >= ?", decimalArg(f.MinAmount))
	}
	if f.MaxAmount != nil {
		where("CAST(e.absolute_amount AS REAL) <= ?", decimalArg(f.MaxAmount))
	}
	if f.RecurringOnly {
		b.WriteString(" AND e.is_recurring = 1")
	}

	b.WriteString(" ORDER BY e.position ASC")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, f.Limit, f.Offset)
	}
	return b.String(), args
}

// PruneRuns deletes all but the keep most recent completed runs and returns
// how many were removed. Their rows go with them.
func (s *SQLiteStorage) PruneRuns(ctx context.Context, keep int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if keep < 1 {
		return 0, fmt.Errorf("%w: keep must be at least 1, got %d", ErrInvalidRun, keep)
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM enrichment_runs
		WHERE id NOT IN (
			SELECT id FROM enrichment_runs
			WHERE status = ?
			ORDER BY completed_at DESC, started_at DESC
			LIMIT ?
		)
	`, string(model.RunCompleted), keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		slog.Info("Pruned enrichment runs", "removed", n, "kept", keep)
	}
	return int(n), nil
}
