// Package enrich turns raw, source-signed transactions into the enriched
// ledger: type classification, sign normalization, refund matching, recurring
// detection, categorization and derived reporting columns.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/rules"
)

// Pipeline runs the enrichment stages in a fixed order. It holds only
// compiled rules, so one Pipeline may serve concurrent runs.
type Pipeline struct {
	compiled  *rules.Compiled
	typeRules []TypeRule
	signRules []SignRule
	ruleHash  string
}

// NewPipeline compiles the rule set.
func NewPipeline(rs rules.RuleSet) (*Pipeline, error) {
	compiled, err := rs.Compile()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		compiled:  compiled,
		typeRules: TypeRules(compiled),
		signRules: SignRules(compiled),
		ruleHash:  rs.Hash(),
	}, nil
}

// RuleSetHash identifies the rules this pipeline was built from.
func (p *Pipeline) RuleSetHash() string {
	return p.ruleHash
}

// Stats summarizes one run for logging and run records.
type Stats struct {
	Types     map[model.TransactionType]int
	Rows      int
	Refunds   int
	Recurring int
}

type stage struct {
	run  func([]model.EnrichedTransaction)
	name string
}

// Run enriches the full raw set. The input is not modified. A run either
// returns every row enriched or an error and no rows.
func (p *Pipeline) Run(ctx context.Context, raws []model.RawTransaction) ([]model.EnrichedTransaction, error) {
	rows, _, err := p.RunWithStats(ctx, raws)
	return rows, err
}

// RunWithStats is Run plus a summary of what each stage did.
func (p *Pipeline) RunWithStats(ctx context.Context, raws []model.RawTransaction) ([]model.EnrichedTransaction, Stats, error) {
	stats := Stats{Types: make(map[model.TransactionType]int)}
	if err := validateContext(ctx); err != nil {
		return nil, stats, err
	}
	if err := validateRaw(raws); err != nil {
		return nil, stats, err
	}

	rows := make([]model.EnrichedTransaction, len(raws))
	for i := range raws {
		rows[i] = model.NewEnriched(copyRaw(raws[i]))
	}
	stats.Rows = len(rows)
	if len(rows) == 0 {
		return rows, stats, nil
	}

	stages := []stage{
		{name: "classify", run: func(r []model.EnrichedTransaction) { Classify(r, p.typeRules) }},
		{name: "normalize-signs", run: func(r []model.EnrichedTransaction) { NormalizeSigns(r, p.signRules) }},
		{name: "match-refunds", run: func(r []model.EnrichedTransaction) { stats.Refunds = MatchRefunds(r) }},
		{name: "detect-recurring", run: func(r []model.EnrichedTransaction) { stats.Recurring = DetectRecurring(r, p.compiled) }},
		{name: "categorize", run: func(r []model.EnrichedTransaction) { Categorize(r, p.compiled) }},
		{name: "features", run: AddFeatures},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, stats, fmt.Errorf("enrichment cancelled before %s: %w", s.name, err)
		}
		s.run(rows)
		slog.Debug("Enrichment stage complete", "stage", s.name, "rows", len(rows))
	}

	for i := range rows {
		stats.Types[rows[i].Type]++
	}
	slog.Info("Enrichment complete",
		"rows", stats.Rows,
		"refunds_matched", stats.Refunds,
		"recurring", stats.Recurring,
		"undefined", stats.Types[model.TypeUndefined])

	return rows, stats, nil
}

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}

// validateRaw fails the whole batch when a structurally required field is
// missing from any row.
func validateRaw(raws []model.RawTransaction) error {
	for i := range raws {
		row := i + 1
		switch {
		case raws[i].TransactionDate.IsZero():
			return &common.MissingFieldError{Field: "transaction_date", Row: row}
		case raws[i].Source == "":
			return &common.MissingFieldError{Field: "source", Row: row}
		case raws[i].AccountType == "":
			return &common.MissingFieldError{Field: "account_type", Row: row}
		}
	}
	return nil
}

func copyRaw(raw model.RawTransaction) model.RawTransaction {
	if raw.PostDate != nil {
		post := *raw.PostDate
		raw.PostDate = &post
	}
	return raw
}
