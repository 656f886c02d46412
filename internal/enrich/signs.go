package enrich

import (
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/rules"
)

// Sign is the target sign of a SignRule.
type Sign int

// Target signs.
const (
	Negative Sign = -1
	Positive Sign = 1
)

// SignRule forces the sign of every row its predicate selects.
type SignRule struct {
	Match  func(*model.EnrichedTransaction) bool
	Name   string
	Target Sign
}

// NormalizeSigns applies the rules in order, flipping only rows whose current
// sign disagrees with the target, then records the normalized amount as the
// original amount.
func NormalizeSigns(rows []model.EnrichedTransaction, signRules []SignRule) {
	for _, rule := range signRules {
		for i := range rows {
			row := &rows[i]
			if !rule.Match(row) {
				continue
			}
			switch rule.Target {
			case Negative:
				if row.Amount.IsPositive() {
					row.Amount = row.Amount.Neg()
				}
			case Positive:
				if row.Amount.IsNegative() {
					row.Amount = row.Amount.Neg()
				}
			}
		}
	}

	for i := range rows {
		rows[i].OriginalAmount = rows[i].Amount
	}
}

// SignRules builds the ordered sign rules from compiled rule tables.
func SignRules(c *rules.Compiled) []SignRule {
	on := func(account model.AccountType, t model.TransactionType) func(*model.EnrichedTransaction) bool {
		return func(e *model.EnrichedTransaction) bool {
			return e.Raw.AccountType == account && e.Type == t
		}
	}

	return []SignRule{
		{Name: "card-charge", Target: Negative, Match: on(model.AccountCreditCard, model.TypeCharge)},
		{Name: "card-payment-received", Target: Positive, Match: on(model.AccountCreditCard, model.TypeCreditPaymentReceived)},
		{Name: "checking-transfer-out", Target: Negative, Match: on(model.AccountChecking, model.TypeTransferOutgoing)},
		{Name: "checking-transfer-in", Target: Positive, Match: on(model.AccountChecking, model.TypeTransferIncoming)},
		{Name: "checking-card-payment", Target: Negative, Match: on(model.AccountChecking, model.TypeCreditPaymentSent)},
		{
			Name:   "income",
			Target: Positive,
			Match:  func(e *model.EnrichedTransaction) bool { return e.Type == model.TypeIncome },
		},
		{
			Name:   "direct-deposit",
			Target: Positive,
			Match: func(e *model.EnrichedTransaction) bool {
				return e.Raw.AccountType == model.AccountChecking && c.DirectDepositCategory != "" &&
					strings.EqualFold(strings.TrimSpace(e.Raw.CategorySource), c.DirectDepositCategory)
			},
		},
		{
			Name:   "income-like-charge",
			Target: Positive,
			Match: func(e *model.EnrichedTransaction) bool {
				return e.Raw.AccountType == model.AccountChecking && e.Type == model.TypeCharge &&
					e.Amount.IsNegative() && c.IncomeLike.Match(e.Raw.Description)
			},
		},
	}
}
