package enrich

import (
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/rules"
)

// Masks records, per rule name, which rows a rule's predicate selected.
// Later rules read earlier masks to exclude rows claimed by another rule.
type Masks map[string][]bool

// Has reports whether the named rule selected row i.
func (m Masks) Has(rule string, i int) bool {
	mask, ok := m[rule]
	return ok && i < len(mask) && mask[i]
}

// Row is the view a classification predicate gets of one row.
type Row struct {
	*model.RawTransaction
	masks Masks
	index int
}

// Matched reports whether an earlier rule selected this row.
func (r Row) Matched(names ...string) bool {
	for _, name := range names {
		if r.masks.Has(name, r.index) {
			return true
		}
	}
	return false
}

// TypeRule assigns a transaction type to every row its predicate selects.
type TypeRule struct {
	Match  func(Row) bool
	Name   string
	Assign model.TransactionType
}

// Classify applies the rules in order as full-table masked overwrites. Each
// rule evaluates its predicate over every row before writing, so a row may be
// reassigned several times and keeps the last matching assignment.
func Classify(rows []model.EnrichedTransaction, typeRules []TypeRule) Masks {
	masks := make(Masks, len(typeRules))
	for _, rule := range typeRules {
		mask := make([]bool, len(rows))
		for i := range rows {
			mask[i] = rule.Match(Row{RawTransaction: &rows[i].Raw, masks: masks, index: i})
		}
		masks[rule.Name] = mask

		for i, selected := range mask {
			if selected {
				rows[i].Type = rule.Assign
			}
		}
	}
	return masks
}

// Rule names referenced by later predicates.
const (
	ruleTransferOut       = "checking-transfer-out"
	ruleTransferIn        = "checking-transfer-in"
	ruleOnlineTransferOut = "online-transfer-out"
	ruleOnlineCardPayment = "online-transfer-card-payment"
	ruleSourceBillPay     = "source-bill-pay"
)

// TypeRules builds the ordered classification rules from compiled rule tables.
func TypeRules(c *rules.Compiled) []TypeRule {
	checking := func(r Row) bool { return r.AccountType == model.AccountChecking }
	creditCard := func(r Row) bool { return r.AccountType == model.AccountCreditCard }
	negative := func(r Row) bool { return r.Amount.IsNegative() }
	positive := func(r Row) bool { return r.Amount.IsPositive() }
	override := func(r Row) bool { return c.SourceOverride.Match(r.Source) }
	sourceCategory := func(r Row, category string) bool {
		return category != "" && strings.EqualFold(strings.TrimSpace(r.CategorySource), category)
	}
	onlineTransfer := func(r Row) bool {
		return c.OnlineTransfer != nil && c.OnlineTransfer.MatchString(r.Description)
	}
	onlineTransferOut := func(r Row) bool {
		return c.OnlineTransferOut != nil && c.OnlineTransferOut.MatchString(r.Description)
	}
	inTransfer := func(r Row) bool {
		return r.Matched(ruleTransferOut, ruleTransferIn, ruleOnlineTransferOut)
	}
	bankTransfer := func(r Row) bool {
		return checking(r) && c.Bank.Match(r.Description) && c.BankTransfer.Match(r.Description) &&
			!r.Matched(ruleOnlineCardPayment, ruleSourceBillPay)
	}
	bankCategory := func(r Row, category string) bool {
		return checking(r) && c.Bank.Match(r.Description) && sourceCategory(r, category) &&
			!r.Matched(ruleOnlineCardPayment, ruleSourceBillPay)
	}

	return []TypeRule{
		{
			Name:   "default",
			Assign: model.TypeCharge,
			Match:  func(Row) bool { return true },
		},
		{
			Name:   "direct-deposit",
			Assign: model.TypeIncome,
			Match:  func(r Row) bool { return sourceCategory(r, c.DirectDepositCategory) },
		},
		{
			Name:   "checking-deposit",
			Assign: model.TypeIncome,
			Match: func(r Row) bool {
				return checking(r) && sourceCategory(r, c.DepositCategory) && !c.DepositExclusion.Match(r.Description)
			},
		},
		{
			Name:   "income-keywords",
			Assign: model.TypeIncome,
			Match:  func(r Row) bool { return c.Income.Match(r.Description) },
		},
		{
			Name:   "refund-keywords",
			Assign: model.TypeRefund,
			Match:  func(r Row) bool { return c.Refund.Match(r.Description) },
		},
		{
			Name:   ruleTransferOut,
			Assign: model.TypeTransferOutgoing,
			Match:  func(r Row) bool { return checking(r) && negative(r) && c.Transfer.Match(r.Description) },
		},
		{
			Name:   ruleTransferIn,
			Assign: model.TypeTransferIncoming,
			Match:  func(r Row) bool { return checking(r) && positive(r) && c.Transfer.Match(r.Description) },
		},
		{
			Name:   ruleOnlineTransferOut,
			Assign: model.TypeTransferOutgoing,
			Match: func(r Row) bool {
				return override(r) && negative(r) && onlineTransferOut(r) && !c.CreditCard.Match(r.Description)
			},
		},
		{
			Name:   ruleOnlineCardPayment,
			Assign: model.TypeCreditPaymentSent,
			Match: func(r Row) bool {
				return override(r) && negative(r) && onlineTransfer(r) && c.CreditCard.Match(r.Description)
			},
		},
		{
			Name:   "processor-charge",
			Assign: model.TypeCharge,
			Match: func(r Row) bool {
				return override(r) && negative(r) && c.Processor.Match(r.Description) &&
					!c.ProcessorExcluded.Match(r.Description) && !r.Matched(ruleOnlineCardPayment)
			},
		},
		{
			Name:   "card-payment-sent",
			Assign: model.TypeCreditPaymentSent,
			Match: func(r Row) bool {
				return checking(r) && positive(r) && c.CreditCard.Match(r.Description) && !inTransfer(r)
			},
		},
		{
			Name:   "source-card-payment-sent",
			Assign: model.TypeCreditPaymentSent,
			Match: func(r Row) bool {
				return override(r) && checking(r) && negative(r) &&
					(c.CreditCard.Match(r.Description) || c.CardEpay.Match(r.Description)) && !inTransfer(r)
			},
		},
		{
			Name:   ruleSourceBillPay,
			Assign: model.TypeCharge,
			Match: func(r Row) bool {
				return override(r) && checking(r) && negative(r) && c.BillPay.Match(r.Description)
			},
		},
		{
			Name:   "bank-transfer-out",
			Assign: model.TypeTransferOutgoing,
			Match:  func(r Row) bool { return bankTransfer(r) && negative(r) },
		},
		{
			Name:   "bank-transfer-in",
			Assign: model.TypeTransferIncoming,
			Match:  func(r Row) bool { return bankTransfer(r) && positive(r) },
		},
		{
			Name:   "bank-withdrawal",
			Assign: model.TypeTransferOutgoing,
			Match:  func(r Row) bool { return bankCategory(r, c.WithdrawalCategory) },
		},
		{
			Name:   "bank-deposit",
			Assign: model.TypeTransferIncoming,
			Match:  func(r Row) bool { return bankCategory(r, c.DepositCategory) },
		},
		{
			Name:   "card-payment-received",
			Assign: model.TypeCreditPaymentReceived,
			Match: func(r Row) bool {
				return creditCard(r) && negative(r) && c.Payment.Match(r.Description)
			},
		},
		{
			Name:   "unknown-account",
			Assign: model.TypeUndefined,
			Match:  func(r Row) bool { return !r.AccountType.Known() },
		},
	}
}
