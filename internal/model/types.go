package model

import "strings"

// AccountType is the kind of account a transaction was posted to.
type AccountType string

// Account type constants.
const (
	AccountCreditCard AccountType = "CreditCard"
	AccountChecking   AccountType = "Checking"
)

// ParseAccountType normalizes the spellings used by bank exports
// ("Credit Card", "credit_card", "Checkings", ...). Unrecognized values are
// returned trimmed but otherwise verbatim so they can be surfaced later.
func ParseAccountType(s string) AccountType {
	trimmed := strings.TrimSpace(s)
	key := strings.ToLower(trimmed)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)

	switch key {
	case "creditcard", "credit", "card", "cc":
		return AccountCreditCard
	case "checking", "checkings", "depository", "debit":
		return AccountChecking
	}
	return AccountType(trimmed)
}

// Known reports whether the account type is one the classifier understands.
func (a AccountType) Known() bool {
	return a == AccountCreditCard || a == AccountChecking
}

// TransactionType is the canonical classification assigned by the type classifier.
type TransactionType string

// Transaction type constants.
const (
	TypeCharge                TransactionType = "Charge"
	TypePayment               TransactionType = "Payment"
	TypeRefund                TransactionType = "Refund"
	TypeIncome                TransactionType = "Income"
	TypeTransferIncoming      TransactionType = "Transfer-Incoming"
	TypeTransferOutgoing      TransactionType = "Transfer-Outgoing"
	TypeCreditPaymentSent     TransactionType = "CreditPaymentSent"
	TypeCreditPaymentReceived TransactionType = "CreditPaymentReceived"
	TypeUndefined             TransactionType = "Undefined"
)

// IsTransfer reports whether the type moves money between the user's own accounts.
func (t TransactionType) IsTransfer() bool {
	return t == TypeTransferIncoming || t == TypeTransferOutgoing
}

// RefundStatus records the outcome of refund matching.
type RefundStatus string

// Refund status constants.
const (
	RefundNone     RefundStatus = "none"
	RefundRefunded RefundStatus = "refunded" // a charge that a refund was linked to
	RefundMatched  RefundStatus = "matched"  // a refund that found its charge
)

// RecurringFrequency is the estimated period of a recurring series.
type RecurringFrequency string

// Recurring frequency constants. The empty value means not recurring.
const (
	FrequencyNone            RecurringFrequency = ""
	FrequencyMonthly         RecurringFrequency = "Monthly"
	FrequencyWeekly          RecurringFrequency = "Weekly"
	FrequencyBiWeekly        RecurringFrequency = "Bi-weekly"
	FrequencyMonthlyProbable RecurringFrequency = "Monthly (Probable)"
)

// SpendingType is the budgeting classification of a row.
type SpendingType string

// Spending type constants.
const (
	SpendingDiscretionary    SpendingType = "Discretionary"
	SpendingNonDiscretionary SpendingType = "Non-discretionary"
	SpendingIncomeRefund     SpendingType = "Income/Refund"
	SpendingCreditPayment    SpendingType = "Credit Payment"
	SpendingTransfer         SpendingType = "Transfer"
)

// CategoryUndefined is assigned when no category rule matched.
const CategoryUndefined = "Undefined"
