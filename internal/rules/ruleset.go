// Package rules holds the keyword lists and rule tables that drive enrichment.
// A RuleSet is plain data; Compile turns it into the matchers the pipeline uses.
package rules

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// RuleSet is the complete configuration of the enrichment pipeline.
type RuleSet struct {
	Classifier    ClassifierRules   `mapstructure:"classifier" json:"classifier"`
	Signs         SignRules         `mapstructure:"signs" json:"signs"`
	Recurring     RecurringRules    `mapstructure:"recurring" json:"recurring"`
	Spending      SpendingRules     `mapstructure:"spending" json:"spending"`
	Categories    []CategoryRule    `mapstructure:"categories" json:"categories"`
	Subcategories []SubcategoryRule `mapstructure:"subcategories" json:"subcategories"`
	Merchant      []Substitution    `mapstructure:"merchant" json:"merchant"`
}

// ClassifierRules configures the transaction type rules.
type ClassifierRules struct {
	DirectDepositCategory string   `mapstructure:"direct_deposit_category" json:"direct_deposit_category"`
	DepositCategory       string   `mapstructure:"deposit_category" json:"deposit_category"`
	WithdrawalCategory    string   `mapstructure:"withdrawal_category" json:"withdrawal_category"`
	OnlineTransferPattern string   `mapstructure:"online_transfer_pattern" json:"online_transfer_pattern"`
	OnlineTransferOut     string   `mapstructure:"online_transfer_out" json:"online_transfer_out"`
	IncomeKeywords        []string `mapstructure:"income_keywords" json:"income_keywords"`
	RefundKeywords        []string `mapstructure:"refund_keywords" json:"refund_keywords"`
	TransferKeywords      []string `mapstructure:"transfer_keywords" json:"transfer_keywords"`
	DepositExclusions     []string `mapstructure:"deposit_exclusions" json:"deposit_exclusions"`
	CreditCardKeywords    []string `mapstructure:"credit_card_keywords" json:"credit_card_keywords"`
	PaymentKeywords       []string `mapstructure:"payment_keywords" json:"payment_keywords"`
	BankKeywords          []string `mapstructure:"bank_keywords" json:"bank_keywords"`
	BankTransferKeywords  []string `mapstructure:"bank_transfer_keywords" json:"bank_transfer_keywords"`
	SourceOverrides       []string `mapstructure:"source_overrides" json:"source_overrides"`
	ProcessorKeywords     []string `mapstructure:"processor_keywords" json:"processor_keywords"`
	ProcessorExclusions   []string `mapstructure:"processor_exclusions" json:"processor_exclusions"`
	CardEpayKeywords      []string `mapstructure:"card_epay_keywords" json:"card_epay_keywords"`
	BillPayKeywords       []string `mapstructure:"bill_pay_keywords" json:"bill_pay_keywords"`
}

// SignRules configures the sign normalizer.
type SignRules struct {
	IncomeLikeKeywords []string `mapstructure:"income_like_keywords" json:"income_like_keywords"`
}

// FrequencyWindow maps a mean day gap range (inclusive) to a frequency.
type FrequencyWindow struct {
	Frequency model.RecurringFrequency `mapstructure:"frequency" json:"frequency"`
	MinDays   float64                  `mapstructure:"min_days" json:"min_days"`
	MaxDays   float64                  `mapstructure:"max_days" json:"max_days"`
}

// RecurringRules configures the recurring detector.
type RecurringRules struct {
	SubscriptionKeywords []string          `mapstructure:"subscription_keywords" json:"subscription_keywords"`
	Windows              []FrequencyWindow `mapstructure:"windows" json:"windows"`
}

// Category rule fields.
const (
	FieldType           = "type"
	FieldDescription    = "description"
	FieldCategorySource = "category_source"
)

// Category rule match modes.
const (
	MatchContains = "contains"
	MatchEquals   = "equals"
	MatchPrefix   = "prefix"
)

// CategoryRule assigns Category when Field matches Value. Comparison is
// case-insensitive.
type CategoryRule struct {
	Field    string `mapstructure:"field" json:"field"`
	Match    string `mapstructure:"match" json:"match"`
	Value    string `mapstructure:"value" json:"value"`
	Category string `mapstructure:"category" json:"category"`
}

// Matches reports whether the rule applies to a row with the given fields.
func (r CategoryRule) Matches(txnType model.TransactionType, description, categorySource string) bool {
	var subject string
	switch r.Field {
	case FieldType:
		subject = string(txnType)
	case FieldDescription:
		subject = description
	case FieldCategorySource:
		subject = categorySource
	default:
		return false
	}

	subject = strings.ToLower(subject)
	value := strings.ToLower(r.Value)
	switch r.Match {
	case MatchEquals:
		return subject == value
	case MatchPrefix:
		return strings.HasPrefix(subject, value)
	default:
		return value != "" && strings.Contains(subject, value)
	}
}

// SubcategoryRule assigns Subcategory to rows that satisfy every non-empty
// condition: the lowercased category_source equals CategorySource, the type
// equals Type, the description contains one of Any and none of None.
type SubcategoryRule struct {
	CategorySource string                `mapstructure:"category_source" json:"category_source"`
	Type           model.TransactionType `mapstructure:"type" json:"type"`
	Subcategory    string                `mapstructure:"subcategory" json:"subcategory"`
	Any            []string              `mapstructure:"any" json:"any"`
	None           []string              `mapstructure:"none" json:"none"`
}

// SpendingRules configures spending type assignment.
type SpendingRules struct {
	TransferSubcategoryKeywords   []string `mapstructure:"transfer_subcategory_keywords" json:"transfer_subcategory_keywords"`
	NonDiscretionarySubcategories []string `mapstructure:"non_discretionary_subcategories" json:"non_discretionary_subcategories"`
	NonDiscretionaryCategories    []string `mapstructure:"non_discretionary_categories" json:"non_discretionary_categories"`
}

// Substitution is one regex rewrite applied to a description when deriving
// the merchant name.
type Substitution struct {
	Pattern string `mapstructure:"pattern" json:"pattern"`
	Replace string `mapstructure:"replace" json:"replace"`
}

// Validate compiles every matcher and reports all problems at once.
func (rs RuleSet) Validate() error {
	_, err := rs.Compile()
	return err
}

// Hash returns a stable fingerprint of the rule set, recorded with each
// enrichment run.
func (rs RuleSet) Hash() string {
	data, err := json.Marshal(rs)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:8])
}

// Compiled is the matcher form of a RuleSet. It is immutable and safe to
// share between runs.
type Compiled struct {
	DirectDepositCategory string
	DepositCategory       string
	WithdrawalCategory    string

	Income            *KeywordSet
	Refund            *KeywordSet
	Transfer          *KeywordSet
	DepositExclusion  *KeywordSet
	CreditCard        *KeywordSet
	Payment           *KeywordSet
	Bank              *KeywordSet
	BankTransfer      *KeywordSet
	SourceOverride    *KeywordSet
	Processor         *KeywordSet
	ProcessorExcluded *KeywordSet
	CardEpay          *KeywordSet
	BillPay           *KeywordSet

	OnlineTransfer    *regexp.Regexp
	OnlineTransferOut *regexp.Regexp

	IncomeLike   *KeywordSet
	Subscription *KeywordSet
	Windows      []FrequencyWindow

	Categories    []CategoryRule
	Subcategories []CompiledSubcategory
	Merchant      []CompiledSubstitution

	TransferSubcategory         *KeywordSet
	NonDiscretionarySubcategory *KeywordSet
	NonDiscretionaryCategories  []string
}

// CompiledSubcategory is a SubcategoryRule with its keyword lists compiled.
type CompiledSubcategory struct {
	Any            *KeywordSet
	None           *KeywordSet
	CategorySource string
	Type           model.TransactionType
	Subcategory    string
}

// Matches reports whether the rule applies.
func (r CompiledSubcategory) Matches(txnType model.TransactionType, description, categorySource string) bool {
	if r.CategorySource != "" && !strings.EqualFold(strings.TrimSpace(categorySource), r.CategorySource) {
		return false
	}
	if r.Type != "" && r.Type != txnType {
		return false
	}
	if r.Any.Len() > 0 && !r.Any.Match(description) {
		return false
	}
	return !r.None.Match(description)
}

// CompiledSubstitution is a Substitution with its pattern compiled.
type CompiledSubstitution struct {
	Pattern *regexp.Regexp
	Replace string
}

// Compile validates the rule set and builds its matchers.
func (rs RuleSet) Compile() (*Compiled, error) {
	var errs []error
	c := rs.Classifier

	compiled := &Compiled{
		DirectDepositCategory: c.DirectDepositCategory,
		DepositCategory:       c.DepositCategory,
		WithdrawalCategory:    c.WithdrawalCategory,

		Income:            mustKeywords(&errs, "income_keywords", c.IncomeKeywords),
		Refund:            mustKeywords(&errs, "refund_keywords", c.RefundKeywords),
		Transfer:          mustKeywords(&errs, "transfer_keywords", c.TransferKeywords),
		DepositExclusion:  mustKeywords(&errs, "deposit_exclusions", c.DepositExclusions),
		CreditCard:        mustKeywords(&errs, "credit_card_keywords", c.CreditCardKeywords),
		Payment:           mustKeywords(&errs, "payment_keywords", c.PaymentKeywords),
		Bank:              mustKeywords(&errs, "bank_keywords", c.BankKeywords),
		BankTransfer:      mustKeywords(&errs, "bank_transfer_keywords", c.BankTransferKeywords),
		SourceOverride:    mustKeywords(&errs, "source_overrides", c.SourceOverrides),
		Processor:         mustKeywords(&errs, "processor_keywords", c.ProcessorKeywords),
		ProcessorExcluded: mustKeywords(&errs, "processor_exclusions", c.ProcessorExclusions),
		CardEpay:          mustKeywords(&errs, "card_epay_keywords", c.CardEpayKeywords),
		BillPay:           mustKeywords(&errs, "bill_pay_keywords", c.BillPayKeywords),

		OnlineTransfer:    mustPattern(&errs, "online_transfer_pattern", c.OnlineTransferPattern),
		OnlineTransferOut: mustPattern(&errs, "online_transfer_out", c.OnlineTransferOut),

		IncomeLike:   mustKeywords(&errs, "income_like_keywords", rs.Signs.IncomeLikeKeywords),
		Subscription: mustKeywords(&errs, "subscription_keywords", rs.Recurring.SubscriptionKeywords),
		Windows:      slices.Clone(rs.Recurring.Windows),
		Categories:   slices.Clone(rs.Categories),

		TransferSubcategory:         mustKeywords(&errs, "transfer_subcategory_keywords", rs.Spending.TransferSubcategoryKeywords),
		NonDiscretionarySubcategory: mustKeywords(&errs, "non_discretionary_subcategories", rs.Spending.NonDiscretionarySubcategories),
	}

	for _, cat := range rs.Spending.NonDiscretionaryCategories {
		compiled.NonDiscretionaryCategories = append(compiled.NonDiscretionaryCategories, strings.ToLower(cat))
	}

	for i, w := range rs.Recurring.Windows {
		if w.Frequency == model.FrequencyNone || w.MinDays > w.MaxDays {
			errs = append(errs, fmt.Errorf("recurring window %d: invalid range %v-%v for %q", i, w.MinDays, w.MaxDays, w.Frequency))
		}
	}

	for i, r := range rs.Categories {
		switch r.Field {
		case FieldType, FieldDescription, FieldCategorySource:
		default:
			errs = append(errs, fmt.Errorf("category rule %d: unknown field %q", i, r.Field))
		}
		switch r.Match {
		case MatchContains, MatchEquals, MatchPrefix:
		default:
			errs = append(errs, fmt.Errorf("category rule %d: unknown match %q", i, r.Match))
		}
		if strings.TrimSpace(r.Value) == "" {
			errs = append(errs, fmt.Errorf("category rule %d: empty value", i))
		}
		if r.Category == "" {
			errs = append(errs, fmt.Errorf("category rule %d: empty category", i))
		}
	}

	for i, r := range rs.Subcategories {
		if r.Subcategory == "" {
			errs = append(errs, fmt.Errorf("subcategory rule %d: empty subcategory", i))
		}
		compiled.Subcategories = append(compiled.Subcategories, CompiledSubcategory{
			CategorySource: strings.TrimSpace(r.CategorySource),
			Type:           r.Type,
			Subcategory:    r.Subcategory,
			Any:            mustKeywords(&errs, fmt.Sprintf("subcategory rule %d any", i), r.Any),
			None:           mustKeywords(&errs, fmt.Sprintf("subcategory rule %d none", i), r.None),
		})
	}

	for i, s := range rs.Merchant {
		if s.Pattern == "" {
			errs = append(errs, fmt.Errorf("merchant substitution %d: empty pattern", i))
			continue
		}
		re := mustPattern(&errs, fmt.Sprintf("merchant substitution %d", i), s.Pattern)
		if re != nil {
			compiled.Merchant = append(compiled.Merchant, CompiledSubstitution{Pattern: re, Replace: s.Replace})
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidRuleSet, errors.Join(errs...))
	}
	return compiled, nil
}

// IsNonDiscretionaryCategory reports whether a category (enriched or
// source-provided) contains any of the non-discretionary category names.
func (c *Compiled) IsNonDiscretionaryCategory(category string) bool {
	category = strings.ToLower(category)
	if category == "" {
		return false
	}
	for _, name := range c.NonDiscretionaryCategories {
		if name != "" && strings.Contains(category, name) {
			return true
		}
	}
	return false
}
