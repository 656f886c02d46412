package enrich

import (
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/rules"
)

const defaultSubcategory = "General"

// Categorize assigns category, subcategory, merchant and spending type to
// every row. Each field takes the first matching rule.
func Categorize(rows []model.EnrichedTransaction, c *rules.Compiled) {
	for i := range rows {
		row := &rows[i]
		row.Category = category(row, c)
		row.Subcategory = subcategory(row, c)
		row.Merchant = Merchant(row.Raw.Description, c.Merchant)
		row.SpendingType = spendingType(row, c)
	}
}

func category(row *model.EnrichedTransaction, c *rules.Compiled) string {
	for _, rule := range c.Categories {
		if rule.Matches(row.Type, row.Raw.Description, row.Raw.CategorySource) {
			return rule.Category
		}
	}
	return model.CategoryUndefined
}

func subcategory(row *model.EnrichedTransaction, c *rules.Compiled) string {
	for _, rule := range c.Subcategories {
		if rule.Matches(row.Type, row.Raw.Description, row.Raw.CategorySource) {
			return rule.Subcategory
		}
	}
	return defaultSubcategory
}

func spendingType(row *model.EnrichedTransaction, c *rules.Compiled) model.SpendingType {
	switch row.Type {
	case model.TypeIncome, model.TypeCreditPaymentReceived, model.TypeRefund:
		return model.SpendingIncomeRefund
	case model.TypeCreditPaymentSent:
		return model.SpendingCreditPayment
	case model.TypeTransferIncoming, model.TypeTransferOutgoing:
		return model.SpendingTransfer
	}

	if c.TransferSubcategory.Match(row.Subcategory) {
		return model.SpendingTransfer
	}
	if c.NonDiscretionarySubcategory.Match(row.Subcategory) {
		return model.SpendingNonDiscretionary
	}
	if c.IsNonDiscretionaryCategory(row.Category) || c.IsNonDiscretionaryCategory(row.Raw.CategorySource) {
		return model.SpendingNonDiscretionary
	}
	return model.SpendingDiscretionary
}

// Merchant derives a short merchant name from a description: the substitutions
// run in order, then the first remaining word is taken. A description that
// cleans down to nothing is returned unchanged.
func Merchant(description string, subs []rules.CompiledSubstitution) string {
	clean := description
	for _, s := range subs {
		clean = s.Pattern.ReplaceAllString(clean, s.Replace)
	}

	fields := strings.Fields(clean)
	if len(fields) == 0 {
		return description
	}
	return fields[0]
}
