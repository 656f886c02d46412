package rules

import "github.com/Veraticus/spice-ledger/internal/model"

// Default returns the built-in rule set. Each call returns a fresh copy.
func Default() RuleSet {
	return RuleSet{
		Classifier: ClassifierRules{
			DirectDepositCategory: "Direct Deposit",
			DepositCategory:       "Deposit",
			WithdrawalCategory:    "Withdrawal",
			OnlineTransferPattern: `ONLINE TRANSFER`,
			OnlineTransferOut:     `ONLINE TRANSFER.*TO`,
			IncomeKeywords: []string{
				"inc", "salary", "payroll", "direct dep", "dd ", "interest earned",
				"cashback", "dividend", "tax refund", "commission",
			},
			RefundKeywords: []string{
				"refund", "reembolso", "credit adj", "credit adjustment", "returned purchase",
				"returned item", "return of purchase", "chargeback",
			},
			TransferKeywords: []string{
				"vault", "to house", "savings", "transfer to", "move to", "moved to",
				"transfer", "xfer", "zelle", "venmo", "bank2bank", "from bank",
			},
			DepositExclusions: []string{"transfer", "xfer", "zelle", "venmo"},
			CreditCardKeywords: []string{
				"chase", "amex", "american express", "citi", "discover", "capital one",
				"mastercard", "visa", "credit card", "credit payment", "card payment", "epay",
			},
			PaymentKeywords: []string{
				"payment", "thank you", "pymt", "autopay", "automatic payment", "web payment",
			},
			BankKeywords: []string{
				"sofi bank", "wells fargo", "chase bank", "bank of america", "citi bank",
				"wells fargo bank", "bank na", "jpmorgan chase", "citibank", "us bank",
			},
			BankTransferKeywords: []string{"transfer"},
			SourceOverrides:      []string{"WellsFargo"},
			ProcessorKeywords:    []string{"paypal"},
			ProcessorExclusions:  []string{"transfer from", "payment from"},
			CardEpayKeywords:     []string{"credit crd epay"},
			BillPayKeywords:      []string{"bill pay"},
		},
		Signs: SignRules{
			IncomeLikeKeywords: []string{
				"inc", "corp", "llc", "ltd", "deposit", "salary", "payroll",
				"payment received", "refund",
			},
		},
		Recurring: RecurringRules{
			SubscriptionKeywords: []string{
				"netflix", "spotify", "hulu", "prime", "youtube", "disney+", "chatgpt",
				"subscription", "monthly", "classpass", "internet", "bill", "utilities",
				"insurance", "membership", "mobile", "wireless", "openai", "robinhood",
			},
			Windows: []FrequencyWindow{
				{Frequency: model.FrequencyMonthly, MinDays: 25, MaxDays: 35},
				{Frequency: model.FrequencyWeekly, MinDays: 6, MaxDays: 10},
				{Frequency: model.FrequencyBiWeekly, MinDays: 13, MaxDays: 17},
			},
		},
		Spending: SpendingRules{
			TransferSubcategoryKeywords: []string{"transfer", "withdrawal", "bank", "savings transfer"},
			NonDiscretionarySubcategories: []string{
				"electricity", "gas", "internet", "cable", "utilities",
				"supermarket", "grocery", "student loan", "health", "insurance",
			},
			NonDiscretionaryCategories: []string{
				"bills & utilities", "groceries", "health & wellness", "education",
				"essential services", "utilities", "health", "accommodation",
			},
		},
		Categories:    defaultCategories(),
		Subcategories: defaultSubcategories(),
		Merchant:      defaultMerchant(),
	}
}

func defaultCategories() []CategoryRule {
	typeRule := func(t model.TransactionType, category string) CategoryRule {
		return CategoryRule{Field: FieldType, Match: MatchEquals, Value: string(t), Category: category}
	}
	desc := func(match, value, category string) CategoryRule {
		return CategoryRule{Field: FieldDescription, Match: match, Value: value, Category: category}
	}
	source := func(match, value, category string) CategoryRule {
		return CategoryRule{Field: FieldCategorySource, Match: match, Value: value, Category: category}
	}

	return []CategoryRule{
		typeRule(model.TypeIncome, "Income"),
		typeRule(model.TypeTransferIncoming, "Transfer"),
		typeRule(model.TypeTransferOutgoing, "Transfer"),
		typeRule(model.TypeCreditPaymentSent, "Payment"),
		typeRule(model.TypeCreditPaymentReceived, "Payment"),
		typeRule(model.TypePayment, "Payment"),

		desc(MatchContains, "rent pmt", "Accommodation"),
		desc(MatchContains, "amazon", "Shopping"),
		desc(MatchContains, "target", "Food"),
		desc(MatchContains, "costco", "Food"),
		desc(MatchContains, "safeway", "Food"),
		desc(MatchContains, "uber eats", "Food"),
		desc(MatchContains, "doordash", "Food"),
		desc(MatchContains, "apple.com/bill", "Utilities"),
		desc(MatchContains, "openai", "Utilities"),
		desc(MatchContains, "cursor", "Utilities"),
		desc(MatchContains, "pg&e", "Utilities"),
		desc(MatchContains, "netflix", "Entertainment"),
		desc(MatchContains, "spotify", "Entertainment"),
		desc(MatchContains, "hulu", "Entertainment"),
		desc(MatchContains, "coursera", "Education"),
		desc(MatchPrefix, "lyft", "Transportation"),
		desc(MatchPrefix, "uber", "Transportation"),

		source(MatchContains, "restaurant", "Food"),
		source(MatchEquals, "groceries", "Food"),
		source(MatchContains, "food", "Food"),
		source(MatchContains, "health", "Health"),
		source(MatchContains, "utilities", "Utilities"),
		source(MatchContains, "communications", "Utilities"),
		source(MatchEquals, "transportation", "Transportation"),
		source(MatchEquals, "travel", "Travel"),
		source(MatchContains, "entertainment", "Entertainment"),
		source(MatchContains, "shopping", "Shopping"),
		source(MatchContains, "merchandise", "Shopping"),
		source(MatchContains, "education", "Education"),
	}
}

func defaultSubcategories() []SubcategoryRule {
	group := func(categorySource string, rules ...SubcategoryRule) []SubcategoryRule {
		for i := range rules {
			rules[i].CategorySource = categorySource
		}
		return rules
	}
	anyOf := func(subcategory string, words ...string) SubcategoryRule {
		return SubcategoryRule{Subcategory: subcategory, Any: words}
	}
	fallback := func(subcategory string) SubcategoryRule {
		return SubcategoryRule{Subcategory: subcategory}
	}
	typed := func(t model.TransactionType, subcategory string, words ...string) SubcategoryRule {
		return SubcategoryRule{Type: t, Subcategory: subcategory, Any: words}
	}

	var out []SubcategoryRule
	out = append(out, group("groceries",
		anyOf("Supermarket", "safeway", "andronicos"),
		anyOf("Wholesale Club", "costco"),
		anyOf("Specialty Grocery", "gus", "community market", "lucas market", "h mart"),
		anyOf("Grocery Store", "walmart"),
		fallback("General Grocery"),
	)...)
	out = append(out, group("shopping",
		anyOf("Online Marketplace", "amazon", "mktpl"),
		anyOf("Department Store", "nord", "sephora"),
		anyOf("Electronics", "apple"),
		anyOf("Software Subscription", "vpn", "chatgpt", "openai", "cursor"),
		anyOf("Gaming", "nintendo"),
		anyOf("Service Tips", "tips"),
		fallback("General Shopping"),
	)...)
	out = append(out, group("food & drink",
		anyOf("Food Delivery", "doordash", "uber eats", "rappi"),
		anyOf("Fast Food", "pizza", "taco"),
		anyOf("Restaurant", "restaurant", "grill", "café", "cafe", "breakfast"),
		anyOf("Sit-down Restaurant", "el torito", "rosamunde", "angies"),
		fallback("Dining"),
	)...)
	out = append(out, group("bills & utilities",
		anyOf("Electricity/Gas", "pg&e"),
		anyOf("Streaming Services", "spotify", "hulu", "prime", "video"),
		anyOf("Internet/Cable", "internet", "cable"),
		fallback("General Utilities"),
	)...)
	out = append(out, group("entertainment",
		anyOf("Video Games", "steam", "game", "nintendo"),
		anyOf("Streaming", "youtube", "spotify"),
		anyOf("Events/Concerts", "ticketmaster"),
		fallback("General Entertainment"),
	)...)
	out = append(out, group("direct payment",
		anyOf("Investment Platform", "robinhood"),
		anyOf("Student Loan", "dept education"),
		anyOf("Education Payment", "education"),
		anyOf("P2P Payment", "venmo"),
		fallback("Other Payment"),
	)...)
	out = append(out, group("health & wellness",
		anyOf("Fitness Membership", "classpass"),
		fallback("General Health"),
	)...)
	out = append(out, group("travel",
		anyOf("Rideshare", "lyft"),
		SubcategoryRule{Subcategory: "Rideshare", Any: []string{"uber"}, None: []string{"eats"}},
		fallback("General Travel"),
	)...)
	out = append(out, group("education",
		anyOf("Online Course", "coursera"),
		fallback("General Education"),
	)...)

	out = append(out,
		typed(model.TypeCreditPaymentSent, "Chase Credit Card Payment", "chase"),
		typed(model.TypeCreditPaymentSent, "Amex Credit Card Payment", "amex", "american express"),
		typed(model.TypeCreditPaymentSent, "Other Credit Card Payment"),

		typed(model.TypeCreditPaymentReceived, "Mobile Payment Received", "mobile"),
		typed(model.TypeCreditPaymentReceived, "Credit Card Payment Received"),

		typed(model.TypeIncome, "Salary/Wages", "payroll", "salary", "direct dep"),
		typed(model.TypeIncome, "Interest Income", "interest"),
		typed(model.TypeIncome, "Refund Income", "refund", "tourist"),
		typed(model.TypeIncome, "Internal Transfer", "transfer"),
		typed(model.TypeIncome, "Other Income"),

		typed(model.TypeRefund, "Payment Refund", "payment"),
		typed(model.TypeRefund, "Service Refund", "uber", "paypal"),
		typed(model.TypeRefund, "Purchase Refund"),
	)

	for _, t := range []model.TransactionType{model.TypeTransferIncoming, model.TypeTransferOutgoing} {
		out = append(out,
			typed(t, "Savings Transfer", "vault", "to house"),
			typed(t, "Bank Transfer", "wells fargo", "chase", "bank of america", "sofi bank"),
		)
	}
	out = append(out,
		typed(model.TypeTransferIncoming, "Incoming Bank Transfer"),
		typed(model.TypeTransferOutgoing, "Outgoing Bank Transfer"),
		typed(model.TypeCharge, "Bank Withdrawal", "wells fargo"),
	)
	return out
}

func defaultMerchant() []Substitution {
	return []Substitution{
		{Pattern: `^(SQ|TST|DD|PP|PAYPAL|MOBILE|AMEX)\s*\*\s*`},
		{Pattern: `\b[A-Z]*[0-9][A-Z0-9]{5,}\b`},
		{Pattern: `\s+\d{1,2}[-/]\d{1,2}(\s|$)`, Replace: " "},
		{Pattern: `\s+\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\s*$`},
		{Pattern: `\s+(help\.uber\.com|com|inc)\b.*$`},
		{Pattern: `\.(com|net|org)\b`},
		{Pattern: `[*]`},
	}
}
