package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestKeywordSet(t *testing.T) {
	ks, err := NewKeywordSet([]string{"disney+", "dd ", "", "credit crd epay"})
	require.NoError(t, err)

	tests := []struct {
		text string
		want bool
	}{
		{"DISNEY+ MONTHLY", true},
		{"DISNEYY", false},
		{"ADD ON", true},
		{"WF CREDIT CRD EPAY 1234", true},
		{"GROCERY STORE", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ks.Match(tt.text))
		})
	}

	assert.Equal(t, 3, ks.Len())
	assert.Equal(t, []string{"disney+", "dd ", "credit crd epay"}, ks.words)

	var nilSet *KeywordSet
	assert.False(t, nilSet.Match("anything"))

	empty, err := NewKeywordSet(nil)
	require.NoError(t, err)
	assert.False(t, empty.Match("anything"))
}

func TestCategoryRuleMatches(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		source string
		rule   CategoryRule
		typ    model.TransactionType
		want   bool
	}{
		{
			name: "type equals",
			rule: CategoryRule{Field: FieldType, Match: MatchEquals, Value: "Income", Category: "Income"},
			typ:  model.TypeIncome,
			want: true,
		},
		{
			name: "description contains ignores case",
			rule: CategoryRule{Field: FieldDescription, Match: MatchContains, Value: "amazon", Category: "Shopping"},
			desc: "AMAZON MKTPLACE",
			want: true,
		},
		{
			name: "description prefix",
			rule: CategoryRule{Field: FieldDescription, Match: MatchPrefix, Value: "uber", Category: "Transportation"},
			desc: "PAYPAL *UBER",
			want: false,
		},
		{
			name:   "category source equals",
			rule:   CategoryRule{Field: FieldCategorySource, Match: MatchEquals, Value: "groceries", Category: "Food"},
			source: "Groceries",
			want:   true,
		},
		{
			name: "unknown field",
			rule: CategoryRule{Field: "memo", Match: MatchContains, Value: "x", Category: "X"},
			desc: "x",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(tt.typ, tt.desc, tt.source))
		})
	}
}

func TestCompileRejectsBadRules(t *testing.T) {
	tests := []struct {
		mutate func(*RuleSet)
		name   string
	}{
		{name: "bad regex", mutate: func(rs *RuleSet) { rs.Classifier.OnlineTransferOut = "ONLINE(" }},
		{name: "bad merchant pattern", mutate: func(rs *RuleSet) { rs.Merchant = append(rs.Merchant, Substitution{Pattern: "[a-"}) }},
		{name: "unknown category field", mutate: func(rs *RuleSet) {
			rs.Categories = append(rs.Categories, CategoryRule{Field: "memo", Match: MatchContains, Value: "x", Category: "X"})
		}},
		{name: "inverted window", mutate: func(rs *RuleSet) {
			rs.Recurring.Windows = []FrequencyWindow{{Frequency: model.FrequencyMonthly, MinDays: 35, MaxDays: 25}}
		}},
		{name: "empty subcategory", mutate: func(rs *RuleSet) { rs.Subcategories = []SubcategoryRule{{Type: model.TypeIncome}} }},
		{name: "empty prefix value", mutate: func(rs *RuleSet) {
			rs.Categories = append(rs.Categories, CategoryRule{Field: FieldDescription, Match: MatchPrefix, Category: "Everything"})
		}},
		{name: "blank equals value", mutate: func(rs *RuleSet) {
			rs.Categories = append(rs.Categories, CategoryRule{Field: FieldCategorySource, Match: MatchEquals, Value: "  ", Category: "Blank"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := Default()
			tt.mutate(&rs)
			_, err := rs.Compile()
			assert.ErrorIs(t, err, common.ErrInvalidRuleSet)
		})
	}
}

func TestCompiledSubcategoryMatches(t *testing.T) {
	compiled, err := RuleSet{Subcategories: []SubcategoryRule{
		{CategorySource: "travel", Subcategory: "Rideshare", Any: []string{"uber"}, None: []string{"eats"}},
	}}.Compile()
	require.NoError(t, err)
	rule := compiled.Subcategories[0]

	assert.True(t, rule.Matches(model.TypeCharge, "UBER TRIP", "Travel"))
	assert.False(t, rule.Matches(model.TypeCharge, "UBER EATS", "Travel"))
	assert.False(t, rule.Matches(model.TypeCharge, "UBER TRIP", "Dining"))
}

func TestIsNonDiscretionaryCategory(t *testing.T) {
	compiled, err := Default().Compile()
	require.NoError(t, err)

	assert.True(t, compiled.IsNonDiscretionaryCategory("Bills & Utilities"))
	assert.True(t, compiled.IsNonDiscretionaryCategory("Utilities"))
	assert.False(t, compiled.IsNonDiscretionaryCategory("Shopping"))
	assert.False(t, compiled.IsNonDiscretionaryCategory(""))
}

func TestHashIsStable(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.Hash(), b.Hash())

	b.Classifier.SourceOverrides = []string{"SoFi"}
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestLoadFile(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		rs, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, Default().Hash(), rs.Hash())
	})

	t.Run("override replaces listed keys only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := `
classifier:
  source_overrides: ["SoFi"]
recurring:
  subscription_keywords: ["gym"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		rs, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"SoFi"}, rs.Classifier.SourceOverrides)
		assert.Equal(t, []string{"gym"}, rs.Recurring.SubscriptionKeywords)
		assert.Equal(t, Default().Classifier.CreditCardKeywords, rs.Classifier.CreditCardKeywords)
		assert.Len(t, rs.Recurring.Windows, 3)
	})

	t.Run("invalid pattern fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("classifier:\n  online_transfer_out: \"ONLINE(\"\n"), 0o600))

		_, err := LoadFile(path)
		assert.ErrorIs(t, err, common.ErrInvalidRuleSet)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
