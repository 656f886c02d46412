package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// KeywordSet matches text that contains any of a list of literal keywords,
// case-insensitively. The zero value and nil never match.
type KeywordSet struct {
	re    *regexp.Regexp
	words []string
}

// NewKeywordSet compiles the keywords into a single alternation.
func NewKeywordSet(words []string) (*KeywordSet, error) {
	quoted := make([]string, 0, len(words))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
		kept = append(kept, w)
	}

	ks := &KeywordSet{words: kept}
	if len(quoted) == 0 {
		return ks, nil
	}

	re, err := regexp.Compile("(?i)(?:" + strings.Join(quoted, "|") + ")")
	if err != nil {
		return nil, fmt.Errorf("failed to compile keywords %v: %w", words, err)
	}
	ks.re = re
	return ks, nil
}

// Match reports whether text contains any keyword.
func (k *KeywordSet) Match(text string) bool {
	if k == nil || k.re == nil {
		return false
	}
	return k.re.MatchString(text)
}

// Len returns the number of keywords.
func (k *KeywordSet) Len() int {
	if k == nil {
		return 0
	}
	return len(k.words)
}

// compilePattern compiles a regex, case-insensitive unless the pattern
// carries its own flags. An empty pattern yields nil, which never matches.
func compilePattern(name, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	if !strings.HasPrefix(pattern, "(?") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %s: %w", name, err)
	}
	return re, nil
}

func mustKeywords(errs *[]error, name string, words []string) *KeywordSet {
	ks, err := NewKeywordSet(words)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
		return &KeywordSet{}
	}
	return ks
}

func mustPattern(errs *[]error, name, pattern string) *regexp.Regexp {
	re, err := compilePattern(name, pattern)
	if err != nil {
		*errs = append(*errs, err)
	}
	return re
}
