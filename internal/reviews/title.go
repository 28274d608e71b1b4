package reviews

import (
	"strings"
	"unicode"
)

// Matcher decides whether a rule applies to lowercased review text.
type Matcher interface {
	Match(lower string, tokens map[string]struct{}) bool
}

// AnyPhrase matches when any of the phrases appears as a substring.
type AnyPhrase []string

func (p AnyPhrase) Match(lower string, tokens map[string]struct{}) bool {
	for _, phrase := range p {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// AllTokens matches when every word appears as a standalone token.
type AllTokens []string

func (w AllTokens) Match(lower string, tokens map[string]struct{}) bool {
	for _, word := range w {
		if _, ok := tokens[word]; !ok {
			return false
		}
	}
	return len(w) > 0
}

type TitleRule struct {
	Label string
	Match Matcher
}

// Classifier labels a review body with the first rule that matches it.
type Classifier struct {
	Rules []TitleRule
	// Fallback is used when no rule matches.
	Fallback string
	// Empty is used for blank input, before any rule is consulted.
	Empty string
}

// Rule order matters: procedures outrank visit types which outrank the
// experience words, and within each group earlier entries win.
var defaultTitleRules = []TitleRule{
	{Label: "Breast Procedure", Match: AnyPhrase{"breast"}},
	{Label: "Tummy Tuck", Match: AnyPhrase{"tummy tuck"}},
	{Label: "Liposuction", Match: AnyPhrase{"lipo"}},
	{Label: "BBL", Match: AnyPhrase{"bbl"}},
	{Label: "Botox Treatment", Match: AnyPhrase{"botox"}},
	{Label: "Filler Treatment", Match: AnyPhrase{"filler"}},
	{Label: "Facial Treatment", Match: AnyPhrase{"facial"}},
	{Label: "Laser Treatment", Match: AnyPhrase{"laser"}},

	{Label: "Consultation Visit", Match: AnyPhrase{"consult", "consultation"}},
	{Label: "Follow-up Visit", Match: AllTokens{"follow", "up"}},
	{Label: "First Visit", Match: AnyPhrase{"first time", "first visit"}},

	{Label: "Excellent Experience", Match: AnyPhrase{"amazing", "excellent", "fantastic", "wonderful"}},
	{Label: "Great Experience", Match: AnyPhrase{"great", "good", "nice", "happy"}},
	{Label: "Staff Experience", Match: AnyPhrase{"staff"}},
	{Label: "Professional Care", Match: AnyPhrase{"professional"}},
}

func DefaultClassifier() Classifier {
	rules := make([]TitleRule, len(defaultTitleRules))
	copy(rules, defaultTitleRules)
	return Classifier{
		Rules:    rules,
		Fallback: "Patient Experience",
		Empty:    "General Review",
	}
}

func tokenize(lower string) map[string]struct{} {
	tokens := map[string]struct{}{}
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, field := range fields {
		tokens[field] = struct{}{}
	}
	return tokens
}

func (c Classifier) Classify(text string) string {
	if strings.TrimSpace(text) == "" {
		return c.Empty
	}
	lower := strings.ToLower(text)
	tokens := tokenize(lower)
	for _, rule := range c.Rules {
		if rule.Match.Match(lower, tokens) {
			return rule.Label
		}
	}
	return c.Fallback
}
