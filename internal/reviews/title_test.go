package reviews

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	classifier := DefaultClassifier()

	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "procedure outranks staff and sentiment",
			text:     "I got a tummy tuck and the staff was amazing",
			expected: "Tummy Tuck",
		},
		{
			name:     "earlier procedure wins",
			text:     "Had lipo and a breast lift at the same visit",
			expected: "Breast Procedure",
		},
		{
			name:     "procedure outranks visit type",
			text:     "My botox consultation went well",
			expected: "Botox Treatment",
		},
		{
			name:     "consultation outranks follow up",
			text:     "The consultation and the follow up were quick",
			expected: "Consultation Visit",
		},
		{
			name:     "follow up outranks first visit",
			text:     "Follow-up after my first visit was great",
			expected: "Follow-up Visit",
		},
		{
			name:     "follow without up",
			text:     "They followed through on everything, great work",
			expected: "Great Experience",
		},
		{
			name:     "up only inside another word",
			text:     "Follow the instructions and you will be upbeat",
			expected: "Patient Experience",
		},
		{
			name:     "visit type outranks sentiment",
			text:     "First time here and it was wonderful",
			expected: "First Visit",
		},
		{
			name:     "superlative outranks generic positive",
			text:     "Good people, excellent results",
			expected: "Excellent Experience",
		},
		{
			name:     "generic positive outranks staff",
			text:     "The staff were so nice",
			expected: "Great Experience",
		},
		{
			name:     "staff outranks professional",
			text:     "Staff were very professional",
			expected: "Staff Experience",
		},
		{
			name:     "professional",
			text:     "Very Professional",
			expected: "Professional Care",
		},
		{
			name:     "case insensitive",
			text:     "BBL RESULTS",
			expected: "BBL",
		},
		{
			name:     "fallback",
			text:     "Dr. Smith explained everything",
			expected: "Patient Experience",
		},
		{
			name:     "empty",
			text:     "   ",
			expected: "General Review",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, classifier.Classify(test.text))
		})
	}
}

func TestClassifierCustomRules(t *testing.T) {
	classifier := Classifier{
		Rules: []TitleRule{
			{Label: "Dental", Match: AnyPhrase{"tooth", "teeth"}},
			{Label: "Kids", Match: AllTokens{"my", "son"}},
		},
		Fallback: "Other",
		Empty:    "None",
	}
	require.Equal(t, "Dental", classifier.Classify("my son's teeth"))
	require.Equal(t, "Kids", classifier.Classify("My son loved it"))
	require.Equal(t, "Other", classifier.Classify("fine"))
	require.Equal(t, "None", classifier.Classify(""))
}
