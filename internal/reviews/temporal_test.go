package reviews

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"reviews-backend/internal/components/chrono"
	"reviews-backend/internal/components/random"
	"reviews-backend/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// maxRandom always draws the largest value allowed.
type maxRandom struct{}

func (maxRandom) IntN(n int) int { return n - 1 }

// minRandom always draws the smallest value allowed.
type minRandom struct{}

func (minRandom) IntN(n int) int { return 0 }

func fixedNormalizer(now time.Time, rand random.API) (Normalizer, *telemetry.RecordingAPI) {
	tel := telemetry.NewRecordingAPI()
	return NewNormalizer(chrono.NewFixedImpl(now), rand, tel), tel
}

func TestTimeText(t *testing.T) {
	testCases := []struct {
		months   int
		expected string
	}{
		{months: 0, expected: "this month"},
		{months: 1, expected: "1 month ago"},
		{months: 2, expected: "2 months ago"},
		{months: 11, expected: "11 months ago"},
		{months: 12, expected: "1 year ago"},
		{months: 13, expected: "1 year and 1 month ago"},
		{months: 14, expected: "1 year and 2 months ago"},
		{months: 24, expected: "2 years ago"},
		{months: 25, expected: "2 years and 1 month ago"},
		{months: 26, expected: "2 years and 2 months ago"},
		{months: 48, expected: "4 years ago"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, TimeText(test.months), "months = %d", test.months)
	}
}

func TestMonthsSinceAbsolute(t *testing.T) {
	testCases := []struct {
		text     string
		expected int
		err      error
	}{
		{text: "January 2025", expected: 0},
		{text: "December 2024", expected: 1},
		{text: "march 2023", expected: 22},
		{text: "Mar 2023", expected: 22},
		{text: "Sept. 2022", expected: 28},
		{text: "Posted in JUNE 2020", expected: 55},
		{text: "February 2025", err: ErrFutureDate},
		{text: "yesterday", err: ErrNoMonthYear},
		{text: "Foo 2020", err: ErrNoMonthYear},
		{text: "", err: ErrNoMonthYear},
	}

	for _, test := range testCases {
		months, err := MonthsSinceAbsolute(test.text, DefaultReference)
		if test.err != nil {
			require.True(t, errors.Is(err, test.err), "%q: unexpected error %v", test.text, err)
			continue
		}
		require.NoError(t, err, test.text)
		require.Equal(t, test.expected, months, test.text)
	}
}

func TestMonthsSinceRelative(t *testing.T) {
	testCases := []struct {
		text     string
		expected int
	}{
		{text: "2 years ago", expected: 24},
		{text: "a year ago", expected: 12},
		{text: "an hour ago", expected: 0},
		{text: "3 months ago", expected: 3},
		{text: "a month ago", expected: 1},
		{text: "5 days ago", expected: 0},
		{text: "Edited 1 Year ago", expected: 12},
		{text: "last week", expected: 0},
		{text: "", expected: 0},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, MonthsSinceRelative(test.text), test.text)
	}
}

func TestNormalizerAbsoluteFallback(t *testing.T) {
	normalizer, tel := fixedNormalizer(DefaultReference, minRandom{})
	require.Equal(t, 0, normalizer.Absolute("not a date"))
	require.Len(t, tel.Find(telemetry.LevelWarning, report_normalizer_absolute), 1)

	require.Equal(t, 22, normalizer.Absolute("March 2023"))
	require.Len(t, tel.Find(telemetry.LevelWarning, report_normalizer_absolute), 1)
}

func TestNormalizerResolve(t *testing.T) {
	normalizer, _ := fixedNormalizer(DefaultReference, maxRandom{})

	testCases := []struct {
		policy   DatePolicy
		signal   TimeSignal
		expected int
	}{
		{policy: DateAuto, signal: TimeSignal{Kind: SignalRelative, Text: "2 years ago"}, expected: 24},
		{policy: DateAuto, signal: TimeSignal{Kind: SignalAbsolute, Text: "March 2023"}, expected: 22},
		{policy: DateAuto, signal: TimeSignal{Kind: SignalAbsolute, Text: "  "}, expected: 48},
		{policy: DateAuto, signal: TimeSignal{Kind: SignalNone}, expected: 48},
		{policy: DateAbsolute, signal: TimeSignal{Kind: SignalAbsolute}, expected: 0},
		{policy: DateSynthesize, signal: TimeSignal{Kind: SignalAbsolute, Text: "March 2023"}, expected: 48},
		{policy: DateSynthesize, signal: TimeSignal{Kind: SignalRelative, Text: "a month ago"}, expected: 1},
	}

	for _, test := range testCases {
		normalizer.Policy = test.policy
		require.Equal(t, test.expected, normalizer.Resolve(test.signal), "%+v", test)
	}
}

func TestSynthesizeBounds(t *testing.T) {
	normalizer, _ := fixedNormalizer(DefaultReference, random.NewSeededImpl(7))
	for i := 0; i < 500; i++ {
		months := normalizer.Synthesize()
		require.GreaterOrEqual(t, months, 1)
		require.LessOrEqual(t, months, 48)
	}
}

func TestReviewDateUnderflow(t *testing.T) {
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	normalizer, _ := fixedNormalizer(now, minRandom{})

	testCases := []struct {
		months   int
		expected ReviewDate
	}{
		{months: 0, expected: ReviewDate{Year: 2025, Month: 3, Day: 1}},
		{months: 2, expected: ReviewDate{Year: 2025, Month: 1, Day: 1}},
		{months: 3, expected: ReviewDate{Year: 2024, Month: 12, Day: 1}},
		{months: 15, expected: ReviewDate{Year: 2023, Month: 12, Day: 1}},
		{months: 27, expected: ReviewDate{Year: 2022, Month: 12, Day: 1}},
	}

	for _, test := range testCases {
		diff := cmp.Diff(test.expected, normalizer.ReviewDate(test.months))
		if diff != "" {
			t.Fatalf("months = %d: %s", test.months, diff)
		}
	}
}

func TestReviewDateRoundTrip(t *testing.T) {
	now := time.Date(2025, time.January, 30, 0, 0, 0, 0, time.UTC)
	normalizer, _ := fixedNormalizer(now, random.NewSeededImpl(42))

	for months := 0; months <= 120; months++ {
		date := normalizer.ReviewDate(months)
		require.GreaterOrEqual(t, date.Day, 1)
		require.LessOrEqual(t, date.Day, DaysIn(time.Month(date.Month), date.Year))

		text := fmt.Sprintf("%s %d", time.Month(date.Month), date.Year)
		recomputed, err := MonthsSinceAbsolute(text, now)
		require.NoError(t, err)
		require.Equal(t, months, recomputed, text)
	}
}

func TestAbsoluteDatesAnchorToReference(t *testing.T) {
	// the clock is well past the reference absolute dates are measured against
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	normalizer, _ := fixedNormalizer(now, random.NewSeededImpl(3))

	for months := 0; months <= 120; months++ {
		month := int(DefaultReference.Month()) - months
		year := DefaultReference.Year()
		for month <= 0 {
			year--
			month += 12
		}
		signal := TimeSignal{Kind: SignalAbsolute, Text: fmt.Sprintf("%s %d", time.Month(month), year)}

		resolved := normalizer.Resolve(signal)
		require.Equal(t, months, resolved, signal.Text)

		date := normalizer.ReviewDateFrom(normalizer.Anchor(signal), resolved)
		require.Equal(t, year, date.Year, signal.Text)
		require.Equal(t, month, date.Month, signal.Text)
	}
}

func TestNormalizerAnchor(t *testing.T) {
	now := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	normalizer, _ := fixedNormalizer(now, minRandom{})

	testCases := []struct {
		policy   DatePolicy
		signal   TimeSignal
		expected time.Time
	}{
		{policy: DateAuto, signal: TimeSignal{Kind: SignalAbsolute, Text: "March 2023"}, expected: DefaultReference},
		{policy: DateAuto, signal: TimeSignal{Kind: SignalAbsolute, Text: "garbage"}, expected: DefaultReference},
		{policy: DateAuto, signal: TimeSignal{Kind: SignalAbsolute}, expected: now},
		{policy: DateAuto, signal: TimeSignal{Kind: SignalRelative, Text: "2 years ago"}, expected: now},
		{policy: DateAbsolute, signal: TimeSignal{Kind: SignalAbsolute}, expected: DefaultReference},
		{policy: DateSynthesize, signal: TimeSignal{Kind: SignalAbsolute, Text: "March 2023"}, expected: now},
	}

	for _, test := range testCases {
		normalizer.Policy = test.policy
		require.True(t, test.expected.Equal(normalizer.Anchor(test.signal)), "%+v", test)
	}
}

func TestReviewDateLeapYears(t *testing.T) {
	// months back from March to February of the same year
	testCases := []struct {
		year   int
		maxDay int
	}{
		{year: 2000, maxDay: 29},
		{year: 2024, maxDay: 29},
		{year: 1900, maxDay: 28},
		{year: 2100, maxDay: 28},
		{year: 2023, maxDay: 28},
	}

	for _, test := range testCases {
		now := time.Date(test.year, time.March, 1, 0, 0, 0, 0, time.UTC)

		normalizer, _ := fixedNormalizer(now, maxRandom{})
		date := normalizer.ReviewDate(1)
		require.Equal(t, ReviewDate{Year: test.year, Month: 2, Day: test.maxDay}, date)

		normalizer, _ = fixedNormalizer(now, random.NewSeededImpl(uint64(test.year)))
		for i := 0; i < 200; i++ {
			require.LessOrEqual(t, normalizer.ReviewDate(1).Day, test.maxDay)
		}
	}
}

func TestParseDatePolicy(t *testing.T) {
	policy, err := ParseDatePolicy("synthesize")
	require.NoError(t, err)
	require.Equal(t, DateSynthesize, policy)

	_, err = ParseDatePolicy("guess")
	require.Error(t, err)
}
