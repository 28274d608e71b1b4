package reviews

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reviews-backend/internal/components/assert"
	"reviews-backend/internal/components/chrono"
	"reviews-backend/internal/components/random"
	"reviews-backend/internal/components/telemetry"
)

const (
	report_normalizer_absolute = "normalizer.absolute"
)

var (
	ErrNoMonthYear = errors.New("no month and year found")
	ErrFutureDate  = errors.New("date is after the reference instant")
)

// DefaultReference is the instant absolute review dates were measured
// against when the archived review pages were captured.
var DefaultReference = time.Date(2025, time.January, 30, 0, 0, 0, 0, time.UTC)

type DatePolicy int

const (
	// DateAuto synthesizes when there is no date text and parses it otherwise.
	DateAuto DatePolicy = iota
	// DateAbsolute always parses the date text, falling back to 0 months.
	DateAbsolute
	// DateSynthesize ignores the date text and fabricates months_ago.
	DateSynthesize
)

func ParseDatePolicy(text string) (DatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "auto":
		return DateAuto, nil
	case "absolute":
		return DateAbsolute, nil
	case "synthesize":
		return DateSynthesize, nil
	}
	return DateAuto, fmt.Errorf("unknown date policy %q", text)
}

var referenceMonths = []string{
	"january",
	"february",
	"march",
	"april",
	"may",
	"june",
	"july",
	"august",
	"september",
	"october",
	"november",
	"december",
}

func parseMonth(text string) (time.Month, bool) {
	text = strings.ToLower(strings.TrimSuffix(text, "."))
	if len(text) < 3 {
		return 0, false
	}
	for i, month := range referenceMonths {
		if strings.HasPrefix(month, text) {
			return time.January + time.Month(i), true
		}
	}
	return 0, false
}

var monthYearRegex = regexp.MustCompile(`(?i)\b([a-z]{3,9})\.?,?\s+(\d{4})\b`)

// MonthsSinceAbsolute parses the first "Month Year" in text (full or
// abbreviated month names, any case) and returns how many calendar months lie
// between it and ref.
func MonthsSinceAbsolute(text string, ref time.Time) (int, error) {
	for _, match := range monthYearRegex.FindAllStringSubmatch(text, -1) {
		month, ok := parseMonth(match[1])
		if !ok {
			continue
		}
		year, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		months := (ref.Year()-year)*12 + (int(ref.Month()) - int(month))
		if months < 0 {
			return 0, fmt.Errorf("%w: %s %d", ErrFutureDate, month, year)
		}
		return months, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrNoMonthYear, text)
}

var relativeRegex = regexp.MustCompile(`(?i)\b(\d+|an?)\s+(day|month|year)s?\b`)

var unitMonths = map[string]int{
	"day":   0,
	"month": 1,
	"year":  12,
}

// MonthsSinceRelative converts phrases like "2 years ago" into months, day
// granularity collapses to 0. A leading "a" or "an" counts as 1, so "a year
// ago" is 12 rather than a parse failure. Anything unrecognized is 0.
func MonthsSinceRelative(text string) int {
	match := relativeRegex.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	count := 1
	if n, err := strconv.Atoi(match[1]); err == nil {
		count = n
	}
	return count * unitMonths[strings.ToLower(match[2])]
}

func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func DaysIn(month time.Month, year int) int {
	switch month {
	case time.April, time.June, time.September, time.November:
		return 30
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	return 31
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TimeText renders months as a human readable relative phrase.
func TimeText(months int) string {
	switch {
	case months <= 0:
		return "this month"
	case months < 12:
		return plural(months, "month") + " ago"
	}
	years := months / 12
	remainder := months % 12
	if remainder == 0 {
		return plural(years, "year") + " ago"
	}
	return fmt.Sprintf("%s and %s ago", plural(years, "year"), plural(remainder, "month"))
}

// Normalizer turns time signals into months_ago and derives the calendar
// fields of a record from it.
//
// Some review pages carry no usable date at all, for those months_ago is
// fabricated uniformly from [SynthMin, SynthMax]. Both that and the day of
// ReviewDate come from the injected random.API.
type Normalizer struct {
	// Reference is the instant absolute dates are measured against.
	Reference time.Time
	SynthMin  int
	SynthMax  int
	Policy    DatePolicy

	time chrono.TimeAPI
	rand random.API
	tel  telemetry.API
}

func NewNormalizer(clock chrono.TimeAPI, rand random.API, tel telemetry.API) Normalizer {
	assert.NotNil(clock)
	assert.NotNil(rand)
	assert.NotNil(tel)
	return Normalizer{
		Reference: DefaultReference,
		SynthMin:  1,
		SynthMax:  48,
		Policy:    DateAuto,
		time:      clock,
		rand:      rand,
		tel:       tel,
	}
}

// Absolute is MonthsSinceAbsolute against Reference, failures are reported
// and become 0.
func (n Normalizer) Absolute(text string) int {
	months, err := MonthsSinceAbsolute(text, n.Reference)
	if err != nil {
		n.tel.ReportWarning(report_normalizer_absolute, err, text)
		return 0
	}
	return months
}

func (n Normalizer) Synthesize() int {
	return random.IntRange(n.rand, n.SynthMin, n.SynthMax)
}

type dateStrategy int

const (
	strategyRelative dateStrategy = iota
	strategyAbsolute
	strategySynthesize
)

func (n Normalizer) strategy(signal TimeSignal) dateStrategy {
	if signal.Kind == SignalRelative {
		return strategyRelative
	}
	switch n.Policy {
	case DateSynthesize:
		return strategySynthesize
	case DateAbsolute:
		return strategyAbsolute
	}
	if strings.TrimSpace(signal.Text) == "" {
		return strategySynthesize
	}
	return strategyAbsolute
}

func (n Normalizer) Resolve(signal TimeSignal) int {
	switch n.strategy(signal) {
	case strategyRelative:
		return MonthsSinceRelative(signal.Text)
	case strategySynthesize:
		return n.Synthesize()
	}
	return n.Absolute(signal.Text)
}

// Anchor is the instant the months resolved from signal count back from:
// Reference for absolute dates, the clock's now otherwise.
func (n Normalizer) Anchor(signal TimeSignal) time.Time {
	if n.strategy(signal) == strategyAbsolute {
		return n.Reference
	}
	return n.time.Now()
}

// ReviewDate walks months back from now and picks a random day inside the
// resulting month.
func (n Normalizer) ReviewDate(months int) ReviewDate {
	return n.ReviewDateFrom(n.time.Now(), months)
}

// ReviewDateFrom is ReviewDate counted back from anchor instead of now.
func (n Normalizer) ReviewDateFrom(anchor time.Time, months int) ReviewDate {
	year := anchor.Year()
	month := int(anchor.Month()) - months
	for month <= 0 {
		year--
		month += 12
	}
	day := random.IntRange(n.rand, 1, DaysIn(time.Month(month), year))
	return ReviewDate{Year: year, Month: month, Day: day}
}
