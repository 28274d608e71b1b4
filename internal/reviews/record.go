// Package reviews turns scraped review fragments into canonical records.
package reviews

// ReviewDate is the calendar date synthesized for a record from its
// months_ago value.
type ReviewDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Record is a single normalized review.
//
// TimeText and ReviewDate are always derived from MonthsAgo, Title is the only
// field rewritten after extraction (see Reconcile).
type Record struct {
	Username   string     `json:"username"`
	Review     string     `json:"review"`
	Rating     float64    `json:"rating"`
	MonthsAgo  int        `json:"months_ago"`
	TimeText   string     `json:"time_text"`
	Title      string     `json:"title"`
	ReviewDate ReviewDate `json:"review_date"`
}

// SignalKind tells the Normalizer how the text of a TimeSignal is encoded.
type SignalKind int

const (
	SignalNone SignalKind = iota
	// SignalAbsolute is a "Month Year" style date, ex. "March 2023".
	SignalAbsolute
	// SignalRelative is a phrase like "2 years ago" or "a month ago".
	SignalRelative
)

type TimeSignal struct {
	Kind SignalKind
	Text string
}

// Fragment is the raw material for one record, already pulled out of
// whatever document it came from.
type Fragment struct {
	Author string
	Signal TimeSignal
	Body   string
	// Rating is the rating if the source exposes it directly, nil means
	// RatingMarkup should be counted instead.
	Rating       *float64
	RatingMarkup string
}

const AnonymousAuthor = "Anonymous"
