package livesession

import (
	"fmt"
	"strconv"
	"strings"

	"reviews-backend/internal/reviews"

	"github.com/PuerkitoBio/goquery"
)

// Selectors locate the parts of a review in the live page's DOM.
type Selectors struct {
	Review string `json:"review" yaml:"review"`
	Author string `json:"author" yaml:"author"`
	// Rating must select an element carrying an aria-label like
	// "Rated 4.0 out of 5,".
	Rating string `json:"rating" yaml:"rating"`
	Time   string `json:"time" yaml:"time"`
	Body   string `json:"body" yaml:"body"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		Review: "div.WMbnJf.gws-localreviews__google-review",
		Author: "div.TSUbDb",
		Rating: "span.z3HNkc",
		Time:   "span.dehysf",
		Body:   ".Jtu6Td",
	}
}

func parseAriaRating(label string) (float64, error) {
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return 0, fmt.Errorf("unexpected rating label %q", label)
	}
	rating, err := strconv.ParseFloat(strings.TrimRight(fields[1], ","), 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected rating label %q: %w", label, err)
	}
	return rating, nil
}

func requireText(review *goquery.Selection, selector string) (string, error) {
	found := review.Find(selector).First()
	if found.Length() == 0 {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return strings.TrimSpace(found.Text()), nil
}

func (s Selectors) fragment(review *goquery.Selection) (reviews.Fragment, error) {
	author, err := requireText(review, s.Author)
	if err != nil {
		return reviews.Fragment{}, err
	}

	ratingElement := review.Find(s.Rating).First()
	label, ok := ratingElement.Attr("aria-label")
	if !ok {
		return reviews.Fragment{}, fmt.Errorf("no aria-label on %q", s.Rating)
	}
	rating, err := parseAriaRating(label)
	if err != nil {
		return reviews.Fragment{}, err
	}

	timeText, err := requireText(review, s.Time)
	if err != nil {
		return reviews.Fragment{}, err
	}
	body, err := requireText(review, s.Body)
	if err != nil {
		return reviews.Fragment{}, err
	}

	return reviews.Fragment{
		Author: author,
		Signal: reviews.TimeSignal{Kind: reviews.SignalRelative, Text: timeText},
		Body:   body,
		Rating: &rating,
	}, nil
}

// extract reads every review in doc, skipping (and reporting) reviews whose
// fields cannot be found and reviews rated below MinRating.
func (a *Adapter) extract(doc *goquery.Document) []reviews.Record {
	found := doc.Find(a.opts.Selectors.Review)
	a.tel.ReportDebug("found live reviews", "count", found.Length())

	var records []reviews.Record
	found.Each(func(i int, review *goquery.Selection) {
		fragment, err := a.opts.Selectors.fragment(review)
		if err != nil {
			a.tel.ReportWarning(report_adapter_record, err, i)
			return
		}
		if *fragment.Rating < a.opts.MinRating {
			return
		}
		record, ok := a.extractor.Assemble(fragment)
		if !ok {
			a.tel.ReportDebug("skipping live review with empty body", "index", i)
			return
		}
		records = append(records, record)
	})
	return records
}
