package reviews

import (
	"strings"
	"unicode"

	"reviews-backend/internal/components/assert"
	"reviews-backend/internal/components/telemetry"
	"reviews-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extractor_container = "extractor.container"
	report_extractor_fragment  = "extractor.fragment"
	report_extractor_markup    = "extractor.markup"
	report_extract_records     = "extract.records"
)

const (
	DefaultContainerSelector = "div.Patient-Review"
	DefaultFragmentSelector  = "li"
)

// Extractor builds records out of review markup. The Container selector
// locates the list of reviews, every Fragment inside it is one review whose
// first <p> is the "author / date" line and whose remaining <p> are the body.
type Extractor struct {
	Container  string
	Fragment   string
	Rating     RatingExtractor
	Normalizer Normalizer
	Classifier Classifier

	tel telemetry.API
}

func NewExtractor(normalizer Normalizer, tel telemetry.API) Extractor {
	assert.NotNil(tel)
	return Extractor{
		Container:  DefaultContainerSelector,
		Fragment:   DefaultFragmentSelector,
		Rating:     DefaultRatingExtractor(),
		Normalizer: normalizer,
		Classifier: DefaultClassifier(),
		tel:        tel,
	}
}

// Assemble turns a fragment into a record, it returns false when the
// fragment has no body.
func (e Extractor) Assemble(fragment Fragment) (Record, bool) {
	body := strings.TrimSpace(fragment.Body)
	if body == "" {
		return Record{}, false
	}

	author := strings.TrimSpace(fragment.Author)
	if author == "" {
		author = AnonymousAuthor
	}

	var rating float64
	if fragment.Rating != nil {
		rating = *fragment.Rating
	} else {
		rating = e.Rating.Rating(fragment.RatingMarkup)
	}

	months := e.Normalizer.Resolve(fragment.Signal)
	return Record{
		Username:   author,
		Review:     body,
		Rating:     rating,
		MonthsAgo:  months,
		TimeText:   TimeText(months),
		Title:      e.Classifier.Classify(body),
		ReviewDate: e.Normalizer.ReviewDateFrom(e.Normalizer.Anchor(fragment.Signal), months),
	}, true
}

func isStarGlyph(r rune) bool {
	switch r {
	case '★', '☆', '⭐', '✩', '✭':
		return true
	}
	return unicode.IsSpace(r)
}

// metadataTokens splits the metadata paragraph into its text lines, both
// "<br>" separated and sibling element layouts produce the same tokens.
func metadataTokens(paragraph *goquery.Selection) []string {
	var tokens []string
	for _, node := range paragraph.Nodes {
		for _, segment := range htmlutil.TextSegments(node) {
			segment = strings.TrimFunc(segment, isStarGlyph)
			if segment == "" {
				continue
			}
			tokens = append(tokens, segment)
		}
	}
	return tokens
}

func (e Extractor) fragment(index int, item *goquery.Selection) (Fragment, bool) {
	paragraphs := item.Find("p")
	if paragraphs.Length() == 0 {
		e.tel.ReportWarning(report_extractor_fragment, "no paragraphs", index)
		return Fragment{}, false
	}

	meta := paragraphs.First()
	markup, err := goquery.OuterHtml(meta)
	if err != nil {
		e.tel.ReportWarning(report_extractor_markup, err, index)
	}

	fragment := Fragment{
		Author:       AnonymousAuthor,
		Signal:       TimeSignal{Kind: SignalAbsolute},
		RatingMarkup: markup,
	}
	tokens := metadataTokens(meta)
	if len(tokens) >= 2 {
		fragment.Author = tokens[0]
		fragment.Signal.Text = tokens[1]
	}

	var body []string
	paragraphs.Slice(1, goquery.ToEnd).Each(func(_ int, p *goquery.Selection) {
		text := htmlutil.Clean(htmlutil.GetText(p.Get(0)))
		if text != "" {
			body = append(body, text)
		}
	})
	fragment.Body = strings.Join(body, " ")
	return fragment, true
}

// Extract returns the records found in doc in document order. A missing
// container is reported and yields no records.
func (e Extractor) Extract(doc *goquery.Document) []Record {
	container := doc.Find(e.Container).First()
	if container.Length() == 0 {
		e.tel.ReportWarning(report_extractor_container, "container not found", e.Container)
		e.tel.ReportCount(report_extract_records, 0)
		return nil
	}

	var records []Record
	container.Find(e.Fragment).Each(func(i int, item *goquery.Selection) {
		fragment, ok := e.fragment(i, item)
		if !ok {
			return
		}
		record, ok := e.Assemble(fragment)
		if !ok {
			e.tel.ReportDebug("skipping fragment with empty body", "index", i, "author", fragment.Author)
			return
		}
		records = append(records, record)
	})

	e.tel.ReportCount(report_extract_records, int64(len(records)))
	return records
}

func (e Extractor) ExtractString(markup string) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return e.Extract(doc), nil
}
