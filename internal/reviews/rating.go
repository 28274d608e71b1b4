package reviews

import (
	"fmt"
	"strings"
)

type RatingPolicy int

const (
	// RatingStrict rates a fragment without any markers as 0.
	RatingStrict RatingPolicy = iota
	// RatingLenient rates a fragment without any markers as NeutralDefault.
	RatingLenient
)

func ParseRatingPolicy(text string) (RatingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "strict":
		return RatingStrict, nil
	case "lenient":
		return RatingLenient, nil
	}
	return RatingStrict, fmt.Errorf("unknown rating policy %q", text)
}

// RatingExtractor counts filled star markers in a fragment of markup.
//
// A filled marker is any occurrence of Marker that is not immediately followed
// by OutlineSuffix, so with the defaults "fa-star" counts and "fa-star-o" does
// not.
type RatingExtractor struct {
	Marker         string
	OutlineSuffix  string
	Policy         RatingPolicy
	NeutralDefault float64
}

func DefaultRatingExtractor() RatingExtractor {
	return RatingExtractor{
		Marker:         "fa-star",
		OutlineSuffix:  "-o",
		Policy:         RatingStrict,
		NeutralDefault: 5,
	}
}

func (e RatingExtractor) Rating(fragment string) float64 {
	filled := e.count(fragment)
	if filled == 0 && e.Policy == RatingLenient {
		return e.NeutralDefault
	}
	return float64(filled)
}

func (e RatingExtractor) count(fragment string) int {
	if e.Marker == "" {
		return 0
	}
	filled := 0
	rest := fragment
	for {
		idx := strings.Index(rest, e.Marker)
		if idx < 0 {
			return filled
		}
		rest = rest[idx+len(e.Marker):]
		if e.OutlineSuffix == "" || !strings.HasPrefix(rest, e.OutlineSuffix) {
			filled++
		}
	}
}
