package reviews

import (
	"sort"

	"reviews-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// TitleEntry is one element of a title source file.
type TitleEntry struct {
	Reviewer string `json:"reviewer"`
	Title    string `json:"title"`
}

// TitleSource is the shape of a hand curated titles file,
// {"reviews": [{"reviewer": "...", "title": "..."}]}.
type TitleSource struct {
	Reviews []TitleEntry `json:"reviews"`
}

// Map indexes the source by reviewer. Reviewers are expected to be unique,
// when they are not the later entry wins.
func (s TitleSource) Map() map[string]string {
	out := make(map[string]string, len(s.Reviews))
	for _, entry := range s.Reviews {
		out[entry.Reviewer] = entry.Title
	}
	return out
}

// Reconcile returns a copy of primary where every record whose username has
// an entry in titles carries that title instead. Nothing else changes.
func Reconcile(primary []Record, titles map[string]string) []Record {
	if primary == nil {
		return nil
	}
	out := make([]Record, len(primary))
	for i, record := range primary {
		title, ok := titles[record.Username]
		if ok {
			record.Title = title
		}
		out[i] = record
	}
	return out
}

// Suggestion pairs a title source reviewer that has no exact match with the
// most similar username in the primary records.
type Suggestion struct {
	Reviewer    string
	Username    string
	Correlation float64
}

// SuggestMatches lists reviewers in titles that Reconcile will not apply,
// together with the closest primary username by Jaro-Winkler similarity of
// the normalized names.
// Suggestions under threshold are left out. It is meant for auditing a merge
// and never affects Reconcile.
func SuggestMatches(primary []Record, titles map[string]string, threshold float64) []Suggestion {
	usernames := make(map[string]struct{}, len(primary))
	for _, record := range primary {
		usernames[record.Username] = struct{}{}
	}

	var reviewers []string
	for reviewer := range titles {
		if _, ok := usernames[reviewer]; !ok {
			reviewers = append(reviewers, reviewer)
		}
	}
	sort.Strings(reviewers)

	var result []Suggestion
	for _, reviewer := range reviewers {
		normalized := textutil.NormalizeName(reviewer)
		var mostSimilarity float64
		var mostSimilarUsername string

		for username := range usernames {
			if _, titled := titles[username]; titled {
				continue
			}
			similarity := matchr.JaroWinkler(normalized, textutil.NormalizeName(username), false)
			if similarity > mostSimilarity ||
				(similarity == mostSimilarity && username < mostSimilarUsername) {
				mostSimilarity = similarity
				mostSimilarUsername = username
			}
		}

		if mostSimilarity > 0 && mostSimilarity >= threshold {
			result = append(result, Suggestion{
				Reviewer:    reviewer,
				Username:    mostSimilarUsername,
				Correlation: mostSimilarity,
			})
		}
	}
	return result
}
