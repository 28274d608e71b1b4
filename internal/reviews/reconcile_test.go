package reviews

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	primary := []Record{
		{Username: "A", Title: "X", Review: "first", Rating: 5, MonthsAgo: 3, TimeText: "3 months ago"},
		{Username: "B", Title: "Y", Review: "second", Rating: 4, MonthsAgo: 13, TimeText: "1 year and 1 month ago"},
	}
	original := make([]Record, len(primary))
	copy(original, primary)

	merged := Reconcile(primary, map[string]string{"A": "Z"})

	expectedFirst := primary[0]
	expectedFirst.Title = "Z"
	diff := cmp.Diff([]Record{expectedFirst, primary[1]}, merged)
	if diff != "" {
		t.Fatal(diff)
	}

	// untouched records are identical to their input and the input is not
	// modified
	require.Equal(t, primary[1], merged[1])
	require.Equal(t, original, primary)
}

func TestReconcileEdges(t *testing.T) {
	require.Nil(t, Reconcile(nil, map[string]string{"A": "Z"}))

	primary := []Record{{Username: "A", Title: "X"}}
	require.Equal(t, primary, Reconcile(primary, nil))

	// exact keys only
	require.Equal(t, primary, Reconcile(primary, map[string]string{"a": "Z", "A ": "Z"}))

	// an empty title in the source still overrides
	require.Equal(t, []Record{{Username: "A"}}, Reconcile(primary, map[string]string{"A": ""}))
}

func TestTitleSourceMap(t *testing.T) {
	source := TitleSource{Reviews: []TitleEntry{
		{Reviewer: "A", Title: "one"},
		{Reviewer: "B", Title: "two"},
		{Reviewer: "A", Title: "three"},
	}}
	require.Equal(t, map[string]string{"A": "three", "B": "two"}, source.Map())
}

func TestSuggestMatches(t *testing.T) {
	primary := []Record{
		{Username: "Jane Doe"},
		{Username: "Robert Smith"},
		{Username: "Ana"},
	}
	titles := map[string]string{
		"Ana":          "Exact",
		"Jane Doe.":    "Near",
		"Robert Smyth": "Near",
		"Zzz":          "Far",
	}

	suggestions := SuggestMatches(primary, titles, 0.8)
	require.Len(t, suggestions, 2)
	require.Equal(t, "Jane Doe.", suggestions[0].Reviewer)
	require.Equal(t, "Jane Doe", suggestions[0].Username)
	// punctuation is ignored when comparing names
	require.Equal(t, 1.0, suggestions[0].Correlation)
	require.Equal(t, "Robert Smyth", suggestions[1].Reviewer)
	require.Equal(t, "Robert Smith", suggestions[1].Username)

	// suggestions are advisory only
	merged := Reconcile(primary, titles)
	require.Equal(t, "", merged[0].Title)
	require.Equal(t, "Exact", merged[2].Title)
}
