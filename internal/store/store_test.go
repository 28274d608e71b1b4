package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"reviews-backend/internal/reviews"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	db, err := Open(ctx, Config{File: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := NewStore(db)

	{
		_, err := store.Latest(ctx, "page")
		require.True(t, errors.Is(err, ErrNoRuns))
	}

	first := []reviews.Record{
		{
			Username:   "José",
			Review:     "Très bien",
			Rating:     5,
			MonthsAgo:  13,
			TimeText:   "1 year and 1 month ago",
			Title:      "Patient Experience",
			ReviewDate: reviews.ReviewDate{Year: 2023, Month: 12, Day: 4},
		},
		{
			Username:   "Anonymous",
			Review:     "Good",
			Rating:     0,
			MonthsAgo:  0,
			TimeText:   "this month",
			Title:      "Great Experience",
			ReviewDate: reviews.ReviewDate{Year: 2025, Month: 1, Day: 30},
		},
	}
	second := []reviews.Record{first[1]}

	now := time.Date(2025, time.January, 30, 12, 0, 0, 0, time.UTC)
	{
		_, err := store.Push(ctx, PushRequest{Source: "page", Time: now, Records: first})
		require.NoError(t, err)
		_, err = store.Push(ctx, PushRequest{Source: "live", Time: now.Add(time.Hour), Records: nil})
		require.NoError(t, err)
	}
	{
		run, err := store.Latest(ctx, "page")
		require.NoError(t, err)
		require.True(t, now.Equal(run.Time))
		diff := cmp.Diff(first, run.Records)
		if diff != "" {
			t.Fatal(diff)
		}
	}
	{
		id, err := store.Push(ctx, PushRequest{Source: "page", Time: now.Add(time.Minute), Records: second})
		require.NoError(t, err)

		run, err := store.Latest(ctx, "page")
		require.NoError(t, err)
		require.Equal(t, id, run.ID)
		require.Equal(t, second, run.Records)
	}
	{
		run, err := store.Latest(ctx, "live")
		require.NoError(t, err)
		require.Empty(t, run.Records)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Config{File: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db))
}

func TestConfig(t *testing.T) {
	require.False(t, Config{}.Enabled())
	require.True(t, Config{File: "reviews.db"}.Enabled())

	_, err := Config{}.OpenDB()
	require.Error(t, err)
}
