package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"reviews-backend/internal/reviews"
)

var ErrNoRuns = errors.New("no runs recorded for source")

// Store archives every scrape run so earlier results stay available after
// the output file is overwritten.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type PushRequest struct {
	Source  string
	Time    time.Time
	Records []reviews.Record
}

type Run struct {
	ID      int64
	Source  string
	Time    time.Time
	Records []reviews.Record
}

// Push stores a run and its records atomically, returning the run id.
func (s Store) Push(ctx context.Context, req PushRequest) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var runId int64
	err = tx.QueryRowContext(
		ctx,
		"insert into scrape_run(source, time, record_count) values (?, ?, ?) returning id",
		req.Source, req.Time.Unix(), len(req.Records),
	).Scan(&runId)
	if err != nil {
		return 0, err
	}

	for i, record := range req.Records {
		_, err = tx.ExecContext(
			ctx,
			`insert into review(
				run_id, position, username, body, rating, months_ago, time_text, title,
				review_year, review_month, review_day
			) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runId, i, record.Username, record.Review, record.Rating, record.MonthsAgo,
			record.TimeText, record.Title,
			record.ReviewDate.Year, record.ReviewDate.Month, record.ReviewDate.Day,
		)
		if err != nil {
			return 0, err
		}
	}

	return runId, tx.Commit()
}

// Latest returns the most recent run of source with its records in their
// original order.
func (s Store) Latest(ctx context.Context, source string) (Run, error) {
	run := Run{Source: source}
	var unix int64
	err := s.db.QueryRowContext(
		ctx,
		"select id, time from scrape_run where source = ? order by time desc, id desc limit 1",
		source,
	).Scan(&run.ID, &unix)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, err
	}
	run.Time = time.Unix(unix, 0)

	rows, err := s.db.QueryContext(
		ctx,
		`select username, body, rating, months_ago, time_text, title,
			review_year, review_month, review_day
		from review where run_id = ? order by position`,
		run.ID,
	)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	run.Records = []reviews.Record{}
	for rows.Next() {
		var r reviews.Record
		err = rows.Scan(
			&r.Username, &r.Review, &r.Rating, &r.MonthsAgo, &r.TimeText, &r.Title,
			&r.ReviewDate.Year, &r.ReviewDate.Month, &r.ReviewDate.Day,
		)
		if err != nil {
			return Run{}, err
		}
		run.Records = append(run.Records, r)
	}
	return run, rows.Err()
}
