package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Config picks the database: a remote libsql Url when set, otherwise a local
// sqlite File (":memory:" works too).
type Config struct {
	File      string `json:"file" yaml:"file"`
	Url       string `json:"url" yaml:"url"`
	AuthToken string `json:"auth_token" yaml:"auth_token"`
}

func (c Config) Enabled() bool {
	return c.File != "" || c.Url != ""
}

func (c Config) OpenDB() (*sql.DB, error) {
	if c.Url != "" {
		dsn := c.Url
		if c.AuthToken != "" {
			values := url.Values{}
			values.Add("authToken", c.AuthToken)
			dsn += "?" + values.Encode()
		}
		return sql.Open("libsql", dsn)
	}
	if c.File == "" {
		return nil, fmt.Errorf("neither a file nor a url was specified")
	}

	db, err := sql.Open("sqlite", c.File)
	if err != nil {
		return nil, err
	}
	// sqlite only allows a single writer, a single connection also keeps
	// ":memory:" databases from being split across connections
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates any missing tables, it is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Open is OpenDB followed by Migrate.
func Open(ctx context.Context, c Config) (*sql.DB, error) {
	db, err := c.OpenDB()
	if err != nil {
		return nil, err
	}
	err = Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
