package commands

import (
	"fmt"
	"os"
	"strings"

	"reviews-backend/internal/reviews"
	"reviews-backend/internal/store"
	"reviews-backend/lib/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var (
	showAuthor string
	showWidth  int
	showLatest string
)

func init() {
	showCmd.Flags().StringVar(&showAuthor, "author", "", "Only show records whose username contains this name.")
	showCmd.Flags().IntVar(&showWidth, "width", 60, "The display width review bodies are truncated to.")
	showCmd.Flags().StringVar(&showLatest, "latest", "", "Show the latest archived run of a source (page, file or live) instead of a file.")
	rootCmd.AddCommand(showCmd)
}

func loadShown(cmd *cobra.Command, args []string) ([]reviews.Record, error) {
	if showLatest == "" {
		path := cfg.Output.Path
		if len(args) > 0 {
			path = args[0]
		}
		return reviews.ReadFile(path)
	}

	if !cfg.Store.Enabled() {
		return nil, fmt.Errorf("--latest needs a store to be configured")
	}
	db, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	run, err := store.NewStore(db).Latest(cmd.Context(), showLatest)
	if err != nil {
		return nil, err
	}
	return run.Records, nil
}

var showCmd = &cobra.Command{
	Use:   "show [reviews.json]",
	Short: "Prints records as a table.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadShown(cmd, args)
		if err != nil {
			return err
		}

		var matchers []string
		if showAuthor != "" {
			matchers = []string{textutil.NormalizeName(showAuthor)}
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Username", "Rating", "Posted", "Title", "Review"})
		shown := 0
		for _, r := range records {
			if matchers != nil && !textutil.MatchName(r.Username, matchers) {
				continue
			}
			body := strings.ReplaceAll(r.Review, "\n", " ")
			t.AppendRow(table.Row{
				r.Username,
				r.Rating,
				r.TimeText,
				r.Title,
				runewidth.Truncate(body, showWidth, "…"),
			})
			shown++
		}
		t.AppendFooter(table.Row{"", "", "", "Total", shown})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
