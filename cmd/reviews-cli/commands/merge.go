package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reviews-backend/internal/reviews"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	mergeReviews   string
	mergeTitles    string
	mergeOut       string
	mergeSuggest   bool
	mergeThreshold float64
)

func init() {
	mergeCmd.Flags().StringVar(&mergeReviews, "reviews", "", "The records to retitle (defaults to output.path).")
	mergeCmd.Flags().StringVar(&mergeTitles, "titles", "", "The title source (defaults to output.titles_path).")
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "The file to write merged records to (defaults to output.merged_path).")
	mergeCmd.Flags().BoolVar(&mergeSuggest, "suggest", false, "List title source reviewers without an exact match and their closest username.")
	mergeCmd.Flags().Float64Var(&mergeThreshold, "threshold", 0.8, "The minimum similarity of a suggestion.")
	rootCmd.AddCommand(mergeCmd)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// samePath reports whether a and b name the same file, either textually
// after resolving them or, when both exist, on disk.
func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if absA == absB {
		return true, nil
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}

var mergeCmd = &cobra.Command{
	Use:   "merge [--reviews <reviews.json>] [--titles <titles.json>] [--out <merged.json>]",
	Short: "Overrides record titles with the titles of a hand curated title source.",
	RunE: func(cmd *cobra.Command, args []string) error {
		reviewsPath := orDefault(mergeReviews, cfg.Output.Path)
		titlesPath := orDefault(mergeTitles, cfg.Output.TitlesPath)
		out := orDefault(mergeOut, cfg.Output.MergedPath)
		same, err := samePath(out, reviewsPath)
		if err != nil {
			return err
		}
		if same {
			return fmt.Errorf("refusing to overwrite the input %s", reviewsPath)
		}

		data, err := os.ReadFile(reviewsPath)
		if err != nil {
			return err
		}
		source, err := reviews.ReadTitleSource(titlesPath)
		if err != nil {
			return err
		}
		titles := source.Map()

		merged, count, err := reviews.ReconcileJSON(data, titles)
		if err != nil {
			return fmt.Errorf("%s: %w", reviewsPath, err)
		}
		err = os.WriteFile(out, merged, 0644)
		if err != nil {
			return err
		}
		slog.Info("merge complete", "count", count, "path", out)

		if mergeSuggest {
			records, err := reviews.ReadFile(reviewsPath)
			if err != nil {
				return err
			}
			suggestions := reviews.SuggestMatches(records, titles, mergeThreshold)

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Reviewer", "Closest username", "Similarity"})
			for _, s := range suggestions {
				t.AppendRow(table.Row{s.Reviewer, s.Username, fmt.Sprintf("%.2f", s.Correlation)})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
		}
		return nil
	},
}
