package commands

import (
	"log/slog"
	"time"

	"reviews-backend/internal/reviews"
	"reviews-backend/internal/scrapers/reviewpage"
	"reviews-backend/lib/restyutil"

	"github.com/spf13/cobra"
)

var (
	scrapeOut  string
	scrapeDump string
)

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeOut, "out", "o", "", "The file to write records to (defaults to output.path).")
	scrapeCmd.Flags().StringVar(&scrapeDump, "dump", "", "A directory to write raw request/response pairs to (cleared first).")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [url]",
	Short: "Fetches a review page, extracts its records and writes them to a file.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageUrl := cfg.Source.Url
		if len(args) > 0 {
			pageUrl = args[0]
		}
		out := scrapeOut
		if out == "" {
			out = cfg.Output.Path
		}

		extractor, err := cfg.Pipeline(tel)
		if err != nil {
			return err
		}
		opts := cfg.PageOptions()
		if scrapeDump != "" {
			output, err := restyutil.NewFilesystemOutput(scrapeDump)
			if err != nil {
				return err
			}
			opts.Dump = output
		}
		client := reviewpage.NewClient(opts, extractor, tel)

		t1 := time.Now()
		records, err := client.Scrape(cmd.Context(), pageUrl)
		if err != nil {
			return err
		}
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())

		err = reviews.WriteFile(out, records)
		if err != nil {
			return err
		}
		slog.Info("wrote reviews", "count", len(records), "path", out)

		return archive(cmd.Context(), "page", records)
	},
}
