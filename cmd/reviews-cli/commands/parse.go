package commands

import (
	"log/slog"
	"os"

	"reviews-backend/internal/reviews"

	"github.com/spf13/cobra"
)

var parseOut string

func init() {
	parseCmd.Flags().StringVarP(&parseOut, "out", "o", "", "The file to write records to (defaults to output.path).")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <page.html>",
	Short: "Extracts records from a saved review page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := parseOut
		if out == "" {
			out = cfg.Output.Path
		}

		markup, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		extractor, err := cfg.Pipeline(tel)
		if err != nil {
			return err
		}
		records, err := extractor.ExtractString(string(markup))
		if err != nil {
			return err
		}

		err = reviews.WriteFile(out, records)
		if err != nil {
			return err
		}
		slog.Info("wrote reviews", "count", len(records), "path", out)

		return archive(cmd.Context(), "file", records)
	},
}
