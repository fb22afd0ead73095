package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hal9000y/gmail-reader/internal/export"
	"github.com/hal9000y/gmail-reader/internal/mail"
	"github.com/hal9000y/gmail-reader/internal/validate"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		startDate string
		endDate   string
		file      string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export messages received in a date range to a JSON file",
		Long: `Export every message received on or after --start-date and before
--end-date as a JSON array of full records. Messages are streamed to the
file page by page, so memory use does not grow with the size of the range.
Use --file - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := validate.DateRange(startDate, endDate); err != nil {
				return err
			}
			if file == "" {
				file = fmt.Sprintf("gmail_export_%s_to_%s.json", startDate, endDate)
			}

			a, closeFn, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			out, commit, err := openExportFile(file, opts.stdout)
			if err != nil {
				return err
			}

			w := export.NewJSONArrayWriter[mail.Message](out)
			res, exportErr := a.reader.Export(cmd.Context(), startDate, endDate, limit, w)

			closeErr := w.Close()
			if err := commit(exportErr == nil && closeErr == nil); err != nil && exportErr == nil {
				exportErr = err
			}

			_, _ = fmt.Fprintf(opts.stderr, "Exported %d message(s) from %s to %s", res.Exported, startDate, endDate)
			if file != "-" {
				_, _ = fmt.Fprintf(opts.stderr, " into %s", file)
			}
			_, _ = fmt.Fprintln(opts.stderr)
			if res.Skipped > 0 {
				_, _ = fmt.Fprintf(opts.stderr, "Skipped %d message(s) that could not be fetched\n", res.Skipped)
			}
			if res.LimitReached || res.Summary.Truncated {
				_, _ = fmt.Fprintf(opts.stderr, "WARNING: export stopped early (%s); raise --limit or GMAIL_MAX_PAGES for a complete export\n", res.Summary.StopReason)
			}

			if exportErr != nil {
				return fmt.Errorf("export incomplete after %d message(s): %w", res.Exported, exportErr)
			}
			return closeErr
		},
	}

	cmd.Flags().StringVar(&startDate, "start-date", "", "First day to export, YYYY-MM-DD")
	cmd.Flags().StringVar(&endDate, "end-date", "", "Day after the last day to export, YYYY-MM-DD")
	cmd.Flags().StringVar(&file, "file", "", "Output file (default gmail_export_<start>_to_<end>.json, - for stdout)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of messages, 0 for no limit")
	_ = cmd.MarkFlagRequired("start-date")
	_ = cmd.MarkFlagRequired("end-date")

	return cmd
}

// openExportFile writes through a temporary file next to path. commit(true)
// renames it into place; commit(false) keeps the partial export under a
// ".partial" suffix so a failed run never replaces a previous export.
func openExportFile(path string, stdout io.Writer) (io.Writer, func(ok bool) error, error) {
	if path == "-" {
		return stdout, func(bool) error { return nil }, nil
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, nil, fmt.Errorf("os.CreateTemp failed: %w", err)
	}

	commit := func(ok bool) error {
		if err := f.Close(); err != nil {
			_ = os.Remove(f.Name())
			return fmt.Errorf("f.Close failed: %w", err)
		}
		target := path
		if !ok {
			target = path + ".partial"
		}
		if err := os.Rename(f.Name(), target); err != nil {
			return fmt.Errorf("os.Rename failed: %w", err)
		}
		return nil
	}

	return f, commit, nil
}
