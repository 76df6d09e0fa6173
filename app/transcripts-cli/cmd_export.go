package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/transcripts"
)

type exportFlags struct {
	minDuration float64
	exclude     []string
	startDate   string
	endDate     string
	output      string
	upload      bool
	gzip        bool
}

func newExportCommand(open opener) *cobra.Command {
	f := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write filtered transcripts to a text file",
		Long: `Export every interview that passes the filters, newest first.

Examples:
  # all interviews of at least 8 minutes
  transcripts export

  # exclude users and limit the date range
  transcripts export --exclude-usernames marco,testuser --start-date 01/01/2024 --end-date 31/03/2024

  # lower threshold, upload a copy to EXPORT_BUCKET
  transcripts export --min-duration 5 --upload --gzip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open(cmd.Context(), f.upload)
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			printFilters(out, f)

			rep, err := svc.Export(cmd.Context(), services.ExportRequest{
				ExcludeUsernames: f.exclude,
				StartDate:        f.startDate,
				EndDate:          f.endDate,
				MinDuration:      f.minDuration,
				OutputPath:       f.output,
				Upload:           f.upload,
				Gzip:             f.gzip,
			})
			if err != nil {
				return err
			}

			for _, w := range rep.Warnings {
				fmt.Fprintf(out, "Warning: %s\n", w)
			}
			if len(rep.Entries) == 0 {
				fmt.Fprintf(out, "No interviews found with duration greater than or equal to %s minutes.\n", minutes(f.minDuration))
				return nil
			}

			fmt.Fprintf(out, "\nFiltering results:\n")
			fmt.Fprintf(out, "  - Total interviews in database: %d\n", rep.Total)
			fmt.Fprintf(out, "  - Excluded by username: %d\n", rep.ExcludedByUsername)
			fmt.Fprintf(out, "  - Excluded by date range: %d\n", rep.ExcludedByDate)
			fmt.Fprintf(out, "  - Excluded by duration: %d\n", rep.ExcludedByDuration)
			fmt.Fprintf(out, "  - Interviews to download: %d\n\n", len(rep.Entries))
			fmt.Fprintf(out, "Successfully saved all transcripts to %s\n", rep.OutputPath)
			if rep.UploadedTo != "" {
				fmt.Fprintf(out, "Uploaded copy to %s\n", rep.UploadedTo)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&f.minDuration, "min-duration", transcripts.DefaultMinDuration, "Minimum interview duration in minutes")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude-usernames", nil, "Usernames to exclude (comma-separated or repeated)")
	cmd.Flags().StringVar(&f.startDate, "start-date", "", "Start date filter in DD/MM/YYYY format (e.g., 01/01/2024)")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "End date filter in DD/MM/YYYY format (e.g., 31/12/2024)")
	cmd.Flags().StringVarP(&f.output, "output", "o", services.DefaultExportPath, "Output file")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "Also upload the export to EXPORT_BUCKET")
	cmd.Flags().BoolVar(&f.gzip, "gzip", false, "Gzip the uploaded copy")

	return cmd
}

func printFilters(w io.Writer, f *exportFlags) {
	fmt.Fprintf(w, "\nApplying filters:\n")
	fmt.Fprintf(w, "  - Exclude usernames: %s\n", orNone(strings.Join(f.exclude, ", ")))
	fmt.Fprintf(w, "  - Start date: %s\n", orNone(f.startDate))
	fmt.Fprintf(w, "  - End date: %s\n", orNone(f.endDate))
	fmt.Fprintf(w, "  - Min duration: %s minutes\n\n", minutes(f.minDuration))
}

func minutes(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
