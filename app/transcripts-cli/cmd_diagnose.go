package main

import (
	"github.com/spf13/cobra"

	"github.com/yoockh/yoointerview/internal/transcripts"
)

func newDiagnoseCommand(open opener) *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Report field presence and duration statistics",
		Long: `Inspect every stored interview: which timestamp and duration fields are
present, statistics over explicit durations, how many records the legacy
last-activity rule would export compared with the reconciled rule, and the
five newest interviews.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			d, err := svc.Diagnose(cmd.Context(), threshold)
			if err != nil {
				return err
			}
			d.WriteReport(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "min-duration", transcripts.DefaultMinDuration, "Threshold used to compare the export rules")
	return cmd
}
