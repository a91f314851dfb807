package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apperrors "asvco2cli/internal/errors"
	"asvco2cli/internal/tolerance"
	"asvco2cli/pkg/contracts/domain"
)

func newLimitsCmd(root *rootOptions) *cobra.Command {
	var (
		revision string
		at       float64
	)

	cmd := &cobra.Command{
		Use:   "limits",
		Short: "List tolerance revisions, or the limits of one revision at a concentration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, cleanup, err := root.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			engine, err := buildEngine(cfg.Tolerance, logger)
			if err != nil {
				return err
			}
			if revision == "" {
				printRevisions(cmd.OutOrStdout(), engine.Registry())
				return nil
			}
			return printLimits(cmd.OutOrStdout(), engine, tolerance.Revision(revision), at)
		},
	}

	cmd.Flags().StringVarP(&revision, "revision", "r", "", "Revision whose limits to print")
	cmd.Flags().Float64Var(&at, "at", 400, "Reference gas concentration in ppm")
	return cmd
}

func printRevisions(w io.Writer, registry *tolerance.Registry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REVISION\tEFFECTIVE\tGROUPED\tDESCRIPTION")
	for _, info := range registry.Revisions() {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", info.Name, info.Effective, info.Grouped, info.Description)
	}
	tw.Flush()
}

// printLimits prints every table rev defines at concentration. Statistics the
// revision does not limit are left out.
func printLimits(w io.Writer, engine *tolerance.Engine, rev tolerance.Revision, concentration float64) error {
	if _, ok := engine.Registry().Revision(rev); !ok {
		return apperrors.NewConfigError(fmt.Sprintf("unknown tolerance revision %q", rev), nil)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Limits of %s at %g ppm\n", rev, concentration)
	fmt.Fprintln(tw, "CALC TYPE\tSTATISTIC\tLIMIT")
	for _, calcType := range domain.CalcTypes {
		for _, stat := range []domain.Statistic{domain.StatCombined, domain.StatMean, domain.StatStdev, domain.StatMax} {
			limit, err := engine.Limit(rev, calcType, stat, concentration)
			switch {
			case errors.Is(err, apperrors.ErrOutOfRange):
				fmt.Fprintf(tw, "%s\t%s\tout of range\n", calcType, stat)
			case err == nil:
				fmt.Fprintf(tw, "%s\t%s\t%.4f\n", calcType, stat, limit)
			}
		}
	}
	return tw.Flush()
}
