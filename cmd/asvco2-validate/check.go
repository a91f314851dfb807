package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"asvco2cli/internal/pipeline"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <log files...>",
		Short: "Run the range checks on logs without calibration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, cleanup, err := root.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			proc := pipeline.NewProcessor(pipeline.Options{}, nil, nil, logger)
			out := cmd.OutOrStdout()
			faulted := 0
			for _, path := range args {
				report, err := proc.Check(cmd.Context(), pipeline.PathInput(path))
				if err != nil {
					fmt.Fprintf(out, "Could not check %s: %v\n", path, err)
					faulted++
					continue
				}
				fmt.Fprintln(out, report.String())
				if !report.OK() {
					faulted++
				}
			}
			if faulted > 0 {
				return fmt.Errorf("%d of %d file(s) have problems", faulted, len(args))
			}
			return nil
		},
	}
}
