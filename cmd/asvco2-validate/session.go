package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"asvco2cli/internal/dataprocessing"
)

func newSessionCmd(root *rootOptions) *cobra.Command {
	var timestamps string

	cmd := &cobra.Command{
		Use:   "session <transcript>",
		Short: "Summarize the validation sessions of a terminal transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, cleanup, err := root.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			l, err := dataprocessing.OpenLog(args[0])
			if err != nil {
				return err
			}
			sessions, err := dataprocessing.NewSessionParser(dataprocessing.TimestampMode(timestamps)).ParseSessions(l)
			if err != nil {
				return err
			}
			printSessions(cmd.OutOrStdout(), sessions)
			return nil
		},
	}

	cmd.Flags().StringVar(&timestamps, "timestamps", string(dataprocessing.TimestampISO), "Datetime column format: iso8601|epoch-days")
	return cmd
}

func printSessions(w io.Writer, sessions []*dataprocessing.Session) {
	fmt.Fprintf(w, "%d session(s)\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(w, "\nSession %s\n", s.Key)
		fmt.Fprintf(w, "  Reference gas: %g ppm\n", s.ReferenceGas)
		fmt.Fprintf(w, "  Rows:          %d\n", len(s.Rows))
		fmt.Fprintf(w, "  Unrecognized:  %d line(s)\n", s.Unrecognized)

		keys := make([]string, 0, len(s.Settings))
		for k := range s.Settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s = %s\n", k, s.SettingString(k))
		}
	}
}
