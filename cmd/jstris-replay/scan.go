package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/jstris-replay-go/internal/scan"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		req     scan.Request
		op      string
		timeout time.Duration
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "scan --from <seed> --to <seed> --target <pieces>",
		Short: "Find seeds whose opening resembles a piece sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Op = scan.TargetOp(op)
			if !cmd.Flags().Changed("timeout") {
				timeout = a.cfg.Scan.DefaultTimeout
			}
			req.TimeoutMs = int(timeout / time.Millisecond)

			result, err := scan.NewScanner(a.logger).Scan(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}
			for _, hit := range result.Hits {
				fmt.Fprintf(out, "%s  %s  %d\n", hit.Seed, hit.Opening, hit.Distance)
			}
			s := result.Summary
			fmt.Fprintf(out, "evaluated %d seeds in %s, %d hits", s.TotalEvaluated, s.Elapsed, s.HitsFound)
			switch {
			case s.TimedOut:
				fmt.Fprint(out, " (timed out)")
			case s.LimitReached:
				fmt.Fprint(out, " (limit reached)")
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.From, "from", "", "First seed of the range")
	cmd.Flags().StringVar(&req.To, "to", "", "Last seed of the range, same length as --from")
	cmd.Flags().StringVarP(&req.Target, "target", "t", "", "Opening to look for, e.g. IOTLJSZ")
	cmd.Flags().StringVar(&op, "op", string(scan.OpLessEqual), "Distance comparison (eq, gt, ge, lt, le, between, outside)")
	cmd.Flags().IntVarP(&req.Distance, "distance", "d", 0, "Edit distance bound")
	cmd.Flags().IntVar(&req.Distance2, "distance2", 0, "Upper bound for between and outside")
	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 100, "Maximum number of hits (0 for no limit)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop after this long (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	for _, name := range []string{"from", "to", "target"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}
