package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MJE43/jstris-replay-go/internal/scripting"
)

func newVerifyCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "verify [seed]...",
		Short: "Check the Alea generator against the JavaScript reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"c07yl8", "12", "zzzzzz"}
			}

			ref, err := scripting.NewReference()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, seed := range args {
				if err := ref.Verify(count, seed); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %-8s %v\n", seed, err)
					continue
				}
				fmt.Fprintf(out, "ok   %-8s %d values\n", seed, count)
			}
			a.logger.Debug("verify finished", "seeds", len(args), "failed", failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d seeds diverged", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1000, "Values to compare per seed")
	return cmd
}
