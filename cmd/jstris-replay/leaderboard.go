package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MJE43/jstris-replay-go/internal/replay"
	"github.com/MJE43/jstris-replay-go/internal/store"
)

func newLeaderboardCmd(a *app) *cobra.Command {
	var (
		mode       string
		limit      int
		nonZeroARR bool
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Walk a sprint leaderboard, best times first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gameMode, err := replay.ParseGameMode(mode)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.client()
			if err != nil {
				return err
			}

			var db store.DB
			if save {
				sqlite, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer sqlite.Close()
				db = sqlite
			}

			fetchReplays := nonZeroARR || save
			out := cmd.OutOrStdout()
			rank := 0
			for entry, err := range client.Leaderboard(ctx, gameMode) {
				if err != nil {
					return err
				}
				rank++

				if !fetchReplays {
					fmt.Fprintf(out, "%5d  %-10d  %-20s  %s\n", rank, entry.ReplayID, entry.Player, entry.Time)
				} else {
					r, err := client.FetchReplay(ctx, entry.ReplayID)
					if err != nil {
						a.logger.Warn("skipping replay", "jstris_id", entry.ReplayID, "error", err)
						continue
					}
					if db != nil {
						if err := a.saveReplay(ctx, db, r, entry.ReplayID); err != nil {
							return err
						}
					}
					if !nonZeroARR || r.Metadata.ARR != 0 {
						fmt.Fprintf(out, "%5d  %-10d  %-20s  %s  arr=%d das=%d seed=%s\n", rank, entry.ReplayID,
							entry.Player, entry.Time, r.Metadata.ARR, r.Metadata.DAS, r.Metadata.Seed)
					}
				}

				if limit > 0 && rank >= limit {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", replay.Mode40L.String(), "Sprint mode (20L, 40L, 100L, 1000L)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Stop after this many entries (0 walks the whole board)")
	cmd.Flags().BoolVar(&nonZeroARR, "nonzero-arr", false, "Fetch each replay and list only those with a non-zero ARR")
	cmd.Flags().BoolVar(&save, "save", false, "Fetch and store each replay")
	return cmd
}
