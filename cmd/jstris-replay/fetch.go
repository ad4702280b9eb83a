package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MJE43/jstris-replay-go/internal/analysis"
	"github.com/MJE43/jstris-replay-go/internal/jstris"
	"github.com/MJE43/jstris-replay-go/internal/replay"
	"github.com/MJE43/jstris-replay-go/internal/store"
)

func (a *app) client() (*jstris.Client, error) {
	return jstris.NewClient(a.cfg.ClientConfig(a.logger))
}

// openStore opens the configured database and applies migrations.
func (a *app) openStore(ctx context.Context) (*store.SQLiteDB, error) {
	path := a.cfg.DatabasePath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := store.NewSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	a.logger.Debug("database ready", "path", path)
	return db, nil
}

// saveReplay stores r with its analysis. A replay already stored under the
// same site ID is skipped.
func (a *app) saveReplay(ctx context.Context, db store.DB, r *replay.Replay, id uint64) error {
	rec, err := store.NewRecord(r, &id)
	if err != nil {
		return err
	}
	err = db.SaveReplay(ctx, rec)
	if errors.Is(err, store.ErrDuplicate) {
		a.logger.Info("replay already stored", "jstris_id", id)
		return nil
	}
	if err != nil {
		return err
	}
	if err := db.SaveAnalysis(ctx, rec.ID, analysis.Analyze(r, a.cfg.Analysis)); err != nil {
		return err
	}
	a.logger.Info("replay stored", "jstris_id", id, "id", rec.ID)
	return nil
}

func newFetchCmd(a *app) *cobra.Command {
	var (
		save   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <replay-id>...",
		Short: "Download replays from jstris",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid replay id %q", arg)
				}
				ids = append(ids, id)
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

			out := cmd.OutOrStdout()
			for _, id := range ids {
				r, err := client.FetchReplay(ctx, id)
				if err != nil {
					return fmt.Errorf("replay %d: %w", id, err)
				}

				if db != nil {
					if err := a.saveReplay(ctx, db, r, id); err != nil {
						return err
					}
				}

				if asJSON {
					if err := writeJSON(out, r); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%s\n", client.ReplayURL(id))
				printReport(out, analysis.Analyze(r, a.cfg.Analysis))
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Store fetched replays in the database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print replays as JSON instead of a report")
	return cmd
}
