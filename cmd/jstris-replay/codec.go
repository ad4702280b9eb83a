package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MJE43/jstris-replay-go/internal/engine"
	"github.com/MJE43/jstris-replay-go/internal/randomizer"
)

func newDecodeCmd(a *app) *cobra.Command {
	var events bool

	cmd := &cobra.Command{
		Use:   "decode <file|->",
		Short: "Decode a replay (JSON or lz-string URI) and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			r, err := decodeReplay(a.codec(), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !events {
				return writeJSON(out, r)
			}
			md := r.Metadata
			fmt.Fprintf(out, "seed %s, %s, v%s, das %d, arr %d, %s\n",
				md.Seed, md.Mode, md.Version, md.DAS, md.ARR, r.Duration())
			for _, m := range r.Events.Moments() {
				fmt.Fprintf(out, "  @%-8s %s\n", m.At, m.Input)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&events, "events", false, "Print the event timeline instead of JSON")
	return cmd
}

func newEncodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <file|->",
		Short: "Encode a JSON replay as an lz-string URI component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			codec := a.codec()
			r, err := decodeReplay(codec, data)
			if err != nil {
				return err
			}
			s, err := codec.EncodeURI(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newPiecesCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "pieces <seed>",
		Short: "Print the pieces dealt for a seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := engine.ParseSeed(args[0])
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			fmt.Fprintln(cmd.OutOrStdout(), randomizer.FormatPieces(randomizer.Opening(seed, count)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 14, "Number of pieces")
	return cmd
}
