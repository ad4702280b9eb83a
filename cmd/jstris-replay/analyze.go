package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MJE43/jstris-replay-go/internal/analysis"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		fps      int
		steps    bool
		asJSON   bool
		openings int
	)

	cmd := &cobra.Command{
		Use:   "analyze <file|->",
		Short: "Map a replay's events onto frames and summarize its inputs",
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

			opts := a.cfg.Analysis
			if cmd.Flags().Changed("fps") {
				opts.FPS = fps
			}
			if cmd.Flags().Changed("opening") {
				opts.OpeningLength = openings
			}
			opts.KeepSteps = steps

			report := analysis.Analyze(r, opts)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().IntVar(&fps, "fps", analysis.DefaultFPS, "Frame rate to quantize to")
	cmd.Flags().IntVar(&openings, "opening", analysis.DefaultOpeningLength, "Number of opening pieces to show")
	cmd.Flags().BoolVar(&steps, "steps", false, "List every event with its frame mapping")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func printReport(w io.Writer, rep *analysis.Report) {
	fmt.Fprintf(w, "seed %s, %s, v%s, %d events at %d fps\n", rep.Seed, rep.Mode, rep.Version, rep.Events, rep.FPS)
	if rep.Opening != "" {
		fmt.Fprintf(w, "opening: %s\n", rep.Opening)
	}

	for _, s := range rep.Steps {
		fmt.Fprintf(w, "  @%-8s [+%7s, %02df e:%s]: %s\n", s.At, s.Delta, s.Frames, s.Error, s.Input)
	}

	fmt.Fprintf(w, "accumulated drift when mapping to frames: %s\n", rep.Drift)
	fmt.Fprintf(w, "observed elapsed time: %s vs recorded: %s (err: %s)\n", rep.Observed, rep.Recorded, rep.Difference)

	fmt.Fprintln(w, "\nframe delays by frequency:")
	for _, f := range rep.FrameDelays {
		fmt.Fprintf(w, "  - %2d frames: %3d\n", f.Frames, f.Count)
	}

	fmt.Fprintln(w, "\ninputs by frequency:")
	for _, in := range rep.Inputs {
		fmt.Fprintf(w, "  - %15s: %3d\n", in.Input, in.Count)
	}

	e := rep.Estimate
	fmt.Fprintf(w, "\nnaive: %d bits for frame, %d bits for input, %d events\n", e.FrameBits, e.InputBits, e.Events)
	fmt.Fprintf(w, "  - %d bits, %d bytes\n", e.Bits, e.Bytes)
}
