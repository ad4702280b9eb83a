// Command jstris-replay decodes, analyzes, fetches and serves jstris
// replays.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/MJE43/jstris-replay-go/internal/api"
	"github.com/MJE43/jstris-replay-go/internal/config"
	"github.com/MJE43/jstris-replay-go/internal/replay"
)

type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger hclog.Logger
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = hclog.New(&hclog.LoggerOptions{
		Name:   "jstris-replay",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

func (a *app) codec() replay.Codec {
	return replay.Codec{Policy: a.cfg.Versions}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "jstris-replay",
		Short:             "Decode, analyze and fetch jstris replays",
		Version:           buildVersion(),
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to config.yaml (default: $"+config.EnvConfigPath+" or the app data directory)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newDecodeCmd(a),
		newEncodeCmd(a),
		newPiecesCmd(a),
		newAnalyzeCmd(a),
		newFetchCmd(a),
		newLeaderboardCmd(a),
		newScanCmd(a),
		newVerifyCmd(a),
		newServeCmd(a),
	)
	return root
}

func buildVersion() string {
	if api.EngineVersion != "dev" {
		return api.EngineVersion
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return api.EngineVersion
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readInput reads a file, or standard input for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// decodeReplay accepts either the JSON envelope or its lz-string URI form.
func decodeReplay(codec replay.Codec, data []byte) (*replay.Replay, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		return codec.DecodeJSON(data)
	}
	return codec.DecodeURI(string(data))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
