package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"switchbomb/internal/config"
	"switchbomb/internal/room"
	"switchbomb/internal/store"
)

// options are the command-line knobs layered on top of the config file.
type options struct {
	configPath string
	name       string
	relayURL   string
	local      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "switchbomb",
		Short:         "Press a switch, avoid the bomb. Play with friends through a relay.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&opts.configPath, "config", "", "path to config file")
	fs.StringVarP(&opts.name, "name", "n", "", "player name (env: SWITCHBOMB_PLAYER_NAME)")
	fs.StringVar(&opts.relayURL, "relay", "", "relay websocket URL, overrides config")
	fs.BoolVar(&opts.local, "local", false, "play offline against an in-memory store")

	cmd.AddCommand(newHostCmd(opts))
	cmd.AddCommand(newJoinCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

func newHostCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Create a room and run it as the authoritative host",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGame(cmd.Context(), opts, "")
		},
	}
}

func newJoinCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "join <code-or-link>",
		Short: "Join an existing room by code or shareable link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := parseRoomArg(args[0])
			if code == "" {
				return fmt.Errorf("no room code in %q", args[0])
			}
			return runGame(cmd.Context(), opts, code)
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// parseRoomArg accepts a bare room code or a shareable link.
func parseRoomArg(arg string) string {
	if strings.Contains(arg, "://") || strings.Contains(arg, "?") {
		return room.CodeFromURL(arg)
	}
	return room.NormalizeCode(arg)
}

// openStore picks the backing store: in-memory for offline play, a
// relay connection otherwise.
func openStore(ctx context.Context, opts *options, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	if opts.local {
		return store.NewMemoryStore(), nil
	}

	url := cfg.Relay.URL
	if opts.relayURL != "" {
		url = opts.relayURL
	}
	if url == "" {
		return nil, fmt.Errorf("no relay URL configured; pass --relay or set relay.url")
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return store.DialRelay(dialCtx, url, cfg.Relay.RequestTimeout, log)
}
