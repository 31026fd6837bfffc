package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cosmez/respfmt/internal/cluster"
	"github.com/cosmez/respfmt/internal/command"
	"github.com/cosmez/respfmt/internal/config"
	"github.com/cosmez/respfmt/internal/conn"
	"github.com/cosmez/respfmt/internal/logger"
	"github.com/cosmez/respfmt/internal/output"
	"github.com/cosmez/respfmt/internal/tui"
)

var (
	version = "dev" // set at build time via -ldflags "-X main.version=..."

	cfg    = config.DefaultConfig()
	log    = zap.NewNop()
	cmdStr string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "respfmt",
		Short:         "Encode Redis commands from printf-style templates and send them",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			l, err := logger.Setup(cfg)
			if err != nil {
				return err
			}
			log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmdStr != "" {
				return runOneShot(cmd.Context(), cmd.OutOrStdout())
			}
			return runRepl(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfg.Host, "host", "H", cfg.Host, "Redis server host")
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Redis server port")
	flags.StringVarP(&cfg.Username, "username", "u", "", "Redis ACL username")
	flags.StringVar(&cfg.Password, "password", "", "Redis password")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Reply timeout")
	flags.StringSliceVar(&cfg.Gateways, "gateway", nil, "Additional gateway host:port, repeatable")
	flags.StringVar(&cfg.SlotHash, "slot-hash", cfg.SlotHash, "Key slot hash (crc16, arc, xxhash)")
	flags.IntVar(&cfg.Slots, "slots", 0, "Override the slot count of --slot-hash")
	flags.IntVar(&cfg.KeyIndex, "key-index", 0, "Argument position of the routing key (default from the command table)")
	flags.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "logformat", cfg.LogFormat, "Log format (console, json)")
	flags.StringVar(&cfg.LogFile, "logfile", "", "Log file path (empty for stderr)")

	rootCmd.Flags().StringVarP(&cmdStr, "command", "c", "", "Execute a single command and exit")

	rootCmd.AddCommand(newEncodeCmd(), newExecCmd())
	return rootCmd
}

func newEncodeCmd() *cobra.Command {
	var raw, tuiMode bool
	cmd := &cobra.Command{
		Use:   "encode <template> [args...]",
		Short: "Print the RESP frame of a template without sending it",
		Long: `Encode a command template such as 'SET %s %b EX %d' with the given
arguments and show every argument's offset, length and slot.
Directives: %s %b %% and numeric conversions (d i o u x X e E f F g G a A
with flags, width, precision and hh/h/l/ll modifiers).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			part, err := cluster.ByName(cfg.SlotHash, cfg.Slots)
			if err != nil {
				return err
			}
			if tuiMode {
				return tui.Run(part, cfg.KeyIndex, args[0], args[1:])
			}
			reg, err := command.NewRegistry()
			if err != nil {
				return err
			}
			return encodeTemplate(cmd.OutOrStdout(), part, reg, args[0], args[1:], raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Write the raw frame bytes only")
	cmd.Flags().BoolVar(&tuiMode, "tui", false, "Open the interactive frame inspector")
	return cmd
}

// keyObserver follows the configured key index, or the command table when
// none is configured.
func keyObserver(part cluster.Partitioner, reg *command.Registry) *cluster.KeyObserver {
	key := cluster.NewKeyObserver(part, cfg.KeyIndex)
	if cfg.KeyIndex == 0 && reg != nil {
		key.KeyIndexOf = func(name []byte) int { return reg.KeyIndex(string(name)) }
	}
	return key
}

func encodeTemplate(w io.Writer, part cluster.Partitioner, reg *command.Registry, template string, raw []string, rawOut bool) error {
	key := keyObserver(part, reg)
	rec := &output.FrameRecorder{Next: key}
	frame, err := command.FormatText(rec, template, raw...)
	if err != nil {
		return err
	}
	log.Debug("encoded", zap.String("template", template), zap.Int("bytes", len(frame)), zap.Int("argc", len(rec.Args)))

	if rawOut {
		_, err := w.Write(frame)
		return err
	}
	output.PrintFrame(w, frame, rec.Args, key, w == io.Writer(os.Stdout) && !color.NoColor)
	return nil
}

func newExecCmd() *cobra.Command {
	var showRoute bool
	cmd := &cobra.Command{
		Use:   "exec <template> [args...]",
		Short: "Encode a template and send it to the gateway owning its key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execTemplate(cmd.Context(), cmd.OutOrStdout(), args[0], args[1:], showRoute)
		},
	}
	cmd.Flags().BoolVar(&showRoute, "route", false, "Print the chosen gateway and slot")
	return cmd
}

func execTemplate(ctx context.Context, w io.Writer, template string, raw []string, showRoute bool) error {
	ds, err := command.ParseTemplate(template)
	if err != nil {
		return err
	}
	vals, err := command.Coerce(ds, raw)
	if err != nil {
		return err
	}

	part, err := cluster.ByName(cfg.SlotHash, cfg.Slots)
	if err != nil {
		return err
	}
	reg, err := command.NewRegistry()
	if err != nil {
		return err
	}
	cl, err := conn.NewCluster(part, cfg.Addrs(), reg, cfg.KeyIndex, log)
	if err != nil {
		return err
	}
	cl.User, cl.Pass = cfg.Username, cfg.Password
	defer cl.Close()

	reply, route, err := cl.Do(ctx, cfg.Timeout, template, vals...)
	if err != nil {
		return err
	}
	if showRoute {
		if route.Keyed {
			fmt.Fprintf(w, "-> %s (slot %d)\n", route.Addr, route.Slot)
		} else {
			fmt.Fprintf(w, "-> %s\n", route.Addr)
		}
	}
	output.PrintRedisValue(w, reply, output.PrintOpts{Newline: true})
	return nil
}

func runOneShot(ctx context.Context, w io.Writer) error {
	c, err := conn.Connect(ctx, cfg.Addr(), cfg.Username, cfg.Password, log)
	if err != nil {
		return err
	}
	defer c.Close()

	reg, err := command.NewRegistry()
	if err != nil {
		return fmt.Errorf("failed to load commands: %w", err)
	}

	parsed, err := command.Parse(cmdStr, reg, nil)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if parsed.Name == "" {
		return fmt.Errorf("empty command")
	}

	// No timeout: one-shot scripts may run blocking commands.
	val, err := c.RoundTrip(parsed.CommandBytes, 0)
	if err != nil {
		return err
	}

	if parsed.Pipe != "" {
		return output.PipeRedisValue(w, val, parsed.Pipe)
	}
	output.PrintRedisValue(w, val, output.PrintOpts{Newline: true})
	return nil
}
