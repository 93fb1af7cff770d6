// Command tgmarkup renders, validates and serves keyboard catalogs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tgmarkup/internal/app"
	"tgmarkup/internal/catalog"
	"tgmarkup/internal/config"
	"tgmarkup/internal/storage"
	logx "tgmarkup/pkg/logx"
	"tgmarkup/pkg/peer"
)

// Set by ldflags.
var version = "dev"

const defaultConfigPath = "./config.yaml"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tgmarkup",
		Short:         "Build Telegram reply markup from declarative keyboards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", defaultConfigPath, "Path to configuration file (JSON or YAML)")
	root.PersistentFlags().String("log-level", "warn", "Console log level for render and validate")
	root.AddCommand(versionCmd(), renderCmd(), validateCmd(), serveCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tgmarkup %s\n", version)
		},
	}
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <keyboard>",
		Short: "Print one catalog keyboard as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			selfID, _ := cmd.Flags().GetInt64("self-id")
			cat, cleanup, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			kb, ok := cat.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown keyboard %q (have: %s)", args[0], strings.Join(cat.Names(), ", "))
			}
			return render(cmd.OutOrStdout(), kb, format, selfID)
		},
	}
	cmd.Flags().StringP("format", "f", formatMTProto, "Output format: mtproto or botapi")
	cmd.Flags().Int64("self-id", 0, "Bot user id for profile buttons that point at the bot (botapi format)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Compile every catalog keyboard and report errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, cleanup, err := loadCatalog(cmd)
			if err != nil {
				var kerr *catalog.KeyboardError
				if errors.As(err, &kerr) {
					fmt.Fprintln(cmd.ErrOrStderr(), "Configuration has errors:")
					for _, line := range strings.Split(err.Error(), "\n") {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", line)
					}
					return errors.New("validation failed")
				}
				return err
			}
			defer cleanup()
			return printSummary(cmd.OutOrStdout(), cat)
		},
	}
}

func printSummary(w io.Writer, cat *catalog.Catalog) error {
	if _, err := fmt.Fprintf(w, "Configuration OK (%d keyboards)\n", cat.Len()); err != nil {
		return err
	}
	for _, name := range cat.Names() {
		kb, _ := cat.Get(name)
		if _, err := fmt.Fprintf(w, "  %-20s %s\n", name, kind(kb.Markup)); err != nil {
			return err
		}
	}
	return nil
}

// loadCatalog reads the config, opens the peer store if configured and
// compiles the catalog. cleanup closes the store.
func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, func(), error) {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	log := logx.NewConsole(level).With(logx.String("comp", "cli"))

	cfgm := config.NewConfigManager(path)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, nil, err
	}
	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if store != nil {
			_ = store.Close()
		}
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	cat, err := catalog.FromConfig(ctx, cfg, storeResolver(store))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return cat, cleanup, nil
}

func storeResolver(s *storage.Store) peer.Resolver {
	if s == nil {
		return nil
	}
	return s
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")

			a, err := app.NewApp(path)
			if err != nil {
				return err
			}
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			if err := a.Start(cmd.Context()); err != nil {
				_ = a.Stop(context.Background(), app.StopFatalError)
				return err
			}

			reason := app.StopAppStop
			select {
			case sig := <-sigCh:
				reason = app.ReasonFromSignal(sig)
			case <-a.Done():
				if a.Err() != nil {
					reason = app.StopFatalError
				}
			}

			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			stopErr := a.Stop(stopCtx, reason)
			if err := a.Err(); err != nil {
				return err
			}
			return stopErr
		},
	}
}
