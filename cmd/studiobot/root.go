package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/m3rciful/studiobot/bot/app"
	"github.com/m3rciful/studiobot/bot/store"
	"github.com/m3rciful/studiobot/core/bootstrap"
	"github.com/m3rciful/studiobot/core/buildinfo"
	corecmd "github.com/m3rciful/studiobot/core/cmd"
	coreconfig "github.com/m3rciful/studiobot/core/config"
	"github.com/m3rciful/studiobot/core/logger"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "studiobot",
		Short:        "Telegram bot for the studio: posts, events, media and watermarks",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(configPath)
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default $CONFIG_PATH or config.yaml).")

	cmd.AddCommand(newRunCmd(&configPath))
	cmd.AddCommand(newAdmitCmd(&configPath))
	cmd.AddCommand(newEventsCmd(&configPath))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot (default)",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runBot(*configPath)
		},
	}
}

func runBot(configPath string) error {
	return corecmd.Run(corecmd.Options{
		ConfigEnvVar:      configEnvVar,
		DefaultConfigPath: defaultConfigPath,
		ConfigPath:        configPath,
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
			if err != nil {
				return nil, err
			}
			a, err := app.New(ctx, cfg, infra)
			if err != nil {
				_ = infra.Close()
				return nil, err
			}
			return a, nil
		},
	})
}

// withRepository opens the store offline, without the Telegram runtime.
func withRepository(ctx context.Context, configPath string, fn func(*store.Repository) error) error {
	path := corecmd.ResolveConfigPath(corecmd.Options{
		ConfigEnvVar:      configEnvVar,
		DefaultConfigPath: defaultConfigPath,
		ConfigPath:        configPath,
	})
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return err
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return err
	}
	defer func() {
		_ = infra.Close()
		_ = logger.Shutdown()
	}()
	repo, err := app.OpenRepository(cfg, infra)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(repo)
}

func newAdmitCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "admit <handle-or-id>",
		Short: "Add a user to the whitelist",
		Long: `Add a user to the whitelist.

Safe to run while the bot is up on the same store: the bot never caches a
rejected lookup, so the user is let in on their next message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd.Context(), *configPath, func(repo *store.Repository) error {
				added, err := repo.Admit(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if added {
					fmt.Fprintf(cmd.OutOrStdout(), "admitted %s\n", store.NormalizeKey(args[0]))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already whitelisted\n", store.NormalizeKey(args[0]))
				}
				return nil
			})
		},
	}
}

func newEventsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepository(cmd.Context(), *configPath, func(repo *store.Repository) error {
				events := repo.ListEvents(cmd.Context())
				if len(events) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no events")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDATE\tTITLE\tCREATOR")
				for _, ev := range events {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ev.ID, ev.Date, ev.Title, ev.Creator)
				}
				return w.Flush()
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "studiobot "+buildinfo.String())
		},
	}
}
