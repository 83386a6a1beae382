package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Sternrassler/ontap-client/internal/config"
	"github.com/Sternrassler/ontap-client/pkg/logging"
	"github.com/spf13/cobra"
)

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	pretty     bool

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "ontap",
		Short: "Find the cheapest and strongest beer on tap",
		Long: `Queries the ontap.pl catalog for a city's pubs and taps and ranks the
beers by price per half liter, ABV, or alcohol per złoty.

Settings come from an optional YAML file (--config or CONFIG_PATH) and the
environment: ONTAP_API_KEY, ONTAP_BASE_URL, REDIS_URL, CACHE_DB_PATH,
LOG_LEVEL, PORT.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv(config.EnvConfigPath), "path to YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&c.pretty, "pretty", false, "human-readable logs")

	root.AddCommand(
		newCitiesCmd(c),
		newPubsCmd(c),
		newPubCmd(c),
		newMapsCmd(c),
		newBeersCmd(c),
		newBeerCmd(c),
		newCacheCmd(c),
		newServeCmd(c),
	)

	return root
}

// setup loads configuration and configures logging before any subcommand.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if c.pretty {
		cfg.Log.Pretty = true
	}

	lc := cfg.LoggingConfig()
	lc.Output = cmd.ErrOrStderr()
	logging.Setup(lc)

	c.cfg = cfg
	return nil
}

// run opens the app for one command and closes it afterwards.
func (c *cli) run(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}()

	return fn(a)
}
