package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"schemefinder/internal/platform/config"
	"schemefinder/internal/platform/logger"
)

const app = "schemefinder"

// cli carries state shared by subcommands: the bound viper instance, and
// the config and logger resolved before any subcommand runs.
type cli struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           app,
		Short:         "schemefinder matches applicant profiles to government welfare schemes",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is ./schemefinder.yaml if present)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Bool("log-json", false, "json format for logging")
	flags.String("catalog-source", config.SourceFile, "catalog source: file or postgres")
	flags.String("catalog-path", "", "catalog JSON file (default is the embedded dataset)")
	flags.String("postgres-url", "", "postgres connection URL for the postgres catalog source")
	c.bind(root, map[string]string{
		"log.level":      "log-level",
		"log.json":       "log-json",
		"catalog.source": "catalog-source",
		"catalog.path":   "catalog-path",
		"postgres.url":   "postgres-url",
	})

	root.AddCommand(
		newServeCmd(c),
		newCheckCmd(c),
		newSchemesCmd(c),
		newSeedCmd(c),
		newVersionCmd(),
	)
	return root
}

// bind maps config keys to persistent flags of cmd.
func (c *cli) bind(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		f := cmd.PersistentFlags().Lookup(flag)
		if f == nil {
			f = cmd.Flags().Lookup(flag)
		}
		_ = c.v.BindPFlag(key, f)
	}
}

func (c *cli) init() error {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = log
	return nil
}
