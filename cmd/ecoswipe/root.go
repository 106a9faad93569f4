package main

import (
	"fmt"

	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/config"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is stamped at build time
var Version = "dev"

// app carries state from the root command to its subcommands
type app struct {
	configPath string
	logLevel   string
	driver     string
	path       string
	backends   []string
	dev        bool

	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ecoswipe",
		Short:         "EcoSwipe judges product pages and suggests greener alternatives",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.driver, "storage-driver", "", "storage driver: memory, file, sqlite")
	flags.StringVar(&a.path, "storage-path", "", "storage directory or database file")
	flags.StringSliceVar(&a.backends, "backend", nil, "scoring backend base URL, in probe order (repeatable)")
	flags.BoolVar(&a.dev, "dev", false, "development logging")

	root.AddCommand(
		newServeCmd(a),
		newJudgeCmd(a),
		newCartCmd(a),
		newScrapeCmd(a),
	)
	return root
}

// load resolves configuration: defaults, file, environment, then flags
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("storage-driver") {
		cfg.Storage.Driver = a.driver
	}
	if flags.Changed("storage-path") {
		cfg.Storage.Path = a.path
	}
	if flags.Changed("backend") {
		cfg.Backend.Candidates = a.backends
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = a.dev
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	a.cfg, a.logger = cfg, logger
	logger.Debug("configuration loaded",
		zap.String("storage", cfg.Storage.Driver),
		zap.Strings("backends", cfg.Backend.Candidates),
	)
	return nil
}

// engine opens the shared popup engine; callers Close it
func (a *app) engine() (*server.Engine, error) {
	return server.NewEngine(a.cfg, a.logger)
}
