// Package commands is the rlpath command line: training, route replay,
// inspection and the HTTP server.
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/rlpath/codec"
	"github.com/zeu5/rlpath/config"
	"github.com/zeu5/rlpath/grid"
	"github.com/zeu5/rlpath/maze"
	"github.com/zeu5/rlpath/observability"
	"github.com/zeu5/rlpath/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app is what every subcommand shares, set up before the subcommand runs
type app struct {
	configFile string

	cfg         *config.Config
	logger      *zap.Logger
	experiments *store.Experiments
	closers     []func() error
}

func GetRootCommand() *cobra.Command {
	a := &app{}
	rootCommand := &cobra.Command{
		Use:           "rlpath",
		Short:         "Learn routes through environments with tabular Q-learning",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCommand.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Configuration file (yaml or json)")

	// adding the subcommands here
	rootCommand.AddCommand(trainCommand(a))
	rootCommand.AddCommand(routeCommand(a))
	rootCommand.AddCommand(inspectCommand(a))
	rootCommand.AddCommand(serveCommand(a))
	return rootCommand
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(cfg.Logger, zapcore.AddSync(cmd.ErrOrStderr()))

	registry := codec.NewRegistry()
	if err := errors.Join(maze.Register(registry), grid.Register(registry)); err != nil {
		return fmt.Errorf("registering kinds: %w", err)
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	a.experiments = store.NewExperiments(s, registry)
	return nil
}

func (a *app) openStore() (store.Store, error) {
	switch a.cfg.Store.Backend {
	case "redis":
		r := a.cfg.Store.Redis
		client := store.NewRedisClient(r.Addr, r.Password, r.DB)
		a.closers = append(a.closers, client.Close)
		a.logger.Debug("using redis store", zap.String("addr", r.Addr), zap.String("prefix", r.Prefix))
		return store.NewRedisStore(client, r.Prefix), nil
	default:
		a.logger.Debug("using file store", zap.String("dir", a.cfg.Store.Dir))
		return store.NewFileStore(a.cfg.Store.Dir)
	}
}

func (a *app) close() error {
	errs := make([]error, 0, len(a.closers))
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	if a.logger != nil {
		// syncing a terminal fails on some platforms
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}
