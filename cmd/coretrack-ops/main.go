// Command coretrack-ops runs maintenance tasks against a CoreTrack database:
// integrity checks and repairs, schema migrations and tenant listings.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	integrityapp "github.com/coretrack/backend/internal/application/integrity"
	"github.com/coretrack/backend/internal/infrastructure/config"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/coretrack/backend/internal/infrastructure/persistence"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errFindings makes `check --fail` exit non-zero when anything was found
var errFindings = errors.New("integrity findings reported")

type options struct {
	configFile string
	envFile    string
	output     string
	logLevel   string
}

// app holds what the commands share. The database is opened on first use so
// commands that fail validation never connect.
type app struct {
	opts options
	out  io.Writer
	log  *zap.Logger
	cfg  *config.Config
	db   *persistence.Database
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "coretrack-ops",
		Short:         "CoreTrack maintenance tool",
		Long:          "Checks and repairs tenant data, runs schema migrations and lists tenants.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.opts.configFile, "config", "c", "", "config file (default: config.toml in the search paths)")
	flags.StringVar(&a.opts.envFile, "env-file", "", "load environment variables from this file first")
	flags.StringVarP(&a.opts.output, "output", "o", formatTable, "output format: table, json or yaml")
	flags.StringVar(&a.opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newCheckCmd(a),
		newFixCmd(a),
		newMigrateCmd(a),
		newTenantsCmd(a),
	)
	return root
}

func (a *app) setup() error {
	if err := validateFormat(a.opts.output); err != nil {
		return err
	}
	if a.opts.envFile != "" {
		if err := godotenv.Load(a.opts.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	log, err := logger.New(config.LogConfig{
		Level:      a.opts.logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return err
	}
	a.log = log

	cfg, err := config.LoadFile(a.opts.configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

func (a *app) database() (*persistence.Database, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := persistence.NewDatabase(a.cfg.Database, a.opts.logLevel)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *app) integrity() (*integrityapp.IntegrityService, error) {
	db, err := a.database()
	if err != nil {
		return nil, err
	}
	return integrityapp.NewIntegrityService(integrityapp.IntegrityServiceConfig{
		Store:     persistence.NewGormIntegrityStore(db.DB),
		Branches:  persistence.NewGormBranchRepository(db.DB),
		Items:     persistence.NewGormInventoryItemRepository(db.DB),
		Movements: persistence.NewGormStockMovementRepository(db.DB),
		MenuItems: persistence.NewGormMenuItemRepository(db.DB),
		Orders:    persistence.NewGormPurchaseOrderRepository(db.DB),
		TX:        persistence.NewTxRunner(db.DB, persistence.DefaultRetryPolicy()),
		Logger:    a.log,
	}), nil
}

func (a *app) close() error {
	var err error
	if a.db != nil {
		err = a.db.Close()
		a.db = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
