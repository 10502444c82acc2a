package main

import (
	"fmt"
	"strconv"

	"github.com/coretrack/backend/internal/infrastructure/migration"
	"github.com/coretrack/backend/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded schema migrations",
	}

	open := func() (*migration.Migrator, error) {
		db, err := a.database()
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB.DB()
		if err != nil {
			return nil, err
		}
		return migration.NewEmbedded(sqlDB, migrations.FS, a.log)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			if err := m.Up(); err != nil {
				return err
			}
			return printVersion(a, m)
		},
	}

	down := &cobra.Command{
		Use:   "down [n|all]",
		Short: "Roll back n migrations (default 1) or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				if args[0] == "all" {
					steps = 0
				} else {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("invalid step count %q", args[0])
					}
					steps = n
				}
			}
			m, err := open()
			if err != nil {
				return err
			}
			if err := m.Down(steps); err != nil {
				return err
			}
			return printVersion(a, m)
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			return printVersion(a, m)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

type schemaVersion struct {
	Version uint `json:"version" yaml:"version"`
	Dirty   bool `json:"dirty" yaml:"dirty"`
}

func (v schemaVersion) header() []string { return []string{"VERSION", "DIRTY"} }

func (v schemaVersion) rows() [][]string {
	return [][]string{{strconv.FormatUint(uint64(v.Version), 10), strconv.FormatBool(v.Dirty)}}
}

func printVersion(a *app, m *migration.Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	v := schemaVersion{Version: version, Dirty: dirty}
	return render(a.out, a.opts.output, v, v)
}
