package main

import (
	"fmt"
	"strconv"

	integrityapp "github.com/coretrack/backend/internal/application/integrity"
	"github.com/coretrack/backend/internal/domain/integrity"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type scanFlags struct {
	tenant string
	checks []string
}

func (f *scanFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.tenant, "tenant", "t", "", "limit the scan to one tenant id")
	cmd.Flags().StringSliceVar(&f.checks, "check", nil, "run only these checks (repeatable)")
}

func (f *scanFlags) parse() (*uuid.UUID, []integrity.Check, error) {
	var tenantID *uuid.UUID
	if f.tenant != "" {
		id, err := uuid.Parse(f.tenant)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid tenant id %q", f.tenant)
		}
		tenantID = &id
	}
	checks, err := parseChecks(f.checks)
	if err != nil {
		return nil, nil, err
	}
	return tenantID, checks, nil
}

func parseChecks(names []string) ([]integrity.Check, error) {
	checks := make([]integrity.Check, 0, len(names))
	for _, name := range names {
		c, err := integrity.ParseCheck(name)
		if err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return checks, nil
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		flags scanFlags
		fail  bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Scan tenant data for integrity problems",
		Long: `Runs the integrity checks over every tenant (or one with --tenant) and
prints the findings. Nothing is modified; use "fix" to repair.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, checks, err := flags.parse()
			if err != nil {
				return err
			}
			svc, err := a.integrity()
			if err != nil {
				return err
			}
			result, err := svc.Scan(cmd.Context(), tenantID, checks...)
			if err != nil {
				return err
			}
			if err := render(a.out, a.opts.output, result, findingTable(result.Findings)); err != nil {
				return err
			}
			if a.opts.output == formatTable {
				printSummary(cmd, result)
			}
			if fail && len(result.Findings) > 0 {
				return errFindings
			}
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&fail, "fail", false, "exit with status 1 when anything is found")
	return cmd
}

func printSummary(cmd *cobra.Command, result *integrityapp.ScanResult) {
	cmd.Printf("\n%d finding(s) across %d tenant(s)\n", len(result.Findings), result.Tenants)
	for _, c := range integrity.AllChecks {
		if n := result.Summary[c]; n > 0 {
			cmd.Printf("  %-28s %d\n", c, n)
		}
	}
}

type findingTable []integrity.Finding

func (t findingTable) header() []string {
	return []string{"CHECK", "SEVERITY", "TENANT", "ENTITY", "ID", "FIXABLE", "DETAIL"}
}

func (t findingTable) rows() [][]string {
	rows := make([][]string, len(t))
	for i, f := range t {
		rows[i] = []string{
			string(f.Check),
			string(f.Severity),
			f.TenantID.String(),
			f.EntityType,
			f.EntityID.String(),
			strconv.FormatBool(f.Fixable),
			f.Detail,
		}
	}
	return rows
}
