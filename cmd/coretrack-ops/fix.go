package main

import (
	"strconv"

	"github.com/coretrack/backend/internal/domain/integrity"
	"github.com/spf13/cobra"
)

func newFixCmd(a *app) *cobra.Command {
	var (
		flags  scanFlags
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Repair the fixable integrity findings",
		Long: `Scans like "check" and repairs every fixable finding. With --dry-run the
planned repairs are printed and nothing is written.`,
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
			outcomes, err := svc.Fix(cmd.Context(), result.Findings, dryRun)
			if err != nil {
				return err
			}
			if err := render(a.out, a.opts.output, outcomes, outcomeTable(outcomes)); err != nil {
				return err
			}
			if a.opts.output == formatTable {
				applied := 0
				for _, o := range outcomes {
					if o.Applied {
						applied++
					}
				}
				if dryRun {
					cmd.Printf("\ndry run: %d repair(s) planned, nothing written\n", len(outcomes))
				} else {
					cmd.Printf("\n%d of %d repair(s) applied\n", applied, len(outcomes))
				}
			}
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the repairs without writing them")
	return cmd
}

type outcomeTable []integrity.FixOutcome

func (t outcomeTable) header() []string {
	return []string{"CHECK", "TENANT", "ENTITY", "ID", "ACTION", "APPLIED", "ERROR"}
}

func (t outcomeTable) rows() [][]string {
	rows := make([][]string, len(t))
	for i, o := range t {
		rows[i] = []string{
			string(o.Finding.Check),
			o.Finding.TenantID.String(),
			o.Finding.EntityType,
			o.Finding.EntityID.String(),
			o.Action,
			strconv.FormatBool(o.Applied),
			o.Error,
		}
	}
	return rows
}
