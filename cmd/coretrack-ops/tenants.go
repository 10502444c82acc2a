package main

import (
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTenantsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "Inspect tenants",
	}

	var (
		status string
		plan   string
		search string
		page   int
		size   int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List tenants with their plan and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.database()
			if err != nil {
				return err
			}
			filter := shared.Filter{
				Page:     page,
				PageSize: size,
				OrderBy:  "created_at",
				OrderDir: "asc",
				Search:   search,
				Filters:  map[string]any{},
			}
			if status != "" {
				filter.Filters["status"] = status
			}
			if plan != "" {
				filter.Filters["plan"] = plan
			}

			tenants, total, err := persistence.NewGormTenantRepository(db.DB).FindAll(cmd.Context(), filter)
			if err != nil {
				return err
			}
			rows := make(tenantTable, len(tenants))
			for i := range tenants {
				rows[i] = tenantRowFrom(&tenants[i])
			}
			if err := render(a.out, a.opts.output, rows, rows); err != nil {
				return err
			}
			if a.opts.output == formatTable {
				cmd.Printf("\n%d of %d tenant(s)\n", len(rows), total)
			}
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status (trial, active, past_due, suspended, cancelled)")
	list.Flags().StringVar(&plan, "plan", "", "filter by plan")
	list.Flags().StringVar(&search, "search", "", "match name or slug")
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&size, "page-size", 100, "tenants per page")

	cmd.AddCommand(list)
	return cmd
}

type tenantRow struct {
	ID          uuid.UUID  `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Slug        string     `json:"slug" yaml:"slug"`
	Plan        string     `json:"plan" yaml:"plan"`
	Status      string     `json:"status" yaml:"status"`
	Currency    string     `json:"currency" yaml:"currency"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty" yaml:"trial_ends_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
}

func tenantRowFrom(t *identity.Tenant) tenantRow {
	return tenantRow{
		ID:          t.ID,
		Name:        t.Name,
		Slug:        t.Slug,
		Plan:        string(t.Plan),
		Status:      string(t.Status),
		Currency:    t.Currency,
		TrialEndsAt: t.TrialEndsAt,
		CreatedAt:   t.CreatedAt,
	}
}

type tenantTable []tenantRow

func (t tenantTable) header() []string {
	return []string{"ID", "NAME", "SLUG", "PLAN", "STATUS", "CURRENCY", "TRIAL ENDS", "CREATED"}
}

func (t tenantTable) rows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		trial := "-"
		if r.TrialEndsAt != nil {
			trial = r.TrialEndsAt.Format(time.DateOnly)
		}
		rows[i] = []string{
			r.ID.String(), r.Name, r.Slug, r.Plan, r.Status, r.Currency, trial,
			r.CreatedAt.Format(time.DateOnly),
		}
	}
	return rows
}
