package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/integrity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFindings() findingTable {
	return findingTable{{
		Check:      integrity.CheckNegativeStock,
		Severity:   integrity.SeverityError,
		TenantID:   uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		EntityType: "inventory_item",
		EntityID:   uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Detail:     "quantity is -3",
		Fixable:    true,
	}}
}

func TestRender(t *testing.T) {
	findings := sampleFindings()

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatTable, findings, findings))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[0], "CHECK"))
		assert.Contains(t, lines[1], "negative_stock")
		assert.Contains(t, lines[1], "quantity is -3")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatJSON, findings, findings))
		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 1)
		assert.Equal(t, "negative_stock", decoded[0]["check"])
		assert.Equal(t, "22222222-2222-2222-2222-222222222222", decoded[0]["entity_id"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, formatYAML, findings, findings))
		assert.Contains(t, buf.String(), "check: negative_stock")
		assert.Contains(t, buf.String(), "tenant_id: 11111111-1111-1111-1111-111111111111")
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, render(&bytes.Buffer{}, "xml", findings, findings))
	})
}

func TestParseChecks(t *testing.T) {
	checks, err := parseChecks([]string{"unknown_branch", "negative_stock"})
	require.NoError(t, err)
	assert.Equal(t, []integrity.Check{integrity.CheckUnknownBranch, integrity.CheckNegativeStock}, checks)

	_, err = parseChecks([]string{"missing_everything"})
	assert.Error(t, err)
}

func TestScanFlagsParse(t *testing.T) {
	f := scanFlags{tenant: "not-a-uuid"}
	_, _, err := f.parse()
	assert.ErrorContains(t, err, "invalid tenant id")

	id := uuid.New()
	f = scanFlags{tenant: id.String(), checks: []string{"sale_without_shift"}}
	tenantID, checks, err := f.parse()
	require.NoError(t, err)
	require.NotNil(t, tenantID)
	assert.Equal(t, id, *tenantID)
	assert.Equal(t, []integrity.Check{integrity.CheckSaleWithoutShift}, checks)
}

func TestRootCmd_RejectsUnknownOutput(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--output", "xml", "check"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, `unknown output format "xml"`)
	assert.Empty(t, out.String())
}

func TestRootCmd_Commands(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})
	for _, path := range [][]string{
		{"check"},
		{"fix"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"tenants", "list"},
	} {
		found, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}

	fix, _, err := cmd.Find([]string{"fix"})
	require.NoError(t, err)
	assert.NotNil(t, fix.Flags().Lookup("dry-run"))
}

func TestTenantTable(t *testing.T) {
	trial := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	table := tenantTable{{
		ID:          uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		Name:        "Kopi Kita",
		Slug:        "kopi-kita",
		Plan:        "pro",
		Status:      "trial",
		Currency:    "IDR",
		TrialEndsAt: &trial,
		CreatedAt:   time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC),
	}, {
		Name:      "No Trial",
		CreatedAt: time.Date(2026, 2, 16, 9, 0, 0, 0, time.UTC),
	}}

	rows := table.rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-03-01", rows[0][6])
	assert.Equal(t, "2026-02-15", rows[0][7])
	assert.Equal(t, "-", rows[1][6])
	assert.Len(t, table.header(), len(rows[0]))
}

func TestSchemaVersionTable(t *testing.T) {
	v := schemaVersion{Version: 4}
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatTable, v, v))
	assert.Contains(t, buf.String(), "4")
	assert.Contains(t, buf.String(), "false")
}
