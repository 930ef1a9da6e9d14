package alert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesoreria/internal/treasury"
)

func writeRules(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	return dir
}

func TestLoadRules(t *testing.T) {
	dir := writeRules(t, "rules.cue", `
rule: saldo_operativa: {
	kind:      "low_balance"
	severity:  "warning"
	threshold: "5.000,00 €"
}

rule: polizas_al_limite: {
	kind:                "credit_utilization"
	severity:            "critical"
	max_utilization_bps: 9000
}

rule: cuotas_proximas: {
	kind:       "loan_payment_due"
	severity:   "info"
	days_ahead: 7
}

rule: presupuesto: {
	kind:     "budget_overrun"
	severity: "warning"
}
`)

	rules, errs := LoadRules(dir)
	require.Empty(t, errs)
	require.Len(t, rules, 4)

	byID := map[string]Rule{}
	for _, r := range rules {
		byID[r.ID] = r
	}

	saldo := byID["saldo_operativa"]
	assert.Equal(t, KindLowBalance, saldo.Kind)
	assert.Equal(t, treasury.SeverityWarning, saldo.Severity)
	assert.Equal(t, int64(500000), saldo.Threshold.Cents())

	assert.Equal(t, int64(9000), byID["polizas_al_limite"].MaxUtilizationBps)
	assert.Equal(t, 7, byID["cuotas_proximas"].DaysAhead)
	assert.Equal(t, KindBudgetOverrun, byID["presupuesto"].Kind)
}

func TestLoadRules_UnknownKind(t *testing.T) {
	dir := writeRules(t, "rules.cue", `
rule: bad: {
	kind:     "margin_call"
	severity: "warning"
}
`)
	rules, errs := LoadRules(dir)
	assert.Empty(t, rules)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "margin_call")
}

func TestLoadRules_CollectsAllErrors(t *testing.T) {
	dir := writeRules(t, "rules.cue", `
rule: first: {
	severity: "warning"
}

rule: second: {
	kind:      "low_balance"
	severity:  "warning"
	threshold: "not money"
}

rule: ok: {
	kind:     "budget_overrun"
	severity: "info"
}
`)
	rules, errs := LoadRules(dir)
	require.Len(t, rules, 1)
	assert.Equal(t, "ok", rules[0].ID)
	assert.Len(t, errs, 2)
}

func TestLoadRules_MissingDir(t *testing.T) {
	_, errs := LoadRules(filepath.Join(t.TempDir(), "nope"))
	require.Len(t, errs, 1)
}

func TestLoadRules_NoFiles(t *testing.T) {
	_, errs := LoadRules(t.TempDir())
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no CUE files")
}

func TestLoadRules_BadThresholdSign(t *testing.T) {
	dir := writeRules(t, "rules.cue", `
rule: bad: {
	kind:      "low_balance"
	severity:  "warning"
	threshold: "-100,00"
}
`)
	_, errs := LoadRules(dir)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "threshold")
}
