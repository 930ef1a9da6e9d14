package report

import (
	"fmt"
	"strings"

	"tesoreria/internal/treasury"
)

// RenderText renders the position as a plain-text report for the CLI.
func RenderText(p Position) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Posición de tesorería a %s (horizonte %d días)\n\n", treasury.FormatDate(p.AsOf), p.HorizonDays)

	b.WriteString("CUENTAS\n")
	for _, a := range p.Accounts {
		fmt.Fprintf(&b, "  %-28s %16s\n", a.Name, a.Balance)
	}
	fmt.Fprintf(&b, "  %-28s %16s\n\n", "Total caja", p.TotalCash)

	if len(p.Credit) > 0 {
		b.WriteString("CRÉDITO\n")
		for _, c := range p.Credit {
			fmt.Fprintf(&b, "  %-28s %16s de %s (%d%%)\n", c.Name, c.Available, c.Limit, c.UtilizationBps/100)
		}
		fmt.Fprintf(&b, "  %-28s %16s\n\n", "Total disponible", p.AvailableCredit)
	}

	if len(p.Obligations) > 0 {
		b.WriteString("VENCIMIENTOS\n")
		for _, o := range p.Obligations {
			fmt.Fprintf(&b, "  %s  %-10s %-24s %16s\n", treasury.FormatDate(o.DueDate), o.Kind, o.Description, o.Amount)
		}
		fmt.Fprintf(&b, "  %-47s %16s\n\n", "Total vencimientos", p.TotalObligations)
	}

	if len(p.Budgets) > 0 {
		b.WriteString("PRESUPUESTOS\n")
		for _, bl := range p.Budgets {
			fmt.Fprintf(&b, "  %-28s %16s de %s (%d%%)\n", bl.Category, bl.Spent, bl.Planned, bl.UsedBps/100)
		}
	}
	return b.String()
}
