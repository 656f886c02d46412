package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/spice-ledger/internal/cli"
)

const nameWidth = 28

// Render formats a summary as styled terminal sections.
func Render(s Summary) string {
	if s.Rows == 0 {
		return cli.RenderBox(cli.ChartIcon+" Ledger Summary", cli.SubtleStyle.Render("No enriched transactions. Run `ledger enrich` first."))
	}

	sections := []string{
		cli.RenderBox(cli.ChartIcon+" Ledger Summary", overview(s)),
		section("By Type", typeLines(s)),
		section("By Spending Type", totalLines(s.BySpending)),
		section("Monthly Cash Flow", monthLines(s)),
		section("Top Categories", totalLines(s.ByCategory)),
		section("Top Merchants", totalLines(s.TopMerchants)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func overview(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Period:        %s to %s\n", s.Period.Start.Format("2006-01-02"), s.Period.End.Format("2006-01-02"))
	fmt.Fprintf(&b, "Transactions:  %d\n", s.Rows)
	fmt.Fprintf(&b, "Inflow:        %s\n", cli.FormatAmount(s.Inflow))
	fmt.Fprintf(&b, "Outflow:       %s\n", cli.FormatAmount(s.Outflow))
	fmt.Fprintf(&b, "Net:           %s\n", cli.FormatAmount(s.Net()))
	fmt.Fprintf(&b, "Refunded:      %s\n", cli.FormatAmount(s.RefundedTotal))
	fmt.Fprintf(&b, "Recurring:     %d", s.Recurring)
	if s.Unclassified > 0 {
		b.WriteString("\n")
		b.WriteString(cli.FormatWarning(fmt.Sprintf("%d transactions have no category", s.Unclassified)))
	}
	return b.String()
}

func section(title string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	header := cli.TableHeaderStyle.Render(title)
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{"", header}, lines...)...)
}

func typeLines(s Summary) []string {
	var lines []string
	for _, t := range TypeOrder {
		if n := s.ByType[t]; n > 0 {
			lines = append(lines, fmt.Sprintf("  %-*s %6d", nameWidth, t, n))
		}
	}
	return lines
}

func totalLines(totals []Total) []string {
	lines := make([]string, 0, len(totals))
	for _, t := range totals {
		lines = append(lines, fmt.Sprintf("  %-*s %6d  %s", nameWidth, truncate(t.Name, nameWidth), t.Count, cli.FormatAmount(t.Total)))
	}
	return lines
}

func monthLines(s Summary) []string {
	lines := make([]string, 0, len(s.Monthly))
	for _, m := range s.Monthly {
		lines = append(lines, fmt.Sprintf("  %-8s in %s  out %s  net %s",
			m.Month, cli.FormatAmount(m.Inflow), cli.FormatAmount(m.Outflow), cli.FormatAmount(m.Net())))
	}
	return lines
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
