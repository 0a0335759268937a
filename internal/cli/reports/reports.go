package reports

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/hourlog/internal/cli"
	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/models"
	"github.com/julianstephens/hourlog/internal/report"
	"github.com/julianstephens/hourlog/internal/storage/sqlstore"
	"github.com/julianstephens/hourlog/internal/validation"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	hoursStyle  = cellStyle.Align(lipgloss.Right)
	totalStyle  = hoursStyle.Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type MonthsCmd struct{}

func (c *MonthsCmd) Run(ctx *cli.Context) error {
	months, err := ctx.Store.GetMonths()
	if err != nil {
		return err
	}
	if len(months) == 0 {
		ctx.Println("No entries found.")
		return nil
	}
	for _, m := range months {
		ctx.Printf("%s  %s\n", m.Key, m.Label)
	}
	return nil
}

type SummaryCmd struct {
	Month string `arg:"" optional:"" help:"Month to summarize (YYYY-MM), defaults to the current month."`
}

func (c *SummaryCmd) Validate() error {
	if c.Month != "" && !validation.IsMonth(c.Month) {
		return fmt.Errorf("invalid month format: %s (expected YYYY-MM)", c.Month)
	}
	return nil
}

func (c *SummaryCmd) Run(ctx *cli.Context) error {
	month := c.Month
	if month == "" {
		month = ctx.Clock().Format(constants.MonthFormat)
	}

	totals, err := ctx.Store.GetMonthlySummary(month)
	if err != nil {
		return err
	}

	label := sqlstore.MonthLabel(month)
	if len(totals) == 0 {
		ctx.Printf("No entries for %s.\n", label)
		return nil
	}

	ctx.Println(label)
	ctx.Println(RenderTotals(totals))
	return nil
}

// RenderTotals draws per-customer totals with a closing total row.
func RenderTotals(totals []models.CustomerTotal) string {
	rows := make([][]string, 0, len(totals)+1)
	for _, t := range totals {
		rows = append(rows, []string{t.Customer, report.FormatHours(t.Hours)})
	}
	rows = append(rows, []string{"Total", report.FormatHours(report.SumTotals(totals))})
	last := len(rows) - 1

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Customer", "Hours").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == last && col == 1:
				return totalStyle
			case row == last:
				return headerStyle
			case col == 1:
				return hoursStyle
			}
			return cellStyle
		}).
		String()
}
