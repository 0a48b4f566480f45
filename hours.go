package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/ridelog"
)

const (
	chartMonths  = 6
	recentOnPage = 5
)

type hoursJSON struct {
	TotalHours float64           `json:"total_hours"`
	WeekHours  float64           `json:"week_hours"`
	MonthHours float64           `json:"month_hours"`
	Sessions   int               `json:"sessions"`
	Monthly    []monthJSON       `json:"monthly"`
	Recent     []ridelog.Session `json:"recent"`
}

type monthJSON struct {
	Month string  `json:"month"`
	Hours float64 `json:"hours"`
}

func newHoursCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hours",
		Short: "Show riding-hour totals and a monthly chart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			now := cc.now()

			_, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			sum := ridelog.Summarize(snap.Sessions, now)
			months := ridelog.MonthlyHours(snap.Sessions, now, chartMonths)
			recent := ridelog.Recent(snap.Sessions, recentOnPage)

			if cc.Flags.JSON {
				return printJSON(cc.Out, buildHoursJSON(sum, months, recent))
			}

			printHours(cc.Out, sum, months, recent)

			return nil
		},
	}
}

func buildHoursJSON(sum ridelog.Summary, months []ridelog.MonthHours, recent []ridelog.Session) hoursJSON {
	out := hoursJSON{
		TotalHours: sum.TotalHours,
		WeekHours:  sum.WeekHours,
		MonthHours: sum.MonthHours,
		Sessions:   sum.Sessions,
		Monthly:    make([]monthJSON, 0, len(months)),
		Recent:     recent,
	}

	for _, m := range months {
		out.Monthly = append(out.Monthly, monthJSON{
			Month: fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)),
			Hours: m.Hours,
		})
	}

	return out
}

func printHours(w io.Writer, sum ridelog.Summary, months []ridelog.MonthHours, recent []ridelog.Session) {
	fmt.Fprintf(w, "Total %sh | This week %sh | This month %sh | %d sessions\n",
		ridelog.FormatHours(sum.TotalHours), ridelog.FormatHours(sum.WeekHours),
		ridelog.FormatHours(sum.MonthHours), sum.Sessions)

	peak := 0.0
	for _, m := range months {
		peak = max(peak, m.Hours)
	}

	printHeading(w, "Monthly hours")

	for _, m := range months {
		fmt.Fprintf(w, "%s %d  %-*s %sh\n", m.Month.String()[:3], m.Year, barWidth,
			bar(m.Hours, peak), ridelog.FormatHours(m.Hours))
	}

	printHeading(w, "Recent sessions")

	if len(recent) == 0 {
		fmt.Fprintln(w, "No sessions logged yet.")
		return
	}

	for _, s := range recent {
		fmt.Fprintf(w, "%s  %s  %sh  %s\n", s.Date, s.Track, ridelog.FormatHours(s.Hours),
			joinNonEmpty(s.Conditions, s.Type))
	}
}
