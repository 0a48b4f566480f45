package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/ridelog"
	"github.com/tonimelisma/motolog/internal/store"
)

// Default page size for "session list".
const defaultSessionLimit = 20

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Log riding sessions and browse them",
	}

	cmd.AddCommand(newSessionAddCmd())
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionCalendarCmd())

	return cmd
}

func newSessionAddCmd() *cobra.Command {
	var (
		date       string
		hours      float64
		conditions string
		kind       string
		notes      string
		feeling    int
	)

	cmd := &cobra.Command{
		Use:   "add <track>",
		Short: "Log a riding session",
		Long: `Log a riding session at a track. The newest session is listed first.

--date accepts YYYY-MM-DD or phrases like "yesterday" (default today).
--feeling rates the day from 0 to 10.`,
		Example: `  motolog session add "Glen Helen" --hours 2.5 --conditions Dry --type Practice --feeling 8`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			now := cc.now()

			day, err := parseDate(date, now)
			if err != nil {
				return err
			}

			o, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			sessions, s, err := ridelog.AddSession(snap.Sessions, ridelog.Session{
				Track:      args[0],
				Date:       day,
				Hours:      hours,
				Conditions: conditions,
				Type:       kind,
				Notes:      notes,
				Feeling:    feeling,
			}, now)
			if err != nil {
				return err
			}

			if err := cc.saveDoc(cmd.Context(), o, store.DocSessions, sessions); err != nil {
				return err
			}

			sum := ridelog.Summarize(sessions, now)
			cc.Statusf("Session logged: %s on %s, %sh. Total %sh over %d sessions.\n",
				s.Track, s.Date, ridelog.FormatHours(s.Hours), ridelog.FormatHours(sum.TotalHours), sum.Sessions)

			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date of the session")
	cmd.Flags().Float64Var(&hours, "hours", 0, "riding time in hours (required)")
	cmd.Flags().StringVar(&conditions, "conditions", "", "track conditions (e.g. Dry, Wet, Sandy)")
	cmd.Flags().StringVar(&kind, "type", "", "session type (e.g. Practice, Race, Training)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().IntVar(&feeling, "feeling", ridelog.DefaultFeeling, "how the day felt, 0-10")

	if err := cmd.MarkFlagRequired("hours"); err != nil {
		panic(err)
	}

	return cmd
}

func newSessionListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			_, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			sessions := snap.Sessions
			if limit > 0 {
				sessions = ridelog.Recent(sessions, limit)
			}

			if cc.Flags.JSON {
				return printJSON(cc.Out, sessions)
			}

			printSessions(cc.Out, sessions, len(snap.Sessions))

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultSessionLimit, "number of sessions to show (0 = all)")

	return cmd
}

func printSessions(w io.Writer, sessions []ridelog.Session, total int) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions logged yet.")
		return
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.Date,
			s.Track,
			ridelog.FormatHours(s.Hours) + "h",
			orNone(s.Conditions),
			orNone(s.Type),
			strconv.Itoa(s.Feeling) + "/" + strconv.Itoa(ridelog.MaxFeeling),
			s.Notes,
		})
	}

	printTable(w, []string{"DATE", "TRACK", "HOURS", "CONDITIONS", "TYPE", "FEELING", "NOTES"}, rows)

	if len(sessions) < total {
		fmt.Fprintf(w, "\n%d of %d sessions shown.\n", len(sessions), total)
	}
}

func newSessionCalendarCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month calendar marking riding days",
		Long: `Show a month calendar. Days with a logged session are marked with *,
today is shown in brackets. --month accepts YYYY-MM or a phrase like
"last month" (default this month).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			now := cc.now()

			year, mon, err := parseMonth(month, now)
			if err != nil {
				return err
			}

			_, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			days := ridelog.SessionDays(snap.Sessions, year, mon)

			if cc.Flags.JSON {
				return printJSON(cc.Out, calendarJSON(year, mon, days))
			}

			printCalendar(cc.Out, year, mon, days, now)

			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to show")

	return cmd
}

type calendarMonth struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Days  []int `json:"days"`
}

func calendarJSON(year int, month time.Month, days map[int]bool) calendarMonth {
	out := calendarMonth{Year: year, Month: int(month), Days: []int{}}

	for d := 1; d <= 31; d++ {
		if days[d] {
			out.Days = append(out.Days, d)
		}
	}

	return out
}

// printCalendar draws a Sunday-first month grid.
func printCalendar(w io.Writer, year int, month time.Month, days map[int]bool, now time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysIn := first.AddDate(0, 1, -1).Day()

	printHeading(w, fmt.Sprintf("%s %d", month, year))
	fmt.Fprintln(w, " Sun  Mon  Tue  Wed  Thu  Fri  Sat")

	for range int(first.Weekday()) {
		fmt.Fprint(w, "     ")
	}

	for d := 1; d <= daysIn; d++ {
		fmt.Fprint(w, calendarCell(d, days[d], now.Year() == year && now.Month() == month && now.Day() == d))

		if (int(first.Weekday())+d)%7 == 0 || d == daysIn {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "\n%d riding days.\n", len(days))
}

// calendarCell renders one 5-column day cell.
func calendarCell(day int, rode, today bool) string {
	mark := " "
	if rode {
		mark = "*"
	}

	if today {
		return fmt.Sprintf("[%2d]%s", day, mark)[:5]
	}

	return fmt.Sprintf(" %2d%s ", day, mark)
}
