package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/ridelog"
	"github.com/tonimelisma/motolog/internal/store"
)

func newInjuryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "injury",
		Aliases: []string{"injuries"},
		Short:   "Log and list injuries",
	}

	cmd.AddCommand(newInjuryAddCmd())
	cmd.AddCommand(newInjuryListCmd())

	return cmd
}

func newInjuryAddCmd() *cobra.Command {
	var date, status, notes string

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Log an injury",
		Long: `Log an injury. The newest injury is listed first.

--date accepts YYYY-MM-DD or phrases like "yesterday" (default today).
--status is one of active, recovered, chronic (default active).`,
		Example: `  motolog injury add "Sprained left wrist" --date "last saturday" --notes "Tape for 2 weeks"`,
		Args:    cobra.MinimumNArgs(1),
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

			inj, err := snap.Profile.AddInjury(ridelog.Injury{
				Description: strings.Join(args, " "),
				Date:        day,
				Status:      ridelog.InjuryStatus(strings.ToLower(strings.TrimSpace(status))),
				Notes:       notes,
			}, now)
			if err != nil {
				return err
			}

			if err := cc.saveDoc(cmd.Context(), o, store.DocProfile, snap.Profile); err != nil {
				return err
			}

			cc.Statusf("Injury logged (%s, %s).\n", inj.Date, inj.Status)

			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date of the injury")
	cmd.Flags().StringVar(&status, "status", "", "active, recovered, or chronic")
	cmd.Flags().StringVar(&notes, "notes", "", "treatment or recovery notes")

	return cmd
}

func newInjuryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List logged injuries, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			_, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			if cc.Flags.JSON {
				return printJSON(cc.Out, snap.Profile.Injuries)
			}

			printInjuries(cc.Out, snap.Profile.Injuries)

			return nil
		},
	}
}

func printInjuries(w io.Writer, injuries []ridelog.Injury) {
	if len(injuries) == 0 {
		fmt.Fprintln(w, "No injuries logged.")
		return
	}

	rows := make([][]string, 0, len(injuries))
	for _, inj := range injuries {
		rows = append(rows, []string{inj.Date, string(inj.Status), inj.Description, inj.Notes})
	}

	printTable(w, []string{"DATE", "STATUS", "DESCRIPTION", "NOTES"}, rows)
}
