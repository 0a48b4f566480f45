package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/sync"
)

type syncJSON struct {
	Mode     string        `json:"mode"`
	Skipped  bool          `json:"skipped"`
	Reason   string        `json:"reason,omitempty"`
	Docs     []docSyncJSON `json:"docs,omitempty"`
	Duration string        `json:"duration,omitempty"`
}

type docSyncJSON struct {
	Doc   string `json:"doc"`
	Saved bool   `json:"saved"`
	Error string `json:"error,omitempty"`
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Write every document to the repository",
		Long: `Load the log and write the profile, sessions, and suspension documents
back to the GitHub repository. Each document is saved independently; one
failure does not stop the others.

In demo mode there is nothing to do: every change is already on this device.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			o, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			report, syncErr := o.SyncAll(cmd.Context(), snap)

			if cc.Flags.JSON {
				if err := printJSON(cc.Out, buildSyncJSON(report)); err != nil {
					return err
				}
			} else {
				printSyncReport(cc.Out, report)
			}

			if syncErr != nil {
				return fmt.Errorf("%w%s", syncErr, storeErrorHint(syncErr))
			}

			return nil
		},
	}
}

func buildSyncJSON(r *sync.SyncReport) syncJSON {
	out := syncJSON{Mode: r.Mode.String(), Skipped: r.Skipped, Reason: r.Reason}

	if r.Skipped {
		return out
	}

	out.Duration = r.Duration.String()

	for _, d := range r.Docs {
		dj := docSyncJSON{Doc: string(d.Doc), Saved: d.Err == nil}
		if d.Err != nil {
			dj.Error = d.Err.Error()
		}

		out.Docs = append(out.Docs, dj)
	}

	return out
}

func printSyncReport(w io.Writer, r *sync.SyncReport) {
	if r.Skipped {
		fmt.Fprintf(w, "Sync skipped: %s.\n", r.Reason)
		return
	}

	for _, d := range r.Docs {
		if d.Err != nil {
			fmt.Fprintf(w, "  %-10s failed: %v\n", d.Doc, d.Err)
			continue
		}

		fmt.Fprintf(w, "  %-10s saved\n", d.Doc)
	}

	fmt.Fprintf(w, "%d saved, %d failed in %s.\n", len(r.Saved()), len(r.Failed()), r.Duration.Round(time.Millisecond))
}
