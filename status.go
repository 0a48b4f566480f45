package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/store"
	"github.com/tonimelisma/motolog/internal/sync"
)

// Document states for status reporting.
const (
	docStateSaved   = "saved"
	docStateMissing = "not saved yet"
	docStateError   = "error"
	modeNotSetUp    = "not set up"
)

// statusReport is the output of the status command.
type statusReport struct {
	Mode       string      `json:"mode"`
	Account    string      `json:"account,omitempty"`
	Repository string      `json:"repository,omitempty"`
	ConfigPath string      `json:"config_path"`
	Database   string      `json:"database"`
	Documents  []docStatus `json:"documents,omitempty"`
}

type docStatus struct {
	Doc   string `json:"doc"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the storage mode and whether each document exists",
		Long: `Display the storage mode (GitHub repository or demo), the connected
repository, and the state of the profile, sessions, and suspension documents.

In GitHub mode this reads each document from the repository.`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	report := statusReport{
		Mode:       modeNotSetUp,
		ConfigPath: cc.Cfg.Path,
		Database:   cc.DB.Path(),
	}

	if cc.Creds.IsConfigured() {
		o, err := cc.orchestrator()
		if err != nil {
			return err
		}

		report.Mode = o.Mode().String()

		if o.Mode() == sync.ModeRemote {
			creds := cc.Creds.Credentials()
			report.Account, report.Repository = creds.Account, creds.Repository
		}

		report.Documents = documentStates(cmd.Context(), o)
	}

	if cc.Flags.JSON {
		return printJSON(cc.Out, report)
	}

	printStatusText(cc.Out, &report)

	return nil
}

// documentStates loads each document and reports whether it exists. A
// failure on one document does not hide the state of the others.
func documentStates(ctx context.Context, o *sync.Orchestrator) []docStatus {
	types := store.Types()
	states := make([]docStatus, 0, len(types))

	for _, t := range types {
		var raw json.RawMessage

		found, err := o.LoadDocument(ctx, t, &raw)

		st := docStatus{Doc: string(t), State: docStateMissing}

		switch {
		case err != nil:
			st.State, st.Error = docStateError, err.Error()+storeErrorHint(err)
		case found:
			st.State = docStateSaved
		}

		states = append(states, st)
	}

	return states
}

func printStatusText(w io.Writer, r *statusReport) {
	printHeading(w, "motolog status")

	mode := r.Mode
	if r.Repository != "" {
		mode = fmt.Sprintf("%s (%s/%s)", r.Mode, r.Account, r.Repository)
	}

	fmt.Fprintf(w, "Mode:     %s\n", mode)
	fmt.Fprintf(w, "Config:   %s\n", r.ConfigPath)
	fmt.Fprintf(w, "Database: %s\n", r.Database)

	if r.Mode == modeNotSetUp {
		fmt.Fprintln(w, "\nRun 'motolog setup' to connect a repository, or 'motolog setup --demo'.")
		return
	}

	fmt.Fprintln(w)

	rows := make([][]string, 0, len(r.Documents))
	for _, d := range r.Documents {
		state := d.State
		if d.Error != "" {
			state = d.State + ": " + d.Error
		}

		rows = append(rows, []string{d.Doc, state})
	}

	printTable(w, []string{"DOCUMENT", "STATE"}, rows)
}
