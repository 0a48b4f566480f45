package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/ridelog"
	"github.com/tonimelisma/motolog/internal/store"
)

// Clicker and sag flags of "preset set".
type presetIntFlag struct {
	name  string
	usage string
	field func(*ridelog.Preset) *int
}

type presetStringFlag struct {
	name  string
	usage string
	field func(*ridelog.Preset) *string
}

var presetIntFlags = []presetIntFlag{
	{"fork-comp", "fork compression clicks out", func(p *ridelog.Preset) *int { return &p.ForkComp }},
	{"fork-reb", "fork rebound clicks out", func(p *ridelog.Preset) *int { return &p.ForkReb }},
	{"fork-sag", "fork sag (mm)", func(p *ridelog.Preset) *int { return &p.ForkSag }},
	{"shock-hi-comp", "shock high-speed compression turns out", func(p *ridelog.Preset) *int { return &p.ShockHiComp }},
	{"shock-lo-comp", "shock low-speed compression clicks out", func(p *ridelog.Preset) *int { return &p.ShockLoComp }},
	{"shock-reb", "shock rebound clicks out", func(p *ridelog.Preset) *int { return &p.ShockReb }},
	{"shock-sag", "race sag (mm)", func(p *ridelog.Preset) *int { return &p.ShockSag }},
}

var presetStringFlags = []presetStringFlag{
	{"fork-spring", "fork spring rate", func(p *ridelog.Preset) *string { return &p.ForkSpring }},
	{"fork-oil", "fork oil height or weight", func(p *ridelog.Preset) *string { return &p.ForkOil }},
	{"shock-spring", "shock spring rate", func(p *ridelog.Preset) *string { return &p.ShockSpring }},
	{"notes", "notes for this preset", func(p *ridelog.Preset) *string { return &p.Notes }},
}

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preset",
		Aliases: []string{"presets", "suspension"},
		Short:   "Manage named suspension presets",
		Long: `Manage named suspension presets. The Default preset always exists and
cannot be deleted; exactly one preset is active.`,
	}

	cmd.AddCommand(newPresetListCmd())
	cmd.AddCommand(newPresetShowCmd())
	cmd.AddCommand(newPresetSetCmd())
	cmd.AddCommand(newPresetCreateCmd())
	cmd.AddCommand(newPresetDeleteCmd())
	cmd.AddCommand(newPresetUseCmd())

	return cmd
}

func newPresetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List presets, marking the active one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			_, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			if cc.Flags.JSON {
				return printJSON(cc.Out, snap.Suspension)
			}

			for _, name := range snap.Suspension.Names() {
				marker := "  "
				if name == snap.Suspension.ActivePreset {
					marker = "* "
				}

				fmt.Fprintln(cc.Out, marker+name)
			}

			return nil
		},
	}
}

// presetArg returns the preset named by args, or the active one.
func presetArg(s *ridelog.Suspension, args []string) (string, ridelog.Preset, error) {
	if len(args) == 0 {
		name, p := s.Active()
		return name, p, nil
	}

	name, p, ok := s.Get(args[0])
	if !ok {
		return "", ridelog.Preset{}, fmt.Errorf("%w: %q", ridelog.ErrPresetNotFound, name)
	}

	return name, p, nil
}

func newPresetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show a preset (default: the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			_, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			name, p, err := presetArg(&snap.Suspension, args)
			if err != nil {
				return err
			}

			if cc.Flags.JSON {
				return printJSON(cc.Out, p)
			}

			printPreset(cc.Out, name, name == snap.Suspension.ActivePreset, p)

			return nil
		},
	}
}

func newPresetSetCmd() *cobra.Command {
	ints := make([]int, len(presetIntFlags))
	strs := make([]string, len(presetStringFlags))

	cmd := &cobra.Command{
		Use:   "set [name]",
		Short: "Change settings of a preset (default: the active one)",
		Example: `  motolog preset set --fork-comp 10 --shock-reb 14
  motolog preset set Sand --fork-spring 0.50 --notes "Stiffer for deep ruts"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			o, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			name, p, err := presetArg(&snap.Suspension, args)
			if err != nil {
				return err
			}

			changed := 0

			for i, f := range presetIntFlags {
				if cmd.Flags().Changed(f.name) {
					*f.field(&p) = ints[i]
					changed++
				}
			}

			for i, f := range presetStringFlags {
				if cmd.Flags().Changed(f.name) {
					*f.field(&p) = strs[i]
					changed++
				}
			}

			if changed == 0 {
				return fmt.Errorf("nothing to change: pass at least one setting flag (see --help)")
			}

			if err := snap.Suspension.SavePreset(name, p); err != nil {
				return err
			}

			if err := cc.saveDoc(cmd.Context(), o, store.DocSuspension, snap.Suspension); err != nil {
				return err
			}

			cc.Statusf("Preset %q saved.\n", name)

			return nil
		},
	}

	for i, f := range presetIntFlags {
		cmd.Flags().IntVar(&ints[i], f.name, 0, f.usage)
	}

	for i, f := range presetStringFlags {
		cmd.Flags().StringVar(&strs[i], f.name, "", f.usage)
	}

	return cmd
}

// suspensionCommand builds a preset subcommand that applies one named
// mutation and saves the document.
func suspensionCommand(use, short, done string, apply func(*ridelog.Suspension, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())

			o, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			if err := apply(&snap.Suspension, args[0]); err != nil {
				return err
			}

			if err := cc.saveDoc(cmd.Context(), o, store.DocSuspension, snap.Suspension); err != nil {
				return err
			}

			cc.Statusf(done+"\n", args[0], snap.Suspension.ActivePreset)

			return nil
		},
	}
}

func newPresetCreateCmd() *cobra.Command {
	return suspensionCommand("create <name>",
		"Create a preset from the active one and make it active",
		"Preset %q created; active preset is now %q.",
		(*ridelog.Suspension).CreatePreset)
}

func newPresetDeleteCmd() *cobra.Command {
	return suspensionCommand("delete <name>",
		"Delete a preset (Default cannot be deleted)",
		"Preset %q deleted; active preset is now %q.",
		(*ridelog.Suspension).DeletePreset)
}

func newPresetUseCmd() *cobra.Command {
	return suspensionCommand("use <name>",
		"Make a preset active",
		"Preset %q selected; active preset is now %q.",
		(*ridelog.Suspension).SelectPreset)
}

func printPreset(w io.Writer, name string, active bool, p ridelog.Preset) {
	title := name
	if active {
		title += " (active)"
	}

	printHeading(w, title)

	rows := [][]string{
		{"Fork", "compression", strconv.Itoa(p.ForkComp)},
		{"Fork", "rebound", strconv.Itoa(p.ForkReb)},
		{"Fork", "spring", orNone(p.ForkSpring)},
		{"Fork", "oil", orNone(p.ForkOil)},
		{"Fork", "sag", strconv.Itoa(p.ForkSag)},
		{"Shock", "high-speed comp", strconv.Itoa(p.ShockHiComp)},
		{"Shock", "low-speed comp", strconv.Itoa(p.ShockLoComp)},
		{"Shock", "rebound", strconv.Itoa(p.ShockReb)},
		{"Shock", "spring", orNone(p.ShockSpring)},
		{"Shock", "sag", strconv.Itoa(p.ShockSag)},
	}

	printTable(w, []string{"END", "SETTING", "VALUE"}, rows)

	if p.Notes != "" {
		fmt.Fprintf(w, "\nNotes: %s\n", p.Notes)
	}
}
