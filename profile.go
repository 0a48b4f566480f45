package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/ridelog"
	"github.com/tonimelisma/motolog/internal/store"
)

// profileFlag binds one --flag to one profile field.
type profileFlag struct {
	name  string
	usage string
	field func(*ridelog.ProfileFields) **string
}

var profileFlags = []profileFlag{
	{"name", "rider name", func(f *ridelog.ProfileFields) **string { return &f.Name }},
	{"class", "racing class (e.g. Amateur, Vet, Pro)", func(f *ridelog.ProfileFields) **string { return &f.Class }},
	{"make", "bike make", func(f *ridelog.ProfileFields) **string { return &f.Make }},
	{"model", "bike model", func(f *ridelog.ProfileFields) **string { return &f.Model }},
	{"year", "bike year", func(f *ridelog.ProfileFields) **string { return &f.Year }},
	{"engine", "engine (e.g. 250F, 450F)", func(f *ridelog.ProfileFields) **string { return &f.Engine }},
	{"tire-front", "front tire", func(f *ridelog.ProfileFields) **string { return &f.TireFront }},
	{"tire-rear", "rear tire", func(f *ridelog.ProfileFields) **string { return &f.TireRear }},
	{"psi-front", "front tire pressure", func(f *ridelog.ProfileFields) **string { return &f.PsiFront }},
	{"psi-rear", "rear tire pressure", func(f *ridelog.ProfileFields) **string { return &f.PsiRear }},
	{"setup-notes", "general setup notes", func(f *ridelog.ProfileFields) **string { return &f.SetupNotes }},
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the rider and bike profile",
	}

	cmd.AddCommand(newProfileShowCmd())
	cmd.AddCommand(newProfileSetCmd())

	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			_, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			if cc.Flags.JSON {
				return printJSON(cc.Out, snap.Profile)
			}

			printProfile(cc.Out, &snap.Profile)

			return nil
		},
	}
}

func newProfileSetCmd() *cobra.Command {
	values := make([]string, len(profileFlags))

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change profile fields",
		Long: `Change one or more profile fields. Fields not given are left alone;
pass an empty value (--engine "") to clear one.`,
		Example: `  motolog profile set --name "Sam Rider" --make KTM --model "250 SX-F" --year 2023`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			var fields ridelog.ProfileFields

			changed := 0

			for i, pf := range profileFlags {
				if cmd.Flags().Changed(pf.name) {
					*pf.field(&fields) = &values[i]
					changed++
				}
			}

			if changed == 0 {
				return fmt.Errorf("nothing to change: pass at least one field flag (see --help)")
			}

			o, snap, err := cc.loadLog(cmd.Context())
			if err != nil {
				return err
			}

			snap.Profile.Update(fields)

			if err := cc.saveDoc(cmd.Context(), o, store.DocProfile, snap.Profile); err != nil {
				return err
			}

			cc.Statusf("Profile saved.\n")

			return nil
		},
	}

	for i, pf := range profileFlags {
		cmd.Flags().StringVar(&values[i], pf.name, "", pf.usage)
	}

	return cmd
}

func printProfile(w io.Writer, p *ridelog.Profile) {
	printHeading(w, "Rider")
	fmt.Fprintf(w, "  Name:   %s\n", orNone(p.Name))
	fmt.Fprintf(w, "  Class:  %s\n", orNone(p.Class))

	fmt.Fprintln(w)
	printHeading(w, "Bike")
	fmt.Fprintf(w, "  Bike:   %s\n", orNone(joinNonEmpty(p.Year, p.Make, p.Model)))
	fmt.Fprintf(w, "  Engine: %s\n", orNone(p.Engine))
	fmt.Fprintf(w, "  Tires:  %s / %s\n", orNone(p.TireFront), orNone(p.TireRear))
	fmt.Fprintf(w, "  PSI:    %s / %s\n", orNone(p.PsiFront), orNone(p.PsiRear))
	fmt.Fprintf(w, "  Notes:  %s\n", orNone(p.SetupNotes))

	active := 0

	for _, inj := range p.Injuries {
		if inj.Status == ridelog.InjuryActive {
			active++
		}
	}

	fmt.Fprintf(w, "\n%d injuries logged, %d active.\n", len(p.Injuries), active)
}
