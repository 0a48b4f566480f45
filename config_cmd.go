package main

import (
	"github.com/spf13/cobra"

	"github.com/tonimelisma/motolog/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show the effective configuration",
		Long:        "Show the configuration after defaults, the config file, environment variables, and flags are applied.",
		Annotations: map[string]string{skipStoreAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if cc.Flags.JSON {
				return printJSON(cc.Out, cc.Cfg)
			}

			return config.RenderEffective(cc.Cfg, cc.Out)
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Write a commented default config file",
		Annotations: map[string]string{skipStoreAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if err := config.WriteDefaultConfig(cc.Cfg.Path); err != nil {
				return err
			}

			cc.Statusf("Config written to %s\n", cc.Cfg.Path)

			return nil
		},
	}
}
