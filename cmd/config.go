package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	cfgPkg "github.com/xhad/seogap/pkg/config"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cfgPkg.LoadConfig(configPath)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("error encoding config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))

			for _, e := range cfg.Validate() {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning: %s", e))
			}
			return nil
		},
	}
}
