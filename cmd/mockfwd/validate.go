package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the config and settings files without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("%s: OK (%d rules, backend %s)\n",
				cfg.SettingsPath, len(reg.Current().Rules()), reg.DefaultEndpoint())
			return nil
		},
	}
	addServeFlags(cmd)
	return cmd
}
