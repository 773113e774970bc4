package main

import (
	"fmt"

	"github.com/danmuck/simbridge/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate, validate and inspect configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config template with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "simbridge.toml"
			if len(args) == 1 {
				target = args[0]
			}
			if err := config.WriteTemplate(target, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote config template to %s\n", target)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Resolve the effective config and validate it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(root)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config ok")
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective config as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(root)
			if err != nil {
				return err
			}
			text, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd, showCmd)
	return cmd
}
