package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"mcporch/config"
)

func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the mcporch config file",
	}

	path := func() string {
		if *configPath != "" {
			return config.ExpandPath(*configPath)
		}
		return config.GetConfigFilePath()
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented config template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := path()
			if err := config.CreateDefaultConfig(p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one config value, e.g. llm.provider ollama",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := path()
			cfg := config.DefaultConfig()
			if config.FileExists(p) {
				loaded, err := config.LoadFile(p)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			if err := config.UpdateField(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.Path)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	})

	return cmd
}
