package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) configCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "print or save the effective configuration",
		Long: `config prints the configuration after defaults and flags are applied.
With --output the configuration is written to that path instead; the
extension picks TOML or YAML.`,
		Example: `  vitured config
  vitured config --format yaml
  vitured config --output ~/.config/vitured/vitured.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "" {
				if err := a.cfg.Save(output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
				return nil
			}
			data, err := a.cfg.Marshal(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format (toml or yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the configuration to this path")
	return cmd
}
