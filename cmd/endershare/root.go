package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "endershare",
		Short:         "Shared Ender Chest server",
		Long:          "endershare runs a simulated game server where two players can merge their Ender Chests, exposed as MCP tools over stdio or HTTP.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.yml or .toml); defaults to $ENDERSHARE_CONFIG_PATH")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newInspectCmd(&configPath),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
