// Command bannerd serves consent banner scripts and manages banner records.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "bannerd",
		Short:         "Consent banner delivery service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "YAML config file (BANNER_* environment variables override it)")

	root.AddCommand(newServeCommand(&cfgPath))
	root.AddCommand(newPutCommand(&cfgPath))
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bannerd version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bannerd %s\n", version)
			return err
		},
	}
}
