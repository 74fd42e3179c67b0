// Package cli wires the cobra command tree for the ferryman binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X .../internal/cli.Version=v1.0.0"
var Version = "dev"

var configDir string

// Execute is the entry point for the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ferryman",
		Short:         "Chat runtime host",
		Long:          "ferryman hosts chat runtimes — local, subprocess or containerized — behind one adapter contract.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "", "Directory containing ferryman.jsonc")

	root.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newRuntimesCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ferryman version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ferryman "+Version)
		},
	}
}
