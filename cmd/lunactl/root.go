package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lunactl",
		Short: "Operate the Luna conversation dashboard",
		Long: `Operator tooling for the Luna conversation dashboard.

Quick Start:
  lunactl hash-password              # Hash a new dashboard password
  lunactl list                       # List recent conversations
  lunactl show <id> --format yaml    # Inspect one conversation
  lunactl token --subject ops        # Mint a JSON API token`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newHashPasswordCmd(),
		newTokenCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newArchiveCmd(a),
		newAuditCmd(a),
	)
	return root
}
