package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgershift/ledgershift/cmd/ledgershift/commands"
	"github.com/ledgershift/ledgershift/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ledgershift",
	Short: "ledgershift - Legacy balance migration into the ledger store",
	Long: `ledgershift - Migrate account balances from a legacy provider into the ledger store.

ledgershift detects the legacy balance provider, snapshots its balances,
resolves a target ledger, copies every account balance across with
conflict resolution, optionally fails the provider registration over to
the ledger store, and verifies a sample of migrated balances.

Available commands:
  migrate - Run and inspect balance migrations
  db      - Manage the ledger database
  config  - Manage ledgershift configuration
  version - Show version information

Examples:
  ledgershift migrate start --backup     # Migrate with a pre-migration snapshot
  ledgershift migrate status             # Show the most recent run
  ledgershift migrate runs               # List run history
  ledgershift db stats                   # Show ledger store statistics
  ledgershift config show                # Show current configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize global logger before any command runs.
		// Skip for commands whose stdout is consumed as data.
		if cmd.Name() != "show" && cmd.Name() != "get" {
			if err := logger.Initialize(false); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.MigrateCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
