package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgershift/ledgershift/config"
	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/ledger"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the ledger database",
	Long: `db — Manage ledger database operations

Examples:
  ledgershift db stats    # Show ledger store statistics`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ledger store statistics",
	Long:  "Display ledger, identity, balance and migration-run counts plus the total balance held",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := ledger.NewStore(database).Stats(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to query store stats")
	}

	fmt.Println("Ledger Store Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
	fmt.Printf("Database Path:  %s\n", cfg.Database.Path)
	fmt.Printf("Ledgers:        %d\n", stats.Ledgers)
	fmt.Printf("Identities:     %d\n", stats.Identities)
	fmt.Printf("Balances:       %d\n", stats.Balances)
	fmt.Printf("Migration Runs: %d\n", stats.Runs)
	fmt.Printf("Total Held:     %.2f\n", stats.TotalHeld)
	return nil
}
