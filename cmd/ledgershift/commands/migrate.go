package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ledgershift/ledgershift/config"
	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/ledger"
	"github.com/ledgershift/ledgershift/migrate"
	"github.com/ledgershift/ledgershift/provider"
)

// MigrateCmd represents the migrate command
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run and inspect balance migrations",
	Long: `migrate — Run and inspect balance migrations

Run a migration from a legacy balance provider (or a backup snapshot)
into the ledger store, and inspect past runs and backup artifacts.

Examples:
  ledgershift migrate start --backup              # Migrate the active provider
  ledgershift migrate start --from snapshot.json  # Replay a backup artifact
  ledgershift migrate start --dry-run             # Simulate without writes
  ledgershift migrate status                      # Show the most recent run
  ledgershift migrate providers                   # List supported source providers
  ledgershift migrate runs --limit 10             # List run history
  ledgershift migrate backups                     # List backup artifacts`,
}

var migrateStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run a balance migration",
	Long: `Run the migration pipeline: detect the source provider, optionally
snapshot its balances, resolve the target ledger, copy every account
balance across, and verify a sample of the results.

The command exits non-zero unless every account migrated and
verification passed.`,
	RunE: runMigrateStart,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent migration run",
	RunE:  runMigrateStatus,
}

var migrateProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported source providers",
	Run:   runMigrateProviders,
}

var migrateRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List migration run history",
	RunE:  runMigrateRuns,
}

var migrateBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backup snapshot artifacts",
	RunE:  runMigrateBackups,
}

var (
	startBackupFlag   bool
	startSwitchFlag   bool
	startLedgerFlag   string
	startDryRunFlag   bool
	startSnapshotFlag string
	runsLimitFlag     int
)

func init() {
	migrateStartCmd.Flags().BoolVar(&startBackupFlag, "backup", false, "Snapshot source balances before migrating")
	migrateStartCmd.Flags().BoolVar(&startSwitchFlag, "switch-provider", false, "Fail the active provider registration over to the ledger store on success")
	migrateStartCmd.Flags().StringVar(&startLedgerFlag, "ledger", "", "Target ledger identifier (default: reuse or derive)")
	migrateStartCmd.Flags().BoolVar(&startDryRunFlag, "dry-run", false, "Simulate the migration without writing balances")
	migrateStartCmd.Flags().StringVar(&startSnapshotFlag, "from", "", "Replay a backup snapshot file as the migration source")

	migrateRunsCmd.Flags().IntVar(&runsLimitFlag, "limit", 20, "Number of recent runs to show")

	MigrateCmd.AddCommand(migrateStartCmd)
	MigrateCmd.AddCommand(migrateStatusCmd)
	MigrateCmd.AddCommand(migrateProvidersCmd)
	MigrateCmd.AddCommand(migrateRunsCmd)
	MigrateCmd.AddCommand(migrateBackupsCmd)
}

func runMigrateStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	// Watch the user config while the run is in flight; edits take effect
	// for later config.Load callers in this process.
	if userConfig := config.UserConfigPath(); userConfig != "" {
		if _, statErr := os.Stat(userConfig); statErr == nil {
			watcher, watchErr := config.StartGlobalWatcher(userConfig)
			if watchErr != nil {
				pterm.Warning.Printf("Config watcher unavailable: %v\n", watchErr)
			} else {
				defer watcher.Stop()
				defer config.SetGlobalWatcher(nil)
			}
		}
	}

	if startSnapshotFlag == "" {
		return errors.New("no migration source: pass --from <snapshot.json> (live providers register through the host, not the CLI)")
	}

	snapshot, err := migrate.ReadSnapshot(startSnapshotFlag)
	if err != nil {
		return err
	}
	source, err := migrate.NewSnapshotSource(snapshot)
	if err != nil {
		return err
	}

	registry := provider.NewRegistry()
	if err := registry.Register(source, "cli", 1, ""); err != nil {
		return errors.Wrap(err, "failed to register snapshot source")
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	coordinator := migrate.NewCoordinator(
		registry,
		migrate.DefaultStrategyRegistry(),
		ledger.NewStore(database),
		source,
		migrate.NewRunStore(database),
		cfg,
	)

	pterm.Info.Printf("Migrating %d accounts from %s snapshot\n", snapshot.RecordCount, snapshot.Provider)
	if startDryRunFlag {
		pterm.Warning.Println("DRY RUN MODE: No balances will be written")
	}

	result := <-coordinator.Start(cmd.Context(), migrate.Options{
		CreateBackup:   startBackupFlag,
		SwitchProvider: startSwitchFlag,
		TargetLedgerID: startLedgerFlag,
		DryRun:         startDryRunFlag,
	})

	printResult(result)

	if !result.Success {
		cmd.SilenceUsage = true
		return errors.Newf("migration %s failed: %s", result.RunID, result.ErrorMessage)
	}
	return nil
}

func printResult(result *migrate.Result) {
	pterm.Println()
	if result.Success {
		pterm.Success.Printf("Migration %s completed\n", result.RunID)
	} else {
		pterm.Error.Printf("Migration %s failed: %s\n", result.RunID, result.ErrorMessage)
	}

	if result.Stats != nil {
		pterm.Printf("  Accounts:  %d total, %d processed\n", result.Stats.TotalAccounts, result.Stats.Processed)
		pterm.Printf("  Succeeded: %d\n", result.Stats.Succeeded)
		pterm.Printf("  Failed:    %d\n", result.Stats.Failed)
		pterm.Printf("  Migrated:  %.2f\n", result.Stats.TotalMigratedBalance)
		for _, errMsg := range result.Stats.Errors {
			pterm.Printf("    error: %s\n", errMsg)
		}
	}
	pterm.Printf("  Duration:  %s\n", result.CompletedAt.Sub(result.StartedAt).Round(time.Millisecond))
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := migrate.NewRunStore(database).ListRuns(cmd.Context(), 1)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		pterm.Info.Println("No migration runs recorded")
		return nil
	}

	r := records[0]
	if r.Success {
		pterm.Success.Printf("Last run %s (%s) succeeded\n", r.ID, r.Provider)
	} else {
		pterm.Error.Printf("Last run %s (%s) failed: %s\n", r.ID, r.Provider, r.Error)
	}
	pterm.Printf("  Completed: %s\n", r.CompletedAt.Format(time.RFC3339))
	pterm.Printf("  Accounts:  %d total, %d processed, %d succeeded, %d failed\n",
		r.TotalAccounts, r.Processed, r.Succeeded, r.Failed)
	pterm.Printf("  Migrated:  %.2f\n", r.MigratedBalance)
	return nil
}

func runMigrateProviders(cmd *cobra.Command, args []string) {
	pterm.Info.Println("Supported source providers:")
	for _, name := range migrate.DefaultStrategyRegistry().Names() {
		pterm.Printf("  %s\n", name)
	}
}

func runMigrateRuns(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := migrate.NewRunStore(database).ListRuns(cmd.Context(), runsLimitFlag)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		pterm.Info.Println("No migration runs recorded")
		return nil
	}

	for _, r := range records {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}
		fmt.Printf("%s  %-7s %-14s %4d/%-4d accounts  %12.2f migrated",
			r.CompletedAt.Format("2006-01-02 15:04:05"), status, r.Provider,
			r.Succeeded, r.Processed, r.MigratedBalance)
		if r.Error != "" {
			fmt.Printf("  (%s)", r.Error)
		}
		fmt.Println()
	}
	return nil
}

func runMigrateBackups(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	names, err := migrate.ListBackups(cfg.Backup.Dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		pterm.Info.Printf("No backup artifacts in %s\n", cfg.Backup.Dir)
		return nil
	}

	pterm.Info.Printf("Backup artifacts in %s:\n", cfg.Backup.Dir)
	for _, name := range names {
		pterm.Printf("  %s\n", name)
	}
	return nil
}
