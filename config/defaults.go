package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "ledgershift.db")

	// Backup defaults
	v.SetDefault("backup.dir", "backups")

	// Migration pipeline defaults
	v.SetDefault("migration.batch_log_interval", 100) // Progress log every 100 accounts
	v.SetDefault("migration.max_errors", 10)          // Bounded error list for display
	v.SetDefault("migration.verify_sample_size", 10)  // min(sample, succeeded) accounts checked
	v.SetDefault("migration.max_writes_per_second", 0)

	// Provider registry defaults
	v.SetDefault("provider.owner", "ledgershift")
}
