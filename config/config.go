package config

// Config represents the core ledgershift configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" toml:"database"`
	Backup    BackupConfig    `mapstructure:"backup" toml:"backup"`
	Migration MigrationConfig `mapstructure:"migration" toml:"migration"`
	Provider  ProviderConfig  `mapstructure:"provider" toml:"provider"`
}

// DatabaseConfig configures the SQLite ledger store
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// BackupConfig configures pre-migration snapshot artifacts
type BackupConfig struct {
	Dir string `mapstructure:"dir" toml:"dir"` // Directory for snapshot files (default: "backups")
}

// MigrationConfig configures the migration pipeline
type MigrationConfig struct {
	// BatchLogInterval controls how often the executor logs progress
	// (every N accounts, default: 100)
	BatchLogInterval int `mapstructure:"batch_log_interval" toml:"batch_log_interval"`

	// MaxErrors bounds the number of per-account error strings retained
	// in stats for display (default: 10)
	MaxErrors int `mapstructure:"max_errors" toml:"max_errors"`

	// VerifySampleSize caps the number of succeeded accounts sampled
	// during post-migration verification (default: 10)
	VerifySampleSize int `mapstructure:"verify_sample_size" toml:"verify_sample_size"`

	// MaxWritesPerSecond throttles balance writes against the ledger
	// store. 0 = unlimited (default: 0)
	MaxWritesPerSecond int `mapstructure:"max_writes_per_second" toml:"max_writes_per_second"`
}

// ProviderConfig configures provider registry behavior
type ProviderConfig struct {
	// Owner is the registration owner name used when ledgershift
	// registers or unregisters providers (default: "ledgershift")
	Owner string `mapstructure:"owner" toml:"owner"`
}
