package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/ledgershift/ledgershift/config"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ledgershift configuration",
	Long: `config — Manage ledgershift configuration

Configuration sources (in order of precedence):
1. Environment variables (LEDGERSHIFT_* prefix)
2. Project config (./ledgershift.toml, searched upward)
3. User config (~/.ledgershift/config.toml)
4. Default values

Examples:
  ledgershift config show                      # Show current configuration
  ledgershift config show --format json        # Show configuration as JSON
  ledgershift config get database.path         # Get a specific value
  ledgershift config set backup.dir ./backups  # Persist a value to user config
  ledgershift config where                     # Show the configuration cascade`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a configuration value using dot notation (e.g., database.path, migration.verify_sample_size)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the user config",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runConfigWhere,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configSetCmd)
	ConfigCmd.AddCommand(configWhereCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Println(string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Printf("# ledgershift configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json)", configFormat)
	}

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := config.GetViper()
	if !v.IsSet(key) {
		return fmt.Errorf("configuration key %q not found", key)
	}

	fmt.Println(v.Get(key))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	configPath := config.UserConfigPath()
	if configPath == "" {
		return fmt.Errorf("cannot determine user config path")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.SetValue(configPath, args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	fmt.Printf("Set %s = %s in %s\n", args[0], args[1], configPath)
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	fmt.Println("Configuration cascade (highest precedence first):")
	fmt.Println("  1. Environment variables (LEDGERSHIFT_*)")

	printSource := func(rank int, label, path string) {
		status := "missing"
		if path != "" {
			if _, err := os.Stat(path); err == nil {
				status = "exists"
			}
		}
		if path == "" {
			path = "<none>"
		}
		fmt.Printf("  %d. %s: %s (%s)\n", rank, label, path, status)
	}

	cwd, _ := os.Getwd()
	printSource(2, "Project config", filepath.Join(cwd, "ledgershift.toml"))
	printSource(3, "User config", config.UserConfigPath())
	fmt.Println("  4. Built-in defaults")
	return nil
}
