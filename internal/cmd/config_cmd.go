package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/teamseek/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config [key] [value]",
	Short:   "Get or set configuration values",
	GroupID: groupSetup,
	Long: `Get or set teamseek configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/teamseek/config.yaml (XDG compliant).
TEAMSEEK_TEAM, TEAMSEEK_DB_PATH, TEAMSEEK_LOG_LEVEL, and TEAMSEEK_DEBUG
override the file.

Examples:
  teamseek config                           # List all keys
  teamseek config search.default_team       # Get the default team
  teamseek config search.default_team ops   # Search team ops at startup
  teamseek config header.natural_height 5`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	applyColorMode()

	paths := config.DefaultPaths()
	cfg, err := config.LoadFromFile(paths.ConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch len(args) {
	case 0:
		listConfig(cfg, paths)
		return nil
	case 1:
		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(displayValue(value))
		return nil
	default:
		return setConfig(cfg, paths, args[0], args[1])
	}
}

// displayValue marks empty values so they are not mistaken for blank
// strings.
func displayValue(v string) string {
	if v == "" {
		return colorDim + "(not set)" + colorReset
	}
	return v
}

// listConfig prints every key, grouped by section.
func listConfig(cfg *config.Config, paths *config.Paths) {
	fmt.Printf("%sConfiguration%s\n", colorBold, colorReset)
	fmt.Println(strings.Repeat("-", 40))

	section := ""
	var failed []string
	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			failed = append(failed, key)
			continue
		}
		if s, _, _ := strings.Cut(key, "."); s != section {
			section = s
			fmt.Printf("\n%s[%s]%s\n", colorDim, section, colorReset)
		}
		fmt.Printf("  %s%s%s = %s\n", colorCyan, key, colorReset, displayValue(value))
	}
	if len(failed) > 0 {
		fmt.Printf("\n%sWarning:%s could not read %s\n", colorYellow, colorReset, strings.Join(failed, ", "))
	}

	fmt.Println()
	fmt.Printf("Config file: %s\n", paths.ConfigFile())
	fmt.Printf("Index:       %s\n", cfg.DatabasePath())
}

// setConfig validates the new value against the whole config before
// writing the file.
func setConfig(cfg *config.Config, paths *config.Paths, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := cfg.SaveToFile(paths.ConfigFile()); err != nil {
		return err
	}

	saved, _ := cfg.Get(key)
	fmt.Printf("%s%s%s = %s\n", colorCyan, key, colorReset, displayValue(saved))
	fmt.Printf("Saved to: %s\n", paths.ConfigFile())
	return nil
}
