package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"recordbook/internal/config"
	"recordbook/internal/paths"
)

var configInitForce bool

// ConfigResponseCLI is the effective configuration.
type ConfigResponseCLI struct {
	Root       string         `json:"root"`
	ConfigPath string         `json:"configPath"`
	Exists     bool           `json:"exists"`
	Config     *config.Config `json:"config"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after defaults, .recordbook/config.json and
RECORDBOOK_* environment overrides are applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.json",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config.json")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func configPathFor(root string) string {
	return filepath.Join(paths.GetDataDir(root), "config.json")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := configPathFor(root)
	_, statErr := os.Stat(path)

	// Human output is the same JSON document as --format json.
	out, err := formatJSON(&ConfigResponseCLI{
		Root:       root,
		ConfigPath: path,
		Exists:     statErr == nil,
		Config:     cfg,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := paths.ResolveRoot(rootFlag)
	if err != nil {
		return err
	}

	path := configPathFor(root)
	if _, statErr := os.Stat(path); statErr == nil && !configInitForce {
		fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\nRun 'recordbook config init --force' to overwrite.\n", path)
		return nil
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", path)
	return nil
}
