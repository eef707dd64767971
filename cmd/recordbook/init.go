package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"recordbook/internal/paths"
)

// InitResponseCLI describes an initialized record book.
type InitResponseCLI struct {
	Root          string `json:"root"`
	ConfigPath    string `json:"configPath"`
	ConfigCreated bool   `json:"configCreated"`
	Database      string `json:"database"`
	Persistent    bool   `json:"persistent"`
	Table         string `json:"table"`
	Records       int    `json:"records"`
	EngineVersion string `json:"engineVersion"`
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Open the database and create the schema",
	Long: `Creates .recordbook/ with a default config.json when missing, opens the
configured database and creates the record table if it does not exist.
Running it again is safe.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	configPath := filepath.Join(paths.GetDataDir(root), "config.json")
	created := false
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		if err := cfg.Save(root); err != nil {
			return err
		}
		created = true
	}

	a, _, done, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	a.logger.Info("recordbook initialized", "root", root, "configCreated", created)

	snap := a.table.Snapshot()
	return printResponse(cmd, &InitResponseCLI{
		Root:          root,
		ConfigPath:    configPath,
		ConfigCreated: created,
		Database:      a.session.Filename(),
		Persistent:    a.session.Persistent(),
		Table:         a.session.Table(),
		Records:       snap.Total,
		EngineVersion: a.session.EngineVersion(),
	})
}
