// Command worldkg builds, merges, queries and archives game-world
// knowledge graphs. Graph sets live in export directories; every mutating
// command loads the directory, applies its change and writes the
// directory back.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"worldkg/internal/config"
	"worldkg/internal/logging"
	"worldkg/internal/registry"
)

var (
	cfgPath  string
	debug    bool
	graphDir string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "worldkg",
	Short: "Typed knowledge graphs for game-world semantics",
	Long: `worldkg builds typed knowledge graphs from game-world sources
(layout JSON, PDDL problems, live game-state records), merges and queries
them, and persists them as JSON/GraphML export directories with an
optional SQLite snapshot archive.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if debug {
			cfg.Debug = true
		}
		if err := logging.Init(cfg.Debug); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		if graphDir == "" {
			graphDir = cfg.Export.Dir
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "worldkg.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&graphDir, "dir", "", "graph export directory (default from config)")
}

// loadManager imports the graph directory if it has a manifest; no
// manifest just means an empty registry.
func loadManager() (*registry.Manager, error) {
	m := registry.NewManager()
	if _, err := os.Stat(filepath.Join(graphDir, registry.ManifestFile)); os.IsNotExist(err) {
		return m, nil
	}
	if err := m.ImportDir(graphDir); err != nil {
		return nil, err
	}
	return m, nil
}

// saveManager writes the registry back to the graph directory.
func saveManager(m *registry.Manager) error {
	return m.ExportAll(graphDir)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
