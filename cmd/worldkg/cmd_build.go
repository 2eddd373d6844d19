package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"worldkg/internal/extract"
	"worldkg/internal/registry"
)

var buildName string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a knowledge graph from a world source",
}

var buildLayoutCmd = &cobra.Command{
	Use:   "layout <layout.json> [layout.json...]",
	Short: "Build graphs from position-encoded layout files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := args
		if max := cfg.Extraction.MaxLayoutFiles; max > 0 && len(files) > max {
			fmt.Printf("Capping batch at %d of %d layout files\n", max, len(files))
			files = files[:max]
		}

		m, err := loadManager()
		if err != nil {
			return err
		}

		built := 0
		for _, path := range files {
			name := buildName
			if len(files) > 1 {
				name = buildName + "_" + graphNameSuffix(path)
			}
			counts, err := buildLayoutGraph(m, name, path)
			if err != nil {
				fmt.Printf("Skipping %s: %v\n", path, err)
				continue
			}
			fmt.Printf("Built %q from layout: %d nodes, %d edges (%d objects)\n",
				name, counts.NodesExtracted, counts.EdgesExtracted, counts.ObjectsProcessed)
			built++
		}
		if built == 0 {
			return fmt.Errorf("no layout files could be processed")
		}
		return saveManager(m)
	},
}

// graphNameSuffix derives a per-file graph name suffix for batch builds.
func graphNameSuffix(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func buildLayoutGraph(m *registry.Manager, name, path string) (extract.Counts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Counts{}, fmt.Errorf("read layout file: %w", err)
	}
	layout, err := extract.ParseLayout(data)
	if err != nil {
		return extract.Counts{}, err
	}
	b, err := m.Create(name, "layout", map[string]string{"source_file": path})
	if err != nil {
		return extract.Counts{}, err
	}
	counts := extract.Layout(b, layout, name)
	m.Touch(name)
	return counts, nil
}

var buildPDDLCmd = &cobra.Command{
	Use:   "pddl <problem.pddl>",
	Short: "Build a graph from a PDDL problem file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read PDDL file: %w", err)
		}

		m, err := loadManager()
		if err != nil {
			return err
		}
		b, err := m.Create(buildName, "pddl", map[string]string{"source_file": args[0]})
		if err != nil {
			return err
		}
		counts := extract.PDDLProblem(b, string(data), buildName)
		m.Touch(buildName)
		if err := saveManager(m); err != nil {
			return err
		}

		fmt.Printf("Built %q from PDDL: %d nodes, %d edges (%d objects)\n",
			buildName, counts.NodesExtracted, counts.EdgesExtracted, counts.ObjectsProcessed)
		return nil
	},
}

var buildStateCmd = &cobra.Command{
	Use:   "state <gamestate.json>",
	Short: "Build a graph from a live game-state record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read game-state file: %w", err)
		}
		gs, err := extract.ParseGameState(data)
		if err != nil {
			return err
		}

		m, err := loadManager()
		if err != nil {
			return err
		}
		b, err := m.Create(buildName, "game_state", map[string]string{"source_file": args[0]})
		if err != nil {
			return err
		}
		counts, err := extract.GameStateGraph(b, gs, buildName, cfg.Extraction.MaxCommands)
		if err != nil {
			return err
		}
		m.Touch(buildName)
		if err := saveManager(m); err != nil {
			return err
		}

		fmt.Printf("Built %q from game state: %d nodes, %d edges (%d objects)\n",
			buildName, counts.NodesExtracted, counts.EdgesExtracted, counts.ObjectsProcessed)
		return nil
	},
}

func init() {
	buildCmd.PersistentFlags().StringVar(&buildName, "name", "", "name for the new graph (required)")
	_ = buildCmd.MarkPersistentFlagRequired("name")

	buildCmd.AddCommand(buildLayoutCmd)
	buildCmd.AddCommand(buildPDDLCmd)
	buildCmd.AddCommand(buildStateCmd)
	rootCmd.AddCommand(buildCmd)
}
