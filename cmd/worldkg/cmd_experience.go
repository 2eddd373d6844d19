package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldkg/internal/registry"
	"worldkg/internal/store"
)

var experienceGraph string

var experienceCmd = &cobra.Command{
	Use:   "experience <experience.json>",
	Short: "Fold observed gameplay back into a graph",
	Long: `Experience applies an episode record (state transitions and
action effects) to a graph. Each transition becomes a full action-state
pattern; each effect becomes a learned result node. When the archive is
enabled the episode is also logged there.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read experience file: %w", err)
		}
		var exp registry.Experience
		if err := json.Unmarshal(data, &exp); err != nil {
			return fmt.Errorf("parse experience file: %w", err)
		}

		m, err := loadManager()
		if err != nil {
			return err
		}
		if err := m.UpdateFromExperience(experienceGraph, exp); err != nil {
			return err
		}
		if err := saveManager(m); err != nil {
			return err
		}

		if cfg.Archive.Enabled {
			archive, err := store.NewArchive(cfg.Archive.Path)
			if err != nil {
				return err
			}
			defer archive.Close()
			if err := archive.LogExperience(experienceGraph, len(exp.Transitions), len(exp.Effects), exp); err != nil {
				return err
			}
		}

		fmt.Printf("Applied %d transitions and %d effects to %q\n",
			len(exp.Transitions), len(exp.Effects), experienceGraph)
		return nil
	},
}

func init() {
	experienceCmd.Flags().StringVar(&experienceGraph, "graph", "", "graph to update (required)")
	_ = experienceCmd.MarkFlagRequired("graph")
	rootCmd.AddCommand(experienceCmd)
}
