package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered graphs with their statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManager()
		if err != nil {
			return err
		}
		infos := m.List()
		if len(infos) == 0 {
			fmt.Println("No graphs registered.")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%-24s %-12s %4d nodes %4d edges  (updated %s)\n",
				info.Name, info.Meta.Kind,
				info.Stats.TotalNodes, info.Stats.TotalEdges,
				info.Meta.LastUpdated.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var statsGraph string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print full statistics for one graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManager()
		if err != nil {
			return err
		}
		stats, err := m.Stats(statsGraph)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsGraph, "graph", "", "graph name (required)")
	_ = statsCmd.MarkFlagRequired("graph")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
}
