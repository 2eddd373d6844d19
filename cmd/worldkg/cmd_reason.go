package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldkg/internal/reason"
)

var reasonGraph string

var reasonCmd = &cobra.Command{
	Use:   "reason <datalog-query>",
	Short: "Run a datalog query over a graph",
	Long: `Reason hydrates one graph into a Mangle datalog store and
evaluates a query against the base and derived predicates, e.g.

  worldkg reason --graph kitchen 'reachable(X, "state_3")'
  worldkg reason --graph kitchen 'action_result(A, R)'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManager()
		if err != nil {
			return err
		}
		b, err := m.Get(reasonGraph)
		if err != nil {
			return err
		}

		engine, err := reason.NewEngine()
		if err != nil {
			return err
		}
		if err := engine.Hydrate(b); err != nil {
			return err
		}

		res, err := engine.Query(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%d bindings in %s\n", len(res.Bindings), res.Duration)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Bindings)
	},
}

func init() {
	reasonCmd.Flags().StringVar(&reasonGraph, "graph", "", "graph to reason over (required)")
	_ = reasonCmd.MarkFlagRequired("graph")
	rootCmd.AddCommand(reasonCmd)
}
