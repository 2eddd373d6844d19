package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldkg/internal/kg"
	"worldkg/internal/registry"
)

var (
	queryGraph    string
	queryNodeKind string
	queryEdgeKind string
	queryPathFrom string
	queryPathTo   string
	queryMaxLen   int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a graph by node kind, edge kind or path",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManager()
		if err != nil {
			return err
		}

		q := registry.Query{
			NodeKind: kg.NodeKind(queryNodeKind),
			EdgeKind: kg.EdgeKind(queryEdgeKind),
		}
		if queryPathFrom != "" || queryPathTo != "" {
			if queryPathFrom == "" || queryPathTo == "" {
				return fmt.Errorf("path queries need both --path-from and --path-to")
			}
			maxLen := queryMaxLen
			if maxLen <= 0 {
				maxLen = cfg.Query.MaxPathLength
			}
			q.Path = &registry.PathQuery{Source: queryPathFrom, Target: queryPathTo, MaxLen: maxLen}
		}

		res, err := m.RunQuery(queryGraph, q)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryGraph, "graph", "", "graph to query (required)")
	queryCmd.Flags().StringVar(&queryNodeKind, "node-kind", "", "select nodes of this kind")
	queryCmd.Flags().StringVar(&queryEdgeKind, "edge-kind", "", "select edges of this kind")
	queryCmd.Flags().StringVar(&queryPathFrom, "path-from", "", "path query source node id")
	queryCmd.Flags().StringVar(&queryPathTo, "path-to", "", "path query target node id")
	queryCmd.Flags().IntVar(&queryMaxLen, "max-len", 0, "path hop bound (default from config)")
	_ = queryCmd.MarkFlagRequired("graph")
	rootCmd.AddCommand(queryCmd)
}
