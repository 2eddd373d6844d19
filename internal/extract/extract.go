// Package extract populates knowledge-graph builders from the three
// structural sources the system understands: position-encoded layout JSON,
// PDDL problem text, and live game-state records. Extractors are tolerant
// of malformed individual entries (skip and continue) but surface unknown
// type codes as explicit errors.
package extract

import "fmt"

// Counts summarizes one extraction run.
type Counts struct {
	NodesExtracted   int `json:"nodes_extracted"`
	EdgesExtracted   int `json:"edges_extracted"`
	ObjectsProcessed int `json:"objects_processed"`
}

// UnknownTypeCodeError reports a game-state object whose type code is not
// in the closed mapping table. Unknown codes are surfaced instead of being
// defaulted: silent defaults previously hid real data-quality problems in
// the source system.
type UnknownTypeCodeError struct {
	Code  string
	Known []string
}

func (e *UnknownTypeCodeError) Error() string {
	return fmt.Sprintf("unknown game-state type code %q (known codes: %v)", e.Code, e.Known)
}
