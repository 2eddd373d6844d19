package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"worldkg/internal/kg"
	"worldkg/internal/logging"
)

// Best-effort pattern extraction over PDDL problem text. This is not a
// grammar parser: the three top-level sections are located by pattern and
// anything malformed or absent is skipped without error.
var (
	pddlObjectsRe = regexp.MustCompile(`(?s)\(:objects\s+(.*?)\)`)
	pddlInitRe    = regexp.MustCompile(`(?s)\(:init\s+(.*?)\)\s*\(:goal`)
	pddlGoalRe    = regexp.MustCompile(`(?s)\(:goal\s+(.*?)\)`)
	pddlPredRe    = regexp.MustCompile(`\(([^()]+)\)`)
)

// PDDLProblem extracts objects, initial conditions and the goal from a
// PDDL problem file's text. Every object name in a "name1 name2 - type"
// line becomes an entity tagged with its type, contained by the problem
// node and carrying one initial state node. Every parenthesized predicate
// in :init becomes an initial-condition state node attached to the problem
// node, and the raw :goal text becomes a single result node required by
// the problem node.
func PDDLProblem(b *kg.Builder, problemText, problemName string) Counts {
	log := logging.Get(logging.CategoryExtract)

	var c Counts
	problemID := b.AddEntityNode(problemName, "problem", kg.Attrs{
		"source": kg.String("pddl_problem"),
	})
	c.NodesExtracted++

	if m := pddlObjectsRe.FindStringSubmatch(problemText); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			line = strings.TrimSpace(line)
			if !strings.Contains(line, " - ") {
				continue
			}
			namesPart, typePart, _ := strings.Cut(line, " - ")
			objType := strings.TrimSpace(typePart)
			for _, name := range strings.Fields(namesPart) {
				entityID := b.AddEntityNode(name, "object", kg.Attrs{
					"object_type": kg.String(objType),
					"source":      kg.String("pddl_objects"),
				})
				b.AddEdge(problemID, entityID, kg.EdgeContains, kg.Attrs{
					"relationship": kg.String("problem_contains_object"),
				})

				stateID := b.AddStateNode(name+"_initial", "initial", kg.Attrs{
					"entity_name": kg.String(name),
					"is_initial":  kg.Bool(true),
				})
				b.AddEdge(entityID, stateID, kg.EdgeHasState, kg.Attrs{
					"is_initial": kg.Bool(true),
				})

				c.NodesExtracted += 2
				c.EdgesExtracted += 2
				c.ObjectsProcessed++
			}
		}
	}

	if m := pddlInitRe.FindStringSubmatch(problemText); m != nil {
		for _, pred := range pddlPredRe.FindAllStringSubmatch(m[1], -1) {
			fields := strings.Fields(pred[1])
			if len(fields) == 0 {
				continue
			}
			args := make([]kg.Value, 0, len(fields)-1)
			for _, a := range fields[1:] {
				args = append(args, kg.String(a))
			}
			stateID := b.AddStateNode(strings.Join(fields, "_"), fields[0], kg.Attrs{
				"state_category": kg.String("initial_condition"),
				"arguments":      kg.List(args...),
				"is_initial":     kg.Bool(true),
			})
			b.AddEdge(problemID, stateID, kg.EdgeHasState, kg.Attrs{
				"relationship": kg.String("problem_has_initial_condition"),
			})
			c.NodesExtracted++
			c.EdgesExtracted++
		}
	}

	if m := pddlGoalRe.FindStringSubmatch(problemText); m != nil {
		goalText := strings.TrimSpace(m[1])
		goalID := b.AddResultNode("goal_"+problemName, "task_goal", kg.Attrs{
			"goal_text": kg.String(goalText),
			"source":    kg.String("pddl_goal"),
		})
		b.AddEdge(problemID, goalID, kg.EdgeRequires, kg.Attrs{
			"relationship": kg.String("problem_requires_goal"),
		})
		c.NodesExtracted++
		c.EdgesExtracted++
	}

	log.Info("pddl extraction complete",
		zap.String("problem", problemName),
		zap.Int("objects", c.ObjectsProcessed),
		zap.Int("nodes", c.NodesExtracted),
		zap.Int("edges", c.EdgesExtracted))
	return c
}
