package kg

import (
	"encoding/json"
	"fmt"
	"os"
)

// RuleType is the closed set of rule categories.
type RuleType string

const (
	RuleConditionAction RuleType = "condition_action"
	RuleConstraint      RuleType = "constraint"
	RuleInference       RuleType = "inference"
	RulePriority        RuleType = "priority"
	RuleTemporal        RuleType = "temporal"
	RuleCausal          RuleType = "causal"
)

// ConditionType classifies condition satellites.
type ConditionType string

const (
	ConditionPrecondition  ConditionType = "precondition"
	ConditionPostcondition ConditionType = "postcondition"
	ConditionInvariant     ConditionType = "invariant"
	ConditionTrigger       ConditionType = "trigger"
)

// Rule is the materialized rule record kept alongside its graph nodes.
type Rule struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       RuleType `json:"type"`
	Conditions []string `json:"conditions"`
	Actions    []string `json:"actions"`
	Priority   int      `json:"priority"`
	Enabled    bool     `json:"enabled"`
	Metadata   Attrs    `json:"metadata"`
}

// RuleBuilder specializes Builder with rule semantics. Each helper creates
// one rule node plus satellite condition/action nodes per list entry:
// conditions point at the rule with enables (prevents for constraints), the
// rule points at actions with produces (results for inference conclusions).
type RuleBuilder struct {
	*Builder
	rules     map[string]Rule
	ruleOrder []string
}

// NewRuleBuilder returns an empty rule graph instance.
func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{Builder: NewBuilder(), rules: make(map[string]Rule)}
}

// Rules returns the materialized rule records in creation order.
func (rb *RuleBuilder) Rules() []Rule {
	out := make([]Rule, 0, len(rb.ruleOrder))
	for _, id := range rb.ruleOrder {
		out = append(out, rb.rules[id])
	}
	return out
}

// addRule creates the rule node and records the rule.
func (rb *RuleBuilder) addRule(name string, rt RuleType, conditions, actions []string, priority int, metadata Attrs) string {
	if metadata == nil {
		metadata = Attrs{}
	}
	attrs := Attrs{"priority": Int(priority), "enabled": Bool(true)}
	for k, v := range metadata {
		attrs[k] = v
	}
	id := rb.AddRuleNode(name, string(rt), conditions, actions, attrs)
	rb.rules[id] = Rule{
		ID:         id,
		Name:       name,
		Type:       rt,
		Conditions: conditions,
		Actions:    actions,
		Priority:   priority,
		Enabled:    true,
		Metadata:   metadata,
	}
	rb.ruleOrder = append(rb.ruleOrder, id)
	return id
}

// AddConditionActionRule adds an IF-conditions-THEN-actions rule.
func (rb *RuleBuilder) AddConditionActionRule(name string, conditions, actions []string, priority int) string {
	ruleID := rb.addRule(name, RuleConditionAction, conditions, actions, priority, nil)

	for i, cond := range conditions {
		condID := rb.AddConditionNode(fmt.Sprintf("%s_condition_%d", name, i+1), Attrs{
			"condition_text": String(cond),
			"condition_type": String(string(ConditionPrecondition)),
		})
		rb.AddEdge(condID, ruleID, EdgeEnables, nil)
	}
	for i, action := range actions {
		actionID := rb.AddActionNode(action, Attrs{
			"rule_action":  Bool(true),
			"action_index": Int(i),
		})
		rb.AddEdge(ruleID, actionID, EdgeProduces, nil)
	}
	return ruleID
}

// AddConstraintRule adds a constraint whose condition satellites prevent
// the rule rather than enable it. Constraints default to priority 100.
func (rb *RuleBuilder) AddConstraintRule(name string, constraints, violationActions []string) string {
	if len(violationActions) == 0 {
		violationActions = []string{"constraint_violated"}
	}
	ruleID := rb.addRule(name, RuleConstraint, constraints, violationActions, 100, nil)

	for i, constraint := range constraints {
		condID := rb.AddConditionNode(fmt.Sprintf("%s_constraint_%d", name, i+1), Attrs{
			"constraint_text": String(constraint),
			"constraint_type": String("hard_constraint"),
		})
		rb.AddEdge(condID, ruleID, EdgePrevents, nil)
	}
	return ruleID
}

// AddInferenceRule adds a premises-to-conclusions rule. Premises become
// condition satellites, conclusions become result satellites.
func (rb *RuleBuilder) AddInferenceRule(name string, premises, conclusions []string) string {
	ruleID := rb.addRule(name, RuleInference, premises, conclusions, 0, nil)

	for i, premise := range premises {
		premiseID := rb.AddConditionNode(fmt.Sprintf("%s_premise_%d", name, i+1), Attrs{
			"premise_text": String(premise),
			"logical_type": String("premise"),
		})
		rb.AddEdge(premiseID, ruleID, EdgeEnables, nil)
	}
	for i, conclusion := range conclusions {
		conclusionID := rb.AddResultNode(fmt.Sprintf("%s_conclusion_%d", name, i+1), conclusion, Attrs{
			"logical_type": String("conclusion"),
		})
		rb.AddEdge(ruleID, conclusionID, EdgeProduces, nil)
	}
	return ruleID
}

// AddPriorityRule records a conflict-resolution ordering between two named
// rules. The relationship lives in rule metadata as strings, not as graph
// edges to the referenced rule nodes; consumers resolving priorities must
// read the metadata.
func (rb *RuleBuilder) AddPriorityRule(name, highPriorityRule, lowPriorityRule, strategy string) string {
	return rb.addRule(name, RulePriority,
		[]string{fmt.Sprintf("rule_conflict: %s vs %s", highPriorityRule, lowPriorityRule)},
		[]string{fmt.Sprintf("execute: %s", highPriorityRule)},
		0,
		Attrs{
			"high_priority_rule":  String(highPriorityRule),
			"low_priority_rule":   String(lowPriorityRule),
			"resolution_strategy": String(strategy),
		})
}

// AddTemporalRule adds an ordered-in-time rule with optional time
// constraints carried as metadata.
func (rb *RuleBuilder) AddTemporalRule(name string, conditions, actions []string, timeConstraints Attrs) string {
	if timeConstraints == nil {
		timeConstraints = Attrs{}
	}
	ruleID := rb.addRule(name, RuleTemporal, conditions, actions, 0, Attrs{
		"time_constraints": Map(timeConstraints),
		"temporal_type":    String("sequence"),
	})

	for i, cond := range conditions {
		condID := rb.AddConditionNode(fmt.Sprintf("%s_condition_%d", name, i+1), Attrs{
			"condition_text": String(cond),
			"condition_type": String(string(ConditionTrigger)),
		})
		rb.AddEdge(condID, ruleID, EdgeEnables, nil)
	}
	for i, action := range actions {
		actionID := rb.AddActionNode(action, Attrs{
			"rule_action":  Bool(true),
			"action_index": Int(i),
		})
		rb.AddEdge(ruleID, actionID, EdgeProduces, nil)
	}
	return ruleID
}

// ExportRulesJSON writes the rule records plus the underlying graph to one
// JSON file.
func (rb *RuleBuilder) ExportRulesJSON(path string) error {
	doc := struct {
		Rules []Rule       `json:"rules"`
		Graph jsonDocument `json:"graph"`
	}{
		Rules: rb.Rules(),
		Graph: rb.jsonDocument(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write rules file: %w", err)
	}
	return nil
}
