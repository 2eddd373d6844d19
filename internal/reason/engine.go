// Package reason layers a datalog view over graph instances using the
// Google Mangle engine. Node and edge facts are hydrated from a builder
// snapshot; derived predicates answer reachability and consequence
// questions that are awkward to express as raw graph traversals.
package reason

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"github.com/google/mangle/unionfind"
	"go.uber.org/zap"

	"worldkg/internal/kg"
	"worldkg/internal/logging"
)

// graphSchema declares the base facts hydrated from a graph plus the
// derived predicates exposed to queries.
const graphSchema = `
# Base facts hydrated from one graph instance
Decl node(Id, Kind, Name) descr [mode("-", "-", "-")].
Decl edge(Source, Target, Kind) descr [mode("-", "-", "-")].
Decl attr(NodeId, Key, Value) descr [mode("-", "-", "-")].

# Transitive reachability over directed edges of any kind
Decl reachable(Source, Target) descr [mode("-", "-")].
reachable(X, Y) :- edge(X, Y, _).
reachable(X, Y) :- edge(X, Z, _), reachable(Z, Y).

# Results an action produces
Decl action_result(Action, Result) descr [mode("-", "-")].
action_result(A, R) :-
    node(A, "action", _),
    edge(A, R, "produces"),
    node(R, "result", _).

# Direct state transitions
Decl transition(From, To) descr [mode("-", "-")].
transition(S1, S2) :- edge(S1, S2, "transitions").

# Rules that block an action
Decl rule_prevents(Rule, Action) descr [mode("-", "-")].
rule_prevents(Rule, Target) :-
    node(Rule, "rule", _),
    edge(Rule, Target, "prevents").

# Conditions gating a rule
Decl condition_enables(Cond, Rule) descr [mode("-", "-")].
condition_enables(C, R) :-
    node(C, "condition", _),
    edge(C, R, "enables").

# States an entity can hold
Decl entity_state(Entity, State) descr [mode("-", "-")].
entity_state(E, S) :-
    node(E, "entity", _),
    edge(E, S, "has_state").
`

const defaultQueryTimeout = 5 * time.Second

// QueryResult holds the variable bindings produced by one datalog query.
type QueryResult struct {
	Bindings []map[string]any `json:"bindings"`
	Duration time.Duration    `json:"duration"`
}

// Engine wraps one Mangle program over graph facts. Hydrate replaces the
// fact store wholesale, so an engine always reflects exactly one graph
// snapshot at a time.
type Engine struct {
	mu             sync.RWMutex
	store          factstore.ConcurrentFactStore
	programInfo    *analysis.ProgramInfo
	queryContext   *mengine.QueryContext
	predicateIndex map[string]ast.PredicateSym
	factCount      int
	log            *zap.Logger
}

// NewEngine compiles the graph schema and returns an empty engine.
func NewEngine() (*Engine, error) {
	e := &Engine{
		store:          factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore()),
		predicateIndex: make(map[string]ast.PredicateSym),
		log:            logging.Get(logging.CategoryReason),
	}
	if err := e.loadSchema(graphSchema); err != nil {
		return nil, fmt.Errorf("compile graph schema: %w", err)
	}
	return e, nil
}

func (e *Engine) loadSchema(schema string) error {
	unit, err := parse.Unit(bytes.NewReader([]byte(schema)))
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return fmt.Errorf("analyze schema: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.programInfo = programInfo
	e.predicateIndex = make(map[string]ast.PredicateSym, len(programInfo.Decls))
	predToDecl := make(map[ast.PredicateSym]*ast.Decl, len(programInfo.Decls))
	for sym, decl := range programInfo.Decls {
		e.predicateIndex[sym.Symbol] = sym
		predToDecl[sym] = decl
	}
	predToRules := make(map[ast.PredicateSym][]ast.Clause)
	for _, clause := range programInfo.Rules {
		predToRules[clause.Head.Predicate] = append(predToRules[clause.Head.Predicate], clause)
	}
	e.queryContext = &mengine.QueryContext{
		PredToRules: predToRules,
		PredToDecl:  predToDecl,
		Store:       e.store,
	}
	return nil
}

// Hydrate replaces the fact store with the contents of b and re-evaluates
// the derived predicates. Scalar attribute values become attr facts;
// structured values are skipped, the JSON form is their home.
func (e *Engine) Hydrate(b *kg.Builder) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store = factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore())
	e.queryContext.Store = e.store
	e.factCount = 0

	for _, n := range b.Nodes() {
		if err := e.assertLocked("node", n.ID, string(n.Kind), n.Name); err != nil {
			return err
		}
		for _, key := range n.Attrs.SortedKeys() {
			v := n.Attrs[key]
			if !v.Scalar() {
				continue
			}
			if err := e.assertLocked("attr", n.ID, key, v.ScalarString()); err != nil {
				return err
			}
		}
	}
	for _, edge := range b.Edges() {
		if err := e.assertLocked("edge", edge.Source, edge.Target, string(edge.Kind)); err != nil {
			return err
		}
	}

	if _, err := mengine.EvalProgramWithStats(e.programInfo, e.store); err != nil {
		return fmt.Errorf("evaluate program: %w", err)
	}

	e.log.Info("graph hydrated into datalog store", zap.Int("facts", e.factCount))
	return nil
}

func (e *Engine) assertLocked(predicate string, args ...string) error {
	sym, ok := e.predicateIndex[predicate]
	if !ok {
		return fmt.Errorf("predicate %s is not declared", predicate)
	}
	if len(args) != sym.Arity {
		return fmt.Errorf("predicate %s expects %d args, got %d", predicate, sym.Arity, len(args))
	}
	terms := make([]ast.BaseTerm, len(args))
	for i, a := range args {
		terms[i] = ast.String(a)
	}
	if e.store.Add(ast.Atom{Predicate: sym, Args: terms}) {
		e.factCount++
	}
	return nil
}

// FactCount returns the number of base facts currently asserted.
func (e *Engine) FactCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.factCount
}

// Query evaluates one query in Mangle notation, e.g.
// "reachable(X, \"state_3\")" or "action_result(A, R)". Each binding maps
// the query's variable names to their values.
func (e *Engine) Query(ctx context.Context, query string) (*QueryResult, error) {
	shape, err := parseQueryShape(query)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	queryContext := e.queryContext
	decl, ok := queryContext.PredToDecl[shape.atom.Predicate]
	if !ok {
		e.mu.RUnlock()
		return nil, fmt.Errorf("predicate %s is not declared", shape.atom.Predicate.Symbol)
	}
	if len(decl.Modes()) == 0 {
		e.mu.RUnlock()
		return nil, fmt.Errorf("predicate %s has no modes declared", shape.atom.Predicate.Symbol)
	}
	mode := decl.Modes()[0]
	e.mu.RUnlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultQueryTimeout)
		defer cancel()
	}

	start := time.Now()
	var bindings []map[string]any
	err = queryContext.EvalQuery(shape.atom, mode, unionfind.New(), func(fact ast.Atom) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		row := make(map[string]any, len(shape.variables))
		for _, v := range shape.variables {
			if v.index < len(fact.Args) {
				row[v.name] = termToValue(fact.Args[v.index])
			}
		}
		bindings = append(bindings, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate query %q: %w", query, err)
	}

	return &QueryResult{Bindings: bindings, Duration: time.Since(start)}, nil
}

type queryVariable struct {
	name  string
	index int
}

type queryShape struct {
	atom      ast.Atom
	variables []queryVariable
}

func parseQueryShape(query string) (*queryShape, error) {
	clean := strings.TrimSpace(query)
	if clean == "" {
		return nil, fmt.Errorf("empty query")
	}
	clean = strings.TrimSuffix(strings.TrimPrefix(clean, "?"), ".")

	atom, err := parse.Atom(strings.TrimSpace(clean))
	if err != nil {
		return nil, fmt.Errorf("parse query %q: %w", query, err)
	}

	variables := make([]queryVariable, 0, len(atom.Args))
	for i, arg := range atom.Args {
		if v, ok := arg.(ast.Variable); ok {
			variables = append(variables, queryVariable{name: v.Symbol, index: i})
		}
	}
	return &queryShape{atom: atom, variables: variables}, nil
}

func termToValue(term ast.BaseTerm) any {
	c, ok := term.(ast.Constant)
	if !ok {
		return term.String()
	}
	switch c.Type {
	case ast.StringType, ast.NameType, ast.BytesType:
		return c.Symbol
	case ast.NumberType:
		return c.NumValue
	default:
		return c.String()
	}
}
