package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"worldkg/internal/kg"
	"worldkg/internal/logging"
)

// GameState is the capability view over one live game instance. Different
// benchmark instances expose different optional sub-records, so every
// field may be absent; the accessors below report presence explicitly
// instead of callers probing fields.
type GameState struct {
	Objective          string
	MaxScore           int
	HasScore           bool
	Walkthrough        []string
	AdmissibleCommands []string
	Rooms              []Room
	Objects            []Object
	Player             *Player
}

// Room is one traversable location.
type Room struct {
	ID   string
	Name string
	Type string
}

// Object is one world object carrying its raw type code.
type Object struct {
	ID       string
	Name     string
	TypeCode string
}

// Player marks the presence of a player object and its current room.
type Player struct {
	ID   string
	Room string
}

// GameObjective returns the declared objective if present.
func (g *GameState) GameObjective() (string, bool) { return g.Objective, g.Objective != "" }

// Score returns the maximum score if the instance declares one.
func (g *GameState) Score() (int, bool) { return g.MaxScore, g.HasScore }

// WalkthroughSteps returns the solution command list if present.
func (g *GameState) WalkthroughSteps() ([]string, bool) {
	return g.Walkthrough, len(g.Walkthrough) > 0
}

// Commands returns the admissible-command sample if present.
func (g *GameState) Commands() ([]string, bool) {
	return g.AdmissibleCommands, len(g.AdmissibleCommands) > 0
}

// RoomList returns the room records if present.
func (g *GameState) RoomList() ([]Room, bool) { return g.Rooms, len(g.Rooms) > 0 }

// ObjectList returns the object records if present.
func (g *GameState) ObjectList() ([]Object, bool) { return g.Objects, len(g.Objects) > 0 }

// PlayerRecord returns the player record if present.
func (g *GameState) PlayerRecord() (*Player, bool) { return g.Player, g.Player != nil }

// gameStateDoc is the JSON wire form of a game-state record. MaxScore is
// a pointer so "score absent" and "score zero" stay distinguishable.
type gameStateDoc struct {
	Objective          string   `json:"objective"`
	MaxScore           *int     `json:"max_score"`
	Walkthrough        []string `json:"walkthrough"`
	AdmissibleCommands []string `json:"admissible_commands"`
	Rooms              []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"rooms"`
	Objects []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		TypeCode string `json:"type"`
	} `json:"objects"`
	Player *struct {
		ID   string `json:"id"`
		Room string `json:"room"`
	} `json:"player"`
}

// ParseGameState decodes a JSON game-state record into the capability
// view.
func ParseGameState(data []byte) (*GameState, error) {
	var doc gameStateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse game state: %w", err)
	}

	gs := &GameState{
		Objective:          doc.Objective,
		Walkthrough:        doc.Walkthrough,
		AdmissibleCommands: doc.AdmissibleCommands,
	}
	if doc.MaxScore != nil {
		gs.MaxScore = *doc.MaxScore
		gs.HasScore = true
	}
	for _, r := range doc.Rooms {
		gs.Rooms = append(gs.Rooms, Room{ID: r.ID, Name: r.Name, Type: r.Type})
	}
	for _, o := range doc.Objects {
		gs.Objects = append(gs.Objects, Object{ID: o.ID, Name: o.Name, TypeCode: o.TypeCode})
	}
	if doc.Player != nil {
		gs.Player = &Player{ID: doc.Player.ID, Room: doc.Player.Room}
	}
	return gs, nil
}

// typeInfo maps one raw type code to its graph representation.
type typeInfo struct {
	entityKind     string
	initialState   string
	possibleStates []string
}

// typeCodes is the closed mapping derived from the full set of codes
// observed across the real benchmark instances. A code outside this table
// is an error, never a silent default.
var typeCodes = map[string]typeInfo{
	"I": {"inventory", "empty", []string{"empty", "holding_items"}},
	"P": {"player", "exploring", []string{"exploring", "task_complete", "game_over"}},
	"c": {"container", "closed", []string{"closed", "open", "locked", "unlocked"}},
	"d": {"door", "closed", []string{"closed", "open", "locked", "unlocked"}},
	"f": {"food", "obtainable", []string{"obtainable", "taken", "consumed"}},
	"k": {"key", "obtainable", []string{"obtainable", "taken", "used"}},
	"o": {"object", "obtainable", []string{"obtainable", "taken", "used"}},
	"s": {"support", "available", []string{"available", "unavailable", "occupied"}},
}

func knownTypeCodes() []string {
	codes := make([]string, 0, len(typeCodes))
	for c := range typeCodes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// directions are the only recognized movement targets.
var directions = map[string]bool{
	"east": true, "north": true, "south": true, "west": true,
}

// verbOutcomes labels the result node each recognized verb produces.
var verbOutcomes = map[string]string{
	"take":   "taken",
	"open":   "opened",
	"close":  "closed",
	"lock":   "locked",
	"unlock": "unlocked",
	"go":     "moved",
	"put":    "placed",
	"drop":   "dropped",
	"eat":    "consumed",
	"insert": "inserted",
}

// verbTransitions gives the state change each verb causes on its target
// entity. Verbs absent from this table (movement, placement) do not
// change a tracked entity state.
var verbTransitions = map[string][2]string{
	"take":   {"obtainable", "taken"},
	"open":   {"closed", "open"},
	"close":  {"open", "closed"},
	"lock":   {"unlocked", "locked"},
	"unlock": {"locked", "unlocked"},
	"eat":    {"taken", "consumed"},
}

// GameStateGraph extracts a knowledge graph from one live game-state
// record: a scene entity, an agent entity when a player is present, one
// entity per room and per recognized object (player/inventory codes are
// handled separately and skipped), state nodes for every possible entity
// state, and one action node per distinct recognized command from the
// walkthrough and admissible-command sample, each with exactly one
// satellite result node. Verbs that change their target's state also get
// a transitions edge between the matching state nodes.
//
// An object with a type code outside the closed table aborts extraction
// with *UnknownTypeCodeError.
func GameStateGraph(b *kg.Builder, gs *GameState, scenarioName string, maxCommands int) (Counts, error) {
	log := logging.Get(logging.CategoryExtract)

	var c Counts
	sceneAttrs := kg.Attrs{"scene_type": kg.String("text_game")}
	if objective, ok := gs.GameObjective(); ok {
		sceneAttrs["objective"] = kg.String(objective)
	}
	if score, ok := gs.Score(); ok {
		sceneAttrs["max_score"] = kg.Int(score)
	}
	if steps, ok := gs.WalkthroughSteps(); ok {
		sceneAttrs["walkthrough_steps"] = kg.Int(len(steps))
	}
	sceneID := b.AddEntityNode(scenarioName, "scene", sceneAttrs)
	c.NodesExtracted++

	// State node ids by "<entity>_<state>" name, and the object names
	// action targets can resolve against.
	stateIDs := make(map[string]string)
	var objectNames []string

	if player, ok := gs.PlayerRecord(); ok {
		agentID := b.AddEntityNode("player", "agent", kg.Attrs{
			"player_id":    kg.String(player.ID),
			"current_room": kg.String(player.Room),
		})
		b.AddEdge(sceneID, agentID, kg.EdgeContains, nil)
		c.NodesExtracted++
		c.EdgesExtracted++
		nodes, edges := addEntityStates(b, agentID, "player", "exploring",
			[]string{"exploring", "task_complete", "game_over"}, stateIDs)
		c.NodesExtracted += nodes
		c.EdgesExtracted += edges
	}

	if rooms, ok := gs.RoomList(); ok {
		for _, room := range rooms {
			name := room.Name
			if name == "" {
				name = room.ID
			}
			roomID := b.AddEntityNode(name, "room", kg.Attrs{
				"room_id":   kg.String(room.ID),
				"room_type": kg.String(room.Type),
			})
			b.AddEdge(sceneID, roomID, kg.EdgeContains, nil)
			c.NodesExtracted++
			c.EdgesExtracted++
			nodes, edges := addEntityStates(b, roomID, name, "accessible",
				[]string{"accessible", "inaccessible", "visited"}, stateIDs)
			c.NodesExtracted += nodes
			c.EdgesExtracted += edges
		}
	}

	if objects, ok := gs.ObjectList(); ok {
		for _, obj := range objects {
			// Player and inventory already have dedicated handling.
			if obj.TypeCode == "P" || obj.TypeCode == "I" {
				continue
			}
			info, ok := typeCodes[obj.TypeCode]
			if !ok {
				return c, &UnknownTypeCodeError{Code: obj.TypeCode, Known: knownTypeCodes()}
			}
			name := obj.Name
			if name == "" {
				name = obj.ID
			}
			objID := b.AddEntityNode(name, info.entityKind, kg.Attrs{
				"object_id":     kg.String(obj.ID),
				"type_code":     kg.String(obj.TypeCode),
				"initial_state": kg.String(info.initialState),
			})
			b.AddEdge(sceneID, objID, kg.EdgeContains, nil)
			c.NodesExtracted++
			c.EdgesExtracted++
			c.ObjectsProcessed++
			objectNames = append(objectNames, name)
			nodes, edges := addEntityStates(b, objID, name, info.initialState,
				info.possibleStates, stateIDs)
			c.NodesExtracted += nodes
			c.EdgesExtracted += edges
		}
	}

	commands := collectCommands(gs, maxCommands)
	for _, cmd := range commands {
		pa, ok := parseCommand(b, cmd)
		if !ok {
			continue
		}
		resultID := b.AddResultNode(cmd.text+"_result", pa.outcome, kg.Attrs{
			"action_command": kg.String(cmd.text),
			"is_core_action": kg.Bool(cmd.core),
		})
		b.AddEdge(pa.actionID, resultID, kg.EdgeProduces, kg.Attrs{
			"relationship": kg.String("action_produces_result"),
		})
		b.AddEdge(sceneID, pa.actionID, kg.EdgeContains, nil)
		c.NodesExtracted += 2
		c.EdgesExtracted += 2

		// The action's effect on its target entity becomes a transition
		// between that entity's state nodes.
		pair, causesChange := verbTransitions[pa.verb]
		if !causesChange {
			continue
		}
		entity, found := matchObject(objectNames, pa.target)
		if !found {
			continue
		}
		from, okFrom := stateIDs[entity+"_"+pair[0]]
		to, okTo := stateIDs[entity+"_"+pair[1]]
		if okFrom && okTo {
			b.AddEdge(from, to, kg.EdgeTransitions, kg.Attrs{
				"action": kg.String(cmd.text),
			})
			c.EdgesExtracted++
		}
	}

	log.Info("game-state extraction complete",
		zap.String("scenario", scenarioName),
		zap.Int("objects", c.ObjectsProcessed),
		zap.Int("nodes", c.NodesExtracted),
		zap.Int("edges", c.EdgesExtracted))
	return c, nil
}

// addEntityStates creates one state node per possible state and wires it
// with has_state, recording each id under its "<entity>_<state>" name.
func addEntityStates(b *kg.Builder, entityID, entityName, initialState string, possible []string, stateIDs map[string]string) (nodes, edges int) {
	for _, stateValue := range possible {
		stateID := b.AddStateNode(entityName+"_"+stateValue, stateValue, kg.Attrs{
			"entity_name": kg.String(entityName),
			"is_initial":  kg.Bool(stateValue == initialState),
		})
		b.AddEdge(entityID, stateID, kg.EdgeHasState, kg.Attrs{
			"is_initial": kg.Bool(stateValue == initialState),
		})
		stateIDs[entityName+"_"+stateValue] = stateID
	}
	return len(possible), len(possible)
}

type command struct {
	text string
	core bool
}

// collectCommands merges walkthrough steps (core) with the admissible
// command sample (capped), deduplicated in order.
func collectCommands(gs *GameState, maxCommands int) []command {
	seen := make(map[string]bool)
	var out []command
	if steps, ok := gs.WalkthroughSteps(); ok {
		for _, s := range steps {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, command{text: s, core: true})
		}
	}
	if cmds, ok := gs.Commands(); ok {
		n := len(cmds)
		if maxCommands > 0 && n > maxCommands {
			n = maxCommands
		}
		for _, s := range cmds[:n] {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, command{text: s, core: false})
		}
	}
	return out
}

// parsedAction is the outcome of matching one command against the verb
// templates.
type parsedAction struct {
	actionID string
	verb     string
	outcome  string
	target   string
}

// parseCommand matches a command against the closed verb templates and, on
// success, creates the action node. Unrecognized verbs produce nothing.
func parseCommand(b *kg.Builder, cmd command) (parsedAction, bool) {
	var pa parsedAction

	words := strings.Fields(cmd.text)
	if len(words) == 0 {
		return pa, false
	}
	pa.verb = words[0]
	outcome, known := verbOutcomes[pa.verb]
	if !known {
		return pa, false
	}
	pa.outcome = outcome

	attrs := kg.Attrs{
		"verb":           kg.String(pa.verb),
		"command":        kg.String(cmd.text),
		"is_core_action": kg.Bool(cmd.core),
	}

	switch pa.verb {
	case "take":
		// "take X" or "take X from Y"
		if len(words) < 2 {
			return pa, false
		}
		target, source, hasFrom := cutAround(words[1:], "from")
		pa.target = target
		attrs["target"] = kg.String(target)
		if hasFrom {
			attrs["source_container"] = kg.String(source)
		}
	case "open", "close", "drop", "eat":
		if len(words) < 2 {
			return pa, false
		}
		pa.target = strings.Join(words[1:], " ")
		attrs["target"] = kg.String(pa.target)
	case "lock", "unlock":
		// "lock X with Y"
		if len(words) < 2 {
			return pa, false
		}
		target, instrument, hasWith := cutAround(words[1:], "with")
		pa.target = target
		attrs["target"] = kg.String(target)
		if hasWith {
			attrs["instrument"] = kg.String(instrument)
		}
	case "go":
		if len(words) != 2 || !directions[words[1]] {
			return pa, false
		}
		attrs["direction"] = kg.String(words[1])
	case "put":
		// "put X on Y" or "put X in Y"
		target, dest, found := cutAround(words[1:], "on")
		if !found {
			target, dest, found = cutAround(words[1:], "in")
		}
		if !found || target == "" || dest == "" {
			return pa, false
		}
		pa.target = target
		attrs["target"] = kg.String(target)
		attrs["destination"] = kg.String(dest)
	case "insert":
		// "insert X into Y"
		target, dest, found := cutAround(words[1:], "into")
		if !found || target == "" || dest == "" {
			return pa, false
		}
		pa.target = target
		attrs["target"] = kg.String(target)
		attrs["destination"] = kg.String(dest)
	}

	pa.actionID = b.AddActionNode(cmd.text, attrs)
	return pa, true
}

// matchObject resolves an action target against the extracted object
// names, exact match first, then substring in either direction.
func matchObject(names []string, target string) (string, bool) {
	if target == "" {
		return "", false
	}
	for _, n := range names {
		if n == target {
			return n, true
		}
	}
	for _, n := range names {
		if strings.Contains(n, target) || strings.Contains(target, n) {
			return n, true
		}
	}
	return "", false
}

// cutAround splits words at the first occurrence of sep, joining each side
// with spaces.
func cutAround(words []string, sep string) (before, after string, found bool) {
	for i, w := range words {
		if w == sep {
			return strings.Join(words[:i], " "), strings.Join(words[i+1:], " "), true
		}
	}
	return strings.Join(words, " "), "", false
}
