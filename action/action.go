package action

import (
	"fmt"
	"sort"
	"strings"
)

// Action is the closed set of change kinds a history row can record.
type Action uint8

const (
	Place Action = iota
	Break
	Click
	Spawn
	Despawn
	Kill
	Add
	Remove
	SessionJoin
	SessionLeft
	Chat
	Command
	Update
)

var names = map[Action]string{
	Place:       "place",
	Break:       "break",
	Click:       "click",
	Spawn:       "spawn",
	Despawn:     "despawn",
	Kill:        "kill",
	Add:         "add",
	Remove:      "remove",
	SessionJoin: "join",
	SessionLeft: "quit",
	Chat:        "chat",
	Command:     "command",
	Update:      "update",
}

// groups are the argument-facing meta-categories. They exist only for
// user-supplied filter syntax and are never stored.
var groups = map[string][]Action{
	"block":     {Place, Break, Spawn, Despawn},
	"container": {Add, Remove},
	"session":   {SessionJoin, SessionLeft},
	"all": {Place, Break, Click, Spawn, Despawn, Kill, Add, Remove,
		SessionJoin, SessionLeft, Chat, Command, Update},
}

// aliases map alternative filter spellings onto canonical names.
var aliases = map[string]string{
	"+block":     "place",
	"-block":     "break",
	"leave":      "quit",
	"left":       "quit",
	"+container": "add",
	"-container": "remove",
	"destroy":    "break",
}

func (a Action) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// Valid reports whether a is a member of the closed set.
func (a Action) Valid() bool {
	_, ok := names[a]
	return ok
}

// ReportsOldName reports whether lookup output should show the previous
// name of the changed thing rather than the new one. Destructive actions
// read better that way ("alice broke stone", not "alice broke air").
func (a Action) ReportsOldName() bool {
	switch a {
	case Break, Remove, Despawn, Kill:
		return true
	}
	return false
}

// Parse resolves one filter token into the actions it stands for. A token
// may be a single action name, an alias, or a meta-category group.
func Parse(token string) ([]Action, error) {
	key := strings.ToLower(strings.TrimSpace(token))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	if set, ok := groups[key]; ok {
		out := make([]Action, len(set))
		copy(out, set)
		return out, nil
	}
	for a, n := range names {
		if n == key {
			return []Action{a}, nil
		}
	}
	return nil, fmt.Errorf("action: unknown action %q", token)
}

// ParseAll resolves a list of filter tokens, deduplicating the union.
func ParseAll(tokens []string) ([]Action, error) {
	seen := make(map[Action]struct{})
	for _, tok := range tokens {
		set, err := Parse(tok)
		if err != nil {
			return nil, err
		}
		for _, a := range set {
			seen[a] = struct{}{}
		}
	}
	out := make([]Action, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
