// Package protocol parses the simulator's text-line session protocol. A raw
// websocket message is a block of newline-separated lines, optionally
// prefixed with a ">room-id" line; battle lines are |-separated.
package protocol

import (
	"strings"

	"github.com/HVS13/foul-play-bot/internal/dex"
)

// EventType classifies a parsed message for the session state machine.
type EventType int

const (
	EventOther EventType = iota
	EventIdentity
	EventRequest
	EventBattleStart
	EventTeamPreview
	EventBattleEnd
	EventChat
)

func (t EventType) String() string {
	switch t {
	case EventIdentity:
		return "identity"
	case EventRequest:
		return "request"
	case EventBattleStart:
		return "battle_start"
	case EventTeamPreview:
		return "team_preview"
	case EventBattleEnd:
		return "battle_end"
	case EventChat:
		return "chat"
	}
	return "other"
}

// Message is one parsed websocket message.
type Message struct {
	Room  string
	Lines []string
}

// Parse splits a raw message into its room id and lines.
func Parse(raw string) Message {
	lines := strings.Split(raw, "\n")
	m := Message{Lines: lines}
	if len(lines) > 0 && strings.HasPrefix(lines[0], ">") {
		m.Room = strings.TrimSpace(lines[0][1:])
		m.Lines = lines[1:]
	}
	return m
}

// IsBattleRoom reports whether a room id names a battle room.
func IsBattleRoom(room string) bool {
	return strings.HasPrefix(room, "battle-")
}

// Fields splits one protocol line on "|". The first field is always the
// empty string for well-formed lines.
func Fields(line string) []string {
	return strings.Split(line, "|")
}

// Classify determines the message's event type for the given battle tag.
// End-of-battle takes precedence; the remaining types are matched in
// line order.
func Classify(tag string, m Message) EventType {
	if IndicatesBattleEnd(tag, m) {
		return EventBattleEnd
	}
	for _, line := range m.Lines {
		f := Fields(line)
		if len(f) < 2 {
			continue
		}
		switch strings.TrimSpace(f[1]) {
		case "player":
			return EventIdentity
		case "request":
			if len(f) >= 3 && strings.TrimSpace(f[2]) != "" {
				return EventRequest
			}
		case "start":
			return EventBattleStart
		case "clearpoke", "teampreview":
			return EventTeamPreview
		case "c", "c:", "chat":
			return EventChat
		}
	}
	return EventOther
}

// IndicatesBattleEnd reports whether the message ends the battle identified
// by tag: a win or tie line in that room (excluding chat echoes), or the
// room being torn down.
func IndicatesBattleEnd(tag string, m Message) bool {
	if m.Room != tag {
		return false
	}
	hasChat := false
	hasEnd := false
	for _, line := range m.Lines {
		if strings.HasPrefix(line, "|win|") || strings.HasPrefix(line, "|tie") {
			hasEnd = true
		}
		if strings.HasPrefix(line, "|c|") || strings.HasPrefix(line, "|c:|") {
			hasChat = true
		}
		if strings.Contains(line, "|deinit|") || strings.HasPrefix(line, "|deinit") {
			return true
		}
	}
	return hasEnd && !hasChat
}

// ExtractWinner returns the winner's account name from a |win| line, or ""
// when the message holds none (e.g. a tie).
func ExtractWinner(m Message) string {
	for _, line := range m.Lines {
		if strings.HasPrefix(line, "|win|") {
			return strings.TrimSpace(strings.TrimPrefix(line, "|win|"))
		}
	}
	return ""
}

// ExtractWinReason sniffs free-text end-of-battle lines for a cause.
// Priority is forfeit > timeout > disconnect, first match wins; the
// heuristic's accuracy against every server message variant is unverified.
func ExtractWinReason(m Message) string {
	reason := ""
	for _, line := range m.Lines {
		if !strings.HasPrefix(line, "|") {
			continue
		}
		f := Fields(line)
		if len(f) < 2 {
			continue
		}
		action := strings.TrimSpace(f[1])
		if action == "c" || action == "c:" {
			continue
		}
		lower := strings.ToLower(line)
		if action == "forfeit" || strings.Contains(lower, "forfeit") {
			return "forfeit"
		}
		if strings.Contains(lower, "timeout") {
			if reason == "" {
				reason = "timeout"
			}
		} else if strings.Contains(lower, "disconnect") {
			if reason == "" {
				reason = "disconnect"
			}
		}
	}
	return reason
}

// ExtractRequest returns the JSON payload of the first |request| line with a
// non-empty body, or "" when the message has none.
func ExtractRequest(m Message) string {
	for _, line := range m.Lines {
		f := Fields(line)
		if len(f) >= 3 && strings.TrimSpace(f[1]) == "request" {
			payload := strings.TrimSpace(f[2])
			payload = strings.Trim(payload, "'")
			if payload != "" {
				return payload
			}
		}
	}
	return ""
}

// CollectPlayers records side-id → account-name pairs from |player| lines
// into the given map.
func CollectPlayers(m Message, players map[string]string) {
	for _, line := range m.Lines {
		if !strings.HasPrefix(line, "|player|") {
			continue
		}
		f := Fields(line)
		if len(f) >= 4 && f[2] != "" && f[3] != "" {
			players[f[2]] = f[3]
		}
	}
}

// CollectKnownSpecies adds every species revealed by the message (team
// preview entries, switch-ins, form changes) to the given set.
func CollectKnownSpecies(m Message, species map[string]bool) {
	for _, line := range m.Lines {
		f := Fields(line)
		if len(f) < 4 {
			continue
		}
		switch strings.TrimSpace(f[1]) {
		case "poke", "switch", "drag", "replace", "detailschange":
			name := dex.Normalize(strings.SplitN(f[3], ",", 2)[0])
			if name != "" {
				species[name] = true
			}
		}
	}
}

// ActorAction is one attributable action found in a message.
type ActorAction struct {
	Kind string // "switch" or "move"
	Move string // normalized move id for Kind=="move"
}

// ActorActions returns the actions in the message whose actor field starts
// with the given side identifier (e.g. "p2"). Used to maintain opponent
// tendency counters.
func ActorActions(m Message, sideID string) []ActorAction {
	if sideID == "" {
		return nil
	}
	var actions []ActorAction
	for _, line := range m.Lines {
		f := Fields(line)
		if len(f) < 3 {
			continue
		}
		actor := strings.TrimSpace(f[2])
		if !strings.HasPrefix(actor, sideID) {
			continue
		}
		switch strings.TrimSpace(f[1]) {
		case "switch", "drag", "replace":
			actions = append(actions, ActorAction{Kind: "switch"})
		case "move":
			a := ActorAction{Kind: "move"}
			if len(f) > 3 {
				a.Move = dex.Normalize(f[3])
			}
			actions = append(actions, a)
		}
	}
	return actions
}
