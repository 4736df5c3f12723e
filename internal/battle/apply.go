package battle

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/HVS13/foul-play-bot/internal/dex"
	"github.com/HVS13/foul-play-bot/internal/protocol"
)

// Apply mutates the battle from one protocol message, in line order, and
// reports whether the message leaves a decision owed (a non-wait request
// payload arrived). Malformed lines are skipped and logged; only a broken
// request payload is reported as an error.
func (b *Battle) Apply(m protocol.Message) (actionRequired bool, err error) {
	for _, line := range m.Lines {
		f := protocol.Fields(line)
		if len(f) < 2 {
			continue
		}
		switch strings.TrimSpace(f[1]) {
		case "player":
			b.applyPlayer(f)
		case "turn":
			if len(f) >= 3 {
				if t, perr := strconv.Atoi(strings.TrimSpace(f[2])); perr == nil {
					b.Turn = t
				}
			}
			if b.Phase != PhaseFinished {
				b.Phase = PhaseInProgress
			}
		case "start":
			if b.Phase != PhaseFinished {
				b.Phase = PhaseInProgress
			}
		case "clearpoke", "teampreview":
			b.TeamPreview = true
			if b.Phase == PhaseAwaitingIdentity {
				b.Phase = PhaseTeamPreview
			}
		case "request":
			payload := strings.Trim(strings.TrimSpace(strings.Join(f[2:], "|")), "'")
			if payload == "" {
				continue
			}
			required, rerr := b.ApplyRequest(payload)
			if rerr != nil {
				return actionRequired, rerr
			}
			actionRequired = required
		case "poke":
			b.applyPreviewPoke(f)
		case "switch", "drag", "replace":
			b.applySwitch(f)
		case "faint":
			if p := b.activeFor(f); p != nil {
				p.HP = 0
			}
		case "-damage", "-heal":
			if len(f) >= 4 {
				if p := b.activeFor(f); p != nil {
					hp, maxHP, status := parseCondition(f[3])
					p.HP = hp
					if maxHP > 0 {
						p.MaxHP = maxHP
					}
					if status != "" {
						p.Status = status
					}
				}
			}
		case "move":
			b.applyMove(f)
		case "inactive":
			b.applyInactive(line)
		case "error":
			log.Warn().Str("battle", b.Tag).Str("line", line).Msg("Server rejected an action")
		}
	}
	return actionRequired, nil
}

// ObservePlayers ingests only the identity lines of a message. Backlog
// replay uses it to fix both identities before any switch line is applied.
func (b *Battle) ObservePlayers(m protocol.Message) {
	for _, line := range m.Lines {
		f := protocol.Fields(line)
		if len(f) > 3 && strings.TrimSpace(f[1]) == "player" {
			b.applyPlayer(f)
		}
	}
}

func (b *Battle) applyPlayer(f []string) {
	if len(f) < 4 || f[2] == "" || f[3] == "" {
		return
	}
	b.players[strings.TrimSpace(f[2])] = strings.TrimSpace(f[3])
}

// applyPreviewPoke records an opponent roster member revealed at team
// preview, e.g. "|poke|p2|Garchomp, L84, M|item".
func (b *Battle) applyPreviewPoke(f []string) {
	if len(f) < 4 || b.Opponent.ID == "" {
		return
	}
	if strings.TrimSpace(f[2]) != b.Opponent.ID {
		return
	}
	species := speciesFromDetails(f[3])
	if species == "" || b.Opponent.find(species) != nil {
		return
	}
	b.Opponent.Reserve = append(b.Opponent.Reserve, &Pokemon{
		Species: species,
		Level:   levelFromDetails(f[3]),
		HP:      100,
		MaxHP:   100,
		Index:   len(b.Opponent.Reserve) + 1,
	})
}

// applySwitch handles active-slot changes. The user side is rebuilt from
// request payloads, so only the opponent's roster is discovered here.
func (b *Battle) applySwitch(f []string) {
	if len(f) < 4 {
		return
	}
	actor := strings.TrimSpace(f[2])
	if b.Opponent.ID == "" || !strings.HasPrefix(actor, b.Opponent.ID) {
		return
	}
	species := speciesFromDetails(f[3])
	if species == "" {
		return
	}

	if b.Opponent.Active != nil {
		b.Opponent.Reserve = append(b.Opponent.Reserve, b.Opponent.Active)
		b.Opponent.Active = nil
	}
	incoming := b.Opponent.find(species)
	if incoming != nil {
		b.Opponent.Reserve = removePokemon(b.Opponent.Reserve, incoming)
	} else {
		incoming = &Pokemon{
			Species: species,
			Level:   levelFromDetails(f[3]),
			HP:      100,
			MaxHP:   100,
		}
	}
	if len(f) >= 5 {
		hp, maxHP, status := parseCondition(f[4])
		if maxHP > 0 {
			incoming.HP, incoming.MaxHP = hp, maxHP
		}
		if status != "" {
			incoming.Status = status
		}
	}
	b.Opponent.Active = incoming
}

// applyMove records a revealed opponent move on its active Pokémon.
func (b *Battle) applyMove(f []string) {
	if len(f) < 4 {
		return
	}
	actor := strings.TrimSpace(f[2])
	if b.Opponent.ID == "" || !strings.HasPrefix(actor, b.Opponent.ID) {
		return
	}
	if b.Opponent.Active == nil {
		return
	}
	id := dex.Normalize(f[3])
	if id == "" {
		return
	}
	for _, m := range b.Opponent.Active.Moves {
		if m.ID == id {
			return
		}
	}
	b.Opponent.Active.Moves = append(b.Opponent.Active.Moves, Move{ID: id, PP: 1, MaxPP: 1})
}

// applyInactive extracts our remaining clock from timer announcements like
// "|inactive|BotName has 60 seconds left." or "|inactive|Time left: 120 sec".
func (b *Battle) applyInactive(line string) {
	lower := strings.ToLower(line)
	if b.User.AccountName != "" &&
		!strings.Contains(lower, strings.ToLower(b.User.AccountName)) &&
		!strings.Contains(lower, "time left") {
		return
	}
	fields := strings.Fields(lower)
	for i, w := range fields {
		if strings.HasPrefix(w, "sec") && i > 0 {
			if secs, err := strconv.Atoi(strings.TrimSuffix(fields[i-1], ".")); err == nil {
				b.TimeRemaining = secs
				return
			}
		}
	}
}

// activeFor resolves the acting side's active Pokémon from a line's actor
// field ("p1a: Name").
func (b *Battle) activeFor(f []string) *Pokemon {
	if len(f) < 3 {
		return nil
	}
	actor := strings.TrimSpace(f[2])
	switch {
	case b.User.ID != "" && strings.HasPrefix(actor, b.User.ID):
		return b.User.Active
	case b.Opponent.ID != "" && strings.HasPrefix(actor, b.Opponent.ID):
		return b.Opponent.Active
	}
	return nil
}

func removePokemon(reserve []*Pokemon, target *Pokemon) []*Pokemon {
	out := reserve[:0]
	for _, p := range reserve {
		if p != target {
			out = append(out, p)
		}
	}
	return out
}

// UpdateTendencies feeds the opponent's attributable actions in the message
// into the session's tendency counters.
func (b *Battle) UpdateTendencies(m protocol.Message) {
	if b.Opponent.ID == "" {
		return
	}
	for _, a := range protocol.ActorActions(m, b.Opponent.ID) {
		switch a.Kind {
		case "switch":
			b.Tendencies.Switches++
			b.Tendencies.Actions++
		case "move":
			b.Tendencies.Moves++
			b.Tendencies.Actions++
			if md, ok := dex.Move(a.Move); ok && md.Protect {
				b.Tendencies.Protects++
			}
		}
	}
}
