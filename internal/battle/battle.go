// Package battle holds the authoritative state of one battle session and
// mutates it in response to protocol events.
package battle

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the game-phase axis of the session lifecycle.
type Phase int

const (
	PhaseAwaitingIdentity Phase = iota
	PhaseTeamPreview
	PhaseInProgress
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingIdentity:
		return "awaiting_identity"
	case PhaseTeamPreview:
		return "team_preview"
	case PhaseInProgress:
		return "in_progress"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// ErrSideResolution is returned when the local account cannot be mapped to a
// player side. The session cannot safely proceed past it.
var ErrSideResolution = errors.New("battle: could not resolve local account to a side")

// Move is one of a Pokémon's usable moves.
type Move struct {
	ID       string
	PP       int
	MaxPP    int
	Disabled bool
}

// Pokemon is one roster member.
type Pokemon struct {
	Species string
	Level   int
	HP      int
	MaxHP   int
	Status  string
	Index   int // 1-based team slot, used for /switch
	Moves   []Move
}

// Alive reports whether the Pokémon can still battle.
func (p *Pokemon) Alive() bool {
	return p != nil && p.HP > 0
}

// HPFraction returns current HP as a fraction of max, or -1 when unknown.
func (p *Pokemon) HPFraction() float64 {
	if p == nil || p.MaxHP == 0 {
		return -1
	}
	return float64(p.HP) / float64(p.MaxHP)
}

// Side is one player's roster view. Role is resolved once at identity
// assignment and never reassigned.
type Side struct {
	ID          string // protocol side identifier, "p1" or "p2"
	AccountName string
	Active      *Pokemon
	Reserve     []*Pokemon
}

// CountAlive counts the side's remaining usable Pokémon.
func (s *Side) CountAlive() int {
	n := 0
	if s.Active.Alive() {
		n++
	}
	for _, p := range s.Reserve {
		if p.Alive() {
			n++
		}
	}
	return n
}

// find returns the reserve member of the given species, or nil.
// Slot returns the team slot of the named pokemon, or 0 when it is not on
// this side.
func (s *Side) Slot(species string) int {
	if p := s.find(species); p != nil {
		return p.Index
	}
	return 0
}

func (s *Side) find(species string) *Pokemon {
	for _, p := range s.Reserve {
		if p.Species == species {
			return p
		}
	}
	return nil
}

// TendencyCounters tracks observed opponent behavior. Counters increase
// monotonically for the life of a session.
type TendencyCounters struct {
	Switches int `json:"switches"`
	Moves    int `json:"moves"`
	Protects int `json:"protects"`
	Actions  int `json:"actions"`
}

// DecisionEntry is one per-decision log record for the battle summary.
type DecisionEntry struct {
	Turn         int          `json:"turn"`
	Decision     string       `json:"decision"`
	SearchTimeMs int          `json:"search_time_ms"`
	Tags         []string     `json:"tags,omitempty"`
	PolicyTop    []PolicyMove `json:"policy_top,omitempty"`
}

// PolicyMove is one ranked alternative recorded alongside a decision.
type PolicyMove struct {
	Move   string   `json:"move"`
	Weight float64  `json:"weight"`
	Tags   []string `json:"tags,omitempty"`
}

// Battle is the authoritative session state for one battle tag.
type Battle struct {
	Tag        string
	Format     string
	Generation string
	Phase      Phase

	Turn          int
	TimeRemaining int // seconds left on our clock; -1 when unknown
	RQID          int

	ForceSwitch bool
	Wait        bool
	TeamPreview bool
	Trapped     bool

	User     Side
	Opponent Side

	StartedAt time.Time
	Winner    string
	WinReason string

	DecisionCount int
	SearchTimesMs []int
	DecisionLog   []DecisionEntry
	Tendencies    TendencyCounters

	players map[string]string // side id -> account name, pre-resolution
}

// New creates a battle session for the given tag and format. The generation
// is the format's leading "genN" prefix.
func New(tag, format string) *Battle {
	gen := format
	if len(gen) > 4 {
		gen = gen[:4]
	}
	return &Battle{
		Tag:           tag,
		Format:        format,
		Generation:    gen,
		Phase:         PhaseAwaitingIdentity,
		TimeRemaining: -1,
		StartedAt:     time.Now(),
		players:       map[string]string{},
	}
}

// otherSide maps a protocol side id to its opponent's id.
func otherSide(id string) string {
	switch id {
	case "p1":
		return "p2"
	case "p2":
		return "p1"
	}
	return ""
}

// ResolveSides matches the local account name against the recorded player
// identities and fixes the user/opponent side roles. It is a no-op once
// resolved and returns ErrSideResolution when both identities are known but
// neither matches.
func (b *Battle) ResolveSides(username string) error {
	if b.User.ID != "" {
		return nil
	}
	normalized := normalizeName(username)
	for sideID, account := range b.players {
		if normalizeName(account) == normalized {
			opp := otherSide(sideID)
			if opp == "" {
				return fmt.Errorf("%w: unknown side id %q", ErrSideResolution, sideID)
			}
			b.User.ID = sideID
			b.User.AccountName = account
			b.Opponent.ID = opp
			b.Opponent.AccountName = b.players[opp]
			return nil
		}
	}
	if len(b.players) >= 2 {
		return fmt.Errorf("%w: players %v, local account %q", ErrSideResolution, b.players, username)
	}
	return nil
}

// SidesResolved reports whether both side identities are mapped.
func (b *Battle) SidesResolved() bool {
	return b.User.ID != "" && b.Opponent.ID != ""
}

// UnderTimePressure reports whether the remaining clock is at or below the
// low-time threshold.
func (b *Battle) UnderTimePressure() bool {
	return b.TimeRemaining >= 0 && b.TimeRemaining <= 60
}

// RecordDecision appends a decision to the session's telemetry.
func (b *Battle) RecordDecision(entry DecisionEntry) {
	b.SearchTimesMs = append(b.SearchTimesMs, entry.SearchTimeMs)
	b.DecisionCount++
	b.DecisionLog = append(b.DecisionLog, entry)
}

func normalizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		}
	}
	return string(out)
}
