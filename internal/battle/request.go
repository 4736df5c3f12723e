package battle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/HVS13/foul-play-bot/internal/dex"
)

// request mirrors the simulator's per-turn request payload. Only the fields
// the orchestrator consumes are declared.
type request struct {
	Active []struct {
		Moves []struct {
			Move     string `json:"move"`
			ID       string `json:"id"`
			PP       int    `json:"pp"`
			MaxPP    int    `json:"maxpp"`
			Disabled bool   `json:"disabled"`
		} `json:"moves"`
		Trapped bool `json:"trapped"`
	} `json:"active"`
	Side struct {
		Name    string `json:"name"`
		ID      string `json:"id"`
		Pokemon []struct {
			Ident     string   `json:"ident"`
			Details   string   `json:"details"`
			Condition string   `json:"condition"`
			Active    bool     `json:"active"`
			Moves     []string `json:"moves"`
		} `json:"pokemon"`
	} `json:"side"`
	ForceSwitch []bool `json:"forceSwitch"`
	Wait        bool   `json:"wait"`
	TeamPreview bool   `json:"teamPreview"`
	RQID        int    `json:"rqid"`
}

// ApplyRequest rebuilds the user side from an authoritative request payload.
// A structurally invalid payload is a recoverable error: the session skips
// the event and continues.
func (b *Battle) ApplyRequest(payload string) (actionRequired bool, err error) {
	var req request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return false, fmt.Errorf("battle: invalid request payload: %w", err)
	}
	if len(req.Side.Pokemon) == 0 {
		return false, fmt.Errorf("battle: request payload has no roster")
	}

	b.RQID = req.RQID
	b.Wait = req.Wait
	b.ForceSwitch = len(req.ForceSwitch) > 0 && req.ForceSwitch[0]
	b.TeamPreview = req.TeamPreview
	if b.TeamPreview && b.Phase == PhaseAwaitingIdentity {
		b.Phase = PhaseTeamPreview
	}

	var active *Pokemon
	reserve := make([]*Pokemon, 0, len(req.Side.Pokemon)-1)
	for i, rp := range req.Side.Pokemon {
		p := &Pokemon{
			Species: speciesFromDetails(rp.Details),
			Level:   levelFromDetails(rp.Details),
			Index:   i + 1,
		}
		p.HP, p.MaxHP, p.Status = parseCondition(rp.Condition)
		for _, id := range rp.Moves {
			p.Moves = append(p.Moves, Move{ID: dex.Normalize(id), PP: 1, MaxPP: 1})
		}
		if rp.Active && active == nil {
			active = p
		} else {
			reserve = append(reserve, p)
		}
	}
	if active == nil && len(reserve) > 0 {
		active = reserve[0]
		reserve = reserve[1:]
	}

	// The active slot carries the authoritative pp/disabled flags.
	b.Trapped = false
	if len(req.Active) > 0 && active != nil {
		active.Moves = active.Moves[:0]
		for _, m := range req.Active[0].Moves {
			id := m.ID
			if id == "" {
				id = dex.Normalize(m.Move)
			}
			active.Moves = append(active.Moves, Move{
				ID:       dex.Normalize(id),
				PP:       m.PP,
				MaxPP:    m.MaxPP,
				Disabled: m.Disabled,
			})
		}
		b.Trapped = req.Active[0].Trapped
	}

	b.User.Active = active
	b.User.Reserve = reserve

	return !req.Wait, nil
}

// speciesFromDetails extracts the species from a details field like
// "Garchomp, L84, M".
func speciesFromDetails(details string) string {
	return dex.Normalize(strings.SplitN(details, ",", 2)[0])
}

func levelFromDetails(details string) int {
	for _, part := range strings.Split(details, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "L") {
			if lvl, err := strconv.Atoi(part[1:]); err == nil {
				return lvl
			}
		}
	}
	return 100
}

// parseCondition parses an HP condition like "211/250 par" or "0 fnt".
func parseCondition(cond string) (hp, maxHP int, status string) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return 0, 0, ""
	}
	parts := strings.Fields(cond)
	if len(parts) > 1 {
		status = parts[1]
	}
	frac := parts[0]
	if i := strings.Index(frac, "/"); i >= 0 {
		hp, _ = strconv.Atoi(frac[:i])
		maxHP, _ = strconv.Atoi(frac[i+1:])
		return hp, maxHP, status
	}
	hp, _ = strconv.Atoi(frac)
	if status == "fnt" || hp == 0 {
		return 0, maxHP, status
	}
	return hp, maxHP, status
}
