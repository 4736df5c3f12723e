package battle

import (
	"fmt"
	"strings"
)

// Snapshot serializes the battle into the engine's state format. Snapshots
// are read-only: search tasks never mutate the live session, only copies.
func (b *Battle) Snapshot() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "format=%s;turn=%d;force_switch=%t;trapped=%t",
		b.Format, b.Turn, b.ForceSwitch, b.Trapped)
	sb.WriteString(";user=")
	writeSide(&sb, &b.User)
	sb.WriteString(";opponent=")
	writeSide(&sb, &b.Opponent)
	return sb.String()
}

func writeSide(sb *strings.Builder, s *Side) {
	writePokemon(sb, s.Active)
	for _, p := range s.Reserve {
		sb.WriteByte('^')
		writePokemon(sb, p)
	}
}

func writePokemon(sb *strings.Builder, p *Pokemon) {
	if p == nil {
		sb.WriteString("none")
		return
	}
	fmt.Fprintf(sb, "%s,%d,%d,%d,%s", p.Species, p.Level, p.HP, p.MaxHP, orNone(p.Status))
	for _, m := range p.Moves {
		fmt.Fprintf(sb, ",%s:%d:%t", m.ID, m.PP, m.Disabled)
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// Clone deep-copies the battle so a sampler can fill hidden information
// without touching the authoritative state.
func (b *Battle) Clone() *Battle {
	c := *b
	c.User = cloneSide(&b.User)
	c.Opponent = cloneSide(&b.Opponent)
	c.SearchTimesMs = append([]int(nil), b.SearchTimesMs...)
	c.DecisionLog = append([]DecisionEntry(nil), b.DecisionLog...)
	c.players = make(map[string]string, len(b.players))
	for k, v := range b.players {
		c.players[k] = v
	}
	return &c
}

func cloneSide(s *Side) Side {
	c := *s
	c.Active = clonePokemon(s.Active)
	c.Reserve = make([]*Pokemon, 0, len(s.Reserve))
	for _, p := range s.Reserve {
		c.Reserve = append(c.Reserve, clonePokemon(p))
	}
	return c
}

func clonePokemon(p *Pokemon) *Pokemon {
	if p == nil {
		return nil
	}
	c := *p
	c.Moves = append([]Move(nil), p.Moves...)
	return &c
}
