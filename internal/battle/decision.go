package battle

import (
	"fmt"
	"strings"
)

// FormatDecision turns a chosen action into the protocol parts to send.
// Switch decisions are written as "switch <species>"; anything else is a
// move id, optionally suffixed with "-tera" or "-mega". The request id is
// attached so the server can reject decisions made against a stale state.
func (b *Battle) FormatDecision(decision string) ([]string, error) {
	var message string
	if name, ok := strings.CutPrefix(decision, "switch "); ok {
		target := b.User.find(strings.TrimSpace(name))
		if target == nil {
			return nil, fmt.Errorf("battle: tried to switch to unknown %q", name)
		}
		message = fmt.Sprintf("/switch %d", target.Index)
	} else {
		move := decision
		suffix := ""
		if m, ok := strings.CutSuffix(move, "-tera"); ok {
			move, suffix = m, " terastallize"
		} else if m, ok := strings.CutSuffix(move, "-mega"); ok {
			move, suffix = m, " mega"
		}
		message = "/choose move " + move + suffix
	}
	return []string{message, fmt.Sprintf("%d", b.RQID)}, nil
}

// FormatTeamPreview builds the /team order message leading with the chosen
// slot, e.g. choice 3 of a 6-slot team yields "/team 312456".
func (b *Battle) FormatTeamPreview(choice int) string {
	size := len(b.User.Reserve)
	if b.User.Active != nil {
		size++
	}
	var order strings.Builder
	fmt.Fprintf(&order, "%d", choice)
	for i := 1; i <= size; i++ {
		if i != choice {
			fmt.Fprintf(&order, "%d", i)
		}
	}
	return fmt.Sprintf("/team %s|%d", order.String(), b.RQID)
}
