package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HVS13/foul-play-bot/internal/battle"
	"github.com/HVS13/foul-play-bot/internal/search"
)

// maybeDecide answers the pending decision point if one is owed after a
// resume. The request id guard keeps an already-answered request from being
// answered again.
func (r *Runner) maybeDecide(ctx context.Context, b *battle.Battle) error {
	if b.RQID == 0 || b.Wait {
		return nil
	}
	return r.makeDecision(ctx, b)
}

// makeDecision runs the search for the current decision point, records the
// outcome and submits it, unless suggest-only mode is on.
func (r *Runner) makeDecision(ctx context.Context, b *battle.Battle) error {
	if b.RQID != 0 && b.RQID == r.lastRQID {
		r.log.Debug().Int("rqid", b.RQID).Msg("Decision already submitted for this request")
		return nil
	}

	start := time.Now()
	choice, policy, err := r.decider.FindBestMove(ctx, b)
	if err != nil {
		return fmt.Errorf("bot: deciding turn %d: %w", b.Turn, err)
	}
	if r.conn.ConsumeReconnectFlag() {
		// The state the search ran on may be behind the live battle now.
		r.log.Warn().Str("battle", b.Tag).Msg("Reconnected during search, discarding result")
		return errResume
	}
	elapsedMs := int(time.Since(start).Milliseconds())

	b.RecordDecision(battle.DecisionEntry{
		Turn:         b.Turn,
		Decision:     choice,
		SearchTimeMs: elapsedMs,
		Tags:         search.Tags(choice),
		PolicyTop:    policyTop(policy),
	})
	r.log.Info().
		Str("battle", b.Tag).
		Int("turn", b.Turn).
		Str("decision", choice).
		Int("search_ms", elapsedMs).
		Msg("Decision made")

	var parts []string
	if b.TeamPreview {
		parts, err = r.teamPreviewParts(b, choice)
	} else {
		parts, err = b.FormatDecision(choice)
	}
	if err != nil {
		return err
	}

	if r.cfg.SuggestOnly {
		r.log.Info().Strs("message", parts).Msg("Suggest-only, not sending")
		return nil
	}
	if err := r.conn.SendMessage(b.Tag, parts); err != nil {
		return err
	}
	r.lastRQID = b.RQID
	return nil
}

// teamPreviewParts maps a "switch <species>" lead choice to the /team order
// message.
func (r *Runner) teamPreviewParts(b *battle.Battle, choice string) ([]string, error) {
	name, ok := strings.CutPrefix(choice, "switch ")
	if !ok {
		return nil, fmt.Errorf("bot: team preview expects a lead choice, got %q", choice)
	}
	slot := b.User.Slot(strings.TrimSpace(name))
	if slot == 0 {
		return nil, fmt.Errorf("bot: lead %q is not on our team", name)
	}
	return strings.SplitN(b.FormatTeamPreview(slot), "|", 2), nil
}

func policyTop(p search.Policy) []battle.PolicyMove {
	top := p.Top(3)
	out := make([]battle.PolicyMove, 0, len(top))
	for _, sm := range top {
		out = append(out, battle.PolicyMove{
			Move:   sm.Move,
			Weight: sm.Weight,
			Tags:   search.Tags(sm.Move),
		})
	}
	return out
}
