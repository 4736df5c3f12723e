package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/HVS13/foul-play-bot/internal/battle"
	"github.com/HVS13/foul-play-bot/internal/protocol"
)

// ErrResumeReconstruction is returned when the room backlog received after
// a rejoin cannot be replayed into a usable battle state.
var ErrResumeReconstruction = errors.New("bot: could not reconstruct battle state from backlog")

// finishedBattle captures the outcome when the backlog shows the battle
// already ended while we were away.
type finishedBattle struct {
	winner string
	reason string
}

// resumeKnownBattle reattaches to a battle by tag from a cold start, plays
// it to the end and records the outcome.
func (r *Runner) resumeKnownBattle(ctx context.Context, tag string) (string, error) {
	if err := r.tags.Save(ctx, tag); err != nil {
		r.log.Warn().Err(err).Msg("Could not persist battle tag")
	}
	b, fin, err := r.resumeState(ctx, tag)
	if err != nil {
		return "", err
	}
	if fin != nil {
		r.log.Info().Str("battle", tag).Str("winner", fin.winner).Msg("Battle was already over")
		if err := r.tags.Clear(ctx); err != nil {
			r.log.Warn().Err(err).Msg("Could not clear persisted battle tag")
		}
		return fin.winner, nil
	}
	r.lastRQID = 0
	winner, err := r.playUntilDone(ctx, b, true)
	if err != nil {
		return "", err
	}
	if err := r.finishBattle(ctx, b, winner); err != nil {
		return "", err
	}
	return winner, nil
}

// resumeState rejoins the battle room and rebuilds a coherent session from
// the replayed backlog. It buffers messages until either an end-of-battle
// event arrives, or both player identities and a request are known, then
// replays the buffer in arrival order. A nil battle with a non-nil
// finishedBattle means the battle ended while disconnected.
func (r *Runner) resumeState(ctx context.Context, tag string) (*battle.Battle, *finishedBattle, error) {
	if err := r.conn.JoinRoom(tag); err != nil {
		return nil, nil, err
	}

	var backlog []protocol.Message
	players := map[string]string{}
	species := map[string]bool{}
	requestSeen := false
	for {
		raw, err := r.conn.ReceiveMessage(ctx)
		if err != nil {
			return nil, nil, err
		}
		m := protocol.Parse(raw)
		if m.Room != "" && m.Room != tag {
			continue
		}
		if protocol.IndicatesBattleEnd(tag, m) {
			fin := &finishedBattle{
				winner: protocol.ExtractWinner(m),
				reason: protocol.ExtractWinReason(m),
			}
			return nil, fin, nil
		}
		backlog = append(backlog, m)
		protocol.CollectPlayers(m, players)
		protocol.CollectKnownSpecies(m, species)
		if protocol.ExtractRequest(m) != "" {
			requestSeen = true
		}
		if requestSeen && len(players) >= 2 {
			break
		}
	}

	b := battle.New(tag, r.cfg.Format)
	for _, m := range backlog {
		b.ObservePlayers(m)
	}
	if err := b.ResolveSides(r.conn.UserID()); err != nil {
		return nil, nil, err
	}
	if !b.SidesResolved() {
		return nil, nil, fmt.Errorf("%w: player identities missing from backlog", ErrResumeReconstruction)
	}
	for _, m := range backlog {
		if _, err := b.Apply(m); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrResumeReconstruction, err)
		}
		b.UpdateTendencies(m)
	}
	if b.RQID == 0 {
		return nil, nil, fmt.Errorf("%w: no actionable request in backlog", ErrResumeReconstruction)
	}
	if !b.TeamPreview {
		b.Phase = battle.PhaseInProgress
	}
	// The server drops the timer for a vacated seat; re-arm it.
	if r.cfg.BattleTimer != "none" {
		if err := r.conn.StartTimer(tag, r.cfg.BattleTimer); err != nil {
			r.log.Warn().Err(err).Msg("Could not re-arm battle timer")
		}
	}
	r.log.Info().
		Str("battle", tag).
		Int("turn", b.Turn).
		Int("rqid", b.RQID).
		Int("backlog", len(backlog)).
		Int("species", len(species)).
		Msg("Battle state rebuilt from backlog")
	return b, nil, nil
}
