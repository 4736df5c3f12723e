// Package bot runs battle sessions end to end: it obtains battles in the
// configured mode, feeds the simulator's message stream into the battle
// state, asks the search layer for decisions, and survives transport loss
// by rebuilding state from the room backlog.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/HVS13/foul-play-bot/internal/battle"
	"github.com/HVS13/foul-play-bot/internal/config"
	"github.com/HVS13/foul-play-bot/internal/logger"
	"github.com/HVS13/foul-play-bot/internal/protocol"
	"github.com/HVS13/foul-play-bot/internal/search"
	"github.com/HVS13/foul-play-bot/internal/store"
	"github.com/HVS13/foul-play-bot/internal/summary"
)

// errResume signals that the transport reconnected mid-battle and the
// session state must be rebuilt from the room backlog before continuing.
var errResume = errors.New("bot: transport reconnected, state resume needed")

// Transport is the slice of the websocket client the runner depends on.
type Transport interface {
	UserID() string
	ReceiveMessage(ctx context.Context) (string, error)
	SendMessage(room string, parts []string) error
	JoinRoom(room string) error
	LeaveBattle(ctx context.Context, battleTag string) error
	ChallengeUser(user, format string) error
	AcceptChallenge(ctx context.Context, format, room string) error
	SearchLadder(format string) error
	UploadTeam(packedTeam string) error
	SaveReplay(battleTag string) error
	StartTimer(battleTag, mode string) error
	ConsumeReconnectFlag() bool
	ReconnectCount() int
}

// Decider produces the move for the current decision point.
type Decider interface {
	FindBestMove(ctx context.Context, b *battle.Battle) (string, search.Policy, error)
}

// Runner plays battles for one account until the configured run count is
// reached.
type Runner struct {
	cfg     *config.Config
	conn    Transport
	decider Decider
	tags    store.TagStore
	sinks   []summary.Sink
	log     zerolog.Logger

	// request id of the last decision actually sent, used to keep resume
	// replay from answering the same decision point twice
	lastRQID int
}

// New wires a runner from its collaborators. sinks may be empty.
func New(cfg *config.Config, conn Transport, decider Decider, tags store.TagStore, sinks []summary.Sink) *Runner {
	return &Runner{
		cfg:     cfg,
		conn:    conn,
		decider: decider,
		tags:    tags,
		sinks:   sinks,
		log:     logger.Get().With().Str("component", "runner").Logger(),
	}
}

// Run plays battles according to the configured mode and run count. In
// resume mode it reattaches to the configured battle tag instead of
// starting a new battle.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.Mode == config.ModeResume {
		tag := r.cfg.BattleTag
		if tag == "" {
			stored, err := r.tags.Load(ctx)
			if err != nil {
				return fmt.Errorf("bot: loading persisted battle tag: %w", err)
			}
			if stored == "" {
				return errors.New("bot: resume needs -battle-tag, -battle-url or a persisted tag from a previous run")
			}
			r.log.Info().Str("battle", stored).Msg("Resuming battle tag persisted by a previous run")
			tag = stored
		}
		winner, err := r.resumeKnownBattle(ctx, tag)
		if err != nil {
			return err
		}
		r.log.Info().Str("winner", winner).Msg("Resumed battle finished")
		return nil
	}

	wins := 0
	for i := 0; i < r.cfg.RunCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.initiateBattle(ctx); err != nil {
			return fmt.Errorf("bot: initiating battle %d: %w", i+1, err)
		}
		winner, err := r.playOneBattle(ctx)
		if err != nil {
			return fmt.Errorf("bot: battle %d: %w", i+1, err)
		}
		if r.isSelf(winner) {
			wins++
		}
		r.log.Info().
			Int("battle", i+1).
			Int("of", r.cfg.RunCount).
			Str("winner", winner).
			Msg("Battle finished")
	}
	r.log.Info().Int("wins", wins).Int("battles", r.cfg.RunCount).Msg("Run complete")
	return nil
}

// initiateBattle asks the simulator for a battle in the configured mode.
// The battle room itself arrives later on the message stream.
func (r *Runner) initiateBattle(ctx context.Context) error {
	if r.cfg.RequiresTeam() {
		team, err := r.cfg.LoadTeam()
		if err != nil {
			return err
		}
		if err := r.conn.UploadTeam(team); err != nil {
			return err
		}
	}
	switch r.cfg.Mode {
	case config.ModeChallenge:
		return r.conn.ChallengeUser(r.cfg.UserToChallenge, r.cfg.Format)
	case config.ModeAccept:
		if r.cfg.RoomName != "" {
			if err := r.conn.JoinRoom(r.cfg.RoomName); err != nil {
				return err
			}
		}
		return r.conn.AcceptChallenge(ctx, r.cfg.Format, r.cfg.RoomName)
	case config.ModeLadder:
		return r.conn.SearchLadder(r.cfg.Format)
	}
	return fmt.Errorf("bot: mode %q cannot initiate a battle", r.cfg.Mode)
}

// playOneBattle waits for the battle room to open, then plays it to the end
// and records the outcome.
func (r *Runner) playOneBattle(ctx context.Context) (string, error) {
	b, err := r.awaitBattleStart(ctx)
	if err != nil {
		return "", err
	}
	r.lastRQID = 0
	winner, err := r.playUntilDone(ctx, b, false)
	if err != nil {
		return "", err
	}
	if err := r.finishBattle(ctx, b, winner); err != nil {
		return "", err
	}
	return winner, nil
}

// awaitBattleStart consumes the stream until the battle room appears,
// creates the session for it and persists the tag for crash resume.
func (r *Runner) awaitBattleStart(ctx context.Context) (*battle.Battle, error) {
	for {
		raw, err := r.conn.ReceiveMessage(ctx)
		if err != nil {
			return nil, err
		}
		m := protocol.Parse(raw)
		if !protocol.IsBattleRoom(m.Room) {
			continue
		}
		b := battle.New(m.Room, r.cfg.Format)
		r.log.Info().Str("battle", b.Tag).Msg("Battle room opened")
		if err := r.tags.Save(ctx, b.Tag); err != nil {
			r.log.Warn().Err(err).Msg("Could not persist battle tag")
		}
		if r.cfg.BattleTimer != "none" {
			if err := r.conn.StartTimer(b.Tag, r.cfg.BattleTimer); err != nil {
				return nil, err
			}
		}
		if _, err := b.Apply(m); err != nil {
			r.log.Warn().Err(err).Msg("Ignoring malformed opening message")
		}
		if err := b.ResolveSides(r.conn.UserID()); err != nil {
			return nil, err
		}
		return b, nil
	}
}

// playUntilDone runs the battle loop, transparently rebuilding session
// state from the room backlog every time the transport reconnects. When
// owed is true a decision point may already be pending from a resumed
// request and is answered before reading the stream.
func (r *Runner) playUntilDone(ctx context.Context, b *battle.Battle, owed bool) (string, error) {
	var winner string
	var err error
	if owed {
		err = r.maybeDecide(ctx, b)
	}
	if err == nil {
		winner, err = r.runLoop(ctx, b)
	}
	for {
		if err == nil {
			return winner, nil
		}
		if !errors.Is(err, errResume) {
			return "", err
		}
		r.log.Warn().Str("battle", b.Tag).Msg("Reconnected mid-battle, rebuilding state")
		rebuilt, fin, rerr := r.resumeState(ctx, b.Tag)
		if rerr != nil {
			return "", rerr
		}
		if fin != nil {
			if b.WinReason == "" {
				b.WinReason = fin.reason
			}
			return fin.winner, nil
		}
		carryTelemetry(b, rebuilt)
		b = rebuilt
		if err = r.maybeDecide(ctx, b); err != nil {
			continue
		}
		winner, err = r.runLoop(ctx, b)
	}
}

// runLoop is the per-battle event loop. It returns the winner when the
// battle ends, or errResume after a mid-battle reconnect.
func (r *Runner) runLoop(ctx context.Context, b *battle.Battle) (string, error) {
	for {
		raw, err := r.conn.ReceiveMessage(ctx)
		if err != nil {
			return "", err
		}
		m := protocol.Parse(raw)
		if m.Room != "" && m.Room != b.Tag {
			continue
		}
		r.log.Debug().Str("battle", b.Tag).Stringer("event", protocol.Classify(b.Tag, m)).Msg("Message")
		if r.conn.ConsumeReconnectFlag() && !protocol.IndicatesBattleEnd(b.Tag, m) {
			return "", errResume
		}
		if b.WinReason == "" {
			if reason := protocol.ExtractWinReason(m); reason != "" {
				b.WinReason = reason
			}
		}
		b.UpdateTendencies(m)
		if protocol.IndicatesBattleEnd(b.Tag, m) {
			return protocol.ExtractWinner(m), nil
		}
		actionRequired, err := b.Apply(m)
		if err != nil {
			r.log.Warn().Err(err).Str("battle", b.Tag).Msg("Ignoring malformed message")
			continue
		}
		if !b.SidesResolved() {
			if err := b.ResolveSides(r.conn.UserID()); err != nil {
				return "", err
			}
		}
		if actionRequired && !b.Wait {
			if err := r.makeDecision(ctx, b); err != nil {
				return "", err
			}
		}
	}
}

// finishBattle closes out a decided battle: win reason, courtesy message,
// replay policy, summaries, tag cleanup and leaving the room.
func (r *Runner) finishBattle(ctx context.Context, b *battle.Battle, winner string) error {
	b.Phase = battle.PhaseFinished
	b.Winner = winner
	if b.WinReason == "" {
		if winner == "" {
			b.WinReason = "tie"
		} else {
			b.WinReason = "normal"
		}
	}
	if err := r.conn.SendMessage(b.Tag, []string{"gg"}); err != nil {
		r.log.Warn().Err(err).Msg("Could not send endgame message")
	}
	if r.shouldSaveReplay(winner) {
		if err := r.conn.SaveReplay(b.Tag); err != nil {
			r.log.Warn().Err(err).Msg("Replay save failed")
		}
	}
	rec := summary.Build(b, winner, r.conn.ReconnectCount())
	for _, sink := range r.sinks {
		if err := sink.Write(rec); err != nil {
			r.log.Warn().Err(err).Msg("Summary sink write failed")
		}
	}
	if err := r.tags.Clear(ctx); err != nil {
		r.log.Warn().Err(err).Msg("Could not clear persisted battle tag")
	}
	battleLog := logger.ForBattle(b.Tag)
	battleLog.Info().
		Str("winner", winner).
		Str("reason", b.WinReason).
		Int("turns", b.Turn).
		Msg("Battle closed out")
	return r.conn.LeaveBattle(ctx, b.Tag)
}

func (r *Runner) shouldSaveReplay(winner string) bool {
	switch r.cfg.SaveReplay {
	case config.ReplayAlways:
		return true
	case config.ReplayOnWin:
		return r.isSelf(winner)
	case config.ReplayOnLoss:
		return winner != "" && !r.isSelf(winner)
	}
	return false
}

func (r *Runner) isSelf(name string) bool {
	return name != "" && normalizeAccount(name) == normalizeAccount(r.cfg.Username)
}

func normalizeAccount(name string) string {
	var sb strings.Builder
	for _, c := range strings.ToLower(name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// carryTelemetry moves the pre-disconnect session's accumulated telemetry
// onto the rebuilt battle so the final summary covers the whole game.
// Tendency counters are not carried: the backlog replay recounts them over
// the full room history.
func carryTelemetry(old, rebuilt *battle.Battle) {
	rebuilt.StartedAt = old.StartedAt
	rebuilt.WinReason = old.WinReason
	rebuilt.DecisionCount = old.DecisionCount
	rebuilt.SearchTimesMs = old.SearchTimesMs
	rebuilt.DecisionLog = old.DecisionLog
}
