// Package summary produces the structured end-of-battle record and writes
// it to the configured sinks.
package summary

import (
	"time"

	"github.com/HVS13/foul-play-bot/internal/battle"
)

// SearchTimes aggregates per-decision search durations.
type SearchTimes struct {
	TotalMs int     `json:"total"`
	AvgMs   float64 `json:"avg"`
	MaxMs   int     `json:"max"`
}

// Record is the structured end-of-battle record.
type Record struct {
	BattleTag       string                  `json:"battle_tag"`
	Format          string                  `json:"format"`
	Winner          string                  `json:"winner,omitempty"`
	WinReason       string                  `json:"win_reason,omitempty"`
	Turns           int                     `json:"turns"`
	DecisionCount   int                     `json:"decision_count"`
	SearchTimes     *SearchTimes            `json:"search_time_ms,omitempty"`
	ReconnectCount  int                     `json:"reconnect_count"`
	Tendencies      battle.TendencyCounters `json:"opponent_tendencies"`
	DecisionLog     []battle.DecisionEntry  `json:"decision_log,omitempty"`
	DurationSeconds int                     `json:"duration_seconds,omitempty"`
	TimestampUTC    string                  `json:"timestamp_utc"`
}

// Build assembles the record for a finished battle.
func Build(b *battle.Battle, winner string, reconnects int) Record {
	rec := Record{
		BattleTag:      b.Tag,
		Format:         b.Format,
		Winner:         winner,
		WinReason:      b.WinReason,
		Turns:          b.Turn,
		DecisionCount:  b.DecisionCount,
		ReconnectCount: reconnects,
		Tendencies:     b.Tendencies,
		DecisionLog:    b.DecisionLog,
		TimestampUTC:   time.Now().UTC().Format(time.RFC3339),
	}
	if len(b.SearchTimesMs) > 0 {
		st := &SearchTimes{}
		for _, ms := range b.SearchTimesMs {
			st.TotalMs += ms
			if ms > st.MaxMs {
				st.MaxMs = ms
			}
		}
		divisor := b.DecisionCount
		if divisor == 0 {
			divisor = len(b.SearchTimesMs)
		}
		st.AvgMs = float64(st.TotalMs) / float64(divisor)
		rec.SearchTimes = st
	}
	if !b.StartedAt.IsZero() {
		rec.DurationSeconds = int(time.Since(b.StartedAt).Seconds())
	}
	return rec
}

// Sink persists battle records.
type Sink interface {
	Write(rec Record) error
	Close() error
}
