package summary

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSink records battle summaries in a local sqlite database, one row
// per battle with the decision log stored as JSON.
type SQLiteSink struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS battles (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	battle_tag      TEXT NOT NULL,
	format          TEXT NOT NULL,
	winner          TEXT,
	win_reason      TEXT,
	turns           INTEGER NOT NULL,
	decision_count  INTEGER NOT NULL,
	search_total_ms INTEGER,
	search_avg_ms   REAL,
	search_max_ms   INTEGER,
	reconnects      INTEGER NOT NULL,
	tendencies      TEXT,
	decision_log    TEXT,
	duration_sec    INTEGER,
	recorded_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_battles_tag ON battles(battle_tag);
`

// NewSQLiteSink opens the database and ensures the schema exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("summary: open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("summary: create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Write(rec Record) error {
	tendencies, err := json.Marshal(rec.Tendencies)
	if err != nil {
		return fmt.Errorf("summary: marshal tendencies: %w", err)
	}
	decisionLog, err := json.Marshal(rec.DecisionLog)
	if err != nil {
		return fmt.Errorf("summary: marshal decision log: %w", err)
	}

	var totalMs, maxMs sql.NullInt64
	var avgMs sql.NullFloat64
	if rec.SearchTimes != nil {
		totalMs = sql.NullInt64{Int64: int64(rec.SearchTimes.TotalMs), Valid: true}
		avgMs = sql.NullFloat64{Float64: rec.SearchTimes.AvgMs, Valid: true}
		maxMs = sql.NullInt64{Int64: int64(rec.SearchTimes.MaxMs), Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO battles (
			battle_tag, format, winner, win_reason, turns, decision_count,
			search_total_ms, search_avg_ms, search_max_ms, reconnects,
			tendencies, decision_log, duration_sec, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BattleTag, rec.Format, rec.Winner, rec.WinReason, rec.Turns,
		rec.DecisionCount, totalMs, avgMs, maxMs, rec.ReconnectCount,
		string(tendencies), string(decisionLog), rec.DurationSeconds,
		rec.TimestampUTC,
	)
	if err != nil {
		return fmt.Errorf("summary: insert record: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
