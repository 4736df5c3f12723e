// Package config holds the immutable bot configuration. A Config is built
// once at startup and passed explicitly to every component; nothing reads
// ambient global state after Load returns.
package config

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
)

// BotMode selects how the bot obtains a battle.
type BotMode string

const (
	ModeChallenge BotMode = "challenge"
	ModeAccept    BotMode = "accept"
	ModeLadder    BotMode = "ladder"
	ModeResume    BotMode = "resume"
)

// RiskMode selects the move-selection posture.
type RiskMode string

const (
	RiskAuto       RiskMode = "auto"
	RiskSafe       RiskMode = "safe"
	RiskBalanced   RiskMode = "balanced"
	RiskAggressive RiskMode = "aggressive"
)

// SaveReplay selects when to request a replay save at the end of a battle.
type SaveReplay string

const (
	ReplayNever  SaveReplay = "never"
	ReplayAlways SaveReplay = "always"
	ReplayOnWin  SaveReplay = "on_win"
	ReplayOnLoss SaveReplay = "on_loss"
)

// Config holds all bot configuration.
type Config struct {
	WebsocketURI string
	LoginURI     string
	Username     string
	Password     string
	Avatar       string

	Mode            BotMode
	Format          string
	UserToChallenge string
	RoomName        string
	BattleTag       string
	TeamPath        string
	RunCount        int

	SearchTimeMs int
	Parallelism  int
	EnginePath   string
	RiskMode     RiskMode

	BattleTimer string
	SuggestOnly bool
	SaveReplay  SaveReplay

	ReconnectRetries    int
	ReconnectBackoffSec float64
	ReconnectMaxBackSec float64

	SummaryJSONLPath string
	SummarySQLite    string
	TagStorePath     string
	TagStoreRedisURL string

	LogLevel string
	LogFile  string
}

// Load parses flags with environment-variable defaults. A .env file in the
// working directory is honored before the environment is read.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("foulplay", flag.ContinueOnError)
	cfg := &Config{}

	fs.StringVar(&cfg.WebsocketURI, "websocket-uri", envOrDefault("FP_WEBSOCKET_URI", ""), "simulator websocket URI, e.g. wss://sim3.psim.us/showdown/websocket")
	fs.StringVar(&cfg.LoginURI, "login-uri", envOrDefault("FP_LOGIN_URI", "https://play.pokemonshowdown.com/api/login"), "login endpoint")
	fs.StringVar(&cfg.Username, "username", envOrDefault("FP_USERNAME", ""), "account name")
	fs.StringVar(&cfg.Password, "password", envOrDefault("FP_PASSWORD", ""), "account password")
	fs.StringVar(&cfg.Avatar, "avatar", envOrDefault("FP_AVATAR", ""), "avatar to set after login")

	mode := fs.String("mode", envOrDefault("FP_MODE", string(ModeLadder)), "bot mode: challenge, accept, ladder, resume")
	fs.StringVar(&cfg.Format, "format", envOrDefault("FP_FORMAT", ""), "battle format, e.g. gen9randombattle")
	fs.StringVar(&cfg.UserToChallenge, "user-to-challenge", "", "required for -mode challenge")
	fs.StringVar(&cfg.RoomName, "room-name", "", "room to wait in for -mode accept")
	fs.StringVar(&cfg.BattleTag, "battle-tag", "", "battle room id for -mode resume, e.g. battle-gen9ou-1234")
	fs.StringVar(&cfg.TeamPath, "team", envOrDefault("FP_TEAM", ""), "path to a packed team file, required for nonrandom formats")
	battleURL := fs.String("battle-url", "", "full battle URL to parse into a battle tag")
	fs.IntVar(&cfg.RunCount, "run-count", 1, "number of battles to run")

	fs.IntVar(&cfg.SearchTimeMs, "search-time-ms", 100, "base search time per sample in milliseconds")
	fs.IntVar(&cfg.Parallelism, "parallelism", 1, "number of engine workers")
	autoPar := fs.Bool("auto-parallelism", false, "size the worker pool from the CPU count")
	parCap := fs.Int("parallelism-cap", 8, "upper bound when -auto-parallelism is set")
	fs.StringVar(&cfg.EnginePath, "engine", envOrDefault("FP_ENGINE", ""), "path to the search engine binary")
	risk := fs.String("risk-mode", string(RiskBalanced), "move selection style: auto, safe, balanced, aggressive")

	fs.StringVar(&cfg.BattleTimer, "battle-timer", "on", "battle timer at battle start: on, off, none")
	fs.BoolVar(&cfg.SuggestOnly, "suggest-only", false, "log suggested moves instead of sending them")
	replay := fs.String("save-replay", string(ReplayNever), "when to save replays: never, always, on_win, on_loss")

	fs.IntVar(&cfg.ReconnectRetries, "reconnect-retries", 5, "max reconnect attempts after a disconnect")
	fs.Float64Var(&cfg.ReconnectBackoffSec, "reconnect-backoff", 1.0, "initial reconnect backoff in seconds")
	fs.Float64Var(&cfg.ReconnectMaxBackSec, "reconnect-max-backoff", 30.0, "max reconnect backoff in seconds")

	fs.StringVar(&cfg.SummaryJSONLPath, "summary-jsonl", envOrDefault("FP_SUMMARY_JSONL", ""), "append a JSONL summary per battle to this file")
	fs.StringVar(&cfg.SummarySQLite, "summary-sqlite", envOrDefault("FP_SUMMARY_SQLITE", ""), "record battle summaries in this sqlite database")
	fs.StringVar(&cfg.TagStorePath, "tag-store", envOrDefault("FP_TAG_STORE", "logs/last_battle_tag.txt"), "file persisting the active battle tag for crash resume")
	fs.StringVar(&cfg.TagStoreRedisURL, "tag-store-redis", envOrDefault("FP_TAG_STORE_REDIS", ""), "redis URL for the battle tag store; overrides -tag-store")

	fs.StringVar(&cfg.LogLevel, "log-level", envOrDefault("LOG_LEVEL", "info"), "zerolog level")
	fs.StringVar(&cfg.LogFile, "log-file", envOrDefault("LOG_FILE", ""), "duplicate logs to this file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Mode = BotMode(*mode)
	cfg.RiskMode = RiskMode(*risk)
	cfg.SaveReplay = SaveReplay(*replay)

	if *autoPar {
		cfg.Parallelism = autoParallelism(*parCap)
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}

	if *battleURL != "" && cfg.BattleTag == "" {
		cfg.BattleTag = BattleTagFromURL(*battleURL)
	}
	if cfg.BattleTag != "" {
		cfg.BattleTag = strings.ToLower(cfg.BattleTag)
		if !strings.HasPrefix(cfg.BattleTag, "battle-") {
			cfg.BattleTag = "battle-" + cfg.BattleTag
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.WebsocketURI == "" {
		return fmt.Errorf("config: websocket-uri is required")
	}
	if c.Username == "" {
		return fmt.Errorf("config: username is required")
	}
	if c.Format == "" {
		return fmt.Errorf("config: format is required")
	}
	if c.EnginePath == "" {
		return fmt.Errorf("config: engine binary path is required, set -engine or FP_ENGINE")
	}
	if c.Mode != ModeResume && c.RequiresTeam() && c.TeamPath == "" {
		return fmt.Errorf("config: format %q needs a team, set -team", c.Format)
	}
	switch c.Mode {
	case ModeChallenge:
		if c.UserToChallenge == "" {
			return fmt.Errorf("config: -mode challenge requires -user-to-challenge")
		}
	case ModeAccept, ModeLadder:
	case ModeResume:
		// No tag flag is fine here: the runner falls back to the tag
		// persisted by the previous process.
		c.RunCount = 1
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch c.RiskMode {
	case RiskAuto, RiskSafe, RiskBalanced, RiskAggressive:
	default:
		return fmt.Errorf("config: unknown risk mode %q", c.RiskMode)
	}
	switch c.SaveReplay {
	case ReplayNever, ReplayAlways, ReplayOnWin, ReplayOnLoss:
	default:
		return fmt.Errorf("config: unknown save-replay policy %q", c.SaveReplay)
	}
	return nil
}

// RequiresTeam reports whether the configured format needs a team upload
// before searching for a battle.
func (c *Config) RequiresTeam() bool {
	return !strings.Contains(c.Format, "random") && !strings.Contains(c.Format, "battlefactory")
}

// LoadTeam reads the packed team from TeamPath.
func (c *Config) LoadTeam() (string, error) {
	raw, err := os.ReadFile(c.TeamPath)
	if err != nil {
		return "", fmt.Errorf("config: reading team file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// BattleTagFromURL extracts the battle room id from a full battle URL.
func BattleTagFromURL(battleURL string) string {
	cleaned := battleURL
	if i := strings.IndexAny(cleaned, "#?"); i >= 0 {
		cleaned = cleaned[:i]
	}
	cleaned = strings.TrimRight(cleaned, "/")
	if i := strings.LastIndex(cleaned, "/"); i >= 0 {
		cleaned = cleaned[i+1:]
	}
	return cleaned
}

func autoParallelism(cap int) int {
	n := runtime.NumCPU()
	if n <= 1 {
		return 1
	}
	if n-1 < cap {
		return n - 1
	}
	if cap < 1 {
		return 1
	}
	return cap
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
