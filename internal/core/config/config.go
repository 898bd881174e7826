package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/studylink-app/studylink/internal/core/ranking"
)

// Config represents the top-level application config plus the resolved
// leaderboard declarations.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Ranking  RankingConfig  `koanf:"ranking"`
	Feed     FeedConfig     `koanf:"feed"`

	// Boards is populated by Load after parsing board files.
	Boards []ranking.Board `koanf:"-"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type RedisConfig struct {
	Addr        string `koanf:"addr"`
	Password    string `koanf:"password"`
	DB          int    `koanf:"db"`
	DialTimeout string `koanf:"dial_timeout"` // parsed and validated on startup
	OpTimeout   string `koanf:"op_timeout"`   // bounds every cache call
}

type RankingConfig struct {
	BoardsDir              string `koanf:"boards_dir"`
	RequireBoards          bool   `koanf:"require_boards"`
	DayBoundaryOffsetHours int    `koanf:"day_boundary_offset_hours"`
	TimezoneOffsetHours    int    `koanf:"timezone_offset_hours"`
	TrendingBoard          string `koanf:"trending_board"`
	WeeklyLearningBoard    string `koanf:"weekly_learning_board"`
}

type FeedConfig struct {
	Cap int `koanf:"cap"`
}

// DialTimeoutDuration returns the parsed redis dial timeout.
func (c RedisConfig) DialTimeoutDuration() (time.Duration, error) {
	if c.DialTimeout == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(c.DialTimeout)
}

// OpTimeoutDuration returns the parsed per-call cache timeout.
func (c RedisConfig) OpTimeoutDuration() (time.Duration, error) {
	if c.OpTimeout == "" {
		return 500 * time.Millisecond, nil
	}
	return time.ParseDuration(c.OpTimeout)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}

	if strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0")
	}
	if dial, err := c.Redis.DialTimeoutDuration(); err != nil || dial <= 0 {
		return fmt.Errorf("invalid redis.dial_timeout %q", c.Redis.DialTimeout)
	}
	if op, err := c.Redis.OpTimeoutDuration(); err != nil || op <= 0 {
		return fmt.Errorf("invalid redis.op_timeout %q", c.Redis.OpTimeout)
	}

	if strings.TrimSpace(c.Ranking.BoardsDir) == "" {
		return fmt.Errorf("ranking.boards_dir is required")
	}
	if c.Ranking.TimezoneOffsetHours < -12 || c.Ranking.TimezoneOffsetHours > 14 {
		return fmt.Errorf("invalid ranking.timezone_offset_hours %d", c.Ranking.TimezoneOffsetHours)
	}
	if c.Ranking.DayBoundaryOffsetHours < 0 || c.Ranking.DayBoundaryOffsetHours > 23 {
		return fmt.Errorf("invalid ranking.day_boundary_offset_hours %d", c.Ranking.DayBoundaryOffsetHours)
	}
	if strings.TrimSpace(c.Ranking.TrendingBoard) == "" {
		return fmt.Errorf("ranking.trending_board is required")
	}
	if strings.TrimSpace(c.Ranking.WeeklyLearningBoard) == "" {
		return fmt.Errorf("ranking.weekly_learning_board is required")
	}

	if c.Feed.Cap <= 0 {
		return fmt.Errorf("feed.cap must be > 0")
	}

	return nil
}

// Load parses config from file + env, validates it, then loads and
// validates the leaderboard declarations.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                       8080,
		"server.host":                       "0.0.0.0",
		"server.mode":                       "release",
		"database.dsn":                      "postgres://localhost:5432/studylink?sslmode=disable",
		"database.max_open_conns":           25,
		"database.max_idle_conns":           25,
		"database.auto_migrate":             true,
		"redis.addr":                        "localhost:6379",
		"redis.password":                    "",
		"redis.db":                          0,
		"redis.dial_timeout":                "5s",
		"redis.op_timeout":                  "500ms",
		"ranking.boards_dir":                "./config/boards",
		"ranking.require_boards":            true,
		"ranking.day_boundary_offset_hours": 3,
		"ranking.timezone_offset_hours":     9,
		"ranking.trending_board":            "trending-hashtags",
		"ranking.weekly_learning_board":     "weekly-learning",
		"feed.cap":                          50,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("STUDYLINK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STUDYLINK_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := ranking.NewFileSystemRepository(cfg.Ranking.BoardsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranking boards: %w", err)
	}
	boards := repo.Boards()
	if cfg.Ranking.RequireBoards && len(boards) == 0 {
		return nil, fmt.Errorf("no ranking boards found in %q", cfg.Ranking.BoardsDir)
	}

	cfg.Boards = boards

	return &cfg, nil
}
