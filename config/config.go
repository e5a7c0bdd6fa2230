package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	RoomID     string `mapstructure:"room_id"`
	Mode       string `mapstructure:"mode"`
	HostName   string `mapstructure:"host_name"`
	ViewerName string `mapstructure:"viewer_name"`
	EntryBase  string `mapstructure:"entry_base"`

	Feed       FeedConfig
	Scheduler  SchedulerConfig
	Gift       GiftConfig
	Refresh    RefreshConfig
	Generation GenerationConfig
	Cache      CacheConfig
	Redis      RedisConfig
	Social     SocialConfig
	Server     ServerConfig
	Wallet     WalletConfig
	Log        LogConfig
}

type FeedConfig struct {
	Bound int `mapstructure:"bound"`
}

// 随机间隔区间
type Interval struct {
	Min time.Duration `mapstructure:"min"`
	Max time.Duration `mapstructure:"max"`
}

// 弹幕来源权重表
type ChatSourceWeights struct {
	Secondary float64 `mapstructure:"secondary"`
	Fallback  float64 `mapstructure:"fallback"`
}

type SchedulerConfig struct {
	Entrant        Interval          `mapstructure:"entrant"`
	Chat           Interval          `mapstructure:"chat"`
	Drift          Interval          `mapstructure:"drift"`
	Reaction       Interval          `mapstructure:"reaction"`
	Gift           Interval          `mapstructure:"gift"`
	ChatWeights    ChatSourceWeights `mapstructure:"chat_weights"`
	EntrantDelta   int               `mapstructure:"entrant_delta"`
	DriftStep      int               `mapstructure:"drift_step"`
	ViewerFloor    int               `mapstructure:"viewer_floor"`
	DefaultViewers int               `mapstructure:"default_viewers"`
	ReactionChance float64           `mapstructure:"reaction_chance"`
	GiftChance     float64           `mapstructure:"gift_chance"`
}

type GiftConfig struct {
	ReactionLifetime time.Duration `mapstructure:"reaction_lifetime"`
	ReactionLanes    int           `mapstructure:"reaction_lanes"`
	MaxReactions     int           `mapstructure:"max_reactions"`
	DisplayDuration  time.Duration `mapstructure:"display_duration"`
	MaxRecent        int           `mapstructure:"max_recent"`
}

type RefreshConfig struct {
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	ProgressCadence    time.Duration `mapstructure:"progress_cadence"`
	ProgressStep       int           `mapstructure:"progress_step"`
	ProgressResetDelay time.Duration `mapstructure:"progress_reset_delay"`
	MaxChatEntries     int           `mapstructure:"max_chat_entries"`
	MaxNarrativeChars  int           `mapstructure:"max_narrative_chars"`
	NarrativeTailChars int           `mapstructure:"narrative_tail_chars"`
	ExcerptChars       int           `mapstructure:"excerpt_chars"`
	LedgerLines        int           `mapstructure:"ledger_lines"`
}

type GenerationConfig struct {
	Provider    string  `mapstructure:"provider"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	QPM         int     `mapstructure:"qpm"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SocialConfig struct {
	Backend  string `mapstructure:"backend"`
	MaxPosts int64  `mapstructure:"max_posts"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	WriteWait    time.Duration `mapstructure:"write_wait"`
	SendQueue    int           `mapstructure:"send_queue"`
}

type WalletConfig struct {
	InitialBalance int64 `mapstructure:"initial_balance"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func NewConfig() *Config {
	cfg := &Config{
		RoomID:     "21452505", // 默认房间号
		Mode:       "host",
		HostName:   "天河",
		ViewerName: "我",
		EntryBase:  "http://localhost:8090/room",
		Feed:       FeedConfig{Bound: 80},
		Scheduler: SchedulerConfig{
			Entrant:        Interval{Min: 3 * time.Second, Max: 8 * time.Second},
			Chat:           Interval{Min: 800 * time.Millisecond, Max: 2500 * time.Millisecond},
			Drift:          Interval{Min: 2 * time.Second, Max: 5 * time.Second},
			Reaction:       Interval{Min: 1 * time.Second, Max: 3 * time.Second},
			Gift:           Interval{Min: 4 * time.Second, Max: 10 * time.Second},
			ChatWeights:    ChatSourceWeights{Secondary: 0.6, Fallback: 0.4},
			EntrantDelta:   3,
			DriftStep:      25,
			ViewerFloor:    50,
			DefaultViewers: 1200,
			ReactionChance: 0.3,
			GiftChance:     0.15,
		},
		Gift: GiftConfig{
			ReactionLifetime: 2 * time.Second,
			ReactionLanes:    5,
			MaxReactions:     30,
			DisplayDuration:  4 * time.Second,
			MaxRecent:        10,
		},
		Refresh: RefreshConfig{
			RequestTimeout:     45 * time.Second,
			ProgressCadence:    300 * time.Millisecond,
			ProgressStep:       4,
			ProgressResetDelay: 800 * time.Millisecond,
			MaxChatEntries:     25,
			MaxNarrativeChars:  800,
			NarrativeTailChars: 600,
			ExcerptChars:       120,
			LedgerLines:        10,
		},
		Generation: GenerationConfig{
			Provider:    "openai",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.9,
			MaxTokens:   1200,
			QPM:         20,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Size:    64,
			TTL:     6 * time.Hour,
			Prefix:  "livesim",
		},
		Redis:  RedisConfig{Address: "localhost:6379"},
		Social: SocialConfig{Backend: "memory", MaxPosts: 50},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8090,
			PingInterval: 30 * time.Second,
			WriteWait:    10 * time.Second,
			SendQueue:    100,
		},
		Wallet: WalletConfig{InitialBalance: 1000},
		Log:    LogConfig{Level: "info", Format: "text"},
	}

	// 从环境变量读取房间号
	if envRoomID := os.Getenv("LIVESIM_ROOM_ID"); envRoomID != "" {
		cfg.RoomID = strings.TrimSpace(envRoomID)
	}
	if envBalance := os.Getenv("LIVESIM_BALANCE"); envBalance != "" {
		if balance, err := strconv.ParseInt(strings.TrimSpace(envBalance), 10, 64); err == nil {
			cfg.Wallet.InitialBalance = balance
		}
	}

	return cfg
}

// Load 读取配置文件与环境变量，未找到配置文件时使用默认值
func Load(configPath, configName string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("generation.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("generation.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("generation.model", "OPENAI_MODEL")
	_ = v.BindEnv("redis.address", "REDIS_ADDRESS")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("log.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := NewConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate 检查配置取值范围
func (c *Config) Validate() error {
	if c.Feed.Bound <= 0 {
		return fmt.Errorf("feed.bound must be positive, got %d", c.Feed.Bound)
	}
	if c.Mode != "host" && c.Mode != "watch" {
		return fmt.Errorf("mode must be host or watch, got %q", c.Mode)
	}
	w := c.Scheduler.ChatWeights
	if w.Secondary < 0 || w.Fallback < 0 || w.Secondary+w.Fallback <= 0 {
		return fmt.Errorf("scheduler.chat_weights must be non-negative with a positive sum")
	}
	for name, iv := range map[string]Interval{
		"entrant":  c.Scheduler.Entrant,
		"chat":     c.Scheduler.Chat,
		"drift":    c.Scheduler.Drift,
		"reaction": c.Scheduler.Reaction,
		"gift":     c.Scheduler.Gift,
	} {
		if iv.Min <= 0 || iv.Max < iv.Min {
			return fmt.Errorf("scheduler.%s interval invalid: [%s, %s]", name, iv.Min, iv.Max)
		}
	}
	return nil
}
