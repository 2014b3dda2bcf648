package config

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Candidates  CandidatesConfig  `mapstructure:"candidates"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Background  BackgroundConfig  `mapstructure:"background_scoring"`
	DailyPicks  DailyPicksConfig  `mapstructure:"daily_picks"`
	Suggestions SuggestionsConfig `mapstructure:"daily_suggestion_limits"`
	Clients     ClientsConfig     `mapstructure:"clients"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Security    SecurityConfig    `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Hot  RedisInstanceConfig `mapstructure:"hot"`
	Warm RedisInstanceConfig `mapstructure:"warm"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		SwipeEvents string `mapstructure:"swipe_events"`
		MatchEvents string `mapstructure:"match_events"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string   `mapstructure:"jwt_secret"`
	APIKeys   []string `mapstructure:"api_keys"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CandidatesConfig governs the candidate endpoint and strategy resolution.
type CandidatesConfig struct {
	Strategy              string  `mapstructure:"strategy"` // auto | live | precomputed
	DefaultLimit          int     `mapstructure:"default_limit"`
	MaxLimit              int     `mapstructure:"max_limit"`
	DefaultMinScore       float64 `mapstructure:"default_min_score"`
	ActiveWithinDays      int     `mapstructure:"active_within_days"`
	FallbackToLiveOnError bool    `mapstructure:"fallback_to_live_on_error"`

	AutoStrategyThresholds struct {
		LiveMaxUsers int `mapstructure:"live_max_users"`
	} `mapstructure:"auto_strategy_thresholds"`
}

type ScoringConfig struct {
	DefaultWeights struct {
		Location  float64 `mapstructure:"location"`
		Age       float64 `mapstructure:"age"`
		Interests float64 `mapstructure:"interests"`
		Education float64 `mapstructure:"education"`
		Lifestyle float64 `mapstructure:"lifestyle"`
	} `mapstructure:"default_weights"`
	MinimumCompatibilityThreshold float64 `mapstructure:"minimum_compatibility_threshold"`
	ScoreCacheHours               int     `mapstructure:"score_cache_hours"`
	ChildrenMismatchPenalty       float64 `mapstructure:"children_mismatch_penalty"`
	SmokingMismatchPenalty        float64 `mapstructure:"smoking_mismatch_penalty"`
	DrinkingMismatchPenalty       float64 `mapstructure:"drinking_mismatch_penalty"`
	ReligionMismatchPenalty       float64 `mapstructure:"religion_mismatch_penalty"`
	ActivityScoreHalfLifeDays     float64 `mapstructure:"activity_score_half_life_days"`
}

type BackgroundConfig struct {
	Enabled                 bool    `mapstructure:"enabled"`
	RefreshIntervalMinutes  int     `mapstructure:"refresh_interval_minutes"`
	MaxUsersPerCycle        int     `mapstructure:"max_users_per_cycle"`
	OnlyRefreshActiveUsers  bool    `mapstructure:"only_refresh_active_users"`
	ScoreTTLHours           int     `mapstructure:"score_ttl_hours"`
	SkipRefreshWhenCPUAbove float64 `mapstructure:"skip_refresh_when_cpu_above"`
	MaxConcurrentScoring    int     `mapstructure:"max_concurrent_scoring"`
}

type DailyPicksConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	PicksPerUser      int    `mapstructure:"picks_per_user"`
	GenerationTimeUTC string `mapstructure:"generation_time_utc"` // "HH:MM"
	ExpiryHours       int    `mapstructure:"expiry_hours"`
}

type SuggestionsConfig struct {
	MaxDailySuggestions        int `mapstructure:"max_daily_suggestions"`
	PremiumMaxDailySuggestions int `mapstructure:"premium_max_daily_suggestions"`
	RefreshIntervalHours       int `mapstructure:"refresh_interval_hours"`
}

type ClientsConfig struct {
	SwipeServiceURL  string        `mapstructure:"swipe_service_url"`
	SafetyServiceURL string        `mapstructure:"safety_service_url"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled                  bool `mapstructure:"enabled"`
	RequestsPerMinute        int  `mapstructure:"requests_per_minute"`
	PremiumRequestsPerMinute int  `mapstructure:"premium_requests_per_minute"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// Store holds the live configuration snapshot. Callers read through Get on
// every use so file-watch reloads apply without a restart.
type Store struct {
	current atomic.Pointer[Config]
}

func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.current.Store(cfg)
	return s
}

func (s *Store) Get() *Config {
	return s.current.Load()
}

// Load reads configuration from file, environment and defaults, then starts
// the watcher that swaps the snapshot on change.
func Load() (*Store, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	store := NewStore(&cfg)

	viper.OnConfigChange(func(in fsnotify.Event) {
		var next Config
		if err := viper.Unmarshal(&next); err != nil {
			// Keep the previous snapshot on a bad reload
			return
		}
		store.current.Store(&next)
	})
	viper.WatchConfig()

	return store, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.hot.max_retries", 3)
	viper.SetDefault("redis.hot.pool_size", 10)
	viper.SetDefault("redis.hot.timeout", "5s")
	viper.SetDefault("redis.warm.max_retries", 3)
	viper.SetDefault("redis.warm.pool_size", 5)
	viper.SetDefault("redis.warm.timeout", "10s")

	// Kafka defaults
	viper.SetDefault("kafka.topics.swipe_events", "swipe-events")
	viper.SetDefault("kafka.topics.match_events", "match-events")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Candidate defaults
	viper.SetDefault("candidates.strategy", "auto")
	viper.SetDefault("candidates.default_limit", 20)
	viper.SetDefault("candidates.max_limit", 50)
	viper.SetDefault("candidates.default_min_score", 0.0)
	viper.SetDefault("candidates.active_within_days", 0)
	viper.SetDefault("candidates.fallback_to_live_on_error", true)
	viper.SetDefault("candidates.auto_strategy_thresholds.live_max_users", 10000)

	// Scoring defaults
	viper.SetDefault("scoring.default_weights.location", 1.0)
	viper.SetDefault("scoring.default_weights.age", 1.0)
	viper.SetDefault("scoring.default_weights.interests", 1.0)
	viper.SetDefault("scoring.default_weights.education", 0.5)
	viper.SetDefault("scoring.default_weights.lifestyle", 1.0)
	viper.SetDefault("scoring.minimum_compatibility_threshold", 0.0)
	viper.SetDefault("scoring.score_cache_hours", 24)
	viper.SetDefault("scoring.children_mismatch_penalty", 30.0)
	viper.SetDefault("scoring.smoking_mismatch_penalty", 20.0)
	viper.SetDefault("scoring.drinking_mismatch_penalty", 15.0)
	viper.SetDefault("scoring.religion_mismatch_penalty", 10.0)
	viper.SetDefault("scoring.activity_score_half_life_days", 7.0)

	// Background scoring defaults
	viper.SetDefault("background_scoring.enabled", true)
	viper.SetDefault("background_scoring.refresh_interval_minutes", 30)
	viper.SetDefault("background_scoring.max_users_per_cycle", 100)
	viper.SetDefault("background_scoring.only_refresh_active_users", true)
	viper.SetDefault("background_scoring.score_ttl_hours", 24)
	viper.SetDefault("background_scoring.skip_refresh_when_cpu_above", 80.0)
	viper.SetDefault("background_scoring.max_concurrent_scoring", 5)

	// Daily picks defaults
	viper.SetDefault("daily_picks.enabled", true)
	viper.SetDefault("daily_picks.picks_per_user", 10)
	viper.SetDefault("daily_picks.generation_time_utc", "03:00")
	viper.SetDefault("daily_picks.expiry_hours", 24)

	// Suggestion limit defaults
	viper.SetDefault("daily_suggestion_limits.max_daily_suggestions", 50)
	viper.SetDefault("daily_suggestion_limits.premium_max_daily_suggestions", 150)
	viper.SetDefault("daily_suggestion_limits.refresh_interval_hours", 24)

	// Client defaults
	viper.SetDefault("clients.request_timeout", "3s")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
	viper.SetDefault("security.rate_limit.enabled", true)
	viper.SetDefault("security.rate_limit.requests_per_minute", 120)
	viper.SetDefault("security.rate_limit.premium_requests_per_minute", 300)
}
