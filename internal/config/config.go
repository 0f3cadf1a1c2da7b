package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from environment variables
// and an optional YAML file named by RECALL_CONFIG.
type Config struct {
	Env               string        `mapstructure:"app_env"`
	LogLevel          string        `mapstructure:"log_level"`
	HTTPPort          int           `mapstructure:"http_port"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	APIToken          string        `mapstructure:"api_token"`

	DataBackend string `mapstructure:"data_backend"`

	DatabaseDriver    string        `mapstructure:"database_driver"`
	DatabaseURL       string        `mapstructure:"database_url"`
	DBMaxOpenConns    int           `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int           `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `mapstructure:"db_conn_max_lifetime"`
	DBConnMaxIdleTime time.Duration `mapstructure:"db_conn_max_idle_time"`

	SupabaseURL string `mapstructure:"supabase_url"`
	SupabaseKey string `mapstructure:"supabase_sk"`

	BusinessName     string   `mapstructure:"business_name"`
	BusinessHours    string   `mapstructure:"business_hours"`
	BusinessPhone    string   `mapstructure:"business_phone"`
	BusinessStart    int      `mapstructure:"business_start_hour"`
	BusinessEnd      int      `mapstructure:"business_end_hour"`
	BusinessDays     []string `mapstructure:"business_days"`
	BusinessTimezone string   `mapstructure:"business_timezone"`

	CalendarBackend       string        `mapstructure:"calendar_backend"`
	CalendarID            string        `mapstructure:"calendar_id"`
	GoogleCredentialsFile string        `mapstructure:"google_credentials_file"`
	MeetingDuration       int           `mapstructure:"default_meeting_duration"`
	CalendarCacheTTL      time.Duration `mapstructure:"calendar_cache_ttl"`

	AnthropicKey        string  `mapstructure:"anthropic_api_key"`
	LLMDisabled         bool    `mapstructure:"llm_disabled"`
	LLMModel            string  `mapstructure:"llm_model"`
	LLMMaxTokens        int     `mapstructure:"llm_max_tokens"`
	LLMMaxToolRounds    int     `mapstructure:"llm_max_tool_rounds"`
	InboundTemperature  float64 `mapstructure:"inbound_temperature"`
	OutboundTemperature float64 `mapstructure:"outbound_temperature"`

	LiveKitURL        string        `mapstructure:"livekit_url"`
	LiveKitAPIKey     string        `mapstructure:"livekit_api_key"`
	LiveKitAPISecret  string        `mapstructure:"livekit_api_secret"`
	OutboundTrunkID   string        `mapstructure:"outbound_sip_trunk_id"`
	CallerID          string        `mapstructure:"twilio_caller_id"`
	OutboundAgentName string        `mapstructure:"outbound_agent_name"`
	DialTimeout       time.Duration `mapstructure:"dial_timeout"`
}

// ConfigFileEnv names the environment variable pointing at an optional YAML file.
const ConfigFileEnv = "RECALL_CONFIG"

var defaults = map[string]any{
	"app_env":             "development",
	"log_level":           "",
	"http_port":           8080,
	"shutdown_timeout":    10 * time.Second,
	"read_header_timeout": 5 * time.Second,
	"api_token":           "",

	"data_backend": "memory",

	"database_driver":       "",
	"database_url":          "",
	"db_max_open_conns":     10,
	"db_max_idle_conns":     5,
	"db_conn_max_lifetime":  time.Hour,
	"db_conn_max_idle_time": 30 * time.Minute,

	"supabase_url": "",
	"supabase_sk":  "",

	"business_name":       "Your Business",
	"business_hours":      "Mon-Fri 9AM-5PM",
	"business_phone":      "+1234567890",
	"business_start_hour": 9,
	"business_end_hour":   17,
	"business_days":       "mon,tue,wed,thu,fri",
	"business_timezone":   "America/New_York",

	"calendar_backend":         "memory",
	"calendar_id":              "primary",
	"google_credentials_file":  "credentials.json",
	"default_meeting_duration": 60,
	"calendar_cache_ttl":       30 * time.Second,

	"anthropic_api_key":    "",
	"llm_disabled":         false,
	"llm_model":            "claude-sonnet-4-20250514",
	"llm_max_tokens":       1024,
	"llm_max_tool_rounds":  8,
	"inbound_temperature":  0.6,
	"outbound_temperature": 0.3,

	"livekit_url":           "",
	"livekit_api_key":       "",
	"livekit_api_secret":    "",
	"outbound_sip_trunk_id": "",
	"twilio_caller_id":      "",
	"outbound_agent_name":   "outbound-caller",
	"dial_timeout":          60 * time.Second,
}

// Load reads configuration values from the environment, applying defaults where necessary.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	switch c.DataBackend {
	case "memory":
		// no-op
	case "postgres":
		if c.DatabaseDriver == "" {
			c.DatabaseDriver = "pgx"
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	case "sqlite":
		if c.DatabaseDriver == "" {
			c.DatabaseDriver = "sqlite"
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_BACKEND=sqlite")
		}
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SK are required when DATA_BACKEND=supabase")
		}
		if c.DatabaseURL != "" && c.DatabaseDriver == "" {
			c.DatabaseDriver = "pgx"
		}
	default:
		return fmt.Errorf("unknown DATA_BACKEND value: %s", c.DataBackend)
	}

	switch c.CalendarBackend {
	case "google", "memory", "none":
	default:
		return fmt.Errorf("unknown CALENDAR_BACKEND value: %s", c.CalendarBackend)
	}

	if c.BusinessStart < 0 || c.BusinessEnd > 24 || c.BusinessStart >= c.BusinessEnd {
		return fmt.Errorf("invalid business hours: %d-%d", c.BusinessStart, c.BusinessEnd)
	}
	if c.MeetingDuration <= 0 {
		return fmt.Errorf("DEFAULT_MEETING_DURATION must be positive, got %d", c.MeetingDuration)
	}
	if _, err := time.LoadLocation(c.BusinessTimezone); err != nil {
		return fmt.Errorf("unknown BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}

	days := make([]string, 0, len(c.BusinessDays))
	for _, d := range c.BusinessDays {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if len(d) > 3 {
			d = d[:3]
		}
		if _, ok := weekdays[d]; !ok {
			return fmt.Errorf("unknown weekday in BUSINESS_DAYS: %s", d)
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return fmt.Errorf("BUSINESS_DAYS must name at least one weekday")
	}
	c.BusinessDays = days

	if !c.LLMDisabled && c.AnthropicKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required unless LLM_DISABLED=true")
	}
	return nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Weekdays converts BusinessDays into time.Weekday values.
func (c Config) Weekdays() []time.Weekday {
	out := make([]time.Weekday, 0, len(c.BusinessDays))
	for _, d := range c.BusinessDays {
		if wd, ok := weekdays[d]; ok {
			out = append(out, wd)
		}
	}
	return out
}

// Location returns the business time zone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TelephonyEnabled reports whether LiveKit credentials are present.
func (c Config) TelephonyEnabled() bool {
	return c.LiveKitURL != "" && c.LiveKitAPIKey != "" && c.LiveKitAPISecret != ""
}

// MeetingLength is DEFAULT_MEETING_DURATION in minutes as a duration.
func (c Config) MeetingLength() time.Duration {
	return time.Duration(c.MeetingDuration) * time.Minute
}
