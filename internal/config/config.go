package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	Secret         string        `mapstructure:"secret"`
	LogLevel       string        `mapstructure:"log_level"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`

	Signal SignalConfig `mapstructure:"signal"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Store  StoreConfig  `mapstructure:"store"`
	WebRTC WebRTCConfig `mapstructure:"webrtc"`
}

type SignalConfig struct {
	SendBuffer       int           `mapstructure:"send_buffer"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	RingTimeout      time.Duration `mapstructure:"ring_timeout"`
	BusyPolicy       string        `mapstructure:"busy_policy"`
	Backpressure     string        `mapstructure:"backpressure"`
	CallRateLimit    int           `mapstructure:"call_rate_limit"`
	CallRateInterval time.Duration `mapstructure:"call_rate_interval"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// CookieName holds the identity token set by the login service.
	CookieName         string `mapstructure:"cookie_name"`
	AllowQueryIdentity bool   `mapstructure:"allow_query_identity"`
}

type StoreConfig struct {
	SQLitePath     string        `mapstructure:"sqlite_path"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPrefix    string        `mapstructure:"redis_prefix"`
	PresenceTTL    time.Duration `mapstructure:"presence_ttl"`
	Workers        int           `mapstructure:"workers"`
	QueueSize      int           `mapstructure:"queue_size"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
}

type WebRTCConfig struct {
	ICEServers []ICEServer `mapstructure:"ice_servers"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls" json:"urls"`
	Username   string   `mapstructure:"username" json:"username,omitempty"`
	Credential string   `mapstructure:"credential" json:"credential,omitempty"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, defaulting to dev.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load with an explicit file. A missing file falls back to defaults.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("VOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", []string{})

	v.SetDefault("signal.send_buffer", 32)
	v.SetDefault("signal.write_timeout", "5s")
	v.SetDefault("signal.ring_timeout", "0s")
	v.SetDefault("signal.busy_policy", "reject")
	v.SetDefault("signal.backpressure", "drop")
	v.SetDefault("signal.call_rate_limit", 10)
	v.SetDefault("signal.call_rate_interval", "1m")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.cookie_name", "jwt")
	v.SetDefault("auth.allow_query_identity", false)

	v.SetDefault("store.sqlite_path", "voice.db")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_prefix", "voice:")
	v.SetDefault("store.presence_ttl", "24h")
	v.SetDefault("store.workers", 2)
	v.SetDefault("store.queue_size", 256)
	v.SetDefault("store.max_retries", 3)
	v.SetDefault("store.retry_base_delay", "200ms")
	v.SetDefault("store.retry_max_delay", "5s")

	v.SetDefault("webrtc.ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
		{"urls": []string{"stun:stun1.l.google.com:19302"}},
	})
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("secret is required for the session cookie"))
	}
	switch c.Signal.BusyPolicy {
	case "reject", "replace":
	default:
		errs = append(errs, fmt.Errorf("unknown signal.busy_policy %q", c.Signal.BusyPolicy))
	}
	switch c.Signal.Backpressure {
	case "", "drop", "kick":
	default:
		errs = append(errs, fmt.Errorf("unknown signal.backpressure %q", c.Signal.Backpressure))
	}
	if c.Auth.JWTSecret == "" && !c.Auth.AllowQueryIdentity {
		errs = append(errs, errors.New("auth.jwt_secret is required unless auth.allow_query_identity is set"))
	}
	if c.PingPeriod <= 0 {
		errs = append(errs, errors.New("ping_period must be positive"))
	}
	return errors.Join(errs...)
}
