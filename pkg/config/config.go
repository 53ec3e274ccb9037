package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Inference struct {
		BaseURL         string        `yaml:"base_url"`
		APIKey          string        `yaml:"api_key"`
		Model           string        `yaml:"model"`
		AlternateModels []string      `yaml:"alternate_models"`
		Timeout         time.Duration `yaml:"timeout"`
	} `yaml:"inference"`
	Exchange struct {
		SpotBaseURL    string `yaml:"spot_base_url"`
		FuturesBaseURL string `yaml:"futures_base_url"`
		APIKey         string `yaml:"api_key"`
		Secret         string `yaml:"secret"`
	} `yaml:"exchange"`
	Policy struct {
		Mode           string   `yaml:"mode"`
		Enabled        bool     `yaml:"enabled"`
		TestMode       bool     `yaml:"test_mode"`
		AllowedSymbols []string `yaml:"allowed_symbols"`
		Risk           struct {
			MaxPositionSize    float64 `yaml:"max_position_size"`
			MaxLeverage        int     `yaml:"max_leverage"`
			StopLossPercent    float64 `yaml:"stop_loss_percent"`
			TakeProfitPercent  float64 `yaml:"take_profit_percent"`
			MaxDailyLoss       float64 `yaml:"max_daily_loss"`
			MaxDrawdownPercent float64 `yaml:"max_drawdown_percent"`
		} `yaml:"risk"`
		Derivatives struct {
			MarginType         string  `yaml:"margin_type"`
			DefaultLeverage    int     `yaml:"default_leverage"`
			MaxOpenPositions   int     `yaml:"max_open_positions"`
			MaxLossPerPosition float64 `yaml:"max_loss_per_position"`
			HedgeMode          bool    `yaml:"hedge_mode"`
		} `yaml:"derivatives"`
	} `yaml:"policy"`
	Thresholds struct {
		Overbought       float64 `yaml:"overbought"`
		Oversold         float64 `yaml:"oversold"`
		ConservativeRisk float64 `yaml:"conservative_risk"`
		BullishRisk      float64 `yaml:"bullish_risk"`
		HighVolume       float64 `yaml:"high_volume"`
	} `yaml:"thresholds"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Cache struct {
		AnalysisTTL time.Duration `yaml:"analysis_ttl"`
		Redis       struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Dashboard struct {
		SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	} `yaml:"dashboard"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Secrets are expected to arrive via the environment, not the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("INFERENCE_BASE_URL"); v != "" {
		c.Inference.BaseURL = v
	}
	if v := os.Getenv("INFERENCE_API_KEY"); v != "" {
		c.Inference.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("EXCHANGE_SECRET"); v != "" {
		c.Exchange.Secret = v
	}
	if v := os.Getenv("ALLOWED_SYMBOLS"); v != "" {
		c.Policy.AllowedSymbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Inference.BaseURL == "" {
		return fmt.Errorf("inference.base_url is required")
	}
	if c.Inference.Model == "" {
		return fmt.Errorf("inference.model is required")
	}
	if c.Policy.Mode != "spot" && c.Policy.Mode != "derivatives" {
		return fmt.Errorf("policy.mode must be 'spot' or 'derivatives', got '%s'", c.Policy.Mode)
	}
	if len(c.Policy.AllowedSymbols) == 0 {
		return fmt.Errorf("policy.allowed_symbols cannot be empty")
	}
	if c.Policy.Risk.MaxPositionSize <= 0 {
		return fmt.Errorf("policy.risk.max_position_size must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
