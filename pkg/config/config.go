package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"MomentumPull/internal/domain/models"
	"MomentumPull/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Logger      struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format     string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output     string `yaml:"output" default:"stdout" validate:"required"`
		TimeFormat string `yaml:"time_format"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
		MaxBackups int    `yaml:"max_backups" default:"5"`
	} `yaml:"logger"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Momentum struct {
		Exchange      string             `yaml:"exchange" default:"BYBIT" validate:"required"`
		Screener      string             `yaml:"screener" default:"crypto" validate:"required"`
		Symbols       []string           `yaml:"symbols" validate:"min=1,dive,required"`
		Timeframes    []TimeframeWeight  `yaml:"timeframes" validate:"dive"`
		RatingWeights map[string]float64 `yaml:"rating_weights"`
		TickInterval  time.Duration      `yaml:"tick_interval" default:"60s" validate:"gt=0"`
		RetryCooldown time.Duration      `yaml:"retry_cooldown" default:"3m" validate:"gt=0"`
		FetchTimeout  time.Duration      `yaml:"fetch_timeout" default:"10s" validate:"gt=0"`
		Workers       int                `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
	} `yaml:"momentum"`
	Provider struct {
		BaseURL   string        `yaml:"base_url" default:"https://scanner.tradingview.com" validate:"required,url"`
		Timeout   time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		RateLimit float64       `yaml:"rate_limit" default:"10" validate:"gt=0"`
		Burst     int           `yaml:"burst" default:"5" validate:"gte=1"`
		Breaker   struct {
			MaxFailures uint32        `yaml:"max_failures" default:"5" validate:"gte=1"`
			OpenTimeout time.Duration `yaml:"open_timeout" default:"60s"`
		} `yaml:"breaker"`
	} `yaml:"provider"`
	Cache struct {
		TTL     time.Duration `yaml:"ttl" default:"5m" validate:"gt=0"`
		MaxSize int           `yaml:"max_size" default:"1000" validate:"gte=1"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"momentum:rating"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Store struct {
		Type    string `yaml:"type" default:"csv" validate:"oneof=csv clickhouse"`
		CSVPath string `yaml:"csv_path" default:"momentum_scores.csv"`
		Table   string `yaml:"table" default:"momentum_scores"`
	} `yaml:"store"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"momentum"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"momentum.snapshots"`
		LogTopic     string   `yaml:"log_topic"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"500"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Analytics struct {
		Window             time.Duration `yaml:"window" default:"24h" validate:"gt=0"`
		TopN               int           `yaml:"top_n" default:"20" validate:"gte=1"`
		RefreshSchedule    string        `yaml:"refresh_schedule" default:"@every 2m" validate:"required"`
		CrossoverHalfWidth float64       `yaml:"crossover_half_width" validate:"gte=0"`
		RegimeHalfWidth    float64       `yaml:"regime_half_width" default:"0.5" validate:"gte=0"`
		PlotSymbols        []string      `yaml:"plot_symbols"`
		PositiveBand       *models.Band  `yaml:"positive_band"`
		NegativeBand       *models.Band  `yaml:"negative_band"`
	} `yaml:"analytics"`
}

// TimeframeWeight is one entry of the ordered timeframe weight table.
type TimeframeWeight struct {
	Timeframe string  `yaml:"timeframe" validate:"required"`
	Weight    float64 `yaml:"weight" validate:"gte=0"`
}

// DefaultTimeframeWeights is the weight table used when none is configured.
func DefaultTimeframeWeights() []TimeframeWeight {
	return []TimeframeWeight{
		{Timeframe: "1m", Weight: 0.1},
		{Timeframe: "5m", Weight: 0.1},
		{Timeframe: "15m", Weight: 0.2},
		{Timeframe: "30m", Weight: 0.1},
		{Timeframe: "1h", Weight: 0.2},
		{Timeframe: "2h", Weight: 0.1},
		{Timeframe: "4h", Weight: 0.2},
		{Timeframe: "1d", Weight: 0.1},
	}
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present) and YAML, then overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Momentum.Symbols = util.SplitList(v)
	}
	if v := os.Getenv("STORE_TYPE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("CSV_PATH"); v != "" {
		c.Store.CSVPath = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = strings.ToLower(v)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDomainDefaults()
	return &c, nil
}

func (c *Config) applyDomainDefaults() {
	if len(c.Momentum.Timeframes) == 0 {
		c.Momentum.Timeframes = DefaultTimeframeWeights()
	}
	if len(c.Momentum.RatingWeights) == 0 {
		c.Momentum.RatingWeights = map[string]float64{}
		for r, w := range models.DefaultRatingWeights() {
			c.Momentum.RatingWeights[string(r)] = w
		}
	}
	if c.Analytics.PositiveBand == nil {
		b := models.DefaultPositiveBand()
		c.Analytics.PositiveBand = &b
	}
	if c.Analytics.NegativeBand == nil {
		b := models.DefaultNegativeBand()
		c.Analytics.NegativeBand = &b
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.WeightedTimeframes(); err != nil {
		return err
	}
	if _, err := c.RatingWeightTable(); err != nil {
		return err
	}
	if c.Store.Type == "csv" && c.Store.CSVPath == "" {
		return fmt.Errorf("store.csv_path is required for csv store")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	for _, b := range []*models.Band{c.Analytics.PositiveBand, c.Analytics.NegativeBand} {
		if b.Score.Min > b.Score.Max || b.Change.Min > b.Change.Max {
			return fmt.Errorf("analytics band min must be <= max")
		}
	}
	return nil
}

// WeightedTimeframes converts the configured table, preserving its order.
func (c *Config) WeightedTimeframes() ([]models.WeightedTimeframe, error) {
	seen := make(map[models.Timeframe]bool, len(c.Momentum.Timeframes))
	out := make([]models.WeightedTimeframe, 0, len(c.Momentum.Timeframes))
	for _, tw := range c.Momentum.Timeframes {
		tf, err := models.ParseTimeframe(tw.Timeframe)
		if err != nil {
			return nil, fmt.Errorf("momentum.timeframes: %w", err)
		}
		if seen[tf] {
			return nil, fmt.Errorf("momentum.timeframes: duplicate %s", tf)
		}
		seen[tf] = true
		out = append(out, models.WeightedTimeframe{Timeframe: tf, Weight: tw.Weight})
	}
	return out, nil
}

// RatingWeightTable converts the configured rating weights; all five ratings are required.
func (c *Config) RatingWeightTable() (map[models.Rating]float64, error) {
	out := make(map[models.Rating]float64, len(c.Momentum.RatingWeights))
	for k, w := range c.Momentum.RatingWeights {
		r, err := models.ParseRating(k)
		if err != nil {
			return nil, fmt.Errorf("momentum.rating_weights: %w", err)
		}
		out[r] = w
	}
	for r := range models.DefaultRatingWeights() {
		if _, ok := out[r]; !ok {
			return nil, fmt.Errorf("momentum.rating_weights: missing %s", r)
		}
	}
	return out, nil
}
