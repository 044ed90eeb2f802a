package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"MomentumPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "momentum:\n  symbols: [BTCUSDT.P]\n"))
	require.NoError(t, err)

	assert.Equal(t, "BYBIT", cfg.Momentum.Exchange)
	assert.Equal(t, "crypto", cfg.Momentum.Screener)
	assert.Equal(t, 60*time.Second, cfg.Momentum.TickInterval)
	assert.Equal(t, 3*time.Minute, cfg.Momentum.RetryCooldown)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "csv", cfg.Store.Type)
	assert.Equal(t, "momentum_scores.csv", cfg.Store.CSVPath)
	assert.Equal(t, 24*time.Hour, cfg.Analytics.Window)
	assert.Equal(t, "@every 2m", cfg.Analytics.RefreshSchedule)

	tfs, err := cfg.WeightedTimeframes()
	require.NoError(t, err)
	require.Len(t, tfs, 8)
	assert.Equal(t, models.TF1m, tfs[0].Timeframe)
	assert.Equal(t, models.TF1d, tfs[7].Timeframe)

	weights, err := cfg.RatingWeightTable()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRatingWeights(), weights)

	require.NotNil(t, cfg.Analytics.PositiveBand)
	assert.Equal(t, models.DefaultPositiveBand(), *cfg.Analytics.PositiveBand)
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, cfg.Momentum.Symbols, "BTCUSDT.P")
	assert.Equal(t, []string{"BTCUSDT.P", "COMBOUSDT.P"}, cfg.Analytics.PlotSymbols)
}

func TestLoad_CustomTables(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
momentum:
  symbols: [A, B]
  timeframes:
    - { timeframe: 15m, weight: 0.5 }
    - { timeframe: 4h, weight: 0.25 }
  rating_weights: { STRONG_BUY: 3, BUY: 1, NEUTRAL: 0, SELL: -1, STRONG_SELL: -3 }
`))
	require.NoError(t, err)

	tfs, err := cfg.WeightedTimeframes()
	require.NoError(t, err)
	assert.Equal(t, []models.WeightedTimeframe{
		{Timeframe: models.TF15m, Weight: 0.5},
		{Timeframe: models.TF4h, Weight: 0.25},
	}, tfs)

	weights, err := cfg.RatingWeightTable()
	require.NoError(t, err)
	assert.Equal(t, 3.0, weights[models.RatingStrongBuy])
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"no symbols":         "momentum:\n  symbols: []\n",
		"unknown timeframe":  "momentum:\n  symbols: [A]\n  timeframes: [{timeframe: 3h, weight: 1}]\n",
		"duplicate tf":       "momentum:\n  symbols: [A]\n  timeframes: [{timeframe: 1h, weight: 1}, {timeframe: 1h, weight: 2}]\n",
		"missing rating":     "momentum:\n  symbols: [A]\n  rating_weights: {BUY: 1}\n",
		"bad store":          "momentum:\n  symbols: [A]\nstore:\n  type: parquet\n",
		"kafka w/o brokers":  "momentum:\n  symbols: [A]\nkafka:\n  enabled: true\n",
		"inverted band":      "momentum:\n  symbols: [A]\nanalytics:\n  positive_band: {score: {min: 1, max: 0}}\n",
		"non-positive tick":  "momentum:\n  symbols: [A]\n  tick_interval: -1s\n",
		"bad log level":      "momentum:\n  symbols: [A]\nlogger:\n  level: loud\n",
		"bad provider url":   "momentum:\n  symbols: [A]\nprovider:\n  base_url: not a url\n",
		"malformed yaml":     "momentum: [\n",
		"csv without a path": "momentum:\n  symbols: [A]\nstore:\n  csv_path: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithEnv_Overrides(t *testing.T) {
	p := writeConfig(t, "momentum:\n  symbols: [A]\n")
	t.Setenv("SYMBOLS", "X.P, Y.P,,Z.P")
	t.Setenv("STORE_TYPE", "csv")
	t.Setenv("CSV_PATH", "/tmp/scores.csv")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadWithEnv(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"X.P", "Y.P", "Z.P"}, cfg.Momentum.Symbols)
	assert.Equal(t, "/tmp/scores.csv", cfg.Store.CSVPath)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Logger.Level)
}
