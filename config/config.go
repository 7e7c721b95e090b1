package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug               = "debug"
	ConfigFile                = "config"
	ConfigHTTPAddr            = "http-addr"
	ConfigNatsURL             = "nats-url"
	ConfigNatsChannel         = "nats-channel"
	ConfigDefaultDepth        = "default-depth"
	ConfigDefaultThinkingTime = "default-thinking-time"
	ConfigHTTPThinkingTime    = "http-thinking-time"
	ConfigMaxThinkingTime     = "max-thinking-time"
	ConfigTTSizeMB            = "tt-size-mb"
	ConfigTTMemoryFraction    = "tt-memory-fraction"
	ConfigEvalParamsPath      = "eval-params-path"
	ConfigWorkers             = "workers"
	ConfigRateLimit           = "rate-limit"
	ConfigRateCooldown        = "rate-cooldown"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is backed by viper. Values come from, in increasing priority,
// defaults, an optional YAML file, CHESSANALYZER_* environment variables
// and command line flags.
type Config struct {
	*viper.Viper
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigHTTPAddr, ":8080")
	c.SetDefault(ConfigNatsURL, "nats://127.0.0.1:4222")
	c.SetDefault(ConfigNatsChannel, "chessanalyzer.analyze")
	c.SetDefault(ConfigDefaultDepth, 8)
	c.SetDefault(ConfigDefaultThinkingTime, 1200*time.Millisecond)
	c.SetDefault(ConfigHTTPThinkingTime, 2500*time.Millisecond)
	c.SetDefault(ConfigMaxThinkingTime, 30*time.Second)
	c.SetDefault(ConfigTTSizeMB, 32)
	c.SetDefault(ConfigTTMemoryFraction, 0.05)
	c.SetDefault(ConfigEvalParamsPath, "")
	c.SetDefault(ConfigWorkers, 4)
	c.SetDefault(ConfigRateLimit, 1000)
	c.SetDefault(ConfigRateCooldown, 10*time.Second)
}

// Load reads configuration from args and the environment. Flags in extra
// are parsed alongside the configuration flags and bound like them, so
// binaries can read their own flags back with the Get methods.
func (c *Config) Load(args []string, extra ...*pflag.FlagSet) error {
	c.Viper = viper.New()
	c.setDefaults()

	fs := pflag.NewFlagSet("chessanalyzer", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigFile, "", "optional YAML configuration file")
	fs.String(ConfigHTTPAddr, ":8080", "address for the HTTP server")
	fs.String(ConfigNatsURL, "nats://127.0.0.1:4222", "the NATS server URL")
	fs.String(ConfigNatsChannel, "chessanalyzer.analyze", "the NATS subject analysis requests arrive on")
	fs.Int(ConfigDefaultDepth, 8, "maximum search depth when a request gives none")
	fs.Duration(ConfigDefaultThinkingTime, 1200*time.Millisecond, "thinking time when a request gives none")
	fs.Duration(ConfigHTTPThinkingTime, 2500*time.Millisecond, "fixed thinking time for HTTP requests")
	fs.Duration(ConfigMaxThinkingTime, 30*time.Second, "upper bound on any requested thinking time")
	fs.Int(ConfigTTSizeMB, 32, "transposition table size per search, in MiB")
	fs.Float64(ConfigTTMemoryFraction, 0.05, "cap on the transposition table as a fraction of system memory")
	fs.String(ConfigEvalParamsPath, "", "YAML file with evaluation parameters")
	fs.Int(ConfigWorkers, 4, "number of concurrent searches")
	fs.Int(ConfigRateLimit, 1000, "requests allowed per client and endpoint within the cooldown")
	fs.Duration(ConfigRateCooldown, 10*time.Second, "rate limit window")
	for _, e := range extra {
		fs.AddFlagSet(e)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix("chessanalyzer")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if f := c.GetString(ConfigFile); f != "" {
		c.SetConfigFile(f)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if d := c.GetInt(ConfigDefaultDepth); d < 1 || d > 64 {
		return fmt.Errorf("%w: %s must be in [1, 64], got %d", ErrInvalidConfig, ConfigDefaultDepth, d)
	}
	for _, key := range []string{ConfigDefaultThinkingTime, ConfigHTTPThinkingTime, ConfigMaxThinkingTime} {
		if c.GetDuration(key) <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, key)
		}
	}
	if c.GetInt(ConfigWorkers) < 1 {
		return fmt.Errorf("%w: %s must be at least 1", ErrInvalidConfig, ConfigWorkers)
	}
	if c.GetInt(ConfigRateLimit) < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, ConfigRateLimit)
	}
	if f := c.GetFloat64(ConfigTTMemoryFraction); f < 0 || f > 1 {
		return fmt.Errorf("%w: %s must be in [0, 1]", ErrInvalidConfig, ConfigTTMemoryFraction)
	}
	return nil
}
