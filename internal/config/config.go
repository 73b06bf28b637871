package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/rewired-gh/suimomentum/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Trading    TradingConfig    `mapstructure:"trading"`
	Wallet     WalletConfig     `mapstructure:"wallet"`
	Sui        SuiConfig        `mapstructure:"sui"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// AggregatorConfig holds the DEX aggregator API configuration
type AggregatorConfig struct {
	BaseURL        string            `mapstructure:"base_url" validate:"required,url"`
	APIKey         string            `mapstructure:"api_key"`
	Tokens         map[string]string `mapstructure:"tokens"` // symbol -> coin type
	Timeout        time.Duration     `mapstructure:"timeout" validate:"gte=1s"`
	MaxRetries     int               `mapstructure:"max_retries" validate:"gte=1,lte=10"`
	RetryDelayBase time.Duration     `mapstructure:"retry_delay_base" validate:"gte=0"`
}

// TradingConfig holds the decision engine parameters
type TradingConfig struct {
	SwapAmount         float64              `mapstructure:"swap_amount" validate:"gt=0"`
	MomentumThreshold  float64              `mapstructure:"momentum_threshold" validate:"gte=0"`
	PriceWindow        time.Duration        `mapstructure:"price_window" validate:"gte=1s"`
	MinProfitThreshold float64              `mapstructure:"min_profit_threshold"`
	MaxSlippage        float64              `mapstructure:"max_slippage" validate:"gte=0,lt=1"`
	Interval           time.Duration        `mapstructure:"interval" validate:"gte=1s"`
	Pairs              []models.TradingPair `mapstructure:"pairs" validate:"min=1"`
	DryRun             bool                 `mapstructure:"dry_run"`
}

// WalletConfig holds the signing key. The key is usually supplied through
// SUI_MOMENTUM_WALLET_PRIVATE_KEY rather than the config file.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

// SuiConfig holds the fullnode JSON-RPC configuration
type SuiConfig struct {
	RPCURL  string        `mapstructure:"rpc_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=1s"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base" validate:"gte=0"`
}

// StorageConfig holds the trade journal configuration
type StorageConfig struct {
	MaxRecords int    `mapstructure:"max_records" validate:"gte=1"`
	DBPath     string `mapstructure:"db_path" validate:"required"`
}

// MetricsConfig holds the status server configuration
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads configuration from file and environment variables.
// A missing file is not an error; defaults and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// SUI_MOMENTUM_TRADING_DRY_RUN overrides trading.dry_run
	v.SetEnvPrefix("SUI_MOMENTUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// viper lower-cases map keys; symbols are upper-case everywhere else
	tokens := make(map[string]string, len(cfg.Aggregator.Tokens))
	for sym, coinType := range cfg.Aggregator.Tokens {
		tokens[strings.ToUpper(sym)] = coinType
	}
	cfg.Aggregator.Tokens = tokens

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Aggregator defaults
	v.SetDefault("aggregator.base_url", "https://aggregator.example.com/v1")
	v.SetDefault("aggregator.api_key", "")
	v.SetDefault("aggregator.tokens", map[string]string{
		"SUI":  "0x2::sui::SUI",
		"USDC": "0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC",
	})
	v.SetDefault("aggregator.timeout", "10s")
	v.SetDefault("aggregator.max_retries", 3)
	v.SetDefault("aggregator.retry_delay_base", "1s")

	// Trading defaults
	v.SetDefault("trading.swap_amount", 1.0)
	v.SetDefault("trading.momentum_threshold", 0.02)
	v.SetDefault("trading.price_window", "5m")
	v.SetDefault("trading.min_profit_threshold", 0.01)
	v.SetDefault("trading.max_slippage", 0.01)
	v.SetDefault("trading.interval", "30s")
	v.SetDefault("trading.pairs", []map[string]string{{"token_in": "SUI", "token_out": "USDC"}})
	v.SetDefault("trading.dry_run", false)

	v.SetDefault("wallet.private_key", "")

	// Sui defaults
	v.SetDefault("sui.rpc_url", "https://fullnode.mainnet.sui.io:443")
	v.SetDefault("sui.timeout", "30s")

	// Telegram defaults
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.max_records", 10000)
	v.SetDefault("storage.db_path", "./data/suimomentum.db")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen_addr", ":9090")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid. Problems with the
// wallet key or any other field are returned as *models.FatalConfigError.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			return &models.FatalConfigError{Field: field, Err: fmt.Errorf("failed %q validation (%v)", fe.Tag(), fe.Value())}
		}
		return &models.FatalConfigError{Field: "config", Err: err}
	}

	for i, p := range c.Trading.Pairs {
		if err := p.Validate(); err != nil {
			return &models.FatalConfigError{Field: fmt.Sprintf("trading.pairs[%d]", i), Err: err}
		}
	}

	if strings.TrimSpace(c.Wallet.PrivateKey) == "" {
		return &models.FatalConfigError{Field: "wallet.private_key", Err: errors.New("is required")}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return &models.FatalConfigError{Field: "telegram.bot_token", Err: errors.New("is required when telegram is enabled")}
		}
		if c.Telegram.ChatID == "" {
			return &models.FatalConfigError{Field: "telegram.chat_id", Err: errors.New("is required when telegram is enabled")}
		}
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return &models.FatalConfigError{Field: "metrics.listen_addr", Err: errors.New("is required when metrics are enabled")}
	}

	return nil
}

// Symbols returns every token symbol the pairs reference, in first-seen order.
func (c *Config) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.Trading.Pairs {
		for _, s := range []string{p.TokenIn, p.TokenOut} {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
