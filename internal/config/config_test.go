package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rewired-gh/suimomentum/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
aggregator:
  base_url: "https://agg.test/v1"
  tokens:
    SUI: "0x2::sui::SUI"
    DEEP: "0xdeep::deep::DEEP"

trading:
  swap_amount: 2.5
  momentum_threshold: 0.03
  price_window: 10m
  interval: 15s
  pairs:
    - token_in: SUI
      token_out: USDC
    - token_in: DEEP
      token_out: SUI
  dry_run: true

wallet:
  private_key: "0x0101010101010101010101010101010101010101010101010101010101010101"

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

storage:
  max_records: 500
  db_path: "./data/test.db"

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Trading.SwapAmount != 2.5 {
		t.Errorf("Unexpected swap amount: %v", cfg.Trading.SwapAmount)
	}
	if cfg.Trading.PriceWindow != 10*time.Minute {
		t.Errorf("Unexpected price window: %v", cfg.Trading.PriceWindow)
	}
	if cfg.Trading.Interval != 15*time.Second {
		t.Errorf("Unexpected interval: %v", cfg.Trading.Interval)
	}
	if !cfg.Trading.DryRun {
		t.Error("Expected dry_run to be true")
	}
	if len(cfg.Trading.Pairs) != 2 || cfg.Trading.Pairs[1] != (models.TradingPair{TokenIn: "DEEP", TokenOut: "SUI"}) {
		t.Errorf("Unexpected pairs: %+v", cfg.Trading.Pairs)
	}
	if cfg.Aggregator.Tokens["DEEP"] != "0xdeep::deep::DEEP" {
		t.Errorf("Expected upper-case token keys, got %v", cfg.Aggregator.Tokens)
	}
	// untouched defaults survive
	if cfg.Trading.MinProfitThreshold != 0.01 {
		t.Errorf("Unexpected min profit threshold: %v", cfg.Trading.MinProfitThreshold)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	want := []string{"SUI", "USDC", "DEEP"}
	got := cfg.Symbols()
	if len(got) != len(want) {
		t.Fatalf("Symbols() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Symbols()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SUI_MOMENTUM_WALLET_PRIVATE_KEY", "envkey")
	t.Setenv("SUI_MOMENTUM_TRADING_DRY_RUN", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Trading.SwapAmount != 1.0 {
		t.Errorf("swap_amount = %v, want 1.0", cfg.Trading.SwapAmount)
	}
	if cfg.Trading.MomentumThreshold != 0.02 {
		t.Errorf("momentum_threshold = %v, want 0.02", cfg.Trading.MomentumThreshold)
	}
	if cfg.Trading.PriceWindow != 5*time.Minute {
		t.Errorf("price_window = %v, want 5m", cfg.Trading.PriceWindow)
	}
	if cfg.Trading.MaxSlippage != 0.01 {
		t.Errorf("max_slippage = %v, want 0.01", cfg.Trading.MaxSlippage)
	}
	if cfg.Trading.Interval != 30*time.Second {
		t.Errorf("interval = %v, want 30s", cfg.Trading.Interval)
	}
	if len(cfg.Trading.Pairs) != 1 || cfg.Trading.Pairs[0].String() != "SUI/USDC" {
		t.Errorf("pairs = %+v, want [SUI/USDC]", cfg.Trading.Pairs)
	}
	if cfg.Wallet.PrivateKey != "envkey" {
		t.Errorf("private_key = %q, want env override", cfg.Wallet.PrivateKey)
	}
	if !cfg.Trading.DryRun {
		t.Error("Expected env to enable dry_run")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func validConfig() *Config {
	return &Config{
		Aggregator: AggregatorConfig{
			BaseURL:    "https://agg.test",
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		Trading: TradingConfig{
			SwapAmount:         1,
			MomentumThreshold:  0.02,
			PriceWindow:        5 * time.Minute,
			MinProfitThreshold: 0.01,
			MaxSlippage:        0.01,
			Interval:           30 * time.Second,
			Pairs:              []models.TradingPair{{TokenIn: "SUI", TokenOut: "USDC"}},
		},
		Wallet:  WalletConfig{PrivateKey: "key"},
		Sui:     SuiConfig{RPCURL: "https://rpc.test", Timeout: 30 * time.Second},
		Storage: StorageConfig{MaxRecords: 100, DBPath: ":memory:"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{
			name:      "missing private key",
			mutate:    func(c *Config) { c.Wallet.PrivateKey = "" },
			wantField: "wallet.private_key",
		},
		{
			name: "missing private key in dry run",
			mutate: func(c *Config) {
				c.Wallet.PrivateKey = "  "
				c.Trading.DryRun = true
			},
			wantField: "wallet.private_key",
		},
		{
			name:      "missing telegram token when enabled",
			mutate:    func(c *Config) { c.Telegram = TelegramConfig{Enabled: true, ChatID: "1"} },
			wantField: "telegram.bot_token",
		},
		{
			name:      "zero swap amount",
			mutate:    func(c *Config) { c.Trading.SwapAmount = 0 },
			wantField: "trading.swap_amount",
		},
		{
			name:      "no pairs",
			mutate:    func(c *Config) { c.Trading.Pairs = nil },
			wantField: "trading.pairs",
		},
		{
			name: "pair swapping a token for itself",
			mutate: func(c *Config) {
				c.Trading.Pairs = []models.TradingPair{{TokenIn: "SUI", TokenOut: "SUI"}}
			},
			wantField: "trading.pairs[0]",
		},
		{
			name:      "interval below one second",
			mutate:    func(c *Config) { c.Trading.Interval = 100 * time.Millisecond },
			wantField: "trading.interval",
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantField: "logging.level",
		},
		{
			name:      "bad aggregator url",
			mutate:    func(c *Config) { c.Aggregator.BaseURL = "not a url" },
			wantField: "aggregator.base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var fatal *models.FatalConfigError
			if !errors.As(err, &fatal) {
				t.Fatalf("Validate() error = %v, want *FatalConfigError", err)
			}
			if fatal.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", fatal.Field, tt.wantField)
			}
		})
	}
}

func TestValidConfigPasses(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}
