package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/baharkarakas/qrpay-backend/internal/payflow"
)

// cliConfig is read from poscli.yaml and POSCLI_* environment variables.
type cliConfig struct {
	APIURL       string        `mapstructure:"api_url"`
	RPCEndpoint  string        `mapstructure:"rpc_endpoint"`
	Secret       string        `mapstructure:"secret"`
	Mint         string        `mapstructure:"mint"`
	Decimals     uint8         `mapstructure:"decimals"`
	Discount     string        `mapstructure:"discount"`
	StateDir     string        `mapstructure:"state_dir"`
	DisplayDelay time.Duration `mapstructure:"display_delay"`
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "qrpay", "poscli")
	}
	return ".poscli"
}

func loadConfig(path string) (cliConfig, error) {
	v := viper.New()
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("rpc_endpoint", "https://api.devnet.solana.com")
	v.SetDefault("secret", "")
	v.SetDefault("mint", "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU")
	v.SetDefault("decimals", 6)
	v.SetDefault("discount", payflow.DefaultDiscountRate)
	v.SetDefault("state_dir", defaultStateDir())
	v.SetDefault("display_delay", payflow.DefaultDisplayDelay)

	v.SetEnvPrefix("POSCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("poscli")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cliConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c cliConfig) flowConfig() (payflow.Config, error) {
	rate, err := decimal.NewFromString(c.Discount)
	if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return payflow.Config{}, fmt.Errorf("discount must be in [0, 1), got %q", c.Discount)
	}
	return payflow.Config{DiscountRate: rate, DisplayDelay: c.DisplayDelay}, nil
}
