// Package config loads the gateway's configuration from environment
// variables (optionally via a .env file), layering godotenv for local
// development with viper for env precedence and defaults. No config file
// is read.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is every environment-tunable setting the gateway reads at
// startup. Nothing here is mutable once loaded; a changed value
// requires a restart (gated config, by contrast, reloads live — see
// internal/gatedconfig).
type Config struct {
	ListenAddr string

	ChainRESTURL         string
	ChainWSURL           string
	AdminContractAddress string
	ETLBaseURL           string
	SwapBaseURL          string
	SwapAPIKey           string

	DatabaseURL  string
	OpenAIAPIKey string
	AdminAPIKey  string

	ConfigDir string
	StaticDir string

	NativeAssetTicker   string
	NativeAssetDenom    string
	NativeAssetDecimals uint8

	WSMaxConnections int

	UpstreamTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

const envPrefix = "GATEWAY"

// Load reads a .env file if present (missing is not an error), then
// layers environment variables (GATEWAY_* prefixed) and defaults via
// viper, and returns the resolved Config.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !strings.Contains(err.Error(), "no such file") {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("chain_rest_url", "http://localhost:1317")
	v.SetDefault("chain_ws_url", "ws://localhost:26657/websocket")
	v.SetDefault("admin_contract_address", "")
	v.SetDefault("etl_base_url", "http://localhost:4000")
	v.SetDefault("swap_base_url", "https://api.skip.build")
	v.SetDefault("config_dir", "./config/gated")
	v.SetDefault("static_dir", "./static")
	v.SetDefault("native_asset_ticker", "NLS")
	v.SetDefault("native_asset_denom", "unls")
	v.SetDefault("native_asset_decimals", 6)
	v.SetDefault("ws_max_connections", 2000)
	v.SetDefault("upstream_timeout_seconds", 10)
	v.SetDefault("rate_limit_rps", 20.0)
	v.SetDefault("rate_limit_burst", 40)

	// These also honor their bare (non-prefixed) names, since operators
	// commonly set them without a gateway-specific prefix.
	bindBareEnv(v, "database_url", "DATABASE_URL")
	bindBareEnv(v, "openai_api_key", "OPENAI_API_KEY")
	bindBareEnv(v, "admin_api_key", "ADMIN_API_KEY")
	bindBareEnv(v, "ws_max_connections", "WS_MAX_CONNECTIONS")
	bindBareEnv(v, "config_dir", "CONFIG_DIR")
	bindBareEnv(v, "static_dir", "STATIC_DIR")

	cfg := &Config{
		ListenAddr:           v.GetString("listen_addr"),
		ChainRESTURL:         v.GetString("chain_rest_url"),
		ChainWSURL:           v.GetString("chain_ws_url"),
		AdminContractAddress: v.GetString("admin_contract_address"),
		ETLBaseURL:           v.GetString("etl_base_url"),
		SwapBaseURL:          v.GetString("swap_base_url"),
		SwapAPIKey:           v.GetString("swap_api_key"),
		DatabaseURL:          v.GetString("database_url"),
		OpenAIAPIKey:         v.GetString("openai_api_key"),
		AdminAPIKey:          v.GetString("admin_api_key"),
		ConfigDir:            v.GetString("config_dir"),
		StaticDir:            v.GetString("static_dir"),
		NativeAssetTicker:    v.GetString("native_asset_ticker"),
		NativeAssetDenom:     v.GetString("native_asset_denom"),
		NativeAssetDecimals:  uint8(v.GetUint("native_asset_decimals")),
		WSMaxConnections:     v.GetInt("ws_max_connections"),
		UpstreamTimeout:      time.Duration(v.GetInt("upstream_timeout_seconds")) * time.Second,
		RateLimitRPS:         v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:       v.GetInt("rate_limit_burst"),
	}

	return cfg, nil
}

func bindBareEnv(v *viper.Viper, key, envVar string) {
	_ = v.BindEnv(key, envVar)
}
