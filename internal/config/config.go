package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the settlement API.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseURL     string
	RedisURL        string
	JWTSecret       string
	ChainRPCURL     string
	TokenAddress    string
	TreasuryAddress string
	IndexerBaseURL  string
	IndexerAPIKey   string
	IndexerPageSize int
	SignersJSON     string
	SignersFile     string
	NATSURL         string
	MintActionName  string
	ReclaimCooldown time.Duration
	TokenDecimals   int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PPLP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "PPLP Settlement API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("indexer.page_size", 100)
	v.SetDefault("mint.action_name", "PPLP_REWARD_MINT")
	v.SetDefault("reclaim.cooldown", "1m")
	v.SetDefault("token.decimals", 18)

	cooldownString := v.GetString("reclaim.cooldown")
	if cooldownString == "" {
		cooldownString = "1m"
	}

	cooldown, err := time.ParseDuration(cooldownString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid reclaim cooldown: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		JWTSecret:       v.GetString("jwt.secret"),
		ChainRPCURL:     v.GetString("chain.rpc_url"),
		TokenAddress:    v.GetString("chain.token_address"),
		TreasuryAddress: v.GetString("chain.treasury_address"),
		IndexerBaseURL:  v.GetString("indexer.base_url"),
		IndexerAPIKey:   v.GetString("indexer.api_key"),
		IndexerPageSize: v.GetInt("indexer.page_size"),
		SignersJSON:     v.GetString("signers.json"),
		SignersFile:     v.GetString("signers.file"),
		NATSURL:         v.GetString("nats.url"),
		MintActionName:  v.GetString("mint.action_name"),
		ReclaimCooldown: cooldown,
		TokenDecimals:   v.GetInt("token.decimals"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.TokenDecimals < 0 || cfg.TokenDecimals > 36 {
		return Config{}, fmt.Errorf("token decimals out of range: %d", cfg.TokenDecimals)
	}

	if cfg.IndexerPageSize <= 0 {
		cfg.IndexerPageSize = 100
	}

	return cfg, nil
}
