package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RPCOverride replaces the built-in RPC endpoints of one chain.
type RPCOverride struct {
	Primary  string
	Fallback string
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Listen       string
	CacheTTL     time.Duration
	HistoryOut   string
	PgDSN        string
	LogLevel     string
	RPCOverrides map[string]RPCOverride
}

// Load merges config file, environment variables, and flags into Config.
// Per-chain RPC overrides come from the config file or environment under the
// "rpc" key (rpc.<chain>.primary / rpc.<chain>.fallback).
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TXTRACER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":8080")
	v.SetDefault("cache-ttl", 5*time.Minute)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Listen:       v.GetString("listen"),
		CacheTTL:     v.GetDuration("cache-ttl"),
		HistoryOut:   v.GetString("history-out"),
		PgDSN:        v.GetString("pg-dsn"),
		LogLevel:     v.GetString("log-level"),
		RPCOverrides: rpcOverrides(v),
	}

	return cfg, nil
}

func rpcOverrides(v *viper.Viper) map[string]RPCOverride {
	sub := v.Sub("rpc")
	if sub == nil {
		return nil
	}

	overrides := make(map[string]RPCOverride)
	for _, key := range sub.AllKeys() {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			continue
		}
		chainID, field := parts[0], parts[1]
		override := overrides[chainID]
		switch field {
		case "primary":
			override.Primary = sub.GetString(key)
		case "fallback":
			override.Fallback = sub.GetString(key)
		default:
			continue
		}
		overrides[chainID] = override
	}
	if len(overrides) == 0 {
		return nil
	}
	return overrides
}
