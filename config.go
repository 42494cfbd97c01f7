package keepsake

import (
	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const (
	// SnapshotBackendFile stores snapshots as files under SnapshotDir.
	SnapshotBackendFile = "file"
	// SnapshotBackendRedis stores snapshots as Redis values.
	SnapshotBackendRedis = "redis"
)

type WorldConfig struct {
	Namespace       string `config:"KEEPSAKE_NAMESPACE"`
	SnapshotBackend string `config:"KEEPSAKE_SNAPSHOT_BACKEND"`
	SnapshotDir     string `config:"KEEPSAKE_SNAPSHOT_DIR"`
	RedisAddress    string `config:"KEEPSAKE_REDIS_ADDRESS"`
	RedisPassword   string `config:"KEEPSAKE_REDIS_PASSWORD"`
	LogLevel        string `config:"KEEPSAKE_LOG_LEVEL"`
	LogPretty       bool   `config:"KEEPSAKE_LOG_PRETTY"`
}

func defaultWorldConfig() WorldConfig {
	return WorldConfig{
		Namespace:       "world",
		SnapshotBackend: SnapshotBackendFile,
		SnapshotDir:     ".",
		RedisAddress:    "localhost:6379",
		RedisPassword:   "",
		LogLevel:        "info",
		LogPretty:       false,
	}
}

// loadWorldConfig returns the default config overlaid with any KEEPSAKE_*
// environment variables that are set.
func loadWorldConfig() (WorldConfig, error) {
	cfg := defaultWorldConfig()
	if err := config.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to load config from environment")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg WorldConfig) Validate() error {
	switch cfg.SnapshotBackend {
	case SnapshotBackendFile, SnapshotBackendRedis:
	default:
		return eris.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid log level %q", cfg.LogLevel)
	}
	return nil
}
