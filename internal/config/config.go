// Package config layers BDP's configuration the way the teacher's
// internal/config does: environment variables over a project file over
// defaults, with a small set of bootstrap keys read before any network or
// database handle opens.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// BootstrapKeys mirrors the teacher's YamlOnlyKeys concept: settings read
// from the project file before a client has a cache directory or server
// connection to open, so they can never live behind a DB round trip.
var BootstrapKeys = map[string]bool{
	"cache-dir":  true,
	"server-url": true,
	"actor":      true,
}

// Config is the resolved view of a client's settings. Everything here can
// come from an env var, ./.bdp/config.yaml, or a default, in that priority
// order.
type Config struct {
	ServerURL      string        `mapstructure:"server-url"`
	CacheDir       string        `mapstructure:"cache-dir"`
	Actor          string        `mapstructure:"actor"`
	DatabaseURL    string        `mapstructure:"database-url"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	PullParallelism int          `mapstructure:"pull-parallelism"`
}

// Load builds a *Config by layering, highest priority first:
//  1. environment variables (BDP_SERVER_URL, BDP_CACHE_DIR, DATABASE_URL, ...)
//  2. projectDir/.bdp/config.yaml, if it exists
//  3. built-in defaults
//
// projectDir is typically the current directory; FindProjectRoot locates
// the nearest ancestor holding a .bdp directory the way the teacher's
// findBeadsRepoRoot walks up looking for .beads.
func Load(projectDir string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BDP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.BindEnv("database-url", "DATABASE_URL")

	v.SetDefault("server-url", "http://localhost:8080")
	v.SetDefault("cache-dir", defaultCacheDir())
	v.SetDefault("actor", defaultActor())
	v.SetDefault("request-timeout", 30*time.Second)
	v.SetDefault("pull-parallelism", 4)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(projectDir, ".bdp"))
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// KnownKeys is the set of `bdp config get/set` may touch, the union of
// BootstrapKeys and the handful of non-bootstrap settings (request-timeout,
// pull-parallelism) that still round-trip through the same project file.
var KnownKeys = map[string]bool{
	"cache-dir":        true,
	"server-url":       true,
	"actor":            true,
	"request-timeout":  true,
	"pull-parallelism": true,
}

func configFilePath(projectDir string) string {
	return filepath.Join(projectDir, ".bdp", "config.yaml")
}

// ReadRaw loads projectDir/.bdp/config.yaml as a plain string map, for
// `bdp config get/list` to read back exactly what's on disk (not the
// env/defaults-layered view Load returns).
func ReadRaw(projectDir string) (map[string]string, error) {
	data, err := os.ReadFile(configFilePath(projectDir))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	out := map[string]string{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Set writes key=value into projectDir/.bdp/config.yaml, creating the
// file and its parent directory if needed. It rejects keys outside
// KnownKeys so a typo doesn't silently become a no-op setting nothing
// ever reads.
func Set(projectDir, key, value string) error {
	if !KnownKeys[key] {
		return &unknownKeyError{key: key}
	}
	values, err := ReadRaw(projectDir)
	if err != nil {
		return err
	}
	values[key] = value

	if err := os.MkdirAll(filepath.Dir(configFilePath(projectDir)), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return err
	}
	return os.WriteFile(configFilePath(projectDir), data, 0o644)
}

type unknownKeyError struct{ key string }

func (e *unknownKeyError) Error() string {
	return "unknown config key: " + e.key
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "bdp")
	}
	return ".bdp-cache"
}

func defaultActor() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}

// FindProjectRoot walks up from startDir looking for a .bdp directory,
// mirroring the teacher's findBeadsRepoRoot. Returns "" if none is found
// before reaching the filesystem root.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".bdp")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
