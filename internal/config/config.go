// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/packdex/packdex-server/internal/domain"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Catalog  CatalogConfig
	Resolver ResolverConfig
	Registry RegistryConfig
	Server   ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// Storage drivers for tenant configuration.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// DataConfig holds persistent storage configuration.
type DataConfig struct {
	BasePath string
	Driver   string // badger (default) or sqlite
}

// CatalogConfig says where packs are loaded from.
type CatalogConfig struct {
	// BuiltinManifest is the built-in catalog file. Empty starts with an empty built-in pack.
	BuiltinManifest string
	// PacksPath is the directory of community pack manifests (default: {data}/packs).
	PacksPath string
	BuiltinID string
}

// ResolverConfig holds fuzzy search thresholds and budgets.
type ResolverConfig struct {
	AcceptanceFloor float64       // (0, 100] (default: 65)
	MaxQueryRunes   int           // default: 128
	ItemBudget      int           // records scanned per search, 0 = unlimited
	TimeBudget      time.Duration // default: 2s, 0 = none
	Workers         int           // default: 4
	DefaultPageSize int           // default: 25
	MaxPageSize     int           // default: 100
}

// RegistryConfig holds per-tenant pack limits.
type RegistryConfig struct {
	MaxPacks int // community packs per tenant (default: 20)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	RateLimit    int           // find requests per tenant per minute, 0 disables (default: 120)
	CORSOrigins  []string
}

// LoadConfig loads configuration from the process flags and environment.
func LoadConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for persistent data")
	storeDriver := fs.String("store-driver", "", "Tenant store driver (badger, sqlite)")

	builtinManifest := fs.String("builtin-manifest", "", "Path to the built-in catalog manifest")
	packsPath := fs.String("packs-path", "", "Directory of community pack manifests")
	builtinID := fs.String("builtin-pack-id", "", "Pack id of the built-in catalog (default: anilist)")

	floor := fs.String("acceptance-floor", "", "Minimum fuzzy similarity, above 0 and at most 100 (default: 65)")
	timeBudget := fs.String("time-budget", "", "Fuzzy search time budget (default: 2s)")
	maxPacks := fs.String("max-packs", "", "Community packs per tenant (default: 20)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Driver:   getConfigValue(*storeDriver, "STORE_DRIVER", DriverBadger),
		},
		Catalog: CatalogConfig{
			BuiltinManifest: getConfigValue(*builtinManifest, "BUILTIN_MANIFEST", ""),
			PacksPath:       getConfigValue(*packsPath, "PACKS_PATH", ""),
			BuiltinID:       getConfigValue(*builtinID, "BUILTIN_PACK_ID", domain.DefaultBuiltinPackID),
		},
		Resolver: ResolverConfig{
			MaxQueryRunes:   getIntConfigValue("", "RESOLVER_MAX_QUERY_RUNES", 128),
			ItemBudget:      getIntConfigValue("", "RESOLVER_ITEM_BUDGET", 0),
			Workers:         getIntConfigValue("", "RESOLVER_WORKERS", 4),
			DefaultPageSize: getIntConfigValue("", "RESOLVER_DEFAULT_PAGE_SIZE", 25),
			MaxPageSize:     getIntConfigValue("", "RESOLVER_MAX_PAGE_SIZE", 100),
		},
		Registry: RegistryConfig{
			MaxPacks: getIntConfigValue(*maxPacks, "MAX_PACKS_PER_TENANT", 20),
		},
		Server: ServerConfig{
			Name:        getConfigValue("", "SERVER_NAME", "Packdex Server"),
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			RateLimit:   getIntConfigValue("", "FIND_RATE_PER_MINUTE", 120),
			CORSOrigins: getListConfigValue("", "CORS_ORIGINS", []string{"*"}),
		},
	}

	floorStr := getConfigValue(*floor, "RESOLVER_ACCEPTANCE_FLOOR", "65")
	floorValue, err := strconv.ParseFloat(floorStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid acceptance floor %q: %w", floorStr, err)
	}
	cfg.Resolver.AcceptanceFloor = floorValue

	durations := []struct {
		flag, env, def string
		dest           *time.Duration
		name           string
	}{
		{*timeBudget, "RESOLVER_TIME_BUDGET", "2s", &cfg.Resolver.TimeBudget, "time budget"},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout, "read timeout"},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout, "write timeout"},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout, "idle timeout"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.env, d.def)
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dest = v
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}
	if c.Data.Driver != DriverBadger && c.Data.Driver != DriverSQLite {
		return fmt.Errorf("invalid store driver: %s (must be badger or sqlite)", c.Data.Driver)
	}

	if !domain.ValidPackID(c.Catalog.BuiltinID) {
		return fmt.Errorf("invalid built-in pack id: %q", c.Catalog.BuiltinID)
	}

	r := c.Resolver
	if r.AcceptanceFloor <= 0 || r.AcceptanceFloor > 100 {
		return fmt.Errorf("acceptance floor must be in (0, 100], got %v", r.AcceptanceFloor)
	}
	if r.MaxQueryRunes < 1 {
		return fmt.Errorf("max query runes must be positive, got %d", r.MaxQueryRunes)
	}
	if r.ItemBudget < 0 {
		return fmt.Errorf("item budget cannot be negative, got %d", r.ItemBudget)
	}
	if r.TimeBudget < 0 {
		return fmt.Errorf("time budget cannot be negative, got %s", r.TimeBudget)
	}
	if r.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", r.Workers)
	}
	if r.DefaultPageSize < 1 || r.MaxPageSize < r.DefaultPageSize {
		return fmt.Errorf("page sizes must satisfy 1 <= default (%d) <= max (%d)", r.DefaultPageSize, r.MaxPageSize)
	}

	if c.Registry.MaxPacks < 0 {
		return fmt.Errorf("max packs cannot be negative, got %d", c.Registry.MaxPacks)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative, got %d", c.Server.RateLimit)
	}

	return nil
}

// expandPaths resolves ~ and relative paths, then fills path defaults.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	base, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "Packdex", "data"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	c.Data.BasePath = base

	packs, err := expandPath(c.Catalog.PacksPath, filepath.Join(base, "packs"))
	if err != nil {
		return fmt.Errorf("invalid packs path: %w", err)
	}
	c.Catalog.PacksPath = packs

	// Empty is allowed for the built-in manifest.
	if c.Catalog.BuiltinManifest != "" {
		builtin, err := expandPath(c.Catalog.BuiltinManifest, "")
		if err != nil {
			return fmt.Errorf("invalid built-in manifest path: %w", err)
		}
		c.Catalog.BuiltinManifest = builtin
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
// Unparseable values fall back to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// getListConfigValue splits a comma-separated value, dropping empty items.
func getListConfigValue(flagValue, envKey string, defaultValue []string) []string {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for item := range strings.SplitSeq(strValue, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
