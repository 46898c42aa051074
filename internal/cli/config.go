package cli

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pthm/safesql"
)

const (
	maxWalkDepth = 25
)

// Supported values for the driver setting.
const (
	DriverPgx       = "pgx"
	DriverPgxStdlib = "pgx-stdlib"
	DriverPostgres  = "postgres"
)

// Config represents the safesql configuration from safesql.yaml.
type Config struct {
	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Driver selects how statements reach Postgres: a pgx pool, or
	// database/sql over pgx or lib/pq.
	Driver string `mapstructure:"driver"`

	// Allow-lists. Tables are comma-separated, queries semicolon-separated.
	AllowedTables  string `mapstructure:"allowed_tables"`
	AllowedQueries string `mapstructure:"allowed_queries"`

	// ExposeRaw grants raw statement access.
	ExposeRaw bool `mapstructure:"expose_raw"`

	Debug  DebugConfig  `mapstructure:"debug"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Doctor DoctorConfig `mapstructure:"doctor"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DebugConfig holds diagnostic output settings.
type DebugConfig struct {
	SQL     bool `mapstructure:"sql"`
	Runtime bool `mapstructure:"runtime"`
}

// CacheConfig holds read cache settings.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// DoctorConfig holds doctor command settings.
type DoctorConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("SAFESQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, configPath, err
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")

	v.SetDefault("driver", DriverPgx)

	// Allow-list defaults: every public table, no raw statements
	v.SetDefault("allowed_tables", safesql.AllowPublic)
	v.SetDefault("allowed_queries", "")
	v.SetDefault("expose_raw", false)

	v.SetDefault("debug.sql", false)
	v.SetDefault("debug.runtime", false)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", time.Duration(0))

	v.SetDefault("doctor.verbose", false)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for safesql.yaml or safesql.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Auto-discovery: walk up to .git or maxWalkDepth
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"safesql.yaml", "safesql.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Check for repo boundary (.git file or directory)
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// Validate checks settings that cannot be checked by type alone.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverPgx, DriverPgxStdlib, DriverPostgres:
	default:
		return fmt.Errorf("driver must be one of %s, %s, %s (got %q)", DriverPgx, DriverPgxStdlib, DriverPostgres, c.Driver)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// DatabaseName returns the configured database name, reading it from the URL
// when only database.url is set.
func (c *Config) DatabaseName() string {
	if c.Database.Name != "" {
		return c.Database.Name
	}
	if u, err := url.Parse(c.Database.URL); err == nil {
		return strings.TrimPrefix(u.Path, "/")
	}
	return ""
}

const redacted = "xxxxx"

// Redacted returns a copy of the configuration safe to print: the password
// field and any password in database.url are masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Database.Password != "" {
		out.Database.Password = redacted
	}
	if u, err := url.Parse(out.Database.URL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
			out.Database.URL = u.String()
		}
	}
	return &out
}

// AllowList parses the configured allow-lists.
func (c *Config) AllowList() safesql.AllowList {
	return safesql.ParseAllowList(c.AllowedTables, c.AllowedQueries)
}

// ClientOptions translates the configuration into Client options.
func (c *Config) ClientOptions(logger *slog.Logger) []safesql.Option {
	opts := []safesql.Option{
		safesql.WithAllowList(c.AllowList()),
		safesql.WithDatabase(c.DatabaseName()),
		safesql.WithLogger(logger),
	}
	if c.ExposeRaw {
		opts = append(opts, safesql.WithRawAccess(safesql.RawAccessAllow))
	}
	if c.Debug.SQL {
		opts = append(opts, safesql.WithDebugSQL())
	}
	if c.Debug.Runtime {
		opts = append(opts, safesql.WithDebugRuntime())
	}
	if c.Cache.Enabled {
		opts = append(opts, safesql.WithCache(safesql.NewCache(safesql.WithTTL(c.Cache.TTL))))
	}
	return opts
}
