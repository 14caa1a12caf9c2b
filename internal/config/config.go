package config

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store StoreConfig `yaml:"store" mapstructure:"store"`
	DAWA  DAWAConfig  `yaml:"dawa" mapstructure:"dawa"`
	Sync  SyncConfig  `yaml:"sync" mapstructure:"sync"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver         string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	DatabaseSuffix string `yaml:"database_suffix" mapstructure:"database_suffix"`
	MaxConns       int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// DAWAConfig configures the postal-code API endpoint.
type DAWAConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// SyncConfig configures how loaded rows are written.
type SyncConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DAWA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// CONNECTION_STRING is what existing .env files carry.
	if err := v.BindEnv("store.database_url", "DAWA_STORE_DATABASE_URL", "CONNECTION_STRING"); err != nil {
		return nil, eris.Wrap(err, "config: bind database url")
	}

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_suffix", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("dawa.url", "https://api.dataforsyningen.dk/postnumre")
	v.SetDefault("dawa.timeout_secs", 60)
	v.SetDefault("dawa.user_agent", "dawa-cli/1.0")
	v.SetDefault("sync.mode", "insert")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings every database command depends on. sync.mode
// is not checked here; sync resolves it against --mode and parses the result.
func (c *Config) Validate() error {
	var missing []string
	if c.Store.DatabaseURL == "" {
		missing = append(missing, "store.database_url (DAWA_STORE_DATABASE_URL or CONNECTION_STRING)")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}

	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		return eris.Errorf("config: unsupported store driver %q (valid: postgres, sqlite)", c.Store.Driver)
	}

	if c.DAWA.TimeoutSecs <= 0 {
		return eris.Errorf("config: dawa.timeout_secs must be positive, got %d", c.DAWA.TimeoutSecs)
	}
	return nil
}

// DSN returns the database URL with DatabaseSuffix appended to the database name.
//
// Postgres URLs (postgres://host/name), key/value DSNs (dbname=name) and
// SQLite file paths (name.db) are supported.
func (s StoreConfig) DSN() (string, error) {
	if s.DatabaseSuffix == "" {
		return s.DatabaseURL, nil
	}

	if s.Driver == "sqlite" {
		return sqliteSuffix(s.DatabaseURL, s.DatabaseSuffix), nil
	}

	if strings.Contains(s.DatabaseURL, "://") {
		u, err := url.Parse(s.DatabaseURL)
		if err != nil {
			return "", eris.Wrap(err, "config: parse database url")
		}
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			return "", eris.New("config: database url has no database name to suffix")
		}
		u.Path = "/" + name + s.DatabaseSuffix
		return u.String(), nil
	}

	fields := strings.Fields(s.DatabaseURL)
	for i, f := range fields {
		if name, ok := strings.CutPrefix(f, "dbname="); ok {
			fields[i] = "dbname=" + name + s.DatabaseSuffix
			return strings.Join(fields, " "), nil
		}
	}
	return "", eris.New("config: database url has no dbname to suffix")
}

func sqliteSuffix(dsn, suffix string) string {
	path, query, hasQuery := strings.Cut(dsn, "?")
	ext := filepath.Ext(path)
	path = strings.TrimSuffix(path, ext) + suffix + ext
	if hasQuery {
		return path + "?" + query
	}
	return path
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
