// Package config resolves where the skillcheck store lives and which catalog
// values the CLI offers.
//
// Settings are layered, later layers winning:
//  1. built-in defaults
//  2. a YAML config file (--config)
//  3. a .env file in the working directory
//  4. environment variables
//  5. command-line flags (applied by the cli package)
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/skillcheck/internal/record"
	"github.com/roach88/skillcheck/internal/store"
)

// Environment variables read by ApplyEnv.
const (
	EnvDB        = "SKILLCHECK_DB"
	EnvDriver    = "SKILLCHECK_DRIVER"
	EnvListLimit = "SKILLCHECK_LIST_LIMIT"
	EnvDBHost    = "DB_HOST"
	EnvDBPort    = "DB_PORT"
	EnvDBUser    = "DB_USER"
	EnvDBPass    = "DB_PASSWORD"
	EnvDBName    = "DB_NAME"
)

// DefaultMySQLPort is used when no port is configured.
const DefaultMySQLPort = 3306

// Config is the resolved configuration.
type Config struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `yaml:"driver"`

	// DB is the SQLite file path, or a complete MySQL DSN. When empty, SQLite
	// uses DefaultDBPath and MySQL builds a DSN from the MySQL section.
	DB string `yaml:"db"`

	MySQL MySQL `yaml:"mysql"`

	// ListLimit caps list commands when --limit is not given.
	ListLimit int `yaml:"list_limit"`

	Catalog Catalog `yaml:"catalog"`
}

// MySQL holds connection settings used when no DSN is given.
type MySQL struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// Catalog lists suggested values for the catalog columns. The store accepts
// any non-empty value; the catalog only feeds help text and the catalog
// command.
type Catalog struct {
	Skills        []string `yaml:"skills"`
	Levels        []string `yaml:"levels"`
	QuestionTypes []string `yaml:"question_types"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Driver:    "sqlite",
		MySQL:     MySQL{Host: "localhost", Port: DefaultMySQLPort},
		ListLimit: record.DefaultListLimit,
		Catalog: Catalog{
			Skills: []string{
				"Communication",
				"Leadership",
				"Critical Thinking",
				"Problem Solving",
				"Teamwork",
				"Time Management",
				"Adaptability",
				"Emotional Intelligence",
				"Creativity",
				"Decision Making",
				"Conflict Resolution",
				"Negotiation",
			},
			Levels:        []string{"Beginner", "Intermediate", "Advanced"},
			QuestionTypes: []string{"Text", "Audio", "Image"},
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are not overridden. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto c. lookup is os.LookupEnv in
// production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, v)
		}
		*dst = n
		return nil
	}

	str(EnvDB, &c.DB)
	str(EnvDriver, &c.Driver)
	str(EnvDBHost, &c.MySQL.Host)
	str(EnvDBUser, &c.MySQL.User)
	str(EnvDBPass, &c.MySQL.Password)
	str(EnvDBName, &c.MySQL.Name)
	if err := num(EnvDBPort, &c.MySQL.Port); err != nil {
		return err
	}
	if err := num(EnvListLimit, &c.ListLimit); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks the driver name and numeric settings.
func (c Config) Validate() error {
	if _, err := store.ParseDriver(c.Driver); err != nil {
		return err
	}
	if c.MySQL.Port < 0 || c.MySQL.Port > 65535 {
		return fmt.Errorf("mysql port %d out of range", c.MySQL.Port)
	}
	if c.ListLimit < 0 {
		return fmt.Errorf("list_limit must not be negative, got %d", c.ListLimit)
	}
	return nil
}

// StoreOptions resolves the driver and DSN to open.
//
// For SQLite with no DB set, the parent directory of DefaultDBPath is
// created. For MySQL with no DB set, a DSN is built from the MySQL section
// and a database name is required.
func (c Config) StoreOptions() (store.Options, error) {
	driver, err := store.ParseDriver(c.Driver)
	if err != nil {
		return store.Options{}, err
	}

	opts := store.Options{Driver: driver, DSN: c.DB}
	if opts.DSN != "" {
		return opts, nil
	}

	switch driver {
	case store.DriverMySQL:
		if c.MySQL.Name == "" {
			return store.Options{}, fmt.Errorf("mysql: no database name (set %s or mysql.name)", EnvDBName)
		}
		host := c.MySQL.Host
		if host == "" {
			host = "localhost"
		}
		port := c.MySQL.Port
		if port == 0 {
			port = DefaultMySQLPort
		}
		opts.DSN = store.MySQLDSN(host, port, c.MySQL.User, c.MySQL.Password, c.MySQL.Name)
	default:
		p, err := DefaultDBPath()
		if err != nil {
			return store.Options{}, err
		}
		opts.DSN = p
	}
	return opts, nil
}

// DefaultDBPath resolves the SQLite file path when none is configured:
// $XDG_DATA_HOME/skillcheck/skillcheck.db, falling back to
// ~/.local/share/skillcheck/skillcheck.db. The parent directory is created.
func DefaultDBPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "skillcheck", "skillcheck.db")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return p, nil
}
