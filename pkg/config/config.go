// Package config loads and validates the YAML configuration that drives a
// comparison run. The configuration names two Oracle databases, selects which
// of them acts as the primary (reference) side, and points at the Excel file
// the results should be written to.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Names of the two database configuration blocks. The primary_db selector must
// hold one of these two values; anything else falls back to DB1 with a warning.
const (
	DB1 = "oracle_db1"
	DB2 = "oracle_db2"
)

// PathDefault is the sentinel value for result_excel_path that selects an
// auto-generated output file in the working directory.
const PathDefault = "DEFAULT"

// Default retry parameters applied when a database block leaves them unset.
const (
	defaultRetryCount = 3
	defaultRetryDelay = 5
)

// fallbackSchema is used when a database block configures no schemas at all,
// so that an empty allow-list never silently widens to every schema.
const fallbackSchema = "TEST_SCHEMA"

// DBConfig holds the connection settings for one Oracle database.
// It is built once by Load and passed by value into the metadata source.
type DBConfig struct {
	User        string   `yaml:"user"`         // Connection user
	Password    string   `yaml:"password"`     // Connection password
	Host        string   `yaml:"host"`         // Database host
	Port        int      `yaml:"port"`         // Listener port
	ServiceName string   `yaml:"service_name"` // Oracle service name
	Label       string   `yaml:"label"`        // Human-readable label used in logs; defaults to the user
	Schemas     []string `yaml:"schemas"`      // Schemas to include; upper-cased, defaults to TEST_SCHEMA
	RetryCount  int      `yaml:"retry_count"`  // Connection attempts before giving up
	RetryDelay  int      `yaml:"retry_delay"`  // Seconds to wait between attempts
}

// Config is the top-level configuration document for one comparison run.
type Config struct {
	PrimaryDB       string   `yaml:"primary_db"`        // Which block is the reference side: oracle_db1 or oracle_db2
	OracleDB1       DBConfig `yaml:"oracle_db1"`        // First database block
	OracleDB2       DBConfig `yaml:"oracle_db2"`        // Second database block
	ResultExcelPath string   `yaml:"result_excel_path"` // Output path, or DEFAULT for an auto-generated name
}

// Load reads the configuration file at path, parses it and validates it.
// Defaults (label, schemas, retry parameters) are applied here so that every
// DBConfig handed to the rest of the pipeline is complete.
//
// Returns an error for a missing file, malformed YAML, or missing required
// connection settings. All of these are fatal to the run.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.OracleDB1.normalize(DB1); err != nil {
		return nil, err
	}
	if err := cfg.OracleDB2.normalize(DB2); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// normalize validates the required connection settings of one database block
// and fills in its defaults. The block name is only used in error messages.
func (db *DBConfig) normalize(name string) error {
	if db.User == "" {
		return fmt.Errorf("%s: user is required", name)
	}
	if db.Password == "" {
		return fmt.Errorf("%s: password is required", name)
	}
	if db.Host == "" {
		return fmt.Errorf("%s: host is required", name)
	}
	if db.Port == 0 {
		return fmt.Errorf("%s: port is required", name)
	}
	if db.ServiceName == "" {
		return fmt.Errorf("%s: service_name is required", name)
	}

	if db.Label == "" {
		db.Label = db.User
	}
	if len(db.Schemas) == 0 {
		db.Schemas = []string{fallbackSchema}
	}
	for i, s := range db.Schemas {
		db.Schemas[i] = strings.ToUpper(s)
	}
	if db.RetryCount <= 0 {
		db.RetryCount = defaultRetryCount
	}
	if db.RetryDelay <= 0 {
		db.RetryDelay = defaultRetryDelay
	}
	return nil
}

// Roles resolves the primary_db selector into a (primary, secondary) pair of
// database configurations. The primary is always reported as DB1 in the
// comparison output regardless of which block it came from.
//
// An unrecognized selector logs a warning and falls back to oracle_db1.
func (c *Config) Roles(log *slog.Logger) (primary, secondary DBConfig) {
	role := c.PrimaryDB
	if role == "" {
		role = DB1
	}
	if role != DB1 && role != DB2 {
		log.Warn("invalid primary_db in config, defaulting", "primary_db", c.PrimaryDB, "default", DB1)
		role = DB1
	}

	if role == DB2 {
		return c.OracleDB2, c.OracleDB1
	}
	return c.OracleDB1, c.OracleDB2
}
