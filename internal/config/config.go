// Package config provides class analyser configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds class analyser configuration. The fields named directly
// after spec §6 (OutputDir..DbFilename) are the enumerated configuration
// surface; the rest is ambient/domain wiring (COMMS, mirror DB, HTTP).
type Config struct {
	// --- spec §6 configuration surface ---

	// OutputDir is where compiled classes and .meta.json files land.
	OutputDir string `envconfig:"OUTPUT_DIR"`
	// TrackLineNumbers preserves line-number mapping during compile.
	TrackLineNumbers bool `envconfig:"TRACK_LINE_NUMBERS" default:"false"`
	// ProcessResources controls whether the resource manager/sub-db is created at all.
	ProcessResources bool `envconfig:"PROCESS_RESOURCES" default:"true"`
	// AddCreatedAt is forwarded to the compiler.
	AddCreatedAt bool `envconfig:"ADD_CREATED_AT" default:"false"`
	// DbFilename is the primary Class DB path.
	DbFilename string `envconfig:"DB_FILENAME" default:"db.json"`
	// BootstrapFile lists the libraries/locales/environment checks to
	// prime on Open(), falling back to an embedded default.
	BootstrapFile string `envconfig:"CLASSANALYSER_BOOTSTRAP_FILE"`

	// --- COMMS (NATS) event bus ---

	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"classanalyser"`

	// --- query mirror (optional Postgres read replica of the JSON DB) ---

	MirrorDatabaseURL string `envconfig:"MIRROR_DATABASE_URL"`
	RunMigrations     bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath     string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// --- HTTP health / query endpoint ---

	HTTPAddr           string        `envconfig:"CLASSANALYSER_HTTP_ADDR" default:"0.0.0.0:8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// --- logging ---

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForAnalyse checks config required to run a plain analyseClasses pass.
func (c *Config) ValidateForAnalyse() error {
	if c.DbFilename == "" {
		return fmt.Errorf("%s - DB_FILENAME must not be empty", logPrefix)
	}
	return nil
}

// ValidateForServe checks required config when running the long-lived server
// (COMMS dispatcher + HTTP health + mirror).
func (c *Config) ValidateForServe() error {
	if err := c.ValidateForAnalyse(); err != nil {
		return err
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// ValidateForMirror checks required config for mirror-DB-dependent commands
// (migrate, clear, ensure-db).
func (c *Config) ValidateForMirror() error {
	if c.MirrorDatabaseURL == "" {
		return fmt.Errorf("%s - MIRROR_DATABASE_URL is required", logPrefix)
	}
	return nil
}
