// Package config resolves storage settings from an optional YAML file and the
// process environment. Environment values take precedence over the file.
//
//	HBNB_CONFIG             path to a YAML file (optional)
//	HBNB_ENV                "test" resets relational state on open
//	HBNB_TYPE_STORAGE       memory|file|db (default memory)
//	HBNB_DB_DRIVER          sqlite|postgres (default sqlite)
//	HBNB_SQLITE_PATH        sqlite file (default hbnb.db)
//	HBNB_POSTGRES_DSN       postgres DSN
//	HBNB_FILE_KEY           blob key of the file backend (default file.json)
//	HBNB_BLOB_DRIVER        fs|s3|memory (default fs)
//	HBNB_BLOB_FS_ROOT       root directory of the fs blob driver (default .)
//	HBNB_BLOB_S3_BUCKET     bucket of the s3 blob driver
//	HBNB_BLOB_S3_REGION     region of the s3 blob driver
//	HBNB_BLOB_S3_ENDPOINT   custom endpoint (MinIO)
//	HBNB_BLOB_S3_PATH_STYLE true|false
//	HBNB_LOG_LEVEL          debug|info|warn|error (default info)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Storage types.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageDB     = "db"
)

// Relational drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// EnvTest is the HBNB_ENV value that resets relational state on open.
const EnvTest = "test"

// Config is the resolved storage configuration.
type Config struct {
	Env         string `yaml:"env"`
	StorageType string `yaml:"storage" validate:"oneof=memory file db"`
	DBDriver    string `yaml:"db_driver" validate:"oneof=sqlite postgres"`
	SQLitePath  string `yaml:"sqlite_path" validate:"required_if=DBDriver sqlite"`
	PostgresDSN string `yaml:"postgres_dsn"`
	FileKey     string `yaml:"file_key" validate:"required"`
	Blob        Blob   `yaml:"blob"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Blob configures the blob store behind the file backend.
type Blob struct {
	Driver      string `yaml:"driver" validate:"oneof=fs s3 memory"`
	FSRoot      string `yaml:"fs_root"`
	S3Bucket    string `yaml:"s3_bucket" validate:"required_if=Driver s3"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint" validate:"omitempty,url"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		StorageType: StorageMemory,
		DBDriver:    DriverSQLite,
		SQLitePath:  "hbnb.db",
		FileKey:     "file.json",
		Blob:        Blob{Driver: "fs", FSRoot: "."},
		LogLevel:    "info",
	}
}

// Testing reports whether relational state is reset on open.
func (c Config) Testing() bool { return c.Env == EnvTest }

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Load resolves configuration from the process environment.
func Load() (Config, error) {
	return FromEnv(os.LookupEnv)
}

// FromEnv resolves configuration using lookup for environment values.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path, ok := lookup("HBNB_CONFIG"); ok && path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HBNB_ENV":              &c.Env,
		"HBNB_TYPE_STORAGE":     &c.StorageType,
		"HBNB_DB_DRIVER":        &c.DBDriver,
		"HBNB_SQLITE_PATH":      &c.SQLitePath,
		"HBNB_POSTGRES_DSN":     &c.PostgresDSN,
		"HBNB_FILE_KEY":         &c.FileKey,
		"HBNB_BLOB_DRIVER":      &c.Blob.Driver,
		"HBNB_BLOB_FS_ROOT":     &c.Blob.FSRoot,
		"HBNB_BLOB_S3_BUCKET":   &c.Blob.S3Bucket,
		"HBNB_BLOB_S3_REGION":   &c.Blob.S3Region,
		"HBNB_BLOB_S3_ENDPOINT": &c.Blob.S3Endpoint,
		"HBNB_LOG_LEVEL":        &c.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	if v, ok := lookup("HBNB_BLOB_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HBNB_BLOB_S3_PATH_STYLE: %w", err)
		}
		c.Blob.S3PathStyle = b
	}
	c.StorageType = strings.ToLower(c.StorageType)
	c.DBDriver = strings.ToLower(c.DBDriver)
	c.LogLevel = strings.ToLower(c.LogLevel)
	return nil
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return fmt.Errorf("invalid config: %w", err)
}
