// Package config provides functionality for managing configuration options
// for the application using a JSON file, command-line flags and environment
// variables, in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// ResultHostname is the base URL used for result links. When empty,
	// HTTP links use the scheme and host of the request; the gRPC server
	// requires it.
	ResultHostname string `json:"base_url"`

	// FilePath is the path to the append-only storage file.
	FilePath string `json:"file_storage_path"`

	// DatabaseDSN holds the PostgreSQL connection string.
	DatabaseDSN string `json:"database_dsn"`

	// SQLitePath is the path to an SQLite database file.
	SQLitePath string `json:"sqlite_path"`

	// RedisAddr is the host:port of a Redis server.
	RedisAddr string `json:"redis_addr"`

	// GRPCAddress enables the gRPC server on this address.
	GRPCAddress string `json:"grpc_address"`

	// CodeLength is the number of characters in generated short codes.
	CodeLength int `json:"code_length"`

	// MaxAttempts bounds short code generation retries per request.
	MaxAttempts int `json:"max_code_attempts"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`

	// EnablePprof indicates whether to enable pprof for performance profiling.
	EnablePprof bool `json:"enable_pprof"`

	// EnableHTTPS indicates whether to enable https.
	EnableHTTPS bool `json:"enable_https"`

	// Config is the path of the JSON config file.
	Config string `json:"-"`
}

// StorageKind names the backend selected by the options.
type StorageKind string

const (
	StoragePostgres StorageKind = "postgres"
	StorageRedis    StorageKind = "redis"
	StorageSQLite   StorageKind = "sqlite"
	StorageFile     StorageKind = "file"
	StorageMemory   StorageKind = "memory"
)

// Storage picks one backend: PostgreSQL, then Redis, then SQLite, then the
// storage file, and memory when nothing is configured.
func (o *Options) Storage() StorageKind {
	switch {
	case o.DatabaseDSN != "":
		return StoragePostgres
	case o.RedisAddr != "":
		return StorageRedis
	case o.SQLitePath != "":
		return StorageSQLite
	case o.FilePath != "":
		return StorageFile
	default:
		return StorageMemory
	}
}

func defaultOptions() *Options {
	return &Options{
		Port:           "localhost:8080",
		ResultHostname: "http://localhost:8080",
		CodeLength:     6,
		MaxAttempts:    10,
		LogLevel:       "info",
	}
}

// registerFlags binds every flag to o, using the current values as defaults.
func registerFlags(fs *flag.FlagSet, o *Options) {
	fs.StringVar(&o.Port, "a", o.Port, "run on ip:port server")
	fs.StringVar(&o.ResultHostname, "b", o.ResultHostname, "result base url")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "postgres dsn")
	fs.StringVar(&o.SQLitePath, "l", o.SQLitePath, "path to sqlite database")
	fs.StringVar(&o.RedisAddr, "r", o.RedisAddr, "redis host:port")
	fs.StringVar(&o.FilePath, "f", o.FilePath, "path to storage file")
	fs.StringVar(&o.GRPCAddress, "g", o.GRPCAddress, "grpc listen address, empty to disable")
	fs.IntVar(&o.CodeLength, "n", o.CodeLength, "short code length")
	fs.IntVar(&o.MaxAttempts, "m", o.MaxAttempts, "max short code generation attempts")
	fs.StringVar(&o.LogLevel, "v", o.LogLevel, "log level")
	fs.BoolVar(&o.EnablePprof, "p", o.EnablePprof, "enable pprof")
	fs.BoolVar(&o.EnableHTTPS, "s", o.EnableHTTPS, "enable https")
	fs.StringVar(&o.Config, "c", o.Config, "path to json config file")
}

// Parse loads a .env file if present, then reads the process arguments and
// environment.
func Parse() (*Options, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	return ParseArgs(os.Args[1:])
}

// LoadEnvFile adds variables from path to the environment without
// overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ParseArgs builds Options from defaults, the JSON config file, args and
// the environment, each overriding the previous.
func ParseArgs(args []string) (*Options, error) {
	path, err := configPath(args)
	if err != nil {
		return nil, err
	}

	options := defaultOptions()
	if path != "" {
		if err := loadFile(path, options); err != nil {
			return nil, err
		}
	}
	options.Config = path

	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	registerFlags(fs, options)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	// the flag may have reset it; the environment still wins
	options.Config = path

	if err := applyEnv(options); err != nil {
		return nil, err
	}

	if options.CodeLength <= 0 {
		return nil, fmt.Errorf("code length must be positive, got %d", options.CodeLength)
	}
	if options.MaxAttempts <= 0 {
		return nil, fmt.Errorf("max code attempts must be positive, got %d", options.MaxAttempts)
	}
	// gRPC calls carry no request URL to derive short links from
	if options.GRPCAddress != "" && options.ResultHostname == "" {
		return nil, errors.New("base url is required when the grpc server is enabled")
	}

	return options, nil
}

// configPath finds the config file before the other flags are applied:
// CONFIG wins over -c.
func configPath(args []string) (string, error) {
	if path := os.Getenv("CONFIG"); path != "" {
		return path, nil
	}

	scratch := defaultOptions()
	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	registerFlags(fs, scratch)
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	return scratch.Config, nil
}

func loadFile(path string, o *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	return nil
}

// Override flags with environment variables if set
func applyEnv(o *Options) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":    &o.Port,
		"BASE_URL":          &o.ResultHostname,
		"FILE_STORAGE_PATH": &o.FilePath,
		"DATABASE_DSN":      &o.DatabaseDSN,
		"SQLITE_PATH":       &o.SQLitePath,
		"REDIS_ADDR":        &o.RedisAddr,
		"GRPC_ADDRESS":      &o.GRPCAddress,
		"LOG_LEVEL":         &o.LogLevel,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"CODE_LENGTH":       &o.CodeLength,
		"MAX_CODE_ATTEMPTS": &o.MaxAttempts,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"ENABLE_PPROF": &o.EnablePprof,
		"ENABLE_HTTPS": &o.EnableHTTPS,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	return nil
}
