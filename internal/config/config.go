// Package config loads gonce configuration.
// Layers are merged Defaults -> YAML file -> Environment (GONCE_*), then
// decoded and validated.
package config

import (
	"errors"
	"fmt"
	"net"
	"path"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped to keys.
const EnvPrefix = "GONCE_"

// Backend names accepted by the backend key.
const (
	BackendMemory     = "memory"
	BackendSQLite     = "sqlite"
	BackendMySQL      = "mysql"
	BackendFilesystem = "filesystem"
	BackendBolt       = "bolt"
	BackendRedis      = "redis"
	BackendValkey     = "valkey"
)

// Config holds the merged runtime configuration.
type Config struct {
	Secret        string        `koanf:"secret" validate:"required,min=12"`
	Backend       string        `koanf:"backend" validate:"required,oneof=memory sqlite mysql filesystem bolt redis valkey"`
	DataDir       string        `koanf:"data_dir" validate:"required,data_dir"`
	DSN           string        `koanf:"dsn" validate:"required_if=Backend mysql"`
	RedisAddr     string        `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db" validate:"gte=0"`
	ValkeyAddr    string        `koanf:"valkey_addr" validate:"required_if=Backend valkey"`
	KeyPrefix     string        `koanf:"key_prefix"`
	DefaultExpiry time.Duration `koanf:"default_expiry"`
	DefaultLength int           `koanf:"default_length" validate:"gte=1"`
	Addr          string        `koanf:"addr" validate:"ip_port"`
	LogLevel      string        `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat     string        `koanf:"log_format" validate:"oneof=json console"`
	MetricsToken  string        `koanf:"metrics_token"`
}

// DefaultAppConfig is the lowest configuration layer.
var DefaultAppConfig = Config{
	Backend:       BackendBolt,
	DataDir:       "data",
	KeyPrefix:     "nonce",
	DefaultExpiry: 3600 * time.Second,
	DefaultLength: 16,
	Addr:          ":8080",
	LogLevel:      "info",
	LogFormat:     "json",
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil)
}

var fileLoader = func(k *koanf.Koanf, path string) error {
	return k.Load(file.Provider(path), yaml.Parser())
}

var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), v
		},
	}), nil)
}

var registerValidators = func(v *validator.Validate) error {
	if err := v.RegisterValidation("ip_port", validIPPort); err != nil {
		return err
	}
	return v.RegisterValidation("data_dir", validDataDir)
}

// Load merges defaults, the optional YAML file at path and the environment.
// An empty path skips the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := fileLoader(k, path); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       StringToDurationSeconds(),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("koanf")
	})
	if err := registerValidators(v); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	if err := v.Struct(&cfg); err != nil {
		return nil, describe(err)
	}
	return &cfg, nil
}

// SQLiteDSN returns the DSN for the sqlite database inside DataDir.
func (c *Config) SQLiteDSN() string {
	return "file:" + path.Join(filepath.ToSlash(c.DataDir), "gonce.db") +
		"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL"
}

// BoltPath returns the bbolt database file inside DataDir.
func (c *Config) BoltPath() string {
	return filepath.Join(c.DataDir, "gonce.bolt")
}

// NoncesDir returns the directory used by the filesystem backend.
func (c *Config) NoncesDir() string {
	return filepath.Join(c.DataDir, "nonces")
}

// describe flattens validator errors into a single readable error.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// validIPPort accepts "[ip]:port" or ":port" with a port in 1-65535.
func validIPPort(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	if host != "" && net.ParseIP(host) == nil {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n > 0 && n <= 65535
}

// validDataDir rejects the filesystem root, the working directory itself and
// any path that climbs with "..".
func validDataDir(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if p == "" {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == ".." {
			return false
		}
	}
	clean := filepath.Clean(p)
	return clean != "." && clean != string(filepath.Separator)
}
