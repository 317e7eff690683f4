package config

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseDriver            string        `koanf:"database_driver" default:"sqlite" validate:"oneof=sqlite postgres"`
	DatabaseFilePath          string        `koanf:"database_file_path" validate:"required_if=DatabaseDriver sqlite"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`
	DatabaseURL               string        `koanf:"database_url" validate:"required_if=DatabaseDriver postgres"`
	Environment               string        `koanf:"environment" default:"production"`
	Hostname                  string        `koanf:"-"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"3000"`
}

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/catalog.yaml"
)

// New loads the config from the YAML file pointed to by CONFIG_FILE (if it
// exists), then environment variables, then fills in defaults. Environment
// variables are the upper-cased form of the YAML keys; empty ones are ignored.
func New() (*Config, error) {
	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
	}

	keys := configKeys()
	err := k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, interface{}) {
		key := strings.ToLower(name)
		if _, ok := keys[key]; !ok || value == "" {
			return "", nil
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Hostname = hostname

	if cfg.Environment == "development" {
		loadDevelopmentConfig(cfg)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config pointing at an in-memory SQLite database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.Environment = "test"
	cfg.ServerHost = "127.0.0.1"
	return cfg
}

func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.WithStack(err)
	}

	missing := make([]string, 0, len(verrs))
	invalid := make([]string, 0)
	for _, fe := range verrs {
		key := toSnakeCase(fe.StructField())
		desc := fmt.Sprintf("%s (%s)", strings.ToUpper(key), key)
		if strings.HasPrefix(fe.Tag(), "required") {
			missing = append(missing, desc)
		} else {
			invalid = append(invalid, desc)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return errors.Errorf("invalid config: %s", strings.Join(invalid, ", "))
}

func configKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	for _, key := range []string{
		"database_busy_timeout",
		"database_connect_retry_count",
		"database_connect_retry_delay",
		"database_debug",
		"database_driver",
		"database_file_path",
		"database_max_retries",
		"database_url",
		"environment",
		"server_host",
		"server_port",
	} {
		keys[key] = struct{}{}
	}
	return keys
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
