package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	engineGoTemplate = "gotmpl"
	engineMarkdown   = "markdown"
	engineFast       = "fasttmpl"

	fixNewlinesAuto = "auto"
)

var errInvalidConfig = errors.New("mailkit: invalid configuration")

// Config is resolved from flags, MAILKIT_* environment variables and an
// optional config file, in that order of precedence.
type Config struct {
	Templates   string      `mapstructure:"templates"`
	Engine      string      `mapstructure:"engine"`
	Layout      string      `mapstructure:"layout"`
	CIDDomain   string      `mapstructure:"cid_domain"`
	FixNewlines string      `mapstructure:"fix_newlines"` // auto, true or false
	RedisURL    string      `mapstructure:"redis_url"`
	Log         LogConfig   `mapstructure:"log"`
	Serve       ServeConfig `mapstructure:"serve"`
	S3          S3Config    `mapstructure:"s3"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

type ServeConfig struct {
	Addr            string        `mapstructure:"addr"`
	Reload          string        `mapstructure:"reload"` // cron spec; empty disables reloading
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	PathStyle bool   `mapstructure:"path_style"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("templates", "templates")
	v.SetDefault("engine", engineGoTemplate)
	v.SetDefault("layout", "")
	v.SetDefault("cid_domain", "localhost")
	v.SetDefault("fix_newlines", fixNewlinesAuto)
	v.SetDefault("redis_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.sentry_dsn", "")
	v.SetDefault("serve.addr", ":8025")
	v.SetDefault("serve.reload", "")
	v.SetDefault("serve.shutdown_timeout", 10*time.Second)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.path_style", false)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MAILKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads file if set, otherwise an optional ./mailkit.yaml.
func loadConfig(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("mailkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Engine {
	case engineGoTemplate, engineMarkdown, engineFast:
	default:
		return fmt.Errorf("%w: unknown engine %q", errInvalidConfig, c.Engine)
	}
	if c.Templates == "" {
		return fmt.Errorf("%w: templates directory is required", errInvalidConfig)
	}
	if c.Layout != "" && c.Engine != engineMarkdown {
		return fmt.Errorf("%w: layout requires the markdown engine", errInvalidConfig)
	}
	if _, _, err := c.fixNewlines(); err != nil {
		return err
	}
	return nil
}

// fixNewlines reports whether the registry default is overridden and with what.
func (c Config) fixNewlines() (fix, set bool, err error) {
	if c.FixNewlines == "" || c.FixNewlines == fixNewlinesAuto {
		return false, false, nil
	}
	fix, err = strconv.ParseBool(c.FixNewlines)
	if err != nil {
		return false, false, fmt.Errorf("%w: fix_newlines must be auto, true or false", errInvalidConfig)
	}
	return fix, true, nil
}
