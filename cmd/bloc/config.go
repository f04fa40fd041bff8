package main

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "BLOC"

// Config is resolved from flags, BLOC_* environment variables and an
// optional bloc.yaml, in that order of precedence.
type Config struct {
	Input     string `mapstructure:"input" validate:"required"`
	Profile   string `mapstructure:"profile" validate:"oneof=basic full"`
	Stream    bool   `mapstructure:"stream"`
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`
	Metrics   bool   `mapstructure:"metrics"`
}

var configValidate = validator.New()

func bindFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a configuration file (default ./bloc.yaml when present)")
	flags.StringP("input", "i", "-", "NDJSON record file, - for stdin")
	flags.String("profile", "full", "operator profile for filter and $match documents: basic or full")
	flags.Bool("stream", false, "write records as they are matched instead of after the whole input is read")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	flags.Bool("metrics", false, "write prometheus counters to stderr on exit")
}

func loadConfig(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"input", "profile", "stream", "log-level", "log-format", "metrics"} {
		if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name)); err != nil {
			return Config{}, errors.Wrapf(err, "bind flag %s", name)
		}
	}

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
	} else {
		v.SetConfigName("bloc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := configValidate.Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}
