package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SPECMOCK_SERVER_PORT.
const EnvPrefix = "SPECMOCK"

// configFileNames are searched in order when no config file is given.
var configFileNames = []string{
	"specmock.yaml",
	"specmock.yml",
	"specmock.json",
	".specmock.yaml",
}

// NewViper returns a viper instance carrying the defaults and reading
// SPECMOCK_* environment variables. Callers may bind flags to it before
// calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so that AutomaticEnv can see it.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.basePath", d.Server.BasePath)
	v.SetDefault("server.readTimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writeTimeout", d.Server.WriteTimeout)
	v.SetDefault("server.maxBodyBytes", d.Server.MaxBodyBytes)
	v.SetDefault("spec.file", "")
	v.SetDefault("spec.watch", false)
	v.SetDefault("spec.strict", false)
	v.SetDefault("spec.include", []string{})
	v.SetDefault("spec.exclude", []string{})
	v.SetDefault("generator.locale", d.Generator.Locale)
	v.SetDefault("generator.optionalsProbability", d.Generator.OptionalsProbability)
	v.SetDefault("generator.alwaysFakeOptionals", false)
	v.SetDefault("generator.minItems", d.Generator.MinItems)
	v.SetDefault("generator.maxItems", d.Generator.MaxItems)
	v.SetDefault("generator.maxRefDepth", d.Generator.MaxRefDepth)
	v.SetDefault("generator.useDefaultValue", false)
	v.SetDefault("generator.seed", 0)
	v.SetDefault("validation.enabled", d.Validation.Enabled)
	v.SetDefault("validation.rejectedCredentialStatus", d.Validation.RejectedCredentialStatus)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configPath, or the first config file found in the working
// directory when configPath is empty, into v and returns the validated
// configuration. A missing default file is not an error.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	if configPath == "" {
		for _, name := range configFileNames {
			if _, err := os.Stat(name); err == nil {
				configPath = name
				break
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
