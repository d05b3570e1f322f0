package config

import (
	"time"

	"github.com/getmockd/specmock/pkg/generator"
	"github.com/getmockd/specmock/pkg/logging"
	"github.com/getmockd/specmock/pkg/validation"
)

// Config is the complete server configuration.
type Config struct {
	Server     Server     `mapstructure:"server" yaml:"server"`
	Spec       Spec       `mapstructure:"spec" yaml:"spec"`
	Generator  Generator  `mapstructure:"generator" yaml:"generator"`
	Validation Validation `mapstructure:"validation" yaml:"validation"`
	Log        Log        `mapstructure:"log" yaml:"log"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Host string `mapstructure:"host" yaml:"host"`
	// Port 0 picks a free port.
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
	// BasePath mounts the mock under a prefix, e.g. "/v1".
	BasePath     string        `mapstructure:"basePath" yaml:"basePath" validate:"omitempty,startswith=/"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout" yaml:"readTimeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout" yaml:"writeTimeout" validate:"gte=0"`
	MaxBodyBytes int64         `mapstructure:"maxBodyBytes" yaml:"maxBodyBytes" validate:"gt=0"`
}

// Spec selects the OpenAPI document and the operations served from it.
type Spec struct {
	File string `mapstructure:"file" yaml:"file"`
	// Watch reloads the document when the file changes.
	Watch bool `mapstructure:"watch" yaml:"watch"`
	// Strict lints the document structurally before serving it.
	Strict  bool     `mapstructure:"strict" yaml:"strict"`
	Include []string `mapstructure:"include" yaml:"include" validate:"dive,glob"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude" validate:"dive,glob"`
}

// Generator mirrors generator.Options.
type Generator struct {
	Locale               string  `mapstructure:"locale" yaml:"locale" validate:"required"`
	OptionalsProbability float64 `mapstructure:"optionalsProbability" yaml:"optionalsProbability" validate:"gte=0,lte=1"`
	AlwaysFakeOptionals  bool    `mapstructure:"alwaysFakeOptionals" yaml:"alwaysFakeOptionals"`
	MinItems             int     `mapstructure:"minItems" yaml:"minItems" validate:"gte=0"`
	MaxItems             int     `mapstructure:"maxItems" yaml:"maxItems" validate:"gte=0,gtefield=MinItems"`
	MaxRefDepth          int     `mapstructure:"maxRefDepth" yaml:"maxRefDepth" validate:"gte=0"`
	UseDefaultValue      bool    `mapstructure:"useDefaultValue" yaml:"useDefaultValue"`
	Seed                 uint64  `mapstructure:"seed" yaml:"seed"`
}

// Validation configures the request validation pipeline.
type Validation struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// RejectedCredentialStatus answers credentials that are present but
	// invalid.
	RejectedCredentialStatus int `mapstructure:"rejectedCredentialStatus" yaml:"rejectedCredentialStatus" validate:"oneof=401 403"`
}

// Log configures operational logging.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	gen := generator.DefaultOptions()
	return &Config{
		Server: Server{
			Host:         "localhost",
			Port:         4010,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: validation.DefaultMaxBodyBytes,
		},
		Generator: Generator{
			Locale:               gen.Locale,
			OptionalsProbability: gen.OptionalsProbability,
			MinItems:             gen.MinItems,
			MaxItems:             gen.MaxItems,
			MaxRefDepth:          gen.MaxRefDepth,
		},
		Validation: Validation{
			Enabled:                  true,
			RejectedCredentialStatus: 403,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// GeneratorOptions converts the generator section.
func (c *Config) GeneratorOptions() generator.Options {
	g := c.Generator
	return generator.Options{
		Locale:               g.Locale,
		OptionalsProbability: g.OptionalsProbability,
		AlwaysFakeOptionals:  g.AlwaysFakeOptionals,
		MinItems:             g.MinItems,
		MaxItems:             g.MaxItems,
		MaxRefDepth:          g.MaxRefDepth,
		UseDefaultValue:      g.UseDefaultValue,
		Seed:                 g.Seed,
	}
}

// ValidationOptions converts the validation section.
func (c *Config) ValidationOptions() validation.Options {
	return validation.Options{
		RejectedCredentialStatus: c.Validation.RejectedCredentialStatus,
		MaxBodyBytes:             c.Server.MaxBodyBytes,
	}
}

// Logging converts the log section.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.Format = logging.ParseFormat(c.Log.Format)
	return cfg
}
