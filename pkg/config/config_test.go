package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/specmock/pkg/logging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.5, cfg.Generator.OptionalsProbability)
	assert.Equal(t, "en", cfg.Generator.Locale)
	assert.True(t, cfg.Validation.Enabled)
	assert.Equal(t, 403, cfg.Validation.RejectedCredentialStatus)
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "specmock.yaml", `
server:
  port: 8080
  basePath: /v1
  readTimeout: 5s
spec:
  file: petstore.yaml
  include: ["/pets/**"]
generator:
  locale: de
  optionalsProbability: 1
  seed: 42
validation:
  rejectedCredentialStatus: 401
log:
  level: debug
  format: json
`)

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/v1", cfg.Server.BasePath)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "petstore.yaml", cfg.Spec.File)
	assert.Equal(t, []string{"/pets/**"}, cfg.Spec.Include)
	assert.Equal(t, "de", cfg.Generator.Locale)
	assert.Equal(t, uint64(42), cfg.Generator.Seed)
	assert.Equal(t, 5, cfg.Generator.MaxItems)
	assert.True(t, cfg.Validation.Enabled)

	gen := cfg.GeneratorOptions()
	assert.Equal(t, 1.0, gen.OptionalsProbability)
	assert.Equal(t, uint64(42), gen.Seed)
	require.NoError(t, gen.Validate())

	val := cfg.ValidationOptions()
	assert.Equal(t, 401, val.RejectedCredentialStatus)
	assert.Equal(t, cfg.Server.MaxBodyBytes, val.MaxBodyBytes)

	lc := cfg.Logging()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SPECMOCK_SERVER_PORT", "9999")
	t.Setenv("SPECMOCK_GENERATOR_LOCALE", "pt_BR")

	cfg, err := Load(NewViper(), writeFile(t, "c.yaml", "server:\n  port: 1234\n"))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "pt_BR", cfg.Generator.Locale)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "specmock.yaml", `
server:
  port: 70000
  basePath: v1
spec:
  exclude: ["/a/[b"]
generator:
  optionalsProbability: 1.5
  minItems: 3
  maxItems: 1
  locale: "!!"
validation:
  rejectedCredentialStatus: 500
log:
  level: loud
`)

	_, err := Load(NewViper(), path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := make(map[string]string)
	for _, e := range verrs {
		fields[e.Field] = e.Message
	}
	for _, f := range []string{
		"server.port",
		"server.basePath",
		"spec.exclude[0]",
		"generator.optionalsProbability",
		"generator.maxItems",
		"generator.locale",
		"validation.rejectedCredentialStatus",
		"log.level",
	} {
		assert.Contains(t, fields, f)
	}
	assert.Contains(t, fields["log.level"], "must be one of")
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Field: "server.port", Message: "must be at most 65535, got 70000"}
	assert.Equal(t, "server.port: must be at most 65535, got 70000", err.Error())
}
