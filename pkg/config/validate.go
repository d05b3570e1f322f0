package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field of a configuration.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration:\n- " + strings.Join(msgs, "\n- ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
			return doublestar.ValidatePattern(fl.Field().String())
		})
	})
	return validate
}

// Validate checks the struct tags and the generator locale. The returned
// error is a ValidationErrors.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if err := structValidator().Struct(c); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, e := range fieldErrs {
			errs = append(errs, &ValidationError{
				Field:   fieldPath(e.Namespace()),
				Message: describe(e),
			})
		}
	}

	if _, err := parseGeneratorLocale(c.Generator.Locale); err != nil {
		errs = append(errs, &ValidationError{Field: "generator.locale", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// fieldPath turns "Config.server.port" into "server.port".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", e.Param(), e.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", e.Param(), e.Value())
	case "lte":
		return fmt.Sprintf("must be at most %s, got %v", e.Param(), e.Value())
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", e.Param(), e.Value())
	case "gtefield":
		return fmt.Sprintf("must not be lower than %s, got %v", e.Param(), e.Value())
	case "startswith":
		return fmt.Sprintf("must start with %q, got %q", e.Param(), e.Value())
	case "glob":
		return fmt.Sprintf("invalid glob pattern %q", e.Value())
	default:
		return fmt.Sprintf("failed on the %q rule", e.Tag())
	}
}

// parseGeneratorLocale accepts BCP 47 and underscore separated tags.
func parseGeneratorLocale(s string) (language.Tag, error) {
	if s == "" {
		return language.English, nil
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q", s)
	}
	return tag, nil
}
