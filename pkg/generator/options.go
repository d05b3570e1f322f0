package generator

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Options is the generator configuration. It is fixed when the Generator is
// built and read by every call. Start from DefaultOptions and override fields.
type Options struct {
	// Locale selects the fake-data locale, as a BCP 47 tag ("de", "pt-BR") or
	// faker style ("pt_BR"). Unsupported locales fall back to English.
	Locale string

	// OptionalsProbability is the chance that an optional object property or
	// optional array item is generated.
	OptionalsProbability float64

	// AlwaysFakeOptionals generates every optional property.
	AlwaysFakeOptionals bool

	// MinItems and MaxItems bound arrays that do not declare their own bounds.
	MinItems int
	MaxItems int

	// MaxRefDepth is how many times a $ref may recur on one branch before
	// optional positions referring to it are dropped.
	MaxRefDepth int

	// UseDefaultValue returns a node's `default` instead of synthesizing.
	UseDefaultValue bool

	// Seed, when non-zero, makes a generator's output sequence reproducible.
	Seed uint64
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Locale:               "en",
		OptionalsProbability: 0.5,
		MinItems:             0,
		MaxItems:             5,
		MaxRefDepth:          2,
	}
}

// Validate reports every invalid option.
func (o Options) Validate() error {
	var errs []error
	if o.OptionalsProbability < 0 || o.OptionalsProbability > 1 {
		errs = append(errs, fmt.Errorf("optionalsProbability must be within [0, 1], got %v", o.OptionalsProbability))
	}
	if o.MinItems < 0 {
		errs = append(errs, fmt.Errorf("minItems must not be negative, got %d", o.MinItems))
	}
	if o.MaxItems < o.MinItems {
		errs = append(errs, fmt.Errorf("maxItems (%d) must not be lower than minItems (%d)", o.MaxItems, o.MinItems))
	}
	if o.MaxRefDepth < 0 {
		errs = append(errs, fmt.Errorf("maxRefDepth must not be negative, got %d", o.MaxRefDepth))
	}
	if _, err := parseLocale(o.Locale); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// parseLocale accepts BCP 47 and underscore separated tags. An empty locale
// means English.
func parseLocale(s string) (language.Tag, error) {
	if s == "" {
		return language.English, nil
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", s, err)
	}
	return tag, nil
}
