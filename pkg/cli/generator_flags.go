package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/specmock/pkg/config"
)

// generatorFlagKeys maps generator config keys to their flags.
var generatorFlagKeys = map[string]string{
	"generator.locale":               "locale",
	"generator.optionalsProbability": "optionals-probability",
	"generator.alwaysFakeOptionals":  "always-fake-optionals",
	"generator.minItems":             "min-items",
	"generator.maxItems":             "max-items",
	"generator.maxRefDepth":          "max-ref-depth",
	"generator.useDefaultValue":      "use-default-value",
	"generator.seed":                 "seed",
}

func addGeneratorFlags(cmd *cobra.Command, d *config.Config) {
	f := cmd.Flags()
	f.String("locale", d.Generator.Locale, "fake data locale, e.g. de or pt_BR")
	f.Float64("optionals-probability", d.Generator.OptionalsProbability, "probability of generating an optional property or array item")
	f.Bool("always-fake-optionals", false, "generate every optional property")
	f.Int("min-items", d.Generator.MinItems, "lower bound for arrays without minItems")
	f.Int("max-items", d.Generator.MaxItems, "upper bound for arrays without maxItems")
	f.Int("max-ref-depth", d.Generator.MaxRefDepth, "times a $ref may recur on one branch")
	f.Bool("use-default-value", false, "answer with schema defaults instead of generated values")
	f.Uint64("seed", 0, "seed for reproducible output (0 is random)")
}
