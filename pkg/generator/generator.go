package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/getmockd/specmock/pkg/ordered"
	"github.com/getmockd/specmock/pkg/spec"
)

// seededEpoch anchors date values when a seed is set, so seeded output does
// not depend on the wall clock.
var seededEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxUniqueAttempts bounds retries when uniqueItems rejects a duplicate.
const maxUniqueAttempts = 16

// Generator produces fake values from schemas of one document.
// It is safe for concurrent use; every call derives its own random source.
type Generator struct {
	doc    *spec.Document
	opts   Options
	locale *localeData
	calls  atomic.Uint64
}

// New validates opts and returns a Generator resolving references against doc.
// doc may be nil when schemas carry no $ref.
func New(doc *spec.Document, opts Options) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("generator options: %w", err)
	}
	tag, _ := parseLocale(opts.Locale)
	return &Generator{
		doc:    doc,
		opts:   opts,
		locale: matchLocale(tag),
	}, nil
}

// Options returns the generator's configuration.
func (g *Generator) Options() Options { return g.opts }

// Locale returns the tag of the locale data in use.
func (g *Generator) Locale() string { return g.locale.tag.String() }

// Generate produces a value for schema. Objects are returned as
// *ordered.Map[any] so properties keep their declared order.
//
// Failures caused by the schema itself are *GenerationError values; a
// cancelled ctx returns ctx.Err().
func (g *Generator) Generate(ctx context.Context, schema *spec.Schema) (any, error) {
	return g.GenerateNamed(ctx, schema, "")
}

// GenerateNamed is Generate with a property name used for value heuristics,
// e.g. "email" or "created_at" on an unformatted string.
func (g *Generator) GenerateNamed(ctx context.Context, schema *spec.Schema, name string) (any, error) {
	rng, now := g.source()
	r := &run{
		g:     g,
		ctx:   ctx,
		rng:   rng,
		fk:    newFaker(g.locale, rng, now),
		depth: make(map[string]int),
	}
	v, err := r.generate(schema, name)
	if err != nil {
		var ge *GenerationError
		if errors.As(err, &ge) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &GenerationError{Err: err}
	}
	return v, nil
}

func (g *Generator) source() (*rand.Rand, time.Time) {
	if g.opts.Seed != 0 {
		return rand.New(rand.NewPCG(g.opts.Seed, g.calls.Add(1))), seededEpoch
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), time.Now()
}

// run is the state of one Generate call.
type run struct {
	g     *Generator
	ctx   context.Context
	rng   *rand.Rand
	fk    *faker
	depth map[string]int // $ref -> times entered on the current branch
}

func (r *run) fail(s *spec.Schema, err error) error {
	return &GenerationError{Pointer: s.Pointer, Err: err}
}

func (r *run) generate(s *spec.Schema, name string) (any, error) {
	if s == nil {
		return nil, nil
	}
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}

	if v, ok := literal(s); ok {
		return v, nil
	}
	if s.Ref != "" {
		return r.ref(s, name)
	}
	if s.Faker != "" {
		if v, ok := r.fk.fake(s.Faker); ok {
			return v, nil
		}
	}
	if s.HasConst {
		return s.Const, nil
	}
	if len(s.Enum) > 0 {
		return s.Enum[r.rng.IntN(len(s.Enum))], nil
	}
	if s.HasDefault && r.g.opts.UseDefaultValue {
		return s.Default, nil
	}
	if len(s.AllOf) > 0 {
		merged, err := r.merge(s, make(map[string]bool))
		if err != nil {
			return nil, err
		}
		return r.generate(merged, name)
	}
	if len(s.OneOf) > 0 {
		return r.choose(s.OneOf, name)
	}
	if len(s.AnyOf) > 0 {
		return r.choose(s.AnyOf, name)
	}
	return r.typed(s, name)
}

// ref follows a reference. Entering the same reference more than maxRefDepth
// times on one branch reports ErrCyclicRef, which optional positions absorb.
func (r *run) ref(s *spec.Schema, name string) (any, error) {
	if r.depth[s.Ref] >= r.g.opts.MaxRefDepth+1 {
		return nil, r.fail(s, fmt.Errorf("%w: %s nested more than %d times", ErrCyclicRef, s.Ref, r.g.opts.MaxRefDepth))
	}
	target, err := r.resolve(s)
	if err != nil {
		return nil, err
	}
	r.depth[s.Ref]++
	defer func() { r.depth[s.Ref]-- }()
	return r.generate(target, name)
}

func (r *run) resolve(s *spec.Schema) (*spec.Schema, error) {
	if r.g.doc == nil {
		return nil, r.fail(s, fmt.Errorf("%w: %s", spec.ErrUnresolvedRef, s.Ref))
	}
	target, err := r.g.doc.ResolveSchema(s)
	if errors.Is(err, spec.ErrRefCycle) {
		return nil, r.fail(s, fmt.Errorf("%w: %w", ErrCyclicRef, err))
	}
	if err != nil {
		return nil, r.fail(s, err)
	}
	return target, nil
}

// choose picks a random branch of oneOf/anyOf. A branch that is cut by the
// reference depth limit gives way to the next one.
func (r *run) choose(branches []*spec.Schema, name string) (any, error) {
	start := r.rng.IntN(len(branches))
	var lastErr error
	for i := range branches {
		v, err := r.generate(branches[(start+i)%len(branches)], name)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrCyclicRef) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (r *run) includeOptional() bool {
	return r.g.opts.AlwaysFakeOptionals || r.rng.Float64() < r.g.opts.OptionalsProbability
}

func (r *run) typed(s *spec.Schema, name string) (any, error) {
	switch t := r.pickType(s); t {
	case "object":
		return r.object(s)
	case "array":
		return r.array(s)
	case "string":
		return r.str(s, name)
	case "integer":
		return r.integer(s)
	case "number":
		return r.number(s)
	case "boolean":
		return r.rng.IntN(2) == 0, nil
	case "null", "":
		return nil, nil
	default:
		return nil, r.fail(s, fmt.Errorf("%w: %q", ErrInvalidType, t))
	}
}

// pickType returns the type to synthesize. Several declared types yield a
// random non-null member; untyped nodes are inferred from their keywords.
func (r *run) pickType(s *spec.Schema) string {
	var candidates []string
	for _, t := range s.Types {
		if t != "null" {
			candidates = append(candidates, t)
		}
	}
	switch {
	case len(candidates) == 1:
		return candidates[0]
	case len(candidates) > 1:
		return candidates[r.rng.IntN(len(candidates))]
	case len(s.Types) > 0:
		return "null"
	}

	switch {
	case s.Properties.Len() > 0 || s.AdditionalProperties != nil || s.MinProperties != nil || len(s.Required) > 0:
		return "object"
	case s.Items != nil || s.MinItems != nil || s.MaxItems != nil:
		return "array"
	case s.Format != "" || s.Pattern != "" || s.MinLength != nil || s.MaxLength != nil:
		return "string"
	case s.Minimum != nil || s.Maximum != nil || s.MultipleOf != nil:
		return "number"
	}
	return ""
}

func (r *run) object(s *spec.Schema) (any, error) {
	out := ordered.New[any](s.Properties.Len())
	maxProps := -1
	if s.MaxProperties != nil {
		maxProps = *s.MaxProperties
	}
	full := func() bool { return maxProps >= 0 && out.Len() >= maxProps }

	var skipped []string
	var err error
	s.Properties.Range(func(name string, ps *spec.Schema) bool {
		required := s.IsRequired(name)
		if !required && (ps.WriteOnly || full() || !r.includeOptional()) {
			if !ps.WriteOnly {
				skipped = append(skipped, name)
			}
			return true
		}
		var v any
		v, err = r.generate(ps, name)
		if err != nil {
			if !required && errors.Is(err, ErrCyclicRef) {
				err = nil
				return true
			}
			return false
		}
		out.Set(name, v)
		return true
	})
	if err != nil {
		return nil, err
	}

	// Required names without a property schema.
	for _, name := range s.Required {
		if out.Has(name) || s.Properties.Has(name) {
			continue
		}
		v, err := r.extra(s, name)
		if err != nil {
			return nil, err
		}
		out.Set(name, v)
	}

	if s.MinProperties != nil && maxProps >= 0 && *s.MinProperties > maxProps {
		return nil, r.fail(s, fmt.Errorf("%w: minProperties %d > maxProperties %d", ErrContradiction, *s.MinProperties, maxProps))
	}
	if s.MinProperties != nil {
		for _, name := range skipped {
			if out.Len() >= *s.MinProperties {
				break
			}
			ps, _ := s.Properties.Get(name)
			v, err := r.generate(ps, name)
			if err != nil {
				if errors.Is(err, ErrCyclicRef) {
					continue
				}
				return nil, err
			}
			out.Set(name, v)
		}
		for i := 1; out.Len() < *s.MinProperties; i++ {
			name := fmt.Sprintf("%s%d", pick(r.rng, loremWords), i)
			if out.Has(name) {
				continue
			}
			v, err := r.extra(s, name)
			if err != nil {
				return nil, err
			}
			out.Set(name, v)
		}
	}
	return out, nil
}

// extra generates a property not listed in `properties`.
func (r *run) extra(s *spec.Schema, name string) (any, error) {
	if s.AdditionalProperties != nil {
		return r.generate(s.AdditionalProperties, name)
	}
	return r.fk.words(1 + r.rng.IntN(2)), nil
}

func (r *run) array(s *spec.Schema) (any, error) {
	lo := r.g.opts.MinItems
	if s.MinItems != nil {
		lo = *s.MinItems
	}
	hi := r.g.opts.MaxItems
	if s.MaxItems != nil {
		if s.MinItems != nil && *s.MaxItems < *s.MinItems {
			return nil, r.fail(s, fmt.Errorf("%w: minItems %d > maxItems %d", ErrContradiction, *s.MinItems, *s.MaxItems))
		}
		hi = min(hi, *s.MaxItems)
		if s.MinItems == nil {
			lo = min(lo, *s.MaxItems)
		}
	}
	if hi < lo {
		hi = lo
	}

	items := s.Items
	if items == nil {
		items = &spec.Schema{Types: []string{"string"}, Pointer: s.Pointer + "/items"}
	}

	out := make([]any, 0, hi)
	seen := make(map[string]bool)
	for i := 0; i < hi; i++ {
		mandatory := i < lo
		if !mandatory && !r.includeOptional() {
			continue
		}
		v, err := r.item(items, s.UniqueItems, seen)
		if err != nil {
			if !mandatory && (errors.Is(err, ErrCyclicRef) || errors.Is(err, ErrContradiction)) {
				break
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *run) item(items *spec.Schema, unique bool, seen map[string]bool) (any, error) {
	if !unique {
		return r.generate(items, "")
	}
	for attempt := 0; attempt < maxUniqueAttempts; attempt++ {
		v, err := r.generate(items, "")
		if err != nil {
			return nil, err
		}
		key := fingerprint(v)
		if !seen[key] {
			seen[key] = true
			return v, nil
		}
	}
	return nil, r.fail(items, fmt.Errorf("%w: cannot produce enough unique items", ErrContradiction))
}
