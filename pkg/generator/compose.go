package generator

import (
	"fmt"

	"github.com/getmockd/specmock/pkg/ordered"
	"github.com/getmockd/specmock/pkg/spec"
)

// merge flattens an allOf node into a single schema: the node's own keywords
// plus those of every (resolved) member. Later members win for scalar
// keywords; properties and required lists are unioned; numeric and length
// bounds take the tighter value. seen holds the references being merged on
// the current branch.
func (r *run) merge(s *spec.Schema, seen map[string]bool) (*spec.Schema, error) {
	out := &spec.Schema{Pointer: s.Pointer}
	self := *s
	self.AllOf = nil
	mergeInto(out, &self)

	for _, member := range s.AllOf {
		if member == nil {
			continue
		}
		ref := member.Ref
		if ref != "" {
			if seen[ref] {
				return nil, r.fail(member, fmt.Errorf("%w: %s includes itself through allOf", ErrCyclicRef, ref))
			}
			seen[ref] = true
			resolved, err := r.resolve(member)
			if err != nil {
				return nil, err
			}
			member = resolved
		}
		if len(member.AllOf) > 0 {
			flat, err := r.merge(member, seen)
			if err != nil {
				return nil, err
			}
			member = flat
		}
		mergeInto(out, member)
		delete(seen, ref)
	}
	return out, nil
}

func mergeInto(dst, src *spec.Schema) {
	if len(src.Types) > 0 {
		dst.Types = src.Types
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	dst.Nullable = dst.Nullable || src.Nullable
	if len(src.Enum) > 0 {
		dst.Enum = src.Enum
	}
	if src.HasConst {
		dst.HasConst, dst.Const = true, src.Const
	}
	if src.HasDefault {
		dst.HasDefault, dst.Default = true, src.Default
	}
	if src.HasExample {
		dst.HasExample, dst.Example = true, src.Example
	}
	if src.HasExamples {
		dst.HasExamples, dst.ExamplesMap, dst.ExamplesRaw = true, src.ExamplesMap, src.ExamplesRaw
	}
	if src.Faker != "" {
		dst.Faker = src.Faker
	}

	if src.Properties.Len() > 0 {
		if dst.Properties == nil {
			dst.Properties = ordered.New[*spec.Schema](src.Properties.Len())
		}
		src.Properties.Range(func(name string, ps *spec.Schema) bool {
			dst.Properties.Set(name, ps)
			return true
		})
	}
	for _, name := range src.Required {
		if !dst.IsRequired(name) {
			dst.Required = append(dst.Required, name)
		}
	}
	if src.AdditionalProperties != nil {
		dst.AdditionalProperties = src.AdditionalProperties
	}
	if src.Items != nil {
		dst.Items = src.Items
	}
	dst.UniqueItems = dst.UniqueItems || src.UniqueItems
	if src.Pattern != "" {
		dst.Pattern = src.Pattern
	}
	if src.MultipleOf != nil {
		dst.MultipleOf = src.MultipleOf
	}
	if len(src.OneOf) > 0 {
		dst.OneOf = src.OneOf
	}
	if len(src.AnyOf) > 0 {
		dst.AnyOf = src.AnyOf
	}
	dst.ReadOnly = dst.ReadOnly || src.ReadOnly
	dst.WriteOnly = dst.WriteOnly || src.WriteOnly

	dst.MinProperties = maxInt(dst.MinProperties, src.MinProperties)
	dst.MaxProperties = minInt(dst.MaxProperties, src.MaxProperties)
	dst.MinItems = maxInt(dst.MinItems, src.MinItems)
	dst.MaxItems = minInt(dst.MaxItems, src.MaxItems)
	dst.MinLength = maxInt(dst.MinLength, src.MinLength)
	dst.MaxLength = minInt(dst.MaxLength, src.MaxLength)

	if src.Minimum != nil && (dst.Minimum == nil || *src.Minimum > *dst.Minimum ||
		(*src.Minimum == *dst.Minimum && src.ExclusiveMinimum)) {
		dst.Minimum, dst.ExclusiveMinimum = src.Minimum, src.ExclusiveMinimum
	}
	if src.Maximum != nil && (dst.Maximum == nil || *src.Maximum < *dst.Maximum ||
		(*src.Maximum == *dst.Maximum && src.ExclusiveMaximum)) {
		dst.Maximum, dst.ExclusiveMaximum = src.Maximum, src.ExclusiveMaximum
	}
}

func maxInt(a, b *int) *int {
	if a == nil || (b != nil && *b > *a) {
		return b
	}
	return a
}

func minInt(a, b *int) *int {
	if a == nil || (b != nil && *b < *a) {
		return b
	}
	return a
}
