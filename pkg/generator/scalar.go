package generator

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/getmockd/specmock/pkg/spec"
)

// defaultSpan is the width of a numeric range bounded on one side only, or
// of [0, defaultSpan] when unbounded.
const defaultSpan = 100

// safeInt keeps generated integers exactly representable in JSON numbers.
const safeInt = 1 << 53

const patternAttempts = 10

func (r *run) str(s *spec.Schema, name string) (any, error) {
	if s.MinLength != nil && s.MaxLength != nil && *s.MinLength > *s.MaxLength {
		return nil, r.fail(s, fmt.Errorf("%w: minLength %d > maxLength %d", ErrContradiction, *s.MinLength, *s.MaxLength))
	}

	if s.Pattern != "" {
		var v string
		for i := 0; i < patternAttempts; i++ {
			var err error
			if v, err = patternString(r.rng, s.Pattern); err != nil {
				return nil, r.fail(s, err)
			}
			if fitsLength(v, s.MinLength, s.MaxLength) {
				return v, nil
			}
		}
		// Patterns are unanchored, so padding often keeps a match.
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, r.fail(s, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, s.Pattern, err))
		}
		if fitted := r.fitLength(v, s.MinLength, s.MaxLength); re.MatchString(fitted) {
			return fitted, nil
		}
		return nil, r.fail(s, fmt.Errorf("%w: no string matching %q within the length bounds", ErrContradiction, s.Pattern))
	}

	var v string
	if s.Format != "" {
		v = r.fk.stringByFormat(s.Format)
	}
	if v == "" && name != "" {
		if fn := fieldFaker(name); fn != "" {
			if x, ok := r.fk.fake(fn); ok {
				v = fmt.Sprint(x)
			}
		}
	}
	if v == "" {
		v = r.fk.words(1 + r.rng.IntN(3))
	}
	return r.fitLength(v, s.MinLength, s.MaxLength), nil
}

func fitsLength(v string, minLen, maxLen *int) bool {
	n := utf8.RuneCountInString(v)
	return (minLen == nil || n >= *minLen) && (maxLen == nil || n <= *maxLen)
}

// fitLength pads or truncates v to the declared bounds, counting code points.
func (r *run) fitLength(v string, minLen, maxLen *int) string {
	n := utf8.RuneCountInString(v)
	if minLen != nil && n < *minLen {
		var b strings.Builder
		b.WriteString(v)
		for ; n < *minLen; n++ {
			b.WriteByte(byte('a' + r.rng.IntN(26)))
		}
		v = b.String()
	}
	if maxLen != nil && n > *maxLen {
		v = string([]rune(v)[:*maxLen])
	}
	return v
}

func (r *run) integer(s *spec.Schema) (any, error) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if s.Minimum != nil {
		lo = math.Ceil(*s.Minimum)
		if s.ExclusiveMinimum && lo == *s.Minimum {
			lo++
		}
	}
	if s.Maximum != nil {
		hi = math.Floor(*s.Maximum)
		if s.ExclusiveMaximum && hi == *s.Maximum {
			hi--
		}
	}
	lo, hi = span(lo, hi)
	lo, hi = max(lo, -safeInt), min(hi, safeInt)
	if lo > hi {
		return nil, r.fail(s, fmt.Errorf("%w: no integer within bounds", ErrContradiction))
	}

	if s.MultipleOf != nil && *s.MultipleOf > 0 {
		m := *s.MultipleOf
		step := integerStep(m)
		kLo, kHi := math.Ceil(lo/step), math.Floor(hi/step)
		if kLo > kHi {
			return nil, r.fail(s, fmt.Errorf("%w: no integer multiple of %v within bounds", ErrContradiction, m))
		}
		return int64(r.pick(kLo, kHi) * step), nil
	}
	return int64(r.pick(lo, hi)), nil
}

// integerStep is the smallest positive integer that is a multiple of m. A
// multipleOf of 1.5 yields 3.
func integerStep(m float64) float64 {
	if m == math.Trunc(m) {
		return m
	}
	d := decimals(m)
	if d > 15 {
		return math.Ceil(m)
	}
	scale := int64(math.Pow(10, float64(d)))
	num := int64(math.Round(m * float64(scale)))
	return float64(num / gcd(num, scale))
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// pick returns a uniformly chosen integral value in [lo, hi]. Both bounds
// are integral; spans too wide for Int64N are sampled in floating point.
func (r *run) pick(lo, hi float64) float64 {
	n := hi - lo
	if n < 1<<62 {
		return lo + float64(r.rng.Int64N(int64(n)+1))
	}
	f := r.rng.Float64()
	v := math.Floor(lo*(1-f) + hi*f)
	return math.Min(math.Max(v, lo), hi)
}

func (r *run) number(s *spec.Schema) (any, error) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if s.Minimum != nil {
		lo = *s.Minimum
	}
	if s.Maximum != nil {
		hi = *s.Maximum
	}
	lo, hi = span(lo, hi)
	exclLo := s.Minimum != nil && s.ExclusiveMinimum
	exclHi := s.Maximum != nil && s.ExclusiveMaximum
	if lo > hi || (lo == hi && (exclLo || exclHi)) {
		return nil, r.fail(s, fmt.Errorf("%w: no number within bounds", ErrContradiction))
	}
	inRange := func(v float64) bool {
		return (v > lo || (!exclLo && v == lo)) && (v < hi || (!exclHi && v == hi))
	}

	if s.MultipleOf != nil && *s.MultipleOf > 0 {
		m := *s.MultipleOf
		kLo, kHi := math.Ceil(lo/m), math.Floor(hi/m)
		if exclLo && kLo*m == lo {
			kLo++
		}
		if exclHi && kHi*m == hi {
			kHi--
		}
		if kLo > kHi {
			return nil, r.fail(s, fmt.Errorf("%w: no multiple of %v within bounds", ErrContradiction, m))
		}
		kLo, kHi = max(kLo, -math.MaxFloat64), min(kHi, math.MaxFloat64)
		k := r.pick(kLo, kHi)
		v := round(k*m, decimals(m))
		if !inRange(v) && kLo < kHi {
			// k*m rounds past a bound only at the edges of the range.
			if k == kHi {
				k--
			} else {
				k++
			}
			v = round(k*m, decimals(m))
		}
		if math.IsInf(v, 0) || !inRange(v) {
			return nil, r.fail(s, fmt.Errorf("%w: multiples of %v are not representable within bounds", ErrContradiction, m))
		}
		return v, nil
	}

	if lo == hi {
		return lo, nil
	}
	// A convex combination stays finite even when hi-lo overflows.
	f := r.rng.Float64()
	v := lo*(1-f) + hi*f
	if rounded := round(v, 2); inRange(rounded) {
		return rounded, nil
	}
	if !inRange(v) {
		v = lo/2 + hi/2
	}
	return v, nil
}

// span fills in missing bounds around a default width.
func span(lo, hi float64) (float64, float64) {
	switch {
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		return 0, defaultSpan
	case math.IsInf(lo, -1):
		return hi - defaultSpan, hi
	case math.IsInf(hi, 1):
		return lo, lo + defaultSpan
	}
	return lo, hi
}

// decimals returns the number of fractional digits of m.
func decimals(m float64) int {
	s := strconv.FormatFloat(m, 'f', -1, 64)
	if _, frac, ok := strings.Cut(s, "."); ok {
		return len(frac)
	}
	return 0
}

// fingerprint identifies a generated value for uniqueItems.
func fingerprint(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}
