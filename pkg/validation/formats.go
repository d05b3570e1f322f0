package validation

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"math/big"
	"net/url"
	"strings"
)

// openAPIFormats are the OpenAPI data type formats JSON Schema does not know.
// Each checker accepts values of other types; type is checked separately.
var openAPIFormats = map[string]func(any) bool{
	"int32":  intRange(math.MinInt32, math.MaxInt32),
	"int64":  intRange(math.MinInt64, math.MaxInt64),
	"float":  validateFloat,
	"double": func(any) bool { return true },
	"byte":   validateByte,
	"url":    validateURL,
}

func intRange(lo, hi int64) func(any) bool {
	min, max := big.NewRat(lo, 1), big.NewRat(hi, 1)
	return func(v any) bool {
		r, ok := rat(v)
		if !ok {
			return true
		}
		return r.Cmp(min) >= 0 && r.Cmp(max) <= 0
	}
}

func validateFloat(v any) bool {
	r, ok := rat(v)
	if !ok {
		return true
	}
	f, _ := r.Float64()
	return math.Abs(f) <= math.MaxFloat32
}

func rat(v any) (*big.Rat, bool) {
	switch n := v.(type) {
	case json.Number:
		return new(big.Rat).SetString(n.String())
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, false
		}
		return new(big.Rat).SetFloat64(n), true
	case int:
		return big.NewRat(int64(n), 1), true
	case int64:
		return big.NewRat(n, 1), true
	}
	return nil, false
}

// validateByte checks base64 content, padded or not.
func validateByte(v any) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	if _, err := base64.StdEncoding.DecodeString(s); err == nil {
		return true
	}
	_, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	return err == nil
}

// validateURL requires a scheme and a host.
func validateURL(v any) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
