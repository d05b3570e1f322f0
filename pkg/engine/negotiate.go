package engine

import (
	"mime"
	"strconv"
	"strings"
)

type acceptRange struct {
	typ, sub string
	q        float64
}

// parseAccept parses an Accept header. Malformed entries are skipped.
func parseAccept(header string) []acceptRange {
	var ranges []acceptRange
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "*" || strings.HasPrefix(part, "*;") {
			part = "*/*" + strings.TrimPrefix(part, "*")
		}
		mt, params, err := mime.ParseMediaType(part)
		if err != nil {
			continue
		}
		typ, sub, ok := strings.Cut(mt, "/")
		if !ok {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 1 {
				continue
			}
			q = f
		}
		ranges = append(ranges, acceptRange{typ: typ, sub: sub, q: q})
	}
	return ranges
}

// quality returns the q-value the most specific range assigns to offer, or
// -1 when no range covers it.
func quality(ranges []acceptRange, offer string) float64 {
	mt, _, err := mime.ParseMediaType(offer)
	if err != nil {
		mt = strings.ToLower(offer)
	}
	typ, sub, _ := strings.Cut(mt, "/")

	best, specificity := -1.0, -1
	for _, r := range ranges {
		s := -1
		switch {
		case r.typ == typ && r.sub == sub:
			s = 2
		case r.typ == typ && r.sub == "*":
			s = 1
		case r.typ == "*" && r.sub == "*":
			s = 0
		case typ == "*" || sub == "*":
			// A wildcard offer such as "application/*" accepts any range of
			// its type.
			if (typ == "*" || typ == r.typ) && sub == "*" {
				s = 0
			}
		}
		if s > specificity {
			best, specificity = r.q, s
		}
	}
	return best
}

// Negotiate picks the offered content type the Accept header prefers. Ties
// go to declaration order. An empty header, or one accepting none of the
// offers, yields the first offer. It returns "" when nothing is offered.
func Negotiate(accept string, offered []string) string {
	if len(offered) == 0 {
		return ""
	}
	ranges := parseAccept(accept)
	if len(ranges) == 0 {
		return offered[0]
	}

	best, bestQ := "", 0.0
	for _, offer := range offered {
		if q := quality(ranges, offer); q > bestQ {
			best, bestQ = offer, q
		}
	}
	if best == "" {
		return offered[0]
	}
	return best
}
