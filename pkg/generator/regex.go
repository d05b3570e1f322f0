package generator

import (
	"fmt"
	"math/rand/v2"
	"regexp/syntax"
	"strings"
	"unicode"
)

// maxRepeat caps unbounded quantifiers (*, +, {n,}).
const maxRepeat = 4

// patternString returns a string matching pattern. Anchors are honoured by
// construction: the whole output matches the expression.
func patternString(rng *rand.Rand, pattern string) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	var b strings.Builder
	writeRegexp(&b, rng, re.Simplify())
	return b.String(), nil
}

func writeRegexp(b *strings.Builder, rng *rand.Rand, re *syntax.Regexp) {
	switch re.Op {
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			if re.Flags&syntax.FoldCase != 0 && rng.IntN(2) == 0 {
				r = unicode.SimpleFold(r)
			}
			b.WriteRune(r)
		}
	case syntax.OpCharClass:
		b.WriteRune(classRune(rng, re.Rune))
	case syntax.OpAnyCharNotNL, syntax.OpAnyChar:
		b.WriteByte(byte('a' + rng.IntN(26)))
	case syntax.OpCapture:
		writeRegexp(b, rng, re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			writeRegexp(b, rng, sub)
		}
	case syntax.OpAlternate:
		writeRegexp(b, rng, re.Sub[rng.IntN(len(re.Sub))])
	case syntax.OpStar:
		repeat(b, rng, re.Sub[0], 0, maxRepeat)
	case syntax.OpPlus:
		repeat(b, rng, re.Sub[0], 1, maxRepeat)
	case syntax.OpQuest:
		repeat(b, rng, re.Sub[0], 0, 1)
	case syntax.OpRepeat:
		hi := re.Max
		if hi < 0 {
			hi = re.Min + maxRepeat
		}
		repeat(b, rng, re.Sub[0], re.Min, hi)
	default:
		// Anchors, word boundaries and empty matches produce no text.
	}
}

func repeat(b *strings.Builder, rng *rand.Rand, re *syntax.Regexp, lo, hi int) {
	n := lo
	if hi > lo {
		n += rng.IntN(hi - lo + 1)
	}
	for i := 0; i < n; i++ {
		writeRegexp(b, rng, re)
	}
}

// classRune picks a rune from a character class given as range pairs,
// preferring printable ASCII when the class allows it.
func classRune(rng *rand.Rand, ranges []rune) rune {
	if len(ranges) == 0 {
		return 'a'
	}
	var printable []rune
	for i := 0; i+1 < len(ranges); i += 2 {
		lo, hi := max(ranges[i], 0x21), min(ranges[i+1], 0x7e)
		if lo <= hi {
			printable = append(printable, lo, hi)
		}
	}
	if len(printable) > 0 {
		ranges = printable
	}
	i := rng.IntN(len(ranges)/2) * 2
	lo, hi := ranges[i], ranges[i+1]
	return lo + rune(rng.IntN(int(hi-lo)+1))
}
