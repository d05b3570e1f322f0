package generator

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// faker produces locale-aware fake values for one generation call. Casers and
// transformers are stateful, so a faker is never shared between calls.
type faker struct {
	loc   *localeData
	rng   *rand.Rand
	now   time.Time
	title cases.Caser
	lower cases.Caser
}

func newFaker(loc *localeData, rng *rand.Rand, now time.Time) *faker {
	return &faker{
		loc:   loc,
		rng:   rng,
		now:   now,
		title: cases.Title(loc.tag),
		lower: cases.Lower(loc.tag),
	}
}

// fake returns the value for a faker name such as "name.firstName",
// "internet.email" or "firstName". Unknown names report false.
func (f *faker) fake(name string) (any, bool) {
	fn, ok := fakers[normalizeFakerName(name)]
	if !ok {
		return nil, false
	}
	return fn(f), true
}

func normalizeFakerName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "faker.")
	name = strings.TrimSuffix(name, "()")
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '.', '_', '-', ' ':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// fakers maps normalized names to value functions. Both the namespaced
// json-schema-faker spelling and the bare name are accepted.
var fakers = map[string]func(*faker) any{}

func register(fn func(*faker) any, names ...string) {
	for _, n := range names {
		fakers[normalizeFakerName(n)] = fn
	}
}

func init() {
	// Identity
	register(func(f *faker) any { return f.firstName() }, "name.firstName", "firstName", "givenName")
	register(func(f *faker) any { return f.lastName() }, "name.lastName", "lastName", "surname", "familyName")
	register(func(f *faker) any { return f.fullName() }, "name.findName", "name.fullName", "name", "fullName", "person.fullName")
	register(func(f *faker) any { return f.jobTitle() }, "name.jobTitle", "jobTitle", "person.jobTitle")
	register(func(f *faker) any { return f.digits("###-##-####") }, "ssn")
	register(func(f *faker) any { return f.passport() }, "passport")

	// Internet
	register(func(f *faker) any { return f.email() }, "internet.email", "email", "internet.exampleEmail")
	register(func(f *faker) any { return f.username() }, "internet.userName", "internet.username", "userName", "username")
	register(func(f *faker) any { return f.ipv4() }, "internet.ip", "internet.ipv4", "ipv4", "ip")
	register(func(f *faker) any { return f.ipv6() }, "internet.ipv6", "ipv6")
	register(func(f *faker) any { return f.mac() }, "internet.mac", "macAddress", "mac")
	register(func(f *faker) any { return f.url() }, "internet.url", "url", "uri")
	register(func(f *faker) any { return f.domain() }, "internet.domainName", "domainName", "hostname")
	register(func(f *faker) any { return pick(f.rng, userAgents) }, "internet.userAgent", "userAgent")
	register(func(f *faker) any { return f.password() }, "internet.password", "password")

	// Address
	register(func(f *faker) any { return f.streetAddress() }, "address.streetAddress", "streetAddress", "address", "location.streetAddress")
	register(func(f *faker) any { return pick(f.rng, f.loc.streets) }, "address.streetName", "streetName", "street")
	register(func(f *faker) any { return pick(f.rng, f.loc.cities) }, "address.city", "city", "location.city")
	register(func(f *faker) any { return pick(f.rng, f.loc.states) }, "address.state", "state", "province", "location.state")
	register(func(f *faker) any { return pick(f.rng, f.loc.countries) }, "address.country", "country", "location.country")
	register(func(f *faker) any { return f.digits(f.loc.postcode) }, "address.zipCode", "zipCode", "postcode", "postalCode", "location.zipCode")
	register(func(f *faker) any { return round(-90+f.rng.Float64()*180, 6) }, "address.latitude", "latitude", "location.latitude")
	register(func(f *faker) any { return round(-180+f.rng.Float64()*360, 6) }, "address.longitude", "longitude", "location.longitude")

	// Phone
	register(func(f *faker) any { return f.digits(f.loc.phone) }, "phone.phoneNumber", "phone.number", "phoneNumber", "phone")

	// Company and commerce
	register(func(f *faker) any { return f.company() }, "company.companyName", "company.name", "companyName", "company")
	register(func(f *faker) any { return f.productName() }, "commerce.productName", "productName")
	register(func(f *faker) any { return fmt.Sprintf("%d.%02d", f.rng.IntN(999)+1, f.rng.IntN(100)) }, "commerce.price", "price")
	register(func(f *faker) any { return pick(f.rng, colors) }, "commerce.color", "color", "colour")
	register(func(f *faker) any { return pick(f.rng, currencyCodes) }, "finance.currencyCode", "currencyCode", "currency")
	register(func(f *faker) any { return f.iban() }, "finance.iban", "iban")
	register(func(f *faker) any { return f.creditCard() }, "finance.creditCardNumber", "creditCardNumber", "creditCard")

	// Text
	register(func(f *faker) any { return pick(f.rng, loremWords) }, "lorem.word", "word")
	register(func(f *faker) any { return f.words(3) }, "lorem.words", "words")
	register(func(f *faker) any { return f.sentence() }, "lorem.sentence", "sentence", "description")
	register(func(f *faker) any { return f.paragraph() }, "lorem.paragraph", "paragraph", "text")
	register(func(f *faker) any { return f.slug() }, "lorem.slug", "slug")

	// Dates
	register(func(f *faker) any { return f.pastTime().Format(time.RFC3339) }, "date.past", "date.recent", "pastDate")
	register(func(f *faker) any { return f.futureTime().Format(time.RFC3339) }, "date.future", "futureDate")

	// Data
	register(func(f *faker) any { return f.uuid() }, "random.uuid", "datatype.uuid", "string.uuid", "uuid")
	register(func(f *faker) any { return f.rng.IntN(2) == 0 }, "random.boolean", "datatype.boolean", "boolean")
	register(func(f *faker) any { return pick(f.rng, mimeTypes) }, "system.mimeType", "mimeType")
	register(func(f *faker) any { return pick(f.rng, fileExtensions) }, "system.fileExt", "fileExtension")
}

func (f *faker) firstName() string { return pick(f.rng, f.loc.firstNames) }
func (f *faker) lastName() string  { return pick(f.rng, f.loc.lastNames) }

func (f *faker) fullName() string {
	first, last := f.firstName(), f.lastName()
	if f.loc.familyFirst {
		return last + " " + first
	}
	return first + " " + last
}

func (f *faker) jobTitle() string {
	return pick(f.rng, jobLevels) + " " + pick(f.rng, jobFields) + " " + pick(f.rng, jobRoles)
}

func (f *faker) email() string {
	local := f.ascii(f.firstName()) + "." + f.ascii(f.lastName())
	if local == "." {
		local = "user" + f.digits("####")
	}
	return strings.Trim(local, ".") + "@" + pick(f.rng, f.loc.emailDomains)
}

func (f *faker) username() string {
	name := f.ascii(f.firstName())
	if name == "" {
		name = "user"
	}
	return name + f.digits("##")
}

// ascii lower-cases s and strips diacritics, keeping only [a-z0-9].
func (f *faker) ascii(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, f.lower.String(s))
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (f *faker) ipv4() string {
	return fmt.Sprintf("%d.%d.%d.%d", f.rng.IntN(256), f.rng.IntN(256), f.rng.IntN(256), f.rng.IntN(256))
}

func (f *faker) ipv6() string {
	groups := make([]string, 8)
	for i := range groups {
		groups[i] = fmt.Sprintf("%04x", f.rng.IntN(65536))
	}
	return strings.Join(groups, ":")
}

func (f *faker) mac() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		f.rng.IntN(256), f.rng.IntN(256), f.rng.IntN(256),
		f.rng.IntN(256), f.rng.IntN(256), f.rng.IntN(256))
}

func (f *faker) domain() string {
	return pick(f.rng, loremWords) + ".example.com"
}

func (f *faker) url() string {
	return "https://example.com/" + f.slug()
}

func (f *faker) password() string {
	return "P@ss" + f.title.String(pick(f.rng, loremWords)) + f.digits("##") + "!"
}

func (f *faker) streetAddress() string {
	return fmt.Sprintf(f.loc.streetFormat, f.digits("###"), pick(f.rng, f.loc.streets))
}

func (f *faker) company() string {
	return pick(f.rng, f.loc.companyNames) + " " + pick(f.rng, f.loc.companySuffixes)
}

func (f *faker) productName() string {
	return pick(f.rng, productAdjectives) + " " + pick(f.rng, productMaterials) + " " + pick(f.rng, productNouns)
}

func (f *faker) iban() string {
	p := ibanPrefixes[f.rng.IntN(len(ibanPrefixes))]
	var b strings.Builder
	b.WriteString(p.country)
	fmt.Fprintf(&b, "%02d", f.rng.IntN(90)+10)
	b.WriteString(p.bankPrefix)
	for i := len(p.country) + 2 + len(p.bankPrefix); i < p.length; i++ {
		b.WriteByte(byte('0' + f.rng.IntN(10)))
	}
	return b.String()
}

// creditCard returns a Luhn-valid 16 digit number with a Visa-like prefix.
func (f *faker) creditCard() string {
	digits := make([]int, 16)
	digits[0] = 4
	for i := 1; i < 15; i++ {
		digits[i] = f.rng.IntN(10)
	}
	sum := 0
	for i := 0; i < 15; i++ {
		d := digits[i]
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	digits[15] = (10 - sum%10) % 10

	var b strings.Builder
	for _, d := range digits {
		b.WriteByte(byte('0' + d))
	}
	return b.String()
}

func (f *faker) passport() string {
	return string([]byte{byte('A' + f.rng.IntN(26)), byte('A' + f.rng.IntN(26))}) + f.digits("#######")
}

func (f *faker) words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = pick(f.rng, loremWords)
	}
	return strings.Join(parts, " ")
}

func (f *faker) sentence() string {
	s := f.words(5 + f.rng.IntN(6))
	first, rest, _ := strings.Cut(s, " ")
	return f.title.String(first) + " " + rest + "."
}

func (f *faker) paragraph() string {
	parts := make([]string, 3+f.rng.IntN(3))
	for i := range parts {
		parts[i] = f.sentence()
	}
	return strings.Join(parts, " ")
}

func (f *faker) slug() string {
	return strings.ReplaceAll(f.words(2+f.rng.IntN(2)), " ", "-")
}

func (f *faker) uuid() string {
	id, err := uuid.NewRandomFromReader(rngReader{f.rng})
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (f *faker) bytes(n int) string {
	buf := make([]byte, n)
	_, _ = rngReader{f.rng}.Read(buf)
	return base64.StdEncoding.EncodeToString(buf)
}

func (f *faker) pastTime() time.Time {
	return f.now.Add(-time.Duration(f.rng.Int64N(int64(365 * 24 * time.Hour)))).Truncate(time.Second)
}

func (f *faker) futureTime() time.Time {
	return f.now.Add(time.Duration(f.rng.Int64N(int64(365 * 24 * time.Hour)))).Truncate(time.Second)
}

// digits replaces every '#' in format with a random digit.
func (f *faker) digits(format string) string {
	var b strings.Builder
	b.Grow(len(format))
	for _, r := range format {
		if r == '#' {
			b.WriteByte(byte('0' + f.rng.IntN(10)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func pick(rng *rand.Rand, list []string) string {
	return list[rng.IntN(len(list))]
}

// rngReader adapts a *rand.Rand to io.Reader so seeded runs produce
// reproducible UUIDs and bytes.
type rngReader struct{ rng *rand.Rand }

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.Uint32())
	}
	return len(p), nil
}
