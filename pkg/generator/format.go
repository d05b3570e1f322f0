package generator

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// stringByFormat maps OpenAPI and JSON Schema formats to fake values.
// Unknown formats return "".
func (f *faker) stringByFormat(format string) string {
	switch format {
	case "email", "idn-email":
		return f.email()
	case "uuid":
		return f.uuid()
	case "uri", "url", "iri":
		return f.url()
	case "uri-reference", "iri-reference":
		return "/" + f.slug()
	case "uri-template":
		return "https://example.com/{id}"
	case "hostname", "idn-hostname":
		return f.domain()
	case "ipv4":
		return f.ipv4()
	case "ipv6":
		return f.ipv6()
	case "date-time":
		return f.pastTime().UTC().Format(time.RFC3339)
	case "date":
		return f.pastTime().UTC().Format(time.DateOnly)
	case "time":
		return f.pastTime().UTC().Format("15:04:05Z")
	case "duration":
		return fmt.Sprintf("PT%dH%dM", f.rng.IntN(24), f.rng.IntN(60))
	case "phone":
		return f.digits(f.loc.phone)
	case "password":
		return f.password()
	case "byte":
		return f.bytes(6 + f.rng.IntN(10))
	case "binary":
		return f.words(2)
	case "json-pointer":
		return "/" + pick(f.rng, loremWords) + "/" + pick(f.rng, loremWords)
	case "relative-json-pointer":
		return "0/" + pick(f.rng, loremWords)
	case "regex":
		return "^[a-z]+$"
	default:
		return ""
	}
}

// fieldFaker maps common property names to faker names. It returns "" when
// the name carries no hint.
//
//nolint:gocyclo // Large switch for heuristic mapping is clearer than splitting.
func fieldFaker(name string) string {
	lower := strings.ToLower(name)

	switch {
	case strings.HasSuffix(lower, "email"):
		return "email"
	case lower == "mobile" || lower == "tel" || strings.HasSuffix(lower, "phone"):
		return "phone"
	case lower == "name" || lower == "full_name" || lower == "fullname":
		return "fullName"
	case lower == "first_name" || lower == "firstname" || lower == "given_name":
		return "firstName"
	case lower == "last_name" || lower == "lastname" || lower == "surname" || lower == "family_name":
		return "lastName"
	case lower == "address" || lower == "street" || lower == "street_address":
		return "streetAddress"
	case lower == "company" || lower == "organization" || lower == "org":
		return "company"
	case lower == "url" || lower == "uri" || lower == "href" || lower == "link" || lower == "website":
		return "url"
	case lower == "ip" || lower == "ip_address" || lower == "ipaddress":
		return "ipv4"
	case lower == "price" || lower == "amount" || lower == "cost" || lower == "total":
		return "price"
	case lower == "color" || lower == "colour":
		return "color"
	case lower == "title" || lower == "job_title" || lower == "jobtitle":
		return "jobTitle"
	case lower == "description" || lower == "bio" || lower == "summary" || lower == "about":
		return "sentence"
	case lower == "id" || lower == "uuid":
		return "uuid"
	case lower == "ssn":
		return "ssn"
	case lower == "slug":
		return "slug"
	case strings.HasSuffix(lower, "_at") || lower == "created" || lower == "updated" ||
		strings.HasSuffix(lower, "date") || lower == "timestamp":
		return "date.past"
	case lower == "currency" || lower == "currency_code":
		return "currencyCode"
	case lower == "country":
		return "country"
	case lower == "city":
		return "city"
	case lower == "state" || lower == "province":
		return "state"
	case lower == "zip" || lower == "zipcode" || lower == "zip_code" || lower == "postal_code" || lower == "postalcode":
		return "zipCode"
	case lower == "username" || lower == "user_name" || lower == "login":
		return "userName"
	case lower == "user_agent" || lower == "useragent":
		return "userAgent"
	}
	return ""
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	// Beyond 2^53 a float64 has no fractional digits left to round.
	if math.Abs(v*p) >= 1<<53 {
		return v
	}
	return math.Round(v*p) / p
}
