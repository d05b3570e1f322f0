package validation

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/getmockd/specmock/pkg/spec"
)

const authRealm = `realm="specmock"`

type credential int

const (
	credentialValid credential = iota
	credentialMissing
	credentialRejected
)

// authStep checks the operation's security requirements. Requirements are
// alternatives; every scheme within one requirement must be satisfied.
type authStep struct {
	schemes        map[string]*spec.SecurityScheme
	rejectedStatus int
	now            func() time.Time
}

func (a *authStep) Name() string { return "auth" }

func (a *authStep) Validate(_ context.Context, op *spec.Operation, req *Request) *Error {
	if len(op.Security) == 0 {
		return nil
	}

	var rejected string
	for _, requirement := range op.Security {
		if len(requirement) == 0 {
			return nil
		}
		ok := true
		for _, name := range schemeNames(requirement) {
			result, reason := a.check(a.schemes[name], req.Request)
			if result == credentialValid {
				continue
			}
			ok = false
			if result == credentialRejected && rejected == "" {
				rejected = fmt.Sprintf("%s: %s", name, reason)
			}
		}
		if ok {
			return nil
		}
	}

	if rejected != "" {
		return &Error{
			Kind:    Unauthorized,
			Step:    a.Name(),
			Status:  a.rejectedStatus,
			Message: "authentication failed: credentials rejected for " + rejected,
			Fields: []*FieldError{{
				Location: LocationHeader,
				Code:     ErrCodeCredentials,
				Message:  rejected,
			}},
		}
	}
	return &Error{
		Kind:      Unauthorized,
		Step:      a.Name(),
		Status:    http.StatusUnauthorized,
		Message:   "authentication failed: no credentials for " + describe(op.Security),
		Challenge: a.challenge(op.Security[0]),
	}
}

func (a *authStep) check(scheme *spec.SecurityScheme, r *http.Request) (credential, string) {
	if scheme == nil {
		return credentialMissing, "unknown scheme"
	}
	switch scheme.Type {
	case "apiKey":
		if apiKey(scheme, r) == "" {
			return credentialMissing, ""
		}
		return credentialValid, ""
	case "http":
		return a.checkHTTP(scheme, r)
	case "oauth2", "openIdConnect":
		if token, ok := authorization(r, "bearer"); !ok || token == "" {
			return credentialMissing, ""
		}
		return credentialValid, ""
	case "mutualTLS":
		if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
			return credentialMissing, ""
		}
		return credentialValid, ""
	}
	return credentialMissing, "unsupported scheme type " + scheme.Type
}

func (a *authStep) checkHTTP(scheme *spec.SecurityScheme, r *http.Request) (credential, string) {
	cred, ok := authorization(r, scheme.Scheme)
	if !ok {
		return credentialMissing, ""
	}
	switch scheme.Scheme {
	case "basic":
		decoded, err := base64.StdEncoding.DecodeString(cred)
		if err != nil {
			return credentialRejected, "basic credentials are not valid base64"
		}
		if !strings.Contains(string(decoded), ":") {
			return credentialRejected, "basic credentials must be user:password"
		}
	case "bearer":
		if cred == "" {
			return credentialMissing, ""
		}
		if strings.EqualFold(scheme.BearerFormat, "jwt") {
			if reason := a.checkJWT(cred); reason != "" {
				return credentialRejected, reason
			}
		}
	}
	return credentialValid, ""
}

// checkJWT verifies that token is a well-formed, unexpired JWT. Signatures
// are not verified.
func (a *authStep) checkJWT(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "malformed JWT: " + err.Error()
	}
	now := time.Now()
	if a.now != nil {
		now = a.now()
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "invalid exp claim"
	}
	if exp != nil && !now.Before(exp.Time) {
		return "token expired"
	}
	nbf, err := claims.GetNotBefore()
	if err != nil {
		return "invalid nbf claim"
	}
	if nbf != nil && now.Before(nbf.Time) {
		return "token not valid yet"
	}
	return ""
}

func (a *authStep) challenge(requirement spec.SecurityRequirement) string {
	var parts []string
	for _, name := range schemeNames(requirement) {
		scheme := a.schemes[name]
		if scheme == nil {
			continue
		}
		switch scheme.Type {
		case "http":
			if scheme.Scheme != "" {
				parts = append(parts, strings.ToUpper(scheme.Scheme[:1])+scheme.Scheme[1:]+" "+authRealm)
			}
		case "oauth2", "openIdConnect":
			parts = append(parts, "Bearer "+authRealm)
		case "apiKey":
			parts = append(parts, fmt.Sprintf(`ApiKey %s, in="%s", name="%s"`, authRealm, scheme.In, scheme.Name))
		}
	}
	if len(parts) == 0 {
		return "Bearer " + authRealm
	}
	return strings.Join(parts, ", ")
}

// apiKey returns the key presented for scheme, or "".
func apiKey(scheme *spec.SecurityScheme, r *http.Request) string {
	switch scheme.In {
	case "header":
		return r.Header.Get(scheme.Name)
	case "query":
		return r.URL.Query().Get(scheme.Name)
	case "cookie":
		if c, err := r.Cookie(scheme.Name); err == nil {
			return c.Value
		}
	}
	return ""
}

// authorization returns the credentials of the Authorization header when
// it uses scheme (case-insensitive).
func authorization(r *http.Request, scheme string) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" || scheme == "" {
		return "", false
	}
	name, cred, _ := strings.Cut(h, " ")
	if !strings.EqualFold(name, scheme) {
		return "", false
	}
	return strings.TrimSpace(cred), true
}

func schemeNames(requirement spec.SecurityRequirement) []string {
	names := make([]string, 0, len(requirement))
	for name := range requirement {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func describe(security []spec.SecurityRequirement) string {
	alts := make([]string, 0, len(security))
	for _, requirement := range security {
		alts = append(alts, strings.Join(schemeNames(requirement), " and "))
	}
	return strings.Join(alts, " or ")
}
