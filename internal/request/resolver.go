package request

import (
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// IdentityResolver derives the identifier a gate buckets requests under.
// The default uses the source IP; deployments behind authentication can
// substitute any implementation.
type IdentityResolver interface {
	Resolve(r *http.Request) string
}

// ResolverFunc adapts a function to the IdentityResolver interface.
type ResolverFunc func(r *http.Request) string

// Resolve implements IdentityResolver.
func (f ResolverFunc) Resolve(r *http.Request) string { return f(r) }

// IPResolver resolves identity from the client IP chain.
type IPResolver struct{}

// Resolve implements IdentityResolver.
func (IPResolver) Resolve(r *http.Request) string { return ClientIP(r) }

// PrincipalResolver resolves identity from the subject claim of a Bearer
// token, falling back to the client IP when no usable token is present.
// The token is parsed without signature verification: authentication is the
// auth layer's job, and for bucketing purposes a forged subject only gives
// the forger their own bucket.
type PrincipalResolver struct{}

// Resolve implements IdentityResolver.
func (PrincipalResolver) Resolve(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if raw, ok := strings.CutPrefix(auth, "Bearer "); ok {
		token, err := jwt.ParseString(raw, jwt.WithVerify(false), jwt.WithValidate(false))
		if err == nil && token.Subject() != "" {
			return "sub:" + token.Subject()
		}
	}
	return ClientIP(r)
}
