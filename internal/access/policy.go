// Package access decides whether a navigation may proceed for the current
// session.
package access

import "github.com/mansap-dev/mansap/internal/auth"

// Default marketplace paths. Matching is exact and case-sensitive.
const (
	HomePath = "/"
	AuthPath = "/auth"
)

var (
	defaultProtected = []string{"/job-postings", "/profile", "/find-work", "/applications"}
	defaultAdmin     = []string{"/admin"}
)

// Decision is the outcome of one navigation attempt.
type Decision struct {
	Allow    bool
	Redirect string
	// Abort means the original navigation must not complete before the
	// redirect happens.
	Abort bool
}

func Allow() Decision {
	return Decision{Allow: true}
}

func RedirectTo(path string) Decision {
	return Decision{Redirect: path}
}

func (d Decision) String() string {
	if d.Allow {
		return "allow"
	}
	if d.Abort {
		return "abort, redirect to " + d.Redirect
	}
	return "redirect to " + d.Redirect
}

// Policy holds the path sets the rules are evaluated against.
type Policy struct {
	protected map[string]struct{}
	admin     map[string]struct{}
	authPath  string
	homePath  string
}

// New builds a policy from the protected and admin-only path sets.
func New(protected, admin []string) Policy {
	return Policy{
		protected: toSet(protected),
		admin:     toSet(admin),
		authPath:  AuthPath,
		homePath:  HomePath,
	}
}

// Default returns the marketplace policy.
func Default() Policy {
	return New(defaultProtected, defaultAdmin)
}

// Decide evaluates the rules in order; the first match wins.
//
//  1. a token holder asking for the auth screen goes home
//  2. no token on a protected path aborts and goes to the auth screen
//  3. a non-admin on an admin path goes home
//  4. everything else is allowed
func (p Policy) Decide(hasToken bool, role auth.Role, path string) Decision {
	if hasToken && path == p.authPath {
		return RedirectTo(p.homePath)
	}

	if !hasToken && p.IsProtected(path) {
		return Decision{Redirect: p.authPath, Abort: true}
	}

	if p.RequiresRole(path) && role != auth.RoleAdmin {
		return RedirectTo(p.homePath)
	}

	return Allow()
}

func (p Policy) IsProtected(path string) bool {
	_, ok := p.protected[path]
	return ok
}

// RequiresRole reports whether path is admin-only. Callers resolve the role
// only for these paths.
func (p Policy) RequiresRole(path string) bool {
	_, ok := p.admin[path]
	return ok
}

func toSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		set[path] = struct{}{}
	}
	return set
}
