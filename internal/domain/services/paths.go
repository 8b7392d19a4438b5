// Package services implements the dependency-path resolution and
// repair-planning core.
package services

import "strings"

// Classification is the outcome of classifying a library path.
type Classification int

// Every path classifies to exactly one outcome; there is no error case.
const (
	// Allowed paths resolve without rewriting: OS-provided locations
	// and paths already expressed with a bundle-relative token.
	Allowed Classification = iota

	// NeedsResolution paths must be mapped back onto the bundle before
	// the loader can find them.
	NeedsResolution
)

// The three bundle-relative address tokens dyld understands.
const (
	TokenRpath          = "@rpath"
	TokenExecutablePath = "@executable_path"
	TokenLoaderPath     = "@loader_path"
)

// DefaultAllowedPrefixes are the OS-provided directory prefixes treated
// as always resolvable. If the app runs at all, references under these
// are the platform's problem, not the bundle's.
var DefaultAllowedPrefixes = []string{"/System/", "/usr/", "/Library/"}

var relativeTokens = []string{TokenRpath, TokenExecutablePath, TokenLoaderPath}

// PathPolicy decides which library paths are allowed as-is. The zero
// value is not usable; construct with NewPathPolicy.
type PathPolicy struct {
	allowed []string
}

// NewPathPolicy builds a policy from the default OS prefixes plus any
// extra allowed prefixes from configuration.
func NewPathPolicy(extraPrefixes ...string) PathPolicy {
	allowed := make([]string, 0, len(DefaultAllowedPrefixes)+len(extraPrefixes))
	allowed = append(allowed, DefaultAllowedPrefixes...)
	allowed = append(allowed, extraPrefixes...)
	return PathPolicy{allowed: allowed}
}

// Classify decides whether a path is allowed as-is or needs resolution.
// The function is pure and total.
func (p PathPolicy) Classify(path string) Classification {
	for _, prefix := range p.allowed {
		if strings.HasPrefix(path, prefix) {
			return Allowed
		}
	}
	for _, token := range relativeTokens {
		if path == token || strings.HasPrefix(path, token+"/") {
			return Allowed
		}
	}
	return NeedsResolution
}
