package services

import (
	"path/filepath"
	"strings"

	"github.com/ilastik/app-pass/internal/domain/entities"
)

// Resolver rewrites absolute or build-machine-specific paths into
// bundle-relative form. Resolution order is a policy decision and is
// deliberately explicit: main-executable run paths in declaration
// order, first match wins, then the loader-relative fallback.
type Resolver struct {
	policy PathPolicy
}

// NewResolver creates a resolver with the given path policy.
func NewResolver(policy PathPolicy) *Resolver {
	return &Resolver{policy: policy}
}

// Resolve maps path into a form resolvable relative to the bundle.
// loaderDir anchors @loader_path: it is the directory of the binary
// that declares the path. The boolean is false when the path cannot be
// expressed relative to the bundle at all.
func (r *Resolver) Resolve(bundle *entities.Bundle, loaderDir, path string) (string, bool) {
	if r.policy.Classify(path) == Allowed {
		return path, true
	}
	if !filepath.IsAbs(path) {
		// A bare or relative path denotes no location we can reason
		// about; dyld would resolve it against the process working
		// directory.
		return "", false
	}
	if !entities.PathWithin(bundle.Root, path) {
		return "", false
	}

	for _, entry := range bundle.MainRpaths() {
		base, ok := rpathBase(bundle, loaderDir, entry)
		if !ok {
			continue
		}
		if entities.PathWithin(base, path) {
			rel, err := filepath.Rel(base, path)
			if err != nil {
				continue
			}
			// Plain concatenation: filepath.Join would collapse the
			// ".." segments inside the rpath entry itself.
			return entry + "/" + rel, true
		}
	}

	// Fall back to addressing relative to the declaring binary. This
	// succeeds unconditionally; it breaks if the binary is ever loaded
	// by a process rooted elsewhere, a risk the original tool accepts.
	rel, err := filepath.Rel(loaderDir, path)
	if err != nil {
		return "", false
	}
	return TokenLoaderPath + "/" + rel, true
}

// rpathBase computes the absolute directory a run-path entry denotes.
// @loader_path anchors at the declaring binary's directory,
// @executable_path at the main executable's directory. Entries
// anchored at @rpath or written as bare relative paths denote no
// single concrete base and are skipped.
func rpathBase(bundle *entities.Bundle, loaderDir, entry string) (string, bool) {
	switch {
	case entry == TokenLoaderPath:
		return loaderDir, true
	case strings.HasPrefix(entry, TokenLoaderPath+"/"):
		return filepath.Join(loaderDir, entry[len(TokenLoaderPath)+1:]), true
	case entry == TokenExecutablePath:
		return bundle.LoaderDir, true
	case strings.HasPrefix(entry, TokenExecutablePath+"/"):
		return filepath.Join(bundle.LoaderDir, entry[len(TokenExecutablePath)+1:]), true
	default:
		return "", false
	}
}
