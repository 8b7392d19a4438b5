package services

import (
	"fmt"
	"path/filepath"

	"github.com/ilastik/app-pass/internal/domain/entities"
	"github.com/ilastik/app-pass/internal/domain/interfaces"
)

// CheckOptions carries the policy knobs for one check pass.
type CheckOptions struct {
	// RpathDelete turns unresolvable run-path entries into fixable
	// removals instead of unfixable reports.
	RpathDelete bool

	// ForceUpdate additionally overwrites container-binary build
	// metadata that is valid but predates the bundle's default.
	ForceUpdate bool
}

// IssueEngine walks every binary of a bundle and emits findings. Each
// binary's evaluation reads only its own data plus the immutable
// bundle, so evaluation is safe to parallelize; emission order is kept
// stable (identity, then dependency, run path and build, in discovery
// order) for reproducible output.
type IssueEngine struct {
	policy   PathPolicy
	resolver *Resolver
	logger   interfaces.Logger
}

// NewIssueEngine creates an issue engine with the given path policy.
func NewIssueEngine(policy PathPolicy, logger interfaces.Logger) *IssueEngine {
	return &IssueEngine{
		policy:   policy,
		resolver: NewResolver(policy),
		logger:   logger,
	}
}

// Check inspects every native and container binary and returns all
// findings. Unresolvable paths and missing dependencies surface as
// unfixable issues, never as errors: one broken binary must not abort
// reporting for the rest of the bundle.
func (e *IssueEngine) Check(bundle *entities.Bundle, opts CheckOptions) []entities.Issue {
	var issues []entities.Issue

	for _, bin := range bundle.Binaries {
		issues = append(issues, e.checkIdentity(bin, "")...)
		issues = append(issues, e.checkDependencies(bundle, bin, "", nil)...)
		issues = append(issues, e.checkRpaths(bundle, bin, opts)...)
		issues = append(issues, e.checkBuild(bundle, bin, "", opts)...)
	}

	for _, container := range bundle.Containers {
		siblings := make(map[string]bool, len(container.Binaries))
		for _, bin := range container.Binaries {
			siblings[bin.Name()] = true
		}
		for _, bin := range container.Binaries {
			issues = append(issues, e.checkIdentity(bin, container.Path)...)
			issues = append(issues, e.checkDependencies(bundle, bin, container.Path, siblings)...)
			// Run-path checks are skipped for container binaries: their
			// extracted location is transient, so bundle-relative
			// reasoning about their rpaths has no stable anchor.
			issues = append(issues, e.checkBuild(bundle, bin, container.Path, opts)...)
		}
	}

	return issues
}

// checkIdentity normalizes a foreign install name to the canonical
// @rpath form. Identity is never rewritten loader-relative: other
// binaries reference the library by this name.
func (e *IssueEngine) checkIdentity(bin *entities.MachOBinary, container string) []entities.Issue {
	if bin.ID == "" || e.policy.Classify(bin.ID) == Allowed {
		return nil
	}
	canonical := TokenRpath + "/" + bin.Name()
	e.logger.Info("issue found",
		interfaces.F("binary", bin.Path),
		interfaces.F("issue_type", "identity"),
		interfaces.F("fixable", true))
	return []entities.Issue{{
		Category:  entities.IssueIdentity,
		Fixable:   true,
		Details:   fmt.Sprintf("install name %s of %s is not bundle-relative", bin.ID, bin.Path),
		Binary:    bin.Path,
		Container: container,
		Fix:       []entities.Command{RewriteIdentityCommand(bin.Path, canonical)},
	}}
}

// checkDependencies rewrites dependency paths that cannot resolve at
// load time. A dependency whose file name matches a bundle library is
// re-addressed relative to the referencing binary; one that matches
// nothing in the bundle is permanently unfixable without external
// input.
func (e *IssueEngine) checkDependencies(bundle *entities.Bundle, bin *entities.MachOBinary, container string, siblings map[string]bool) []entities.Issue {
	var issues []entities.Issue
	for _, dep := range bin.Dylibs {
		if e.policy.Classify(dep) == Allowed {
			continue
		}
		name := filepath.Base(dep)

		var newDep string
		switch {
		case container != "":
			// Extracted binaries have no stable on-disk anchor, so a
			// found dependency is addressed by canonical @rpath name.
			if siblings[name] {
				newDep = TokenRpath + "/" + name
			} else if _, ok := bundle.Library(name); ok {
				newDep = TokenRpath + "/" + name
			}
		default:
			if lib, ok := bundle.Library(name); ok {
				if resolved, ok := e.resolver.Resolve(bundle, bin.DirName(), lib.Path); ok {
					newDep = resolved
				}
			}
		}

		if newDep == "" {
			e.logger.Warn("issue found",
				interfaces.F("binary", bin.Path),
				interfaces.F("issue_type", "dependency"),
				interfaces.F("fixable", false))
			issues = append(issues, entities.Issue{
				Category:  entities.IssueDependency,
				Fixable:   false,
				Details:   fmt.Sprintf("no bundle library named %s for dependency %s of %s", name, dep, bin.Path),
				Binary:    bin.Path,
				Container: container,
			})
			continue
		}

		issues = append(issues, entities.Issue{
			Category:  entities.IssueDependency,
			Fixable:   true,
			Details:   fmt.Sprintf("dependency fix: %s -> %s", dep, newDep),
			Binary:    bin.Path,
			Container: container,
			Fix:       []entities.Command{RewriteDependencyCommand(bin.Path, dep, newDep)},
		})
	}
	return issues
}

// checkRpaths resolves every run-path entry. A dangling entry usually
// indicates a build or packaging defect; deleting it is opt-in.
func (e *IssueEngine) checkRpaths(bundle *entities.Bundle, bin *entities.MachOBinary, opts CheckOptions) []entities.Issue {
	var issues []entities.Issue
	for _, entry := range bin.Rpaths {
		resolved, ok := e.resolver.Resolve(bundle, bin.DirName(), entry)
		if ok {
			if resolved != entry {
				issues = append(issues, entities.Issue{
					Category: entities.IssueRpath,
					Fixable:  true,
					Details:  fmt.Sprintf("run path fix: %s -> %s", entry, resolved),
					Binary:   bin.Path,
					Fix:      []entities.Command{RewriteRpathCommand(bin.Path, entry, resolved)},
				})
			}
			continue
		}

		if opts.RpathDelete {
			e.logger.Warn("deleting dangling run path; this may indicate build issues",
				interfaces.F("binary", bin.Path),
				interfaces.F("rpath", entry))
			issues = append(issues, entities.Issue{
				Category: entities.IssueRpath,
				Fixable:  true,
				Details:  fmt.Sprintf("deleting run path %s in %s pointing outside the bundle and allowed system paths", entry, bin.Path),
				Binary:   bin.Path,
				Fix:      []entities.Command{RemoveRpathCommand(bin.Path, entry)},
			})
		} else {
			issues = append(issues, entities.Issue{
				Category: entities.IssueRpath,
				Fixable:  false,
				Details:  fmt.Sprintf("run path %s in %s points outside the bundle and allowed system paths; this may indicate build issues", entry, bin.Path),
				Binary:   bin.Path,
			})
		}
	}
	return issues
}

// checkBuild validates declared build metadata against the Gatekeeper
// floor. Binaries that declare nothing are left alone.
func (e *IssueEngine) checkBuild(bundle *entities.Bundle, bin *entities.MachOBinary, container string, opts CheckOptions) []entities.Issue {
	if bin.Build == nil {
		return nil
	}
	build := *bin.Build

	if !build.Valid() {
		if build.CanOverwrite() {
			e.logger.Info("issue found",
				interfaces.F("binary", bin.Path),
				interfaces.F("issue_type", "build_version"),
				interfaces.F("fixable", true))
			return []entities.Issue{{
				Category:  entities.IssueBuild,
				Fixable:   true,
				Details:   fmt.Sprintf("missing or stale minimum OS declaration in %s (%s)", bin.Path, build),
				Binary:    bin.Path,
				Container: container,
				Fix:       []entities.Command{OverwriteBuildCommand(bin.Path, bundle.DefaultBuild)},
			}}
		}
		e.logger.Warn("issue found",
			interfaces.F("binary", bin.Path),
			interfaces.F("issue_type", "build_version"),
			interfaces.F("fixable", false))
		return []entities.Issue{{
			Category:  entities.IssueBuild,
			Fixable:   false,
			Details:   fmt.Sprintf("SDK for %s predates the Gatekeeper floor %s (%s); rebuilding with a newer SDK is the only fix", bin.Path, entities.GatekeeperMinOS, build),
			Binary:    bin.Path,
			Container: container,
		}}
	}

	if opts.ForceUpdate && container != "" && !entities.VersionAtLeast(build.MinOS, bundle.DefaultBuild.MinOS) {
		return []entities.Issue{{
			Category:  entities.IssueBuild,
			Fixable:   true,
			Details:   fmt.Sprintf("forcing build metadata of %s from %s to %s", bin.Path, build, bundle.DefaultBuild),
			Binary:    bin.Path,
			Container: container,
			Fix:       []entities.Command{OverwriteBuildCommand(bin.Path, bundle.DefaultBuild)},
		}}
	}

	return nil
}
