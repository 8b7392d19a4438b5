// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"os"

	"github.com/ilastik/app-pass/internal/domain/entities"
	"github.com/ilastik/app-pass/internal/domain/interfaces"
	"github.com/ilastik/app-pass/internal/domain/services"
)

// BundleLoader interface for discovering and parsing a bundle's binaries
type BundleLoader interface {
	Load(ctx context.Context, root string, defaultBuild entities.BuildInfo) (*entities.Bundle, error)
}

// CommandApplier interface for recording and executing planned commands
type CommandApplier interface {
	Apply(ctx context.Context, cmds []entities.Command) error
}

// FixOrchestrator coordinates the scan and repair workflow for one
// bundle: load, evaluate, plan, apply, verify.
type FixOrchestrator struct {
	loader       BundleLoader
	engine       *services.IssueEngine
	planner      *services.RepairPlanner
	applier      CommandApplier
	opts         services.CheckOptions
	defaultBuild entities.BuildInfo
	dryRun       bool
	logger       interfaces.Logger
}

// NewFixOrchestrator creates a new fix orchestrator
func NewFixOrchestrator(
	loader BundleLoader,
	engine *services.IssueEngine,
	planner *services.RepairPlanner,
	applier CommandApplier,
	opts services.CheckOptions,
	defaultBuild entities.BuildInfo,
	dryRun bool,
	logger interfaces.Logger,
) *FixOrchestrator {
	return &FixOrchestrator{
		loader:       loader,
		engine:       engine,
		planner:      planner,
		applier:      applier,
		opts:         opts,
		defaultBuild: defaultBuild,
		dryRun:       dryRun,
		logger:       logger,
	}
}

// CheckResult contains the findings of a scan
type CheckResult struct {
	Issues  []entities.Issue
	Fixable int
}

// FixResult contains the result of a repair run
type FixResult struct {
	Issues    []entities.Issue
	Commands  int
	Unfixable []entities.Issue
	// Residual holds issues still present after a real run. Always
	// empty for dry runs, which change nothing on disk.
	Residual []entities.Issue
}

// Check scans the bundle at root and reports all findings without
// touching anything.
func (o *FixOrchestrator) Check(ctx context.Context, root string) (*CheckResult, error) {
	bundle, err := o.loader.Load(ctx, root, o.defaultBuild)
	if err != nil {
		return nil, err
	}
	defer ReleaseScratch(bundle)

	return o.checkBundle(bundle), nil
}

// Fix scans the bundle at root, applies every planned repair, and
// re-scans to verify the repairs took.
func (o *FixOrchestrator) Fix(ctx context.Context, root string) (*FixResult, error) {
	bundle, err := o.loader.Load(ctx, root, o.defaultBuild)
	if err != nil {
		return nil, err
	}
	defer ReleaseScratch(bundle)

	return o.FixBundle(ctx, bundle)
}

// FixBundle repairs an already loaded bundle. The caller keeps
// ownership of the bundle's scratch directories, which lets a combined
// fix-and-sign run reuse one extraction.
func (o *FixOrchestrator) FixBundle(ctx context.Context, bundle *entities.Bundle) (*FixResult, error) {
	result := &FixResult{}

	// Step 1: Evaluate every binary
	checked := o.checkBundle(bundle)
	result.Issues = checked.Issues
	for _, issue := range checked.Issues {
		if !issue.Fixable {
			result.Unfixable = append(result.Unfixable, issue)
		}
	}

	// Step 2: Plan and apply the repairs
	plan := o.planner.Plan(bundle, checked.Issues)
	result.Commands = len(plan)
	if err := o.applier.Apply(ctx, plan); err != nil {
		return result, fmt.Errorf("failed to apply repairs: %w", err)
	}

	// Step 3: Re-scan to confirm the repairs took
	if o.dryRun || len(plan) == 0 {
		return result, nil
	}
	verified, err := o.loader.Load(ctx, bundle.Root, o.defaultBuild)
	if err != nil {
		return result, fmt.Errorf("failed to re-scan after repairs: %w", err)
	}
	defer ReleaseScratch(verified)
	residual := o.engine.Check(verified, o.opts)
	if residual == nil {
		// Non-nil marks the verification pass as having run.
		residual = []entities.Issue{}
	}
	result.Residual = residual

	if len(result.Residual) > len(result.Unfixable) {
		o.logger.Warn("repairs left residual issues",
			interfaces.F("expected", len(result.Unfixable)),
			interfaces.F("found", len(result.Residual)))
	}
	return result, nil
}

func (o *FixOrchestrator) checkBundle(bundle *entities.Bundle) *CheckResult {
	issues := o.engine.Check(bundle, o.opts)
	result := &CheckResult{
		Issues:  issues,
		Fixable: entities.CountFixable(issues),
	}
	o.logger.Info("scan finished",
		interfaces.F("root", bundle.Root),
		interfaces.F("issues", len(issues)),
		interfaces.F("fixable", result.Fixable))
	return result
}

// ReleaseScratch removes the scratch directories of every extracted
// container. Callers loading a bundle directly are responsible for
// calling it once they are done with the bundle.
func ReleaseScratch(bundle *entities.Bundle) {
	for _, container := range bundle.Containers {
		os.RemoveAll(container.ScratchDir)
	}
}
