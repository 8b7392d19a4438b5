package orchestrators

import (
	"context"
	"fmt"

	"github.com/ilastik/app-pass/internal/domain/entities"
	"github.com/ilastik/app-pass/internal/domain/interfaces"
	"github.com/ilastik/app-pass/internal/domain/services"
)

// SignatureVerifier interface for checking detached signatures over
// local files
type SignatureVerifier interface {
	ImportKeyFromFile(keyPath string) error
	VerifySignatureFromFile(filePath, sigPath string) error
}

// SignOptions holds the signing inputs
type SignOptions struct {
	// Identity is the codesign signing identity, "-" for ad hoc.
	Identity string

	// Entitlements optionally names an entitlements plist embedded
	// into every signature.
	Entitlements string

	// EntitlementsSignature optionally names a detached GPG signature
	// over the entitlements file. Together with SignerKey it gates the
	// run on the entitlements being the ones the publisher shipped.
	EntitlementsSignature string

	// SignerKey names the public key the signature must verify
	// against.
	SignerKey string
}

// SignOrchestrator coordinates re-signing a whole bundle inside out.
type SignOrchestrator struct {
	loader       BundleLoader
	planner      *services.RepairPlanner
	applier      CommandApplier
	verifier     SignatureVerifier
	defaultBuild entities.BuildInfo
	logger       interfaces.Logger
}

// NewSignOrchestrator creates a new sign orchestrator
func NewSignOrchestrator(
	loader BundleLoader,
	planner *services.RepairPlanner,
	applier CommandApplier,
	verifier SignatureVerifier,
	defaultBuild entities.BuildInfo,
	logger interfaces.Logger,
) *SignOrchestrator {
	return &SignOrchestrator{
		loader:       loader,
		planner:      planner,
		applier:      applier,
		verifier:     verifier,
		defaultBuild: defaultBuild,
		logger:       logger,
	}
}

// SignResult contains the result of a signing run
type SignResult struct {
	Commands int
}

// Sign loads the bundle at root and signs everything in it.
func (o *SignOrchestrator) Sign(ctx context.Context, root string, opts SignOptions) (*SignResult, error) {
	bundle, err := o.loader.Load(ctx, root, o.defaultBuild)
	if err != nil {
		return nil, err
	}
	defer ReleaseScratch(bundle)

	return o.SignBundle(ctx, bundle, opts)
}

// SignBundle signs an already loaded bundle. The caller keeps
// ownership of the bundle's scratch directories.
func (o *SignOrchestrator) SignBundle(ctx context.Context, bundle *entities.Bundle, opts SignOptions) (*SignResult, error) {
	// Step 1: Verify the entitlements are the published ones
	if opts.EntitlementsSignature != "" {
		if err := o.verifyEntitlements(opts); err != nil {
			return nil, err
		}
	}

	// Step 2: Plan and apply the signatures, inside out
	plan := o.planner.SignPlan(bundle, opts.Entitlements, opts.Identity)
	result := &SignResult{Commands: len(plan)}
	o.logger.Info("signing bundle",
		interfaces.F("root", bundle.Root),
		interfaces.F("identity", opts.Identity),
		interfaces.F("commands", len(plan)))
	if err := o.applier.Apply(ctx, plan); err != nil {
		return result, fmt.Errorf("failed to sign bundle: %w", err)
	}
	return result, nil
}

func (o *SignOrchestrator) verifyEntitlements(opts SignOptions) error {
	if opts.Entitlements == "" {
		return fmt.Errorf("entitlements signature given without an entitlements file")
	}
	if opts.SignerKey == "" {
		return fmt.Errorf("entitlements signature given without a signer key")
	}
	if err := o.verifier.ImportKeyFromFile(opts.SignerKey); err != nil {
		return fmt.Errorf("failed to import signer key: %w", err)
	}
	if err := o.verifier.VerifySignatureFromFile(opts.Entitlements, opts.EntitlementsSignature); err != nil {
		return fmt.Errorf("entitlements verification failed: %w", err)
	}
	o.logger.Info("entitlements signature verified",
		interfaces.F("entitlements", opts.Entitlements))
	return nil
}
