package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	orchestrators "github.com/ilastik/app-pass/internal/domain-orchestrators"
	"github.com/ilastik/app-pass/internal/domain/services"
	"github.com/ilastik/app-pass/internal/external-adapters/gpg"
)

func runFixSign(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("fixsign", flag.ExitOnError)
	opts := registerCommon(fs)
	signOpts := registerSign(fs)
	var (
		rpathDelete = fs.Bool("rpath-delete", false, "Delete unresolvable run paths instead of reporting them")
		forceUpdate = fs.Bool("force-update", false, "Update valid but outdated build metadata in archives")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: app-pass fixsign [options] <Bundle.app>

Repair and re-sign an app bundle in one pass. The bundle is unpacked
once; repairs and signatures run against the same extraction.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  app-pass fixsign Foo.app
  app-pass fixsign --identity "Developer ID Application: ..." Foo.app
`)
	}

	if err := fs.Parse(expandVerbosity(args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	root, ok := bundleArg(fs)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: exactly one bundle path is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	st, err := newStack(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer st.close()

	checkOpts := services.CheckOptions{
		RpathDelete: *rpathDelete || st.settings.RpathDelete,
		ForceUpdate: *forceUpdate || st.settings.ForceUpdate,
	}
	fixOrch := orchestrators.NewFixOrchestrator(
		st.loader, st.engine, st.planner, st.executor,
		checkOpts, st.settings.DefaultBuild, opts.dryRun, st.logger,
	)
	signOrch := orchestrators.NewSignOrchestrator(
		st.loader, st.planner, st.executor, gpg.NewVerifier(),
		st.settings.DefaultBuild, st.logger,
	)

	if err := executeFixSign(ctx, st, fixOrch, signOrch, root, *signOpts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		st.close()
		os.Exit(1)
	}
}

// executeFixSign loads the bundle once and runs both passes against
// the same extraction, so archives are unpacked a single time.
func executeFixSign(
	ctx context.Context,
	st *stack,
	fixOrch *orchestrators.FixOrchestrator,
	signOrch *orchestrators.SignOrchestrator,
	root string,
	signOpts orchestrators.SignOptions,
) error {
	bundle, err := st.loader.Load(ctx, root, st.settings.DefaultBuild)
	if err != nil {
		return err
	}
	defer orchestrators.ReleaseScratch(bundle)

	fixResult, err := fixOrch.FixBundle(ctx, bundle)
	if err != nil {
		return err
	}
	displayReport("Fix", root, fixResult)

	signResult, err := signOrch.SignBundle(ctx, bundle, signOpts)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Signed %s (%d commands)\n", root, signResult.Commands)
	return nil
}
