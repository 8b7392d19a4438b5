package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	orchestrators "github.com/ilastik/app-pass/internal/domain-orchestrators"
	"github.com/ilastik/app-pass/internal/domain/services"
)

func runCheck(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	opts := registerCommon(fs)
	var (
		rpathDelete = fs.Bool("rpath-delete", false, "Treat unresolvable run paths as fixable removals")
		forceUpdate = fs.Bool("force-update", false, "Update valid but outdated build metadata in archives")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: app-pass check [options] <Bundle.app>

Scan an app bundle and report every issue that would block
notarization or break library loading. Nothing is modified.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  app-pass check Foo.app
  app-pass check -vv --sh-output fixes.sh Foo.app
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

	// Checking never executes anything, but still plans and records so
	// the command logs show what a fix run would do.
	opts.dryRun = true

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
	orch := orchestrators.NewFixOrchestrator(
		st.loader, st.engine, st.planner, st.executor,
		checkOpts, st.settings.DefaultBuild, true, st.logger,
	)

	result, err := orch.Fix(ctx, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		st.close()
		os.Exit(1)
	}

	displayReport("Check", root, result)
}
