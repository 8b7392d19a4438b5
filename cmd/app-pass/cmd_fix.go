package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	orchestrators "github.com/ilastik/app-pass/internal/domain-orchestrators"
	"github.com/ilastik/app-pass/internal/domain/services"
)

func runFix(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("fix", flag.ExitOnError)
	opts := registerCommon(fs)
	var (
		rpathDelete = fs.Bool("rpath-delete", false, "Delete unresolvable run paths instead of reporting them")
		forceUpdate = fs.Bool("force-update", false, "Update valid but outdated build metadata in archives")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: app-pass fix [options] <Bundle.app>

Repair every fixable issue in an app bundle: rewrite foreign install
names and dependency paths, normalize run paths, and refresh build
metadata. Archives are unpacked, repaired and repacked in place.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  app-pass fix Foo.app
  app-pass fix --dry-run --json-output plan.json Foo.app
  app-pass fix --rpath-delete --force-update Foo.app
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
	orch := orchestrators.NewFixOrchestrator(
		st.loader, st.engine, st.planner, st.executor,
		checkOpts, st.settings.DefaultBuild, opts.dryRun, st.logger,
	)

	result, err := orch.Fix(ctx, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		st.close()
		os.Exit(1)
	}

	displayReport("Fix", root, result)
}
