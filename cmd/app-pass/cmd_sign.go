package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	orchestrators "github.com/ilastik/app-pass/internal/domain-orchestrators"
	"github.com/ilastik/app-pass/internal/external-adapters/gpg"
)

func registerSign(fs *flag.FlagSet) *orchestrators.SignOptions {
	opts := &orchestrators.SignOptions{}
	fs.StringVar(&opts.Identity, "identity", "-", "Codesign identity, \"-\" for ad hoc signing")
	fs.StringVar(&opts.Entitlements, "entitlements", "", "Entitlements plist to embed into every signature")
	fs.StringVar(&opts.EntitlementsSignature, "entitlements-sig", "", "Detached GPG signature over the entitlements file")
	fs.StringVar(&opts.SignerKey, "signer-key", "", "Public key the entitlements signature must verify against")
	return opts
}

func runSign(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	opts := registerCommon(fs)
	signOpts := registerSign(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: app-pass sign [options] <Bundle.app>

Re-sign every binary of an app bundle, inside out: archive contents
first, then the repacked archives, the libraries, the main executable
and finally the bundle itself.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  app-pass sign Foo.app
  app-pass sign --identity "Developer ID Application: ..." --entitlements ent.plist Foo.app
  app-pass sign --entitlements ent.plist --entitlements-sig ent.plist.asc --signer-key pub.asc Foo.app
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

	orch := orchestrators.NewSignOrchestrator(
		st.loader, st.planner, st.executor, gpg.NewVerifier(),
		st.settings.DefaultBuild, st.logger,
	)

	result, err := orch.Sign(ctx, root, *signOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		st.close()
		os.Exit(1)
	}

	fmt.Printf("✅ Signed %s (%d commands)\n", root, result.Commands)
}
