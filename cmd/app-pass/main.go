package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "check":
		runCheck(ctx, os.Args[2:])
	case "fix":
		runFix(ctx, os.Args[2:])
	case "sign":
		runSign(ctx, os.Args[2:])
	case "fixsign":
		runFixSign(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`app-pass - Repair and re-sign macOS app bundles

Usage:
  app-pass <command> [options] <Bundle.app>

Commands:
  check    Scan a bundle and report dependency, run-path and build issues
  fix      Repair every fixable issue found by check
  sign     Re-sign every binary of a bundle, inside out
  fixsign  Fix, then sign, in one pass

Use "app-pass <command> --help" for more information about a command.`)
}
