package entities

import (
	"fmt"
	"strings"
)

// StructuralParseError reports a file that was classified as a Mach-O
// binary but whose load structure could not be parsed. It aborts the
// whole discovery pass: downstream lookups assume a fully-parsed set.
type StructuralParseError struct {
	Path string
	Err  error
}

func (e *StructuralParseError) Error() string {
	return fmt.Sprintf("failed to parse mach-o structure of %s: %v", e.Path, e.Err)
}

func (e *StructuralParseError) Unwrap() error {
	return e.Err
}

// InvalidBundleLayoutError reports a bundle that violates a structural
// invariant (missing main executable, binary outside the root, absolute
// run path on the main executable). No partial bundle is returned.
type InvalidBundleLayoutError struct {
	Root   string
	Reason string
}

func (e *InvalidBundleLayoutError) Error() string {
	return fmt.Sprintf("invalid bundle layout at %s: %s", e.Root, e.Reason)
}

// ToolError reports a non-zero exit from an external tool invocation.
// It is fatal for the current command sequence; remaining commands are
// abandoned.
type ToolError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("command %q failed with exit code %d: %s",
		strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}
