// Package entities defines core domain models and data structures.
package entities

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// BinaryKind classifies a file discovered inside a bundle.
// The kind is decided once at inspection time and carried with the
// value; downstream components never re-derive it from the file.
type BinaryKind int

// Known binary kinds.
const (
	KindNone BinaryKind = iota
	KindMachO
	KindArchive
)

// String returns the string representation of the binary kind
func (k BinaryKind) String() string {
	switch k {
	case KindMachO:
		return "macho"
	case KindArchive:
		return "archive"
	default:
		return "none"
	}
}

// BuildInfo holds the build metadata declared by a Mach-O binary
// (LC_BUILD_VERSION or LC_VERSION_MIN_MACOSX). All fields are dotted
// version strings, e.g. "11.0".
type BuildInfo struct {
	Platform string
	MinOS    string
	SDK      string
}

// GatekeeperMinOS is the oldest minimum-OS version Gatekeeper accepts.
const GatekeeperMinOS = "10.9"

// Valid reports whether the declared minimum OS satisfies the
// Gatekeeper floor.
func (b BuildInfo) Valid() bool {
	return VersionAtLeast(b.MinOS, GatekeeperMinOS)
}

// CanOverwrite reports whether the metadata may be safely replaced with
// a configured default. Binaries built against an SDK older than the
// Gatekeeper floor cannot be repaired by a local rewrite.
func (b BuildInfo) CanOverwrite() bool {
	return VersionAtLeast(b.SDK, GatekeeperMinOS)
}

// String returns the build info in "platform minos/sdk" form
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s/%s", b.Platform, b.MinOS, b.SDK)
}

// VersionAtLeast compares two dotted version strings numerically,
// component by component. Missing components count as zero; an empty
// or unparseable version is never at least a non-zero minimum.
func VersionAtLeast(version, minimum string) bool {
	if version == "" {
		return false
	}
	vs := strings.Split(version, ".")
	ms := strings.Split(minimum, ".")
	for i := 0; i < len(vs) || i < len(ms); i++ {
		v, m := 0, 0
		if i < len(vs) {
			n, err := strconv.Atoi(vs[i])
			if err != nil {
				return false
			}
			v = n
		}
		if i < len(ms) {
			n, err := strconv.Atoi(ms[i])
			if err != nil {
				return false
			}
			m = n
		}
		if v != m {
			return v > m
		}
	}
	return true
}

// MachOBinary represents one inspected Mach-O object: its identity,
// declared dependencies and run-path search entries, in declaration
// order. The value is immutable; repairs are expressed as Commands
// against the underlying file, and the binary must be re-inspected if
// further reasoning is needed after a repair.
type MachOBinary struct {
	// Path is the absolute on-disk location of the binary.
	Path string

	// ID is the self-declared install name (LC_ID_DYLIB), empty for
	// binaries that declare none (e.g. executables).
	ID string

	// Dylibs are the dependency paths (LC_LOAD_DYLIB) in load order.
	Dylibs []string

	// Rpaths are the run-path search entries (LC_RPATH) in declaration
	// order.
	Rpaths []string

	// Build is the declared build metadata, nil when the binary carries
	// neither LC_BUILD_VERSION nor LC_VERSION_MIN_MACOSX.
	Build *BuildInfo
}

// Name returns the binary's file name, the key other binaries use to
// reference it.
func (b *MachOBinary) Name() string {
	return filepath.Base(b.Path)
}

// DirName returns the directory containing the binary, the anchor for
// loader-relative addressing.
func (b *MachOBinary) DirName() string {
	return filepath.Dir(b.Path)
}
