package entities

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Container is an archive-packaged set of binaries (e.g. a Java
// archive holding native libraries). Its binaries live in a scratch
// extraction directory; after repair or signing the archive must be
// repacked from that directory. The scratch directory is owned by the
// container value and released by whoever loaded the bundle.
type Container struct {
	// Path is the original archive location inside the bundle.
	Path string

	// ScratchDir is the temporary extraction directory.
	ScratchDir string

	// Binaries are the Mach-O objects found inside the extraction, in
	// path order. Their paths point into ScratchDir.
	Binaries []*MachOBinary
}

// Bundle is the aggregate root: one discovered .app directory with all
// of its native binaries and archive containers. It is read-only for
// the duration of one check/fix pass.
type Bundle struct {
	// Root is the absolute bundle root directory (the .app folder).
	Root string

	// LoaderDir is the directory containing the main executable.
	LoaderDir string

	// MainExecutable is the absolute path of the main executable.
	MainExecutable string

	// Binaries are all native Mach-O binaries in path order.
	Binaries []*MachOBinary

	// Containers are all archive containers in path order.
	Containers []*Container

	// DefaultBuild is the build metadata used when repairing binaries
	// with missing or stale build declarations.
	DefaultBuild BuildInfo

	libraries map[string]*MachOBinary
	mainRpath []string
}

// NewBundle validates the bundle invariants and builds the library
// lookup index. The index is complete before NewBundle returns, so
// issue evaluation may read it from multiple goroutines. A violated
// invariant yields an InvalidBundleLayoutError and no bundle.
func NewBundle(root, mainExecutable string, binaries []*MachOBinary, containers []*Container, defaultBuild BuildInfo) (*Bundle, error) {
	info, err := os.Stat(mainExecutable)
	if err != nil {
		return nil, &InvalidBundleLayoutError{Root: root, Reason: fmt.Sprintf("main executable %s not found", mainExecutable)}
	}
	if !info.Mode().IsRegular() {
		return nil, &InvalidBundleLayoutError{Root: root, Reason: fmt.Sprintf("main executable %s is not a regular file", mainExecutable)}
	}
	if !PathWithin(root, mainExecutable) {
		return nil, &InvalidBundleLayoutError{Root: root, Reason: fmt.Sprintf("main executable %s is outside the bundle root", mainExecutable)}
	}

	var main *MachOBinary
	for _, b := range binaries {
		if !PathWithin(root, b.Path) {
			return nil, &InvalidBundleLayoutError{Root: root, Reason: fmt.Sprintf("binary %s is outside the bundle root", b.Path)}
		}
		if b.Path == mainExecutable {
			main = b
		}
	}
	if main == nil {
		return nil, &InvalidBundleLayoutError{Root: root, Reason: fmt.Sprintf("main executable %s was not inspected as a mach-o binary", mainExecutable)}
	}
	for _, rpath := range main.Rpaths {
		if filepath.IsAbs(rpath) {
			return nil, &InvalidBundleLayoutError{
				Root:   root,
				Reason: fmt.Sprintf("main executable declares absolute run path %s; refusing to reason about its search paths", rpath),
			}
		}
	}

	// Single synchronization barrier: the name index is built fully
	// here, before any issue evaluation can start.
	libraries := make(map[string]*MachOBinary, len(binaries))
	for _, b := range binaries {
		libraries[b.Name()] = b
	}

	return &Bundle{
		Root:           root,
		LoaderDir:      filepath.Dir(mainExecutable),
		MainExecutable: mainExecutable,
		Binaries:       binaries,
		Containers:     containers,
		DefaultBuild:   defaultBuild,
		libraries:      libraries,
		mainRpath:      main.Rpaths,
	}, nil
}

// Library looks up a bundle binary by file name.
func (b *Bundle) Library(name string) (*MachOBinary, bool) {
	bin, ok := b.libraries[name]
	return bin, ok
}

// MainRpaths returns the main executable's run-path entries in
// declaration order. NewBundle guarantees none of them is absolute.
func (b *Bundle) MainRpaths() []string {
	return b.mainRpath
}

// PathWithin reports whether path lies under root after lexical
// normalization.
func PathWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, "../")
}
