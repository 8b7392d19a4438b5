package gateways

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/ilastik/app-pass/internal/domain/entities"
	"github.com/ilastik/app-pass/internal/domain/interfaces"
	"github.com/ilastik/app-pass/internal/domain/interfaces/gateways"
	"github.com/ilastik/app-pass/internal/external-adapters/plist"
)

// BundleLoader discovers every binary of an .app bundle: it reads the
// bundle manifest, walks the tree once, classifies and inspects files
// across a bounded worker pool, and extracts archive containers for
// inspection. The resulting bundle is immutable for the rest of the
// pass.
type BundleLoader struct {
	inspector gateways.BinaryInspector
	repacker  gateways.ArchiveRepacker
	logger    interfaces.Logger
	workers   int
}

// NewBundleLoader creates a bundle loader.
func NewBundleLoader(inspector gateways.BinaryInspector, repacker gateways.ArchiveRepacker, logger interfaces.Logger) *BundleLoader {
	return &BundleLoader{
		inspector: inspector,
		repacker:  repacker,
		logger:    logger,
		workers:   runtime.NumCPU(),
	}
}

// Load builds the bundle model for the .app directory at root. Any
// structural parse failure aborts the whole pass: downstream lookups
// assume a fully-parsed set. On error, scratch directories extracted
// so far are released; on success the caller owns them.
func (l *BundleLoader) Load(ctx context.Context, root string, defaultBuild entities.BuildInfo) (*entities.Bundle, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bundle root: %w", err)
	}

	mainExecutable, err := l.findMainExecutable(root)
	if err != nil {
		return nil, err
	}

	paths, err := l.collectFiles(root)
	if err != nil {
		return nil, err
	}

	machos, archives, err := l.inspectAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	var containers []*entities.Container
	releaseAll := func() {
		for _, c := range containers {
			os.RemoveAll(c.ScratchDir)
		}
	}
	for _, archive := range archives {
		container, err := l.loadContainer(ctx, archive)
		if err != nil {
			releaseAll()
			return nil, err
		}
		containers = append(containers, container)
	}

	bundle, err := entities.NewBundle(root, mainExecutable, machos, containers, defaultBuild)
	if err != nil {
		releaseAll()
		return nil, err
	}

	l.logger.Info("bundle loaded",
		interfaces.F("root", root),
		interfaces.F("binaries", len(machos)),
		interfaces.F("containers", len(containers)))
	return bundle, nil
}

// findMainExecutable reads CFBundleExecutable from Contents/Info.plist.
// Both forms seen in the wild are accepted: a bare binary name and a
// path already prefixed with MacOS/.
func (l *BundleLoader) findMainExecutable(root string) (string, error) {
	plistPath := filepath.Join(root, "Contents", "Info.plist")
	values, err := plist.ReadFile(plistPath)
	if err != nil {
		return "", &entities.InvalidBundleLayoutError{Root: root, Reason: fmt.Sprintf("cannot read %s: %v", plistPath, err)}
	}

	executable := values["CFBundleExecutable"]
	if executable == "" {
		return "", &entities.InvalidBundleLayoutError{Root: root, Reason: "Info.plist declares no CFBundleExecutable"}
	}

	if filepath.Dir(executable) == "MacOS" {
		return filepath.Join(root, "Contents", executable), nil
	}
	return filepath.Join(root, "Contents", "MacOS", executable), nil
}

// collectFiles walks the bundle tree once, gathering regular files.
func (l *BundleLoader) collectFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk bundle tree: %w", err)
	}
	return paths, nil
}

// inspectAll classifies and inspects files across a worker pool.
// Per-file work is independent; results are collected under a mutex
// and sorted afterwards so discovery order is deterministic regardless
// of scheduling.
func (l *BundleLoader) inspectAll(ctx context.Context, paths []string) ([]*entities.MachOBinary, []string, error) {
	var (
		mu       sync.Mutex
		machos   []*entities.MachOBinary
		archives []string
		firstErr error
	)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				bin, archive, err := l.inspectOne(ctx, path)
				mu.Lock()
				switch {
				case err != nil:
					if firstErr == nil {
						firstErr = err
					}
				case bin != nil:
					machos = append(machos, bin)
				case archive != "":
					archives = append(archives, archive)
				}
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}

	sort.Slice(machos, func(i, j int) bool { return machos[i].Path < machos[j].Path })
	sort.Strings(archives)
	return machos, archives, nil
}

func (l *BundleLoader) inspectOne(ctx context.Context, path string) (*entities.MachOBinary, string, error) {
	kind, err := l.inspector.Inspect(ctx, path)
	if err != nil {
		return nil, "", err
	}
	switch kind {
	case entities.KindMachO:
		bin, err := l.inspector.LoadStructure(ctx, path)
		if err != nil {
			return nil, "", err
		}
		return bin, "", nil
	case entities.KindArchive:
		return nil, path, nil
	default:
		return nil, "", nil
	}
}

// loadContainer extracts one archive and inspects its contents.
func (l *BundleLoader) loadContainer(ctx context.Context, archivePath string) (*entities.Container, error) {
	scratch, err := l.repacker.Extract(ctx, archivePath)
	if err != nil {
		return nil, err
	}

	var binaries []*entities.MachOBinary
	walkErr := filepath.WalkDir(scratch, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		kind, err := l.inspector.Inspect(ctx, path)
		if err != nil {
			return err
		}
		switch kind {
		case entities.KindMachO:
			bin, err := l.inspector.LoadStructure(ctx, path)
			if err != nil {
				return err
			}
			binaries = append(binaries, bin)
		case entities.KindArchive:
			l.logger.Warn("nested archive inside container, not expected",
				interfaces.F("container", archivePath),
				interfaces.F("nested", path))
		}
		return nil
	})
	if walkErr != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("failed to inspect container %s: %w", archivePath, walkErr)
	}

	sort.Slice(binaries, func(i, j int) bool { return binaries[i].Path < binaries[j].Path })
	return &entities.Container{Path: archivePath, ScratchDir: scratch, Binaries: binaries}, nil
}
