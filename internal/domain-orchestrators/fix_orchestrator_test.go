package orchestrators

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ilastik/app-pass/internal/domain/entities"
	"github.com/ilastik/app-pass/internal/domain/interfaces"
	"github.com/ilastik/app-pass/internal/domain/services"
)

type fakeLoader struct {
	build func() (*entities.Bundle, error)
	calls int
}

func (l *fakeLoader) Load(_ context.Context, _ string, _ entities.BuildInfo) (*entities.Bundle, error) {
	l.calls++
	return l.build()
}

type fakeApplier struct {
	applied []entities.Command
	err     error
}

func (a *fakeApplier) Apply(_ context.Context, cmds []entities.Command) error {
	a.applied = append(a.applied, cmds...)
	return a.err
}

type fakeRepacker struct{}

func (fakeRepacker) Extract(_ context.Context, _ string) (string, error) { return "", nil }

func (fakeRepacker) RepackCommands(_, archivePath string) []entities.Command {
	return []entities.Command{{Args: []string{"repack", archivePath}}}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// brokenBundle builds an on-disk A.app whose framework library carries
// a foreign install name (fixable) and a missing dependency
// (unfixable).
func brokenBundle(t *testing.T) func() (*entities.Bundle, error) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "A.app")
	mainExe := filepath.Join(root, "Contents", "MacOS", "app")
	libPath := filepath.Join(root, "Contents", "Frameworks", "lib.dylib")
	writeFile(t, mainExe)
	writeFile(t, libPath)

	return func() (*entities.Bundle, error) {
		binaries := []*entities.MachOBinary{
			{Path: mainExe, Rpaths: []string{"@loader_path/../Frameworks"}},
			{Path: libPath, ID: "/build/work/lib.dylib", Dylibs: []string{"/build/work/libmissing.dylib"}},
		}
		return entities.NewBundle(root, mainExe, binaries, nil,
			entities.BuildInfo{Platform: "macos", MinOS: "11.0", SDK: "11.0"})
	}
}

func newFixOrchestrator(loader BundleLoader, applier CommandApplier, dryRun bool) *FixOrchestrator {
	logger := &interfaces.NoOpLogger{}
	return NewFixOrchestrator(
		loader,
		services.NewIssueEngine(services.NewPathPolicy(), logger),
		services.NewRepairPlanner(fakeRepacker{}),
		applier,
		services.CheckOptions{},
		entities.BuildInfo{Platform: "macos", MinOS: "11.0", SDK: "11.0"},
		dryRun,
		logger,
	)
}

func TestCheck(t *testing.T) {
	loader := &fakeLoader{build: brokenBundle(t)}
	orch := newFixOrchestrator(loader, &fakeApplier{}, false)

	result, err := orch.Check(context.Background(), "A.app")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(result.Issues) != 2 {
		t.Fatalf("Check() found %d issues, want 2: %+v", len(result.Issues), result.Issues)
	}
	if result.Fixable != 1 {
		t.Errorf("Fixable = %d, want 1", result.Fixable)
	}
}

func TestFix(t *testing.T) {
	t.Run("applies the plan and re-scans", func(t *testing.T) {
		loader := &fakeLoader{build: brokenBundle(t)}
		applier := &fakeApplier{}
		orch := newFixOrchestrator(loader, applier, false)

		result, err := orch.Fix(context.Background(), "A.app")
		if err != nil {
			t.Fatalf("Fix() error = %v", err)
		}
		if result.Commands != 1 || len(applier.applied) != 1 {
			t.Errorf("planned %d, applied %d commands, want 1 and 1", result.Commands, len(applier.applied))
		}
		if len(result.Unfixable) != 1 {
			t.Errorf("Unfixable = %+v, want the missing dependency", result.Unfixable)
		}
		if loader.calls != 2 {
			t.Errorf("loader called %d times, want 2 (scan plus verification)", loader.calls)
		}
		// The fake loader rebuilds the same broken state, so the
		// residual scan reports both findings again.
		if len(result.Residual) != 2 {
			t.Errorf("Residual = %+v, want both issues from the unrepaired rebuild", result.Residual)
		}
	})

	t.Run("dry run skips the verification pass", func(t *testing.T) {
		loader := &fakeLoader{build: brokenBundle(t)}
		applier := &fakeApplier{}
		orch := newFixOrchestrator(loader, applier, true)

		result, err := orch.Fix(context.Background(), "A.app")
		if err != nil {
			t.Fatalf("Fix() error = %v", err)
		}
		if loader.calls != 1 {
			t.Errorf("loader called %d times, want 1 in dry run", loader.calls)
		}
		if result.Residual != nil {
			t.Errorf("Residual = %+v, want nil in dry run", result.Residual)
		}
	})

	t.Run("apply failure surfaces", func(t *testing.T) {
		loader := &fakeLoader{build: brokenBundle(t)}
		applier := &fakeApplier{err: &entities.ToolError{ExitCode: 1}}
		orch := newFixOrchestrator(loader, applier, false)

		if _, err := orch.Fix(context.Background(), "A.app"); err == nil {
			t.Errorf("Fix() error = nil, want the tool failure")
		}
	})
}
