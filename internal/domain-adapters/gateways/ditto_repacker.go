package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ilastik/app-pass/internal/domain/entities"
	"github.com/ilastik/app-pass/internal/domain/interfaces"
	"github.com/ilastik/app-pass/internal/domain/interfaces/gateways"
)

// dittoRepacker extracts and repacks archive containers with the
// platform's ditto tool, which preserves resource forks and
// permissions the way codesign expects.
type dittoRepacker struct {
	runner gateways.CommandRunner
	logger interfaces.Logger
}

// NewDittoRepacker creates a new archive repacker gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewDittoRepacker(runner gateways.CommandRunner, logger interfaces.Logger) *dittoRepacker {
	return &dittoRepacker{runner: runner, logger: logger}
}

// Extract unpacks the archive into a uniquely named scratch directory
// under the system temp dir and returns it. The caller owns the
// directory.
func (g *dittoRepacker) Extract(ctx context.Context, archivePath string) (string, error) {
	scratch := filepath.Join(os.TempDir(), "app-pass-"+uuid.New().String())
	if err := os.MkdirAll(scratch, 0o750); err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}

	g.logger.Info("extracting container",
		interfaces.F("archive", archivePath),
		interfaces.F("scratch", scratch))

	cmd := entities.Command{Args: []string{"ditto", "-x", "-k", archivePath, scratch}}
	if _, err := g.runner.Run(ctx, cmd); err != nil {
		os.RemoveAll(scratch)
		return "", fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}
	return scratch, nil
}

// RepackCommands returns the commands that rebuild the archive at its
// original path from the scratch directory: zip the scratch contents,
// then move the result over the original.
func (g *dittoRepacker) RepackCommands(scratchDir, archivePath string) []entities.Command {
	base := filepath.Base(archivePath)
	zipName := strings.TrimSuffix(base, filepath.Ext(base)) + ".zip"
	return []entities.Command{
		{
			Args:    []string{"ditto", "-c", "-k", "--keepParent", scratchDir, zipName},
			Cwd:     scratchDir,
			Comment: "repack " + archivePath,
		},
		{
			Args: []string{"mv", filepath.Join(scratchDir, zipName), archivePath},
		},
	}
}
