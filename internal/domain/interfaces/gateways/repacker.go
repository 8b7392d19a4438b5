package gateways

import (
	"context"

	"github.com/ilastik/app-pass/internal/domain/entities"
)

// ArchiveRepacker extracts archive containers for inspection and
// produces the commands that repack them. Extraction happens eagerly
// during discovery; repacking is expressed as commands so it sequences
// with the rest of a repair plan and stays previewable.
type ArchiveRepacker interface {
	// Extract unpacks the archive into a fresh scratch directory and
	// returns the directory. The caller owns the directory and must
	// remove it when the container's repair lifecycle ends.
	Extract(ctx context.Context, archivePath string) (string, error)

	// RepackCommands returns the commands that rebuild the archive at
	// its original path from the scratch directory.
	RepackCommands(scratchDir, archivePath string) []entities.Command
}
