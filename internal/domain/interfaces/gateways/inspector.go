// Package gateways defines capability contracts for external collaborators.
package gateways

import (
	"context"

	"github.com/ilastik/app-pass/internal/domain/entities"
)

// BinaryInspector classifies files and reads the load structure of
// Mach-O binaries. Mutations are deliberately absent from the
// contract: repairs are planned as declarative commands and applied by
// the command runner, which keeps every mutation previewable.
type BinaryInspector interface {
	// Inspect classifies a file by its binary kind.
	Inspect(ctx context.Context, path string) (entities.BinaryKind, error)

	// LoadStructure reads the identity, dependency and run-path load
	// commands plus build metadata of a Mach-O binary. A file that
	// classified as Mach-O but cannot be parsed yields a
	// *entities.StructuralParseError.
	LoadStructure(ctx context.Context, path string) (*entities.MachOBinary, error)
}
