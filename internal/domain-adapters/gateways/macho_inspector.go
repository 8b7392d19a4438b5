// Package gateways provides adapter implementations for external services and tools.
package gateways

import (
	"bytes"
	"context"
	"debug/macho"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilastik/app-pass/internal/domain/entities"
	"github.com/ilastik/app-pass/internal/domain/interfaces"
)

// Mach-O and archive magic numbers, read big-endian from the first
// four bytes of a file.
const (
	magicThin32    = 0xfeedface
	magicThin32Rev = 0xcefaedfe
	magicThin64    = 0xfeedfacf
	magicThin64Rev = 0xcffaedfe
	magicFat       = 0xcafebabe
	magicFatRev    = 0xbebafeca
	magicFat64     = 0xcafebabf
	magicFat64Rev  = 0xbfbafeca
	magicZip       = 0x504b0304
)

// Load commands the stdlib leaves untyped; layouts per
// darwin-xnu mach-o/loader.h.
const (
	lcIDDylib       = 0xd
	lcVersionMinMac = 0x24
	lcBuildVersion  = 0x32
)

// machoInspector classifies bundle files and reads Mach-O load
// structures in pure Go via debug/macho; no external tools required.
// Load commands the stdlib does not type (LC_ID_DYLIB,
// LC_BUILD_VERSION, LC_VERSION_MIN_MACOSX) are decoded from their raw
// bytes.
type machoInspector struct {
	logger interfaces.Logger
}

// NewMachOInspector creates a new binary inspector gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewMachOInspector(logger interfaces.Logger) *machoInspector {
	return &machoInspector{logger: logger}
}

// Inspect classifies a file by magic bytes. Static libraries and
// object files are ignored by suffix, matching the tool's historic
// behavior.
func (g *machoInspector) Inspect(_ context.Context, path string) (entities.BinaryKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".a", ".o":
		g.logger.Debug("ignoring static library or object file", interfaces.F("path", path))
		return entities.KindNone, nil
	}

	//nolint:gosec // G304: path comes from the bundle walk
	f, err := os.Open(path)
	if err != nil {
		return entities.KindNone, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, 8)
	if _, err := io.ReadFull(f, header); err != nil {
		// Too small to be any binary we care about.
		return entities.KindNone, nil
	}

	magic := binary.BigEndian.Uint32(header[:4])
	switch magic {
	case magicThin32, magicThin32Rev, magicThin64, magicThin64Rev:
		return entities.KindMachO, nil
	case magicFat, magicFat64:
		// Java class files share the fat magic; a real fat header
		// carries a small architecture count where the class format
		// carries its version.
		narch := binary.BigEndian.Uint32(header[4:8])
		if narch > 0 && narch < 28 {
			return entities.KindMachO, nil
		}
		return entities.KindNone, nil
	case magicFatRev, magicFat64Rev:
		return entities.KindMachO, nil
	case magicZip:
		if strings.EqualFold(filepath.Ext(path), ".jar") {
			return entities.KindArchive, nil
		}
		return entities.KindNone, nil
	default:
		return entities.KindNone, nil
	}
}

// LoadStructure reads identity, dependencies, run paths and build
// metadata from a Mach-O binary. Fat binaries contribute their first
// architecture slice.
func (g *machoInspector) LoadStructure(_ context.Context, path string) (*entities.MachOBinary, error) {
	f, err := macho.Open(path)
	if err != nil {
		ff, fatErr := macho.OpenFat(path)
		if fatErr != nil {
			return nil, &entities.StructuralParseError{Path: path, Err: err}
		}
		defer ff.Close()
		if len(ff.Arches) == 0 {
			return nil, &entities.StructuralParseError{Path: path, Err: fmt.Errorf("fat binary with no architectures")}
		}
		g.logger.Warn("multiple architectures in file; inspecting the first slice",
			interfaces.F("path", path),
			interfaces.F("arches", len(ff.Arches)))
		return g.readLoads(path, ff.Arches[0].File)
	}
	defer f.Close()
	return g.readLoads(path, f)
}

func (g *machoInspector) readLoads(path string, f *macho.File) (*entities.MachOBinary, error) {
	bin := &entities.MachOBinary{Path: path}

	for _, load := range f.Loads {
		switch l := load.(type) {
		case *macho.Dylib:
			bin.Dylibs = append(bin.Dylibs, l.Name)
		case *macho.Rpath:
			bin.Rpaths = append(bin.Rpaths, l.Path)
		case macho.LoadBytes:
			if err := g.readRawCommand(bin, f.ByteOrder, l); err != nil {
				return nil, &entities.StructuralParseError{Path: path, Err: err}
			}
		}
	}

	return bin, nil
}

// readRawCommand decodes the load commands debug/macho surfaces only
// as raw bytes.
func (g *machoInspector) readRawCommand(bin *entities.MachOBinary, bo binary.ByteOrder, raw []byte) error {
	if len(raw) < 8 {
		return fmt.Errorf("load command shorter than its header")
	}
	cmd := bo.Uint32(raw[0:4])

	switch cmd {
	case lcIDDylib:
		if len(raw) < 24 {
			return fmt.Errorf("LC_ID_DYLIB command truncated")
		}
		offset := bo.Uint32(raw[8:12])
		if int(offset) >= len(raw) {
			return fmt.Errorf("LC_ID_DYLIB name offset %d beyond command size %d", offset, len(raw))
		}
		bin.ID = cstring(raw[offset:])

	case lcBuildVersion:
		if len(raw) < 24 {
			return fmt.Errorf("LC_BUILD_VERSION command truncated")
		}
		bin.Build = &entities.BuildInfo{
			Platform: platformName(bo.Uint32(raw[8:12])),
			MinOS:    decodeVersion(bo.Uint32(raw[12:16])),
			SDK:      decodeVersion(bo.Uint32(raw[16:20])),
		}

	case lcVersionMinMac:
		if len(raw) < 16 {
			return fmt.Errorf("LC_VERSION_MIN_MACOSX command truncated")
		}
		bin.Build = &entities.BuildInfo{
			Platform: "macos",
			MinOS:    decodeVersion(bo.Uint32(raw[8:12])),
			SDK:      decodeVersion(bo.Uint32(raw[12:16])),
		}
	}

	return nil
}

// decodeVersion unpacks the xxxx.yy.zz nibble encoding used by version
// load commands. A zero patch level is omitted, matching tool output.
func decodeVersion(v uint32) string {
	major := v >> 16
	minor := (v >> 8) & 0xff
	patch := v & 0xff
	if patch != 0 {
		return fmt.Sprintf("%d.%d.%d", major, minor, patch)
	}
	return fmt.Sprintf("%d.%d", major, minor)
}

// platformName maps LC_BUILD_VERSION platform identifiers to the names
// vtool accepts.
func platformName(p uint32) string {
	switch p {
	case 1:
		return "macos"
	case 2:
		return "ios"
	case 3:
		return "tvos"
	case 4:
		return "watchos"
	case 5:
		return "bridgeos"
	case 6:
		return "maccatalyst"
	default:
		return fmt.Sprintf("platform%d", p)
	}
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
