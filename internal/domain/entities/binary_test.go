package entities

import "testing"

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version string
		minimum string
		want    bool
	}{
		{"11.0", "10.9", true},
		{"10.9", "10.9", true},
		{"10.8", "10.9", false},
		{"10.9.1", "10.9", true},
		{"10.9", "10.9.1", false},
		{"10.10", "10.9", true},
		{"9.99", "10.9", false},
		{"10", "10.0", true},
		{"", "10.9", false},
		{"garbage", "10.9", false},
		{"10.x", "10.9", false},
	}

	for _, tt := range tests {
		t.Run(tt.version+" vs "+tt.minimum, func(t *testing.T) {
			if got := VersionAtLeast(tt.version, tt.minimum); got != tt.want {
				t.Errorf("VersionAtLeast(%q, %q) = %v, want %v", tt.version, tt.minimum, got, tt.want)
			}
		})
	}
}

func TestBuildInfo(t *testing.T) {
	tests := []struct {
		name         string
		build        BuildInfo
		valid        bool
		canOverwrite bool
	}{
		{"modern build", BuildInfo{"macos", "11.0", "11.0"}, true, true},
		{"at the floor", BuildInfo{"macos", "10.9", "10.9"}, true, true},
		{"old minimum, new sdk", BuildInfo{"macos", "10.6", "11.0"}, false, true},
		{"old minimum, old sdk", BuildInfo{"macos", "10.6", "10.8"}, false, false},
		{"missing versions", BuildInfo{Platform: "macos"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.build.CanOverwrite(); got != tt.canOverwrite {
				t.Errorf("CanOverwrite() = %v, want %v", got, tt.canOverwrite)
			}
		})
	}
}

func TestMachOBinaryName(t *testing.T) {
	bin := &MachOBinary{Path: "/Apps/Foo.app/Contents/Frameworks/libz.dylib"}
	if got := bin.Name(); got != "libz.dylib" {
		t.Errorf("Name() = %v, want libz.dylib", got)
	}
	if got := bin.DirName(); got != "/Apps/Foo.app/Contents/Frameworks" {
		t.Errorf("DirName() = %v, want /Apps/Foo.app/Contents/Frameworks", got)
	}
}

func TestBinaryKindString(t *testing.T) {
	if KindMachO.String() != "macho" || KindArchive.String() != "archive" || KindNone.String() != "none" {
		t.Errorf("BinaryKind.String() mapping is wrong")
	}
}
