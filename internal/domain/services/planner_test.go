package services

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ilastik/app-pass/internal/domain/entities"
)

type fakeRepacker struct{}

func (fakeRepacker) Extract(_ context.Context, _ string) (string, error) {
	return "", nil
}

func (fakeRepacker) RepackCommands(_, archivePath string) []entities.Command {
	return []entities.Command{{Args: []string{"repack", archivePath}}}
}

func TestPlan(t *testing.T) {
	planner := NewRepairPlanner(fakeRepacker{})
	bundle := withContainer(t, buildBundle(t, nil),
		&entities.MachOBinary{Path: "/scratch/libjni.dylib", ID: "@rpath/libjni.dylib"},
	)
	archive := bundle.Containers[0].Path

	issues := []entities.Issue{
		{Fixable: true, Fix: []entities.Command{{Args: []string{"native-one"}}}},
		{Fixable: false, Details: "not fixable"},
		{Fixable: true, Container: archive, Fix: []entities.Command{{Args: []string{"inner-one"}}}},
		{Fixable: true, Fix: []entities.Command{{Args: []string{"native-two"}}}},
		{Fixable: true, Container: archive, Fix: []entities.Command{{Args: []string{"inner-two"}}}},
	}

	plan := planner.Plan(bundle, issues)

	var got [][]string
	for _, cmd := range plan {
		got = append(got, cmd.Args)
	}
	want := [][]string{
		{"native-one"},
		{"native-two"},
		{"inner-one"},
		{"inner-two"},
		{"repack", archive},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plan() = %v, want %v", got, want)
	}
}

func TestPlanSkipsUntouchedContainers(t *testing.T) {
	planner := NewRepairPlanner(fakeRepacker{})
	bundle := withContainer(t, buildBundle(t, nil),
		&entities.MachOBinary{Path: "/scratch/libjni.dylib", ID: "@rpath/libjni.dylib"},
	)

	issues := []entities.Issue{
		{Fixable: true, Fix: []entities.Command{{Args: []string{"native-one"}}}},
	}

	plan := planner.Plan(bundle, issues)
	for _, cmd := range plan {
		if cmd.Args[0] == "repack" {
			t.Errorf("Plan() repacks a container with no repairs: %v", plan)
		}
	}
	if len(plan) != 1 {
		t.Errorf("Plan() produced %d commands, want 1", len(plan))
	}
}

func TestSignPlan(t *testing.T) {
	planner := NewRepairPlanner(fakeRepacker{})
	scratch := t.TempDir()
	jniPath := filepath.Join(scratch, "libjni.dylib")
	bundle := withContainer(t, buildBundle(t, nil),
		&entities.MachOBinary{Path: jniPath, ID: "@rpath/libjni.dylib"},
	)
	archive := bundle.Containers[0].Path
	libPath := filepath.Join(bundle.Root, "Contents", "Frameworks", "lib.dylib")

	plan := planner.SignPlan(bundle, "", "-")

	var signed []string
	sawRepack := false
	for _, cmd := range plan {
		switch cmd.Args[0] {
		case "codesign":
			signed = append(signed, cmd.Args[len(cmd.Args)-1])
		case "repack":
			sawRepack = true
		}
	}
	if !sawRepack {
		t.Errorf("SignPlan() never repacks the container: %v", plan)
	}

	want := []string{jniPath, archive, libPath, bundle.MainExecutable, bundle.Root}
	if !reflect.DeepEqual(signed, want) {
		t.Errorf("SignPlan() signs %v, want %v", signed, want)
	}
}

func TestSignPlanEntitlements(t *testing.T) {
	planner := NewRepairPlanner(fakeRepacker{})
	bundle := buildBundle(t, nil)

	plan := planner.SignPlan(bundle, "ent.plist", "Developer ID")
	for _, cmd := range plan {
		hasEntitlements := false
		hasIdentity := false
		for i, arg := range cmd.Args {
			if arg == "--entitlements" && i+1 < len(cmd.Args) && cmd.Args[i+1] == "ent.plist" {
				hasEntitlements = true
			}
			if arg == "--sign" && i+1 < len(cmd.Args) && cmd.Args[i+1] == "Developer ID" {
				hasIdentity = true
			}
		}
		if !hasEntitlements || !hasIdentity {
			t.Errorf("SignPlan() command %v lacks entitlements or identity", cmd.Args)
		}
	}
}
