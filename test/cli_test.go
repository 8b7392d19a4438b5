package test_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildCLI builds the app-pass CLI binary for testing
func buildCLI(t *testing.T) string {
	t.Helper()

	buildDir := filepath.Join("..", "test-dist", "cli-bin")
	if err := os.MkdirAll(buildDir, 0o750); err != nil {
		t.Fatalf("Failed to create build dir: %v", err)
	}

	cliPath := filepath.Join(buildDir, "app-pass")

	// Check if already built
	if _, err := os.Stat(cliPath); err == nil {
		return cliPath
	}

	t.Log("Building app-pass CLI...")
	cmd := exec.Command("go", "build", "-o", cliPath, "../cmd/app-pass") // #nosec G204 -- test code with controlled input
	cmd.Dir = "."

	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, output)
	}
	return cliPath
}

// TestCLI_Help tests help output for all commands
func TestCLI_Help(t *testing.T) {
	cliPath := buildCLI(t)

	commands := []string{"", "check", "fix", "sign", "fixsign"}

	for _, cmd := range commands {
		name := cmd
		if name == "" {
			name = "root"
		}
		t.Run("help_"+name, func(t *testing.T) {
			args := []string{"--help"}
			if cmd != "" {
				args = []string{cmd, "--help"}
			}

			execCmd := exec.Command(cliPath, args...) // #nosec G204 -- test code with controlled input
			output, err := execCmd.CombinedOutput()

			// Subcommand help exits 0 or 2 (flag package usage exit)
			if err != nil {
				var exitErr *exec.ExitError
				if !errors.As(err, &exitErr) || exitErr.ExitCode() != 2 {
					t.Fatalf("help exited abnormally: %v\nOutput: %s", err, output)
				}
			}
			if !strings.Contains(string(output), "app-pass") {
				t.Errorf("help output does not mention the tool:\n%s", output)
			}
		})
	}
}

func TestCLI_UnknownCommand(t *testing.T) {
	cliPath := buildCLI(t)

	execCmd := exec.Command(cliPath, "frobnicate") // #nosec G204 -- test code with controlled input
	output, err := execCmd.CombinedOutput()
	if err == nil {
		t.Fatalf("unknown command exited 0, want failure\nOutput: %s", output)
	}
	if !strings.Contains(string(output), "Unknown command") {
		t.Errorf("output = %s, want unknown-command message", output)
	}
}

// TestCLI_Check runs a real scan against a synthetic bundle. The
// inspector is pure Go, so this works off-platform; check never
// invokes the repair tools.
func TestCLI_Check(t *testing.T) {
	cliPath := buildCLI(t)
	root := brokenApp(t)
	scriptPath := filepath.Join(t.TempDir(), "fixes.sh")

	execCmd := exec.Command(cliPath, "check", "-vv", "--sh-output", scriptPath, root) // #nosec G204 -- test code with controlled input
	output, err := execCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("check failed: %v\nOutput: %s", err, output)
	}

	if !strings.Contains(string(output), "2 fixable") {
		t.Errorf("check output does not report the fixable issues:\n%s", output)
	}

	script, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(script), "install_name_tool") {
		t.Errorf("recorded script has no repairs:\n%s", script)
	}
}

func TestCLI_CheckMissingBundle(t *testing.T) {
	cliPath := buildCLI(t)

	execCmd := exec.Command(cliPath, "check", filepath.Join(t.TempDir(), "Nope.app")) // #nosec G204 -- test code with controlled input
	output, err := execCmd.CombinedOutput()
	if err == nil {
		t.Fatalf("check on a missing bundle exited 0\nOutput: %s", output)
	}
}
