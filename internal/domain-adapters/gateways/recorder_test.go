package gateways

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ilastik/app-pass/internal/domain/entities"
)

func TestShellRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.sh")
	rec, err := NewShellRecorder(path)
	if err != nil {
		t.Fatalf("NewShellRecorder() error = %v", err)
	}

	cmds := []entities.Command{
		{Args: []string{"echo", "one"}},
		{Args: []string{"echo", "two"}},
		{Args: []string{"echo", "three"}},
	}
	for _, cmd := range cmds {
		if err := rec.Record(cmd); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "echo one\necho two\necho three"
	if string(data) != want {
		t.Errorf("script = %q, want %q", data, want)
	}
}

func TestShellRecorderWithCwdAndComment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.sh")
	rec, err := NewShellRecorder(path)
	if err != nil {
		t.Fatalf("NewShellRecorder() error = %v", err)
	}

	cmd := entities.Command{Args: []string{"ditto", "-c", "-k"}, Cwd: "/tmp/scratch", Comment: "repack"}
	if err := rec.Record(cmd); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "# repack\ncd /tmp/scratch\nditto -c -k\ncd -"
	if string(data) != want {
		t.Errorf("script = %q, want %q", data, want)
	}
}

func TestShellRecorderRecordAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.sh")
	rec, err := NewShellRecorder(path)
	if err != nil {
		t.Fatalf("NewShellRecorder() error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := rec.Record(entities.Command{Args: []string{"echo", "late"}}); err == nil {
		t.Error("Record() after Close succeeded, want error")
	}
}

func TestJSONRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	rec, err := NewJSONRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONRecorder() error = %v", err)
	}

	if err := rec.Record(entities.Command{Args: []string{"echo", "one"}}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := rec.Record(entities.Command{Args: []string{"ls"}, Cwd: "/tmp"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var records []entities.CommandRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("Unmarshal() error = %v, output %q", err, data)
	}
	if len(records) != 2 {
		t.Fatalf("decoded %d records, want 2", len(records))
	}
	if records[0].Args[0] != "echo" || records[0].Cwd != nil {
		t.Errorf("record[0] = %+v, want echo with null cwd", records[0])
	}
	if records[1].Cwd == nil || *records[1].Cwd != "/tmp" {
		t.Errorf("record[1] = %+v, want cwd /tmp", records[1])
	}
}

func TestJSONRecorderEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	rec, err := NewJSONRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONRecorder() error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var records []entities.CommandRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("Unmarshal() error = %v, output %q", err, data)
	}
	if len(records) != 0 {
		t.Errorf("decoded %d records, want 0", len(records))
	}
}
