package gateways

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ilastik/app-pass/internal/domain/entities"
)

// Recorder captures commands for audit or scripted replay without
// executing them. A recorder's lifetime is scoped to one check/fix/
// sign invocation; Close must run on every exit path.
type Recorder interface {
	Record(cmd entities.Command) error
	Close() error
}

// ShellRecorder writes commands as a replayable shell script: comment
// lines, optional cd wrapping, one naive space-joined line per
// argument vector.
type ShellRecorder struct {
	f     *os.File
	wrote bool
}

// NewShellRecorder creates a shell recorder writing to path.
func NewShellRecorder(path string) (*ShellRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create shell command log: %w", err)
	}
	return &ShellRecorder{f: f}, nil
}

// Record appends the command's shell lines.
func (r *ShellRecorder) Record(cmd entities.Command) error {
	for _, line := range cmd.ToSh() {
		if r.wrote {
			if _, err := r.f.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := r.f.WriteString(line); err != nil {
			return err
		}
		r.wrote = true
	}
	return nil
}

// Close flushes and closes the script file.
func (r *ShellRecorder) Close() error {
	return r.f.Close()
}

// JSONRecorder streams commands as a top-level JSON array of
// {"args": [...], "cwd": ..., "comment": ...} records. The array is
// opened eagerly and closed by Close, supporting incremental writes.
type JSONRecorder struct {
	f     *os.File
	wrote bool
}

// NewJSONRecorder creates a JSON recorder writing to path.
func NewJSONRecorder(path string) (*JSONRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create json command log: %w", err)
	}
	if _, err := f.WriteString("[\n"); err != nil {
		f.Close()
		return nil, err
	}
	return &JSONRecorder{f: f}, nil
}

// Record appends one command record to the array.
func (r *JSONRecorder) Record(cmd entities.Command) error {
	data, err := json.Marshal(cmd.Record())
	if err != nil {
		return err
	}
	if r.wrote {
		if _, err := r.f.WriteString(",\n"); err != nil {
			return err
		}
	}
	if _, err := r.f.Write(data); err != nil {
		return err
	}
	r.wrote = true
	return nil
}

// Close terminates the array and closes the file.
func (r *JSONRecorder) Close() error {
	if _, err := r.f.WriteString("\n]\n"); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}
