package entities

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestCommandToSh(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []string
	}{
		{
			name: "plain args",
			cmd:  Command{Args: []string{"echo", "hello"}},
			want: []string{"echo hello"},
		},
		{
			name: "with working directory",
			cmd:  Command{Args: []string{"ditto", "-c", "-k"}, Cwd: "/tmp/scratch"},
			want: []string{"cd /tmp/scratch", "ditto -c -k", "cd -"},
		},
		{
			name: "with comment",
			cmd:  Command{Args: []string{"echo", "hi"}, Comment: "say hi"},
			want: []string{"# say hi", "echo hi"},
		},
		{
			name: "comment and working directory",
			cmd:  Command{Args: []string{"ls"}, Cwd: "/tmp", Comment: "list"},
			want: []string{"# list", "cd /tmp", "ls", "cd -"},
		},
		{
			name: "multiline comment",
			cmd:  Command{Args: []string{"true"}, Comment: "first\nsecond"},
			want: []string{"# first", "# second", "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cmd.ToSh()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToSh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandToShLineCount(t *testing.T) {
	// Three bare commands render to exactly three lines.
	cmds := []Command{
		{Args: []string{"echo", "one"}},
		{Args: []string{"echo", "two"}},
		{Args: []string{"echo", "three"}},
	}
	var lines []string
	for _, cmd := range cmds {
		lines = append(lines, cmd.ToSh()...)
	}
	if len(lines) != 3 {
		t.Errorf("rendered %d lines, want 3: %v", len(lines), lines)
	}
}

func TestCommandRecord(t *testing.T) {
	t.Run("empty cwd and comment become null", func(t *testing.T) {
		rec := Command{Args: []string{"echo", "hi"}}.Record()
		if rec.Cwd != nil {
			t.Errorf("Record().Cwd = %v, want nil", *rec.Cwd)
		}
		if rec.Comment != nil {
			t.Errorf("Record().Comment = %v, want nil", *rec.Comment)
		}
	})

	t.Run("set fields carry over", func(t *testing.T) {
		rec := Command{Args: []string{"ls"}, Cwd: "/tmp", Comment: "list"}.Record()
		if rec.Cwd == nil || *rec.Cwd != "/tmp" {
			t.Errorf("Record().Cwd = %v, want /tmp", rec.Cwd)
		}
		if rec.Comment == nil || *rec.Comment != "list" {
			t.Errorf("Record().Comment = %v, want list", rec.Comment)
		}
	})

	t.Run("json wire form", func(t *testing.T) {
		data, err := json.Marshal(Command{Args: []string{"echo", "hi"}}.Record())
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		want := `{"args":["echo","hi"],"cwd":null,"comment":null}`
		if string(data) != want {
			t.Errorf("Marshal() = %s, want %s", data, want)
		}
	})
}
