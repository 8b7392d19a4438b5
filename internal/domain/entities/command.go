package entities

import "strings"

// Command is a declarative, previewable unit of repair or signing work:
// an argument vector, an optional working directory and an optional
// human-readable comment. The argument vector is fully determined
// before any execution, so a Command is always safe to serialize
// without running it. Commands carry no implicit ordering beyond the
// sequence they are collected in.
type Command struct {
	Args    []string
	Cwd     string
	Comment string
}

// ToSh renders the command as shell lines: comment lines first (one
// "# " line per comment line), then the space-joined argument vector,
// wrapped in "cd <dir>" / "cd -" when a working directory is set.
// Joining is deliberately naive; arguments containing spaces are not
// quoted.
func (c Command) ToSh() []string {
	lines := []string{strings.Join(c.Args, " ")}
	if c.Cwd != "" {
		lines = append([]string{"cd " + c.Cwd}, lines...)
		lines = append(lines, "cd -")
	}
	if c.Comment != "" {
		commentLines := make([]string, 0, 2)
		for _, l := range strings.Split(c.Comment, "\n") {
			commentLines = append(commentLines, "# "+l)
		}
		lines = append(commentLines, lines...)
	}
	return lines
}

// CommandRecord is the JSON wire form of a Command. Absent working
// directories and comments are encoded as null.
type CommandRecord struct {
	Args    []string `json:"args"`
	Cwd     *string  `json:"cwd"`
	Comment *string  `json:"comment"`
}

// Record converts the command to its JSON wire form.
func (c Command) Record() CommandRecord {
	rec := CommandRecord{Args: c.Args}
	if c.Cwd != "" {
		cwd := c.Cwd
		rec.Cwd = &cwd
	}
	if c.Comment != "" {
		comment := c.Comment
		rec.Comment = &comment
	}
	return rec
}
