package entities

// IssueCategory names the kind of finding an inspection produced.
type IssueCategory string

// Known issue categories.
const (
	IssueIdentity   IssueCategory = "identity"
	IssueDependency IssueCategory = "dependency"
	IssueRpath      IssueCategory = "rpath"
	IssueBuild      IssueCategory = "build"
)

// Issue is a single finding produced by inspecting a binary. Fixable
// issues carry the repair commands that resolve them; unfixable issues
// carry only the human-readable detail. Invariant: Fixable implies a
// non-empty Fix.
type Issue struct {
	Category IssueCategory
	Fixable  bool
	Details  string

	// Binary is the path of the binary the finding applies to.
	Binary string

	// Container is the original archive path when the binary lives
	// inside an extracted container, empty otherwise. The planner uses
	// it to sequence repairs before the container's repack.
	Container string

	// Fix holds the repair commands, present iff Fixable.
	Fix []Command
}

// CountFixable returns the number of fixable issues in a list.
func CountFixable(issues []Issue) int {
	n := 0
	for _, issue := range issues {
		if issue.Fixable {
			n++
		}
	}
	return n
}
