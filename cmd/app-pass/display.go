package main

import (
	"fmt"

	orchestrators "github.com/ilastik/app-pass/internal/domain-orchestrators"
	"github.com/ilastik/app-pass/internal/domain/entities"
)

// displayReport prints the outcome of a check or fix pass. Unfixable
// findings are listed verbatim; they need a human.
func displayReport(verb, root string, result *orchestrators.FixResult) {
	fixable := entities.CountFixable(result.Issues)
	fmt.Printf("🔍 %s: %s\n", verb, root)
	fmt.Printf("   Issues: %d (%d fixable, %d commands planned)\n",
		len(result.Issues), fixable, result.Commands)

	if len(result.Unfixable) > 0 {
		fmt.Printf("\n   Not fixable automatically:\n")
		for _, issue := range result.Unfixable {
			fmt.Printf("   ❌ [%s] %s\n", issue.Category, issue.Details)
		}
	}

	if result.Residual != nil {
		if len(result.Residual) == len(result.Unfixable) {
			fmt.Printf("\n✅ All fixable issues repaired\n")
		} else {
			fmt.Printf("\n⚠️  %d issues remain after repairs\n", len(result.Residual))
		}
	}
}
