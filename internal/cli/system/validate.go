package system

import (
	"fmt"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/validation"
)

type ValidateCmd struct{}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	result := validateStore(ctx)
	fmt.Print(result.FormatReport())
	if !result.HasConflicts() {
		fmt.Println()
		return nil
	}
	return fmt.Errorf("%d conflict(s) found", len(result.Conflicts))
}

func validateStore(ctx *cli.Context) validation.ValidationResult {
	return validation.New().Validate(ctx.Store.Tasks(), ctx.Store.Categories(), ctx.Store.Subtasks)
}
