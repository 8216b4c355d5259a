package categories

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/daytrack/internal/cli"
	"github.com/julianstephens/daytrack/internal/models"
)

const defaultColor = "#6366f1"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validateColor(color string) error {
	if color != "" && !hexColor.MatchString(color) {
		return fmt.Errorf("invalid color %q (expected #rrggbb)", color)
	}
	return nil
}

type CategoryAddCmd struct {
	Name  string `arg:"" help:"Category name."`
	Color string `help:"Hex color (#rrggbb)." default:"#6366f1"`
	Icon  string `help:"Icon name." default:"folder"`
}

func (c *CategoryAddCmd) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return validateColor(c.Color)
}

func (c *CategoryAddCmd) Run(ctx *cli.Context) error {
	color := c.Color
	if color == "" {
		color = defaultColor
	}
	cat := ctx.Store.AddCategory(strings.TrimSpace(c.Name), color, c.Icon)
	fmt.Println(cli.Success(fmt.Sprintf("Added category: %s (ID: %s)", cat.Name, cat.ID)))
	return nil
}

type CategoryEditCmd struct {
	Ref   string  `arg:"" help:"Category id or name."`
	Name  *string `help:"New name."`
	Color *string `help:"New hex color (#rrggbb)."`
	Icon  *string `help:"New icon name."`
}

func (c *CategoryEditCmd) Validate() error {
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if c.Color != nil {
		return validateColor(*c.Color)
	}
	return nil
}

func (c *CategoryEditCmd) Run(ctx *cli.Context) error {
	cat, err := ctx.ResolveCategory(c.Ref)
	if err != nil {
		return err
	}
	if c.Name == nil && c.Color == nil && c.Icon == nil {
		fmt.Println("No changes specified.")
		return nil
	}

	updated, ok := ctx.Store.UpdateCategory(cat.ID, func(cat *models.Category) {
		if c.Name != nil {
			cat.Name = strings.TrimSpace(*c.Name)
		}
		if c.Color != nil {
			cat.Color = *c.Color
		}
		if c.Icon != nil {
			cat.Icon = *c.Icon
		}
	})
	if !ok {
		return fmt.Errorf("category %s disappeared while editing", cat.ID)
	}
	fmt.Println(cli.Success(fmt.Sprintf("Updated category: %s", updated.Name)))
	return nil
}

type CategoryDeleteCmd struct {
	Ref string `arg:"" help:"Category id or name."`
}

func (c *CategoryDeleteCmd) Run(ctx *cli.Context) error {
	cat, err := ctx.ResolveCategory(c.Ref)
	if err != nil {
		return err
	}

	moved := 0
	for _, t := range ctx.Store.Tasks() {
		if t.CategoryID == cat.ID {
			moved++
		}
	}

	if err := ctx.Store.DeleteCategory(cat.ID); err != nil {
		return err
	}
	fmt.Println(cli.Success(fmt.Sprintf("Deleted category: %s", cat.Name)))
	if moved > 0 {
		fmt.Printf("  Moved %d task(s) to the fallback category\n", moved)
	}
	return nil
}

type CategoryListCmd struct{}

func (c *CategoryListCmd) Run(ctx *cli.Context) error {
	cats := ctx.Store.Categories()
	open := make(map[string]int)
	for _, t := range ctx.Store.Tasks() {
		if !t.IsCompleted() {
			open[t.CategoryID]++
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(cli.MutedStyle).
		Headers("ID", "Name", "Color", "Icon", "Open")
	for _, cat := range cats {
		t.Row(cli.ShortID(cat.ID), cat.Name, cat.Color, cat.Icon, fmt.Sprintf("%d", open[cat.ID]))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		style := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return style.Inherit(cli.HeaderStyle)
		}
		if col == 1 && hexColor.MatchString(cats[row].Color) {
			return style.Foreground(lipgloss.Color(cats[row].Color))
		}
		return style
	})
	fmt.Println(t.String())
	return nil
}
