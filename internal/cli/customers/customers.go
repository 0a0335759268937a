package customers

import (
	"fmt"
	"strings"

	"github.com/julianstephens/hourlog/internal/cli"
)

type ListCmd struct {
	All bool `help:"Also show customers that only appear on entries." short:"a"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	managed, err := ctx.Store.GetManagedCustomers()
	if err != nil {
		return err
	}

	if !c.All {
		if len(managed) == 0 {
			ctx.Println("No customers configured.")
			return nil
		}
		for _, m := range managed {
			ctx.Println(m.Name)
		}
		return nil
	}

	// --all lists the union, marking names that are pre-selected.
	distinct, err := ctx.Store.GetDistinctCustomers()
	if err != nil {
		return err
	}
	isManaged := make(map[string]bool, len(managed))
	names := make([]string, 0, len(managed)+len(distinct))
	for _, m := range managed {
		isManaged[m.Name] = true
		names = append(names, m.Name)
	}
	for _, name := range distinct {
		if !isManaged[name] {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		ctx.Println("No customers found.")
		return nil
	}
	for _, name := range names {
		marker := " "
		if isManaged[name] {
			marker = "*"
		}
		ctx.Printf("%s %s\n", marker, name)
	}
	return nil
}

type AddCmd struct {
	Name string `arg:"" help:"Customer name."`
}

func (c *AddCmd) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("Customer name cannot be empty.")
	}
	return nil
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	name := strings.TrimSpace(c.Name)
	if err := ctx.Store.AddCustomer(name); err != nil {
		return fmt.Errorf("failed to add customer: %w", err)
	}
	ctx.Printf("Customer %q added.\n", name)
	return nil
}

type RemoveCmd struct {
	Name string `arg:"" help:"Customer name."`
}

func (c *RemoveCmd) Run(ctx *cli.Context) error {
	name := strings.TrimSpace(c.Name)
	if err := ctx.Store.RemoveCustomer(name); err != nil {
		return fmt.Errorf("failed to remove customer: %w", err)
	}
	ctx.Printf("Customer %q removed from preselection.\n", name)
	return nil
}
