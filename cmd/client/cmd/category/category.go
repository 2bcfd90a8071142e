// Package category holds the category management commands.
package category

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"coinkeeper/cmd/client/cmd/types"
	"coinkeeper/internal/app/client"
	"coinkeeper/internal/domain/entity"
)

var CategoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage spending and income categories",
}

var addKind string

var AddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		kind := entity.CategoryKind(addKind)
		if kind != entity.CategoryExpense && kind != entity.CategoryIncome {
			return fmt.Errorf("kind must be %q or %q", entity.CategoryExpense, entity.CategoryIncome)
		}

		c := entity.NewCategory(args[0], kind, time.Now())
		id, err := app.Store.InsertCategory(cmd.Context(), 0, c)
		if err != nil {
			return err
		}

		fmt.Printf("Added category %d: %s (%s)\n", id, c.Name, c.Kind)
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		cats, err := app.Store.ListActiveCategories(cmd.Context())
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			fmt.Println("No categories. Add one with: coinkeeper category add <name>")
			return nil
		}

		expense := color.New(color.FgRed).SprintFunc()
		income := color.New(color.FgGreen).SprintFunc()
		for _, c := range cats {
			kind := expense(string(c.Kind))
			if c.Kind == entity.CategoryIncome {
				kind = income(string(c.Kind))
			}
			fmt.Printf("%4d  %-24s %s\n", c.ID, c.Name, kind)
		}
		return nil
	},
}

var RemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a category",
	Long: `Marks the category deleted so the removal syncs to other devices.
Transactions keep their category reference until the next sync resolves it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id: %q", args[0])
		}

		if err := app.Store.SoftDelete(cmd.Context(), "categories", id, time.Now()); err != nil {
			return err
		}
		fmt.Printf("Removed category %d\n", id)
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVar(&addKind, "kind", string(entity.CategoryExpense), "category kind: expense or income")
}
