// Package budget holds the monthly budget commands.
package budget

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"coinkeeper/cmd/client/cmd/types"
	"coinkeeper/internal/app/client"
	"coinkeeper/internal/domain/entity"
	"coinkeeper/internal/utils/money"
)

var BudgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage per-category monthly budgets",
}

var setMonth string

var SetCmd = &cobra.Command{
	Use:   "set <category-id> <amount>",
	Short: "Set the budget for a category and month",
	Long: `Sets the budget for one category in one month. Setting it again for
the same category and month updates the existing budget; sync collapses
duplicates created on different devices.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		categoryID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid category id: %q", args[0])
		}
		amount, err := money.Parse(args[1])
		if err != nil {
			return err
		}

		now := time.Now()
		month := setMonth
		if month == "" {
			month = now.Format("2006-01")
		} else if _, err := time.Parse("2006-01", month); err != nil {
			return fmt.Errorf("invalid month %q, expected YYYY-MM", month)
		}

		// Same category and month updates in place; the natural key is what
		// the sync normalizer collapses on.
		existing, err := app.Store.ListActiveBudgets(cmd.Context())
		if err != nil {
			return err
		}
		for _, b := range existing {
			if b.CategoryID == categoryID && b.Month == month {
				b.Amount = amount
				b.UpdatedAt = now.UTC()
				if err := app.Store.UpdateBudget(cmd.Context(), 0, b); err != nil {
					return err
				}
				fmt.Printf("Updated budget for category %d, %s: %s\n", categoryID, month, money.Format(amount))
				return nil
			}
		}

		b := entity.NewBudget(categoryID, amount, month, now)
		id, err := app.Store.InsertBudget(cmd.Context(), 0, b)
		if err != nil {
			return err
		}

		fmt.Printf("Set budget %d for category %d, %s: %s\n", id, categoryID, month, money.Format(amount))
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List budgets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		budgets, err := app.Store.ListActiveBudgets(cmd.Context())
		if err != nil {
			return err
		}
		if len(budgets) == 0 {
			fmt.Println("No budgets set.")
			return nil
		}

		cats, err := app.Store.ListActiveCategories(cmd.Context())
		if err != nil {
			return err
		}
		catName := make(map[int64]string, len(cats))
		for _, c := range cats {
			catName[c.ID] = c.Name
		}

		for _, b := range budgets {
			name := catName[b.CategoryID]
			if name == "" {
				name = "-"
			}
			fmt.Printf("%4d  %s  %-20s %12s\n", b.ID, b.Month, name, money.Format(b.Amount))
		}
		return nil
	},
}

func init() {
	SetCmd.Flags().StringVar(&setMonth, "month", "", "budget month (YYYY-MM, default current month)")
}
