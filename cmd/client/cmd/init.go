package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"coinkeeper/cmd/client/cmd/auth"
	"coinkeeper/cmd/client/cmd/budget"
	"coinkeeper/cmd/client/cmd/category"
	"coinkeeper/cmd/client/cmd/goal"
	syncCmd "coinkeeper/cmd/client/cmd/sync"
	"coinkeeper/cmd/client/cmd/tx"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up the local budget database",
	Long: `Creates the local database under the state directory and seeds the
starter categories (Groceries, Rent, Transport, Entertainment, Salary)
plus default settings. Safe to re-run: an already populated database is
left untouched.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := app.Store.SeedDefaults(cmd.Context(), time.Now()); err != nil {
			return fmt.Errorf("seed defaults: %w", err)
		}

		fmt.Printf("Local database ready at %s\n", app.Config.DBPath)

		if err := app.API.HealthCheck(cmd.Context()); err != nil {
			fmt.Printf("Warning: sync server unreachable: %v\n", err)
			fmt.Println("Everything works offline; sync will catch up later.")
		} else {
			fmt.Println("Sync server reachable.")
		}

		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  coinkeeper auth register   create a server account")
		fmt.Println("  coinkeeper auth login      log in on this device")
		fmt.Println("  coinkeeper tx add          record your first transaction")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	rootCmd.AddCommand(category.CategoryCmd)
	category.CategoryCmd.AddCommand(category.AddCmd)
	category.CategoryCmd.AddCommand(category.ListCmd)
	category.CategoryCmd.AddCommand(category.RemoveCmd)

	rootCmd.AddCommand(tx.TxCmd)
	tx.TxCmd.AddCommand(tx.AddCmd)
	tx.TxCmd.AddCommand(tx.ListCmd)
	tx.TxCmd.AddCommand(tx.RemoveCmd)

	rootCmd.AddCommand(goal.GoalCmd)
	goal.GoalCmd.AddCommand(goal.AddCmd)
	goal.GoalCmd.AddCommand(goal.ListCmd)
	goal.GoalCmd.AddCommand(goal.DepositCmd)

	rootCmd.AddCommand(budget.BudgetCmd)
	budget.BudgetCmd.AddCommand(budget.SetCmd)
	budget.BudgetCmd.AddCommand(budget.ListCmd)

	rootCmd.AddCommand(syncCmd.SyncCmd)
}
