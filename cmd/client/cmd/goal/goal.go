// Package goal holds the savings goal commands.
package goal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"coinkeeper/cmd/client/cmd/types"
	"coinkeeper/internal/app/client"
	"coinkeeper/internal/domain/entity"
	"coinkeeper/internal/utils/money"
)

var GoalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage savings goals",
}

var (
	addTarget   string
	addDeadline string
	depositNote string
)

var AddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a savings goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		target := int64(0)
		if addTarget != "" {
			var err error
			target, err = money.Parse(addTarget)
			if err != nil {
				return err
			}
		}

		var deadline time.Time
		if addDeadline != "" {
			var err error
			deadline, err = time.Parse("2006-01-02", addDeadline)
			if err != nil {
				return fmt.Errorf("invalid deadline %q, expected YYYY-MM-DD", addDeadline)
			}
		}

		g := entity.NewSavingsGoal(args[0], target, deadline, time.Now())
		id, err := app.Store.InsertSavingsGoal(cmd.Context(), 0, g)
		if err != nil {
			return err
		}

		fmt.Printf("Created goal %d: %s\n", id, g.Name)
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List savings goals with saved totals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		goals, err := app.Store.ListActiveSavingsGoals(cmd.Context())
		if err != nil {
			return err
		}
		if len(goals) == 0 {
			fmt.Println("No savings goals. Create one with: coinkeeper goal add <name>")
			return nil
		}

		green := color.New(color.FgGreen).SprintFunc()
		for _, g := range goals {
			saved := int64(0)
			deposits, err := app.Store.ListActiveSavingsGoalTransactions(cmd.Context(), g.ID)
			if err != nil {
				return err
			}
			for _, d := range deposits {
				saved += d.Amount
			}

			line := fmt.Sprintf("%4d  %-24s saved %s", g.ID, g.Name, green(money.Format(saved)))
			if g.TargetAmount > 0 {
				line += fmt.Sprintf(" of %s", money.Format(g.TargetAmount))
			}
			if !g.Deadline.IsZero() {
				line += fmt.Sprintf("  by %s", g.Deadline.Format("2006-01-02"))
			}
			fmt.Println(line)
		}
		return nil
	},
}

var DepositCmd = &cobra.Command{
	Use:   "deposit <goal-id> <amount>",
	Short: "Record money put toward a goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		goalID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid goal id: %q", args[0])
		}
		amount, err := money.Parse(args[1])
		if err != nil {
			return err
		}

		now := time.Now()
		t := entity.NewSavingsGoalTransaction(goalID, amount, depositNote, now, now)
		id, err := app.Store.InsertSavingsGoalTransaction(cmd.Context(), 0, t)
		if err != nil {
			return err
		}

		fmt.Printf("Recorded deposit %d: %s toward goal %d\n", id, money.Format(amount), goalID)
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVar(&addTarget, "target", "", "target amount, e.g. 1500.00")
	AddCmd.Flags().StringVar(&addDeadline, "deadline", "", "deadline (YYYY-MM-DD)")
	DepositCmd.Flags().StringVar(&depositNote, "note", "", "free-form note")
}
