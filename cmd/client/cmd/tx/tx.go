// Package tx holds the transaction commands.
package tx

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

var TxCmd = &cobra.Command{
	Use:   "tx",
	Short: "Record and review transactions",
}

var (
	addCategory int64
	addNote     string
	addDate     string
	listLimit   int
)

var AddCmd = &cobra.Command{
	Use:   "add <amount>",
	Short: "Record a transaction",
	Long: `Records a transaction. Negative amounts are expenses, positive are
income: coinkeeper tx add -12.50 --category 3 --note "lunch"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		amount, err := money.Parse(args[0])
		if err != nil {
			return err
		}

		occurredAt := time.Now()
		if addDate != "" {
			occurredAt, err = time.Parse("2006-01-02", addDate)
			if err != nil {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", addDate)
			}
		}

		t := entity.NewTransaction(addCategory, amount, addNote, occurredAt, time.Now())
		id, err := app.Store.InsertTransaction(cmd.Context(), 0, t)
		if err != nil {
			return err
		}

		fmt.Printf("Recorded transaction %d: %s\n", id, money.Format(amount))
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent transactions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		txs, err := app.Store.ListActiveTransactions(cmd.Context(), listLimit)
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			fmt.Println("No transactions yet.")
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

		expense := color.New(color.FgRed).SprintFunc()
		income := color.New(color.FgGreen).SprintFunc()
		for _, t := range txs {
			amount := expense(money.Format(t.Amount))
			if t.Amount > 0 {
				amount = income("+" + money.Format(t.Amount))
			}
			name := catName[t.CategoryID]
			if name == "" {
				name = "-"
			}
			fmt.Printf("%4d  %s  %12s  %-20s %s\n",
				t.ID, t.OccurredAt.Format("2006-01-02"), amount, name, t.Note)
		}
		return nil
	},
}

var RemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ok := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if !ok {
			return fmt.Errorf("application not initialized")
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id: %q", args[0])
		}

		if err := app.Store.SoftDelete(cmd.Context(), "transactions", id, time.Now()); err != nil {
			return err
		}
		fmt.Printf("Removed transaction %d\n", id)
		return nil
	},
}

func init() {
	AddCmd.Flags().Int64Var(&addCategory, "category", 0, "category id (0 = uncategorized)")
	AddCmd.Flags().StringVar(&addNote, "note", "", "free-form note")
	AddCmd.Flags().StringVar(&addDate, "date", "", "date the transaction occurred (YYYY-MM-DD, default today)")
	ListCmd.Flags().IntVar(&listLimit, "limit", 20, "number of transactions to show")
}
