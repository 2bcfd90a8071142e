package sync

import (
	"context"
	"time"

	"coinkeeper/internal/domain/entity"
)

// CollectChanges builds the outbound change set: every owner record with
// UpdatedAt strictly after the given watermark, deleted rows included. Local
// foreign keys are rewritten to global ids through unfiltered lookup tables,
// so deleted parents stay resolvable. The server uses it to answer a sync
// request; the device agent uses it to assemble the upload.
func CollectChanges(ctx context.Context, ledger Ledger, userID int64, since time.Time) (*entity.ChangeSet, error) {
	cs := &entity.ChangeSet{}

	cats, err := ledger.ListCategoriesChangedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		cs.Categories = append(cs.Categories, entity.CategoryToWire(c))
	}

	goals, err := ledger.ListSavingsGoalsChangedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		cs.SavingsGoals = append(cs.SavingsGoals, entity.SavingsGoalToWire(g))
	}

	settings, err := ledger.ListSettingsChangedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for _, st := range settings {
		cs.Settings = append(cs.Settings, entity.SettingsToWire(st))
	}

	catGID, err := categoryGIDByID(ctx, ledger, userID)
	if err != nil {
		return nil, err
	}
	goalGID, err := goalGIDByID(ctx, ledger, userID)
	if err != nil {
		return nil, err
	}

	txs, err := ledger.ListTransactionsChangedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		cs.Transactions = append(cs.Transactions, entity.TransactionToWire(t, catGID[t.CategoryID]))
	}

	budgets, err := ledger.ListBudgetsChangedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for _, b := range budgets {
		cs.Budgets = append(cs.Budgets, entity.BudgetToWire(b, catGID[b.CategoryID]))
	}

	recurring, err := ledger.ListRecurringTransactionsChangedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for _, r := range recurring {
		cs.RecurringTransactions = append(cs.RecurringTransactions, entity.RecurringTransactionToWire(r, catGID[r.CategoryID]))
	}

	goalTxs, err := ledger.ListSavingsGoalTransactionsChangedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for _, t := range goalTxs {
		cs.SavingsGoalTransactions = append(cs.SavingsGoalTransactions, entity.SavingsGoalTransactionToWire(t, goalGID[t.GoalID]))
	}

	return cs, nil
}

func categoryGIDByID(ctx context.Context, ledger Ledger, userID int64) (map[int64]string, error) {
	cats, err := ledger.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]string, len(cats))
	for _, c := range cats {
		m[c.ID] = c.GlobalID
	}
	return m, nil
}

func goalGIDByID(ctx context.Context, ledger Ledger, userID int64) (map[int64]string, error) {
	goals, err := ledger.ListSavingsGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]string, len(goals))
	for _, g := range goals {
		m[g.ID] = g.GlobalID
	}
	return m, nil
}
