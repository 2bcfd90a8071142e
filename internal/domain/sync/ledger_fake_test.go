package sync

import (
	"context"
	"sort"
	"time"

	"coinkeeper/internal/domain/entity"
)

// fakeLedger is an in-memory single-owner ledger used by the service,
// applier and normalizer tests. The userID arguments the contract carries
// are ignored, matching how the device store treats them.
type fakeLedger struct {
	nextID       int64
	categories   map[int64]entity.Category
	goals        map[int64]entity.SavingsGoal
	settings     map[int64]entity.Settings
	transactions map[int64]entity.Transaction
	budgets      map[int64]entity.Budget
	recurring    map[int64]entity.RecurringTransaction
	goalTxs      map[int64]entity.SavingsGoalTransaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		categories:   make(map[int64]entity.Category),
		goals:        make(map[int64]entity.SavingsGoal),
		settings:     make(map[int64]entity.Settings),
		transactions: make(map[int64]entity.Transaction),
		budgets:      make(map[int64]entity.Budget),
		recurring:    make(map[int64]entity.RecurringTransaction),
		goalTxs:      make(map[int64]entity.SavingsGoalTransaction),
	}
}

// fakeRepo satisfies Repository with no-op transaction semantics.
type fakeRepo struct {
	ledger  *fakeLedger
	commits int
}

type fakeTx struct {
	*fakeLedger
	repo *fakeRepo
}

func (r *fakeRepo) Begin(_ context.Context) (Tx, error) {
	return &fakeTx{fakeLedger: r.ledger, repo: r}, nil
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.repo.commits++
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error { return nil }

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f *fakeLedger) ListCategories(_ context.Context, _ int64) ([]entity.Category, error) {
	var out []entity.Category
	for _, id := range sortedIDs(f.categories) {
		out = append(out, f.categories[id])
	}
	return out, nil
}

func (f *fakeLedger) ListCategoriesChangedSince(_ context.Context, _ int64, since time.Time) ([]entity.Category, error) {
	var out []entity.Category
	for _, id := range sortedIDs(f.categories) {
		if c := f.categories[id]; c.UpdatedAt.After(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertCategory(_ context.Context, _ int64, c entity.Category) (int64, error) {
	f.nextID++
	c.ID = f.nextID
	f.categories[c.ID] = c
	return c.ID, nil
}

func (f *fakeLedger) UpdateCategory(_ context.Context, _ int64, c entity.Category) error {
	f.categories[c.ID] = c
	return nil
}

func (f *fakeLedger) DeleteCategory(_ context.Context, _ int64, id int64) error {
	delete(f.categories, id)
	return nil
}

func (f *fakeLedger) ReassignCategoryRefs(_ context.Context, _ int64, fromID, toID int64) error {
	for id, t := range f.transactions {
		if t.CategoryID == fromID {
			t.CategoryID = toID
			f.transactions[id] = t
		}
	}
	for id, b := range f.budgets {
		if b.CategoryID == fromID {
			b.CategoryID = toID
			f.budgets[id] = b
		}
	}
	for id, r := range f.recurring {
		if r.CategoryID == fromID {
			r.CategoryID = toID
			f.recurring[id] = r
		}
	}
	return nil
}

func (f *fakeLedger) ListSavingsGoals(_ context.Context, _ int64) ([]entity.SavingsGoal, error) {
	var out []entity.SavingsGoal
	for _, id := range sortedIDs(f.goals) {
		out = append(out, f.goals[id])
	}
	return out, nil
}

func (f *fakeLedger) ListSavingsGoalsChangedSince(_ context.Context, _ int64, since time.Time) ([]entity.SavingsGoal, error) {
	var out []entity.SavingsGoal
	for _, id := range sortedIDs(f.goals) {
		if g := f.goals[id]; g.UpdatedAt.After(since) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertSavingsGoal(_ context.Context, _ int64, g entity.SavingsGoal) (int64, error) {
	f.nextID++
	g.ID = f.nextID
	f.goals[g.ID] = g
	return g.ID, nil
}

func (f *fakeLedger) UpdateSavingsGoal(_ context.Context, _ int64, g entity.SavingsGoal) error {
	f.goals[g.ID] = g
	return nil
}

func (f *fakeLedger) DeleteSavingsGoal(_ context.Context, _ int64, id int64) error {
	delete(f.goals, id)
	return nil
}

func (f *fakeLedger) ReassignSavingsGoalRefs(_ context.Context, _ int64, fromID, toID int64) error {
	for id, t := range f.goalTxs {
		if t.GoalID == fromID {
			t.GoalID = toID
			f.goalTxs[id] = t
		}
	}
	return nil
}

func (f *fakeLedger) ListSettings(_ context.Context, _ int64) ([]entity.Settings, error) {
	var out []entity.Settings
	for _, id := range sortedIDs(f.settings) {
		out = append(out, f.settings[id])
	}
	return out, nil
}

func (f *fakeLedger) ListSettingsChangedSince(_ context.Context, _ int64, since time.Time) ([]entity.Settings, error) {
	var out []entity.Settings
	for _, id := range sortedIDs(f.settings) {
		if s := f.settings[id]; s.UpdatedAt.After(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertSettings(_ context.Context, _ int64, s entity.Settings) (int64, error) {
	f.nextID++
	s.ID = f.nextID
	f.settings[s.ID] = s
	return s.ID, nil
}

func (f *fakeLedger) UpdateSettings(_ context.Context, _ int64, s entity.Settings) error {
	f.settings[s.ID] = s
	return nil
}

func (f *fakeLedger) DeleteSettings(_ context.Context, _ int64, id int64) error {
	delete(f.settings, id)
	return nil
}

func (f *fakeLedger) ListTransactions(_ context.Context, _ int64) ([]entity.Transaction, error) {
	var out []entity.Transaction
	for _, id := range sortedIDs(f.transactions) {
		out = append(out, f.transactions[id])
	}
	return out, nil
}

func (f *fakeLedger) ListTransactionsChangedSince(_ context.Context, _ int64, since time.Time) ([]entity.Transaction, error) {
	var out []entity.Transaction
	for _, id := range sortedIDs(f.transactions) {
		if t := f.transactions[id]; t.UpdatedAt.After(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertTransaction(_ context.Context, _ int64, t entity.Transaction) (int64, error) {
	f.nextID++
	t.ID = f.nextID
	f.transactions[t.ID] = t
	return t.ID, nil
}

func (f *fakeLedger) UpdateTransaction(_ context.Context, _ int64, t entity.Transaction) error {
	f.transactions[t.ID] = t
	return nil
}

func (f *fakeLedger) DeleteTransaction(_ context.Context, _ int64, id int64) error {
	delete(f.transactions, id)
	return nil
}

func (f *fakeLedger) ListBudgets(_ context.Context, _ int64) ([]entity.Budget, error) {
	var out []entity.Budget
	for _, id := range sortedIDs(f.budgets) {
		out = append(out, f.budgets[id])
	}
	return out, nil
}

func (f *fakeLedger) ListBudgetsChangedSince(_ context.Context, _ int64, since time.Time) ([]entity.Budget, error) {
	var out []entity.Budget
	for _, id := range sortedIDs(f.budgets) {
		if b := f.budgets[id]; b.UpdatedAt.After(since) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertBudget(_ context.Context, _ int64, b entity.Budget) (int64, error) {
	f.nextID++
	b.ID = f.nextID
	f.budgets[b.ID] = b
	return b.ID, nil
}

func (f *fakeLedger) UpdateBudget(_ context.Context, _ int64, b entity.Budget) error {
	f.budgets[b.ID] = b
	return nil
}

func (f *fakeLedger) DeleteBudget(_ context.Context, _ int64, id int64) error {
	delete(f.budgets, id)
	return nil
}

func (f *fakeLedger) ListRecurringTransactions(_ context.Context, _ int64) ([]entity.RecurringTransaction, error) {
	var out []entity.RecurringTransaction
	for _, id := range sortedIDs(f.recurring) {
		out = append(out, f.recurring[id])
	}
	return out, nil
}

func (f *fakeLedger) ListRecurringTransactionsChangedSince(_ context.Context, _ int64, since time.Time) ([]entity.RecurringTransaction, error) {
	var out []entity.RecurringTransaction
	for _, id := range sortedIDs(f.recurring) {
		if r := f.recurring[id]; r.UpdatedAt.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertRecurringTransaction(_ context.Context, _ int64, r entity.RecurringTransaction) (int64, error) {
	f.nextID++
	r.ID = f.nextID
	f.recurring[r.ID] = r
	return r.ID, nil
}

func (f *fakeLedger) UpdateRecurringTransaction(_ context.Context, _ int64, r entity.RecurringTransaction) error {
	f.recurring[r.ID] = r
	return nil
}

func (f *fakeLedger) DeleteRecurringTransaction(_ context.Context, _ int64, id int64) error {
	delete(f.recurring, id)
	return nil
}

func (f *fakeLedger) ListSavingsGoalTransactions(_ context.Context, _ int64) ([]entity.SavingsGoalTransaction, error) {
	var out []entity.SavingsGoalTransaction
	for _, id := range sortedIDs(f.goalTxs) {
		out = append(out, f.goalTxs[id])
	}
	return out, nil
}

func (f *fakeLedger) ListSavingsGoalTransactionsChangedSince(_ context.Context, _ int64, since time.Time) ([]entity.SavingsGoalTransaction, error) {
	var out []entity.SavingsGoalTransaction
	for _, id := range sortedIDs(f.goalTxs) {
		if t := f.goalTxs[id]; t.UpdatedAt.After(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeLedger) InsertSavingsGoalTransaction(_ context.Context, _ int64, t entity.SavingsGoalTransaction) (int64, error) {
	f.nextID++
	t.ID = f.nextID
	f.goalTxs[t.ID] = t
	return t.ID, nil
}

func (f *fakeLedger) UpdateSavingsGoalTransaction(_ context.Context, _ int64, t entity.SavingsGoalTransaction) error {
	f.goalTxs[t.ID] = t
	return nil
}

func (f *fakeLedger) DeleteSavingsGoalTransaction(_ context.Context, _ int64, id int64) error {
	delete(f.goalTxs, id)
	return nil
}
