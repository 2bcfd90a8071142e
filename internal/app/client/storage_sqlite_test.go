package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"coinkeeper/internal/domain/entity"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "coinkeeper.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorage_Watermark(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	got, err := store.LastSyncedAt(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "fresh database has no watermark")

	require.NoError(t, store.SetLastSyncedAt(ctx, base))
	got, err = store.LastSyncedAt(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(base))

	// Upsert, not insert.
	require.NoError(t, store.SetLastSyncedAt(ctx, base.Add(time.Hour)))
	got, err = store.LastSyncedAt(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(base.Add(time.Hour)))
}

func TestSQLiteStorage_CategoryRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	c := entity.NewCategory("Groceries", entity.CategoryExpense, base)
	id, err := store.InsertCategory(ctx, 0, c)
	require.NoError(t, err)
	require.NotZero(t, id)

	cats, err := store.ListCategories(ctx, 0)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, id, cats[0].ID)
	assert.Equal(t, c.GlobalID, cats[0].GlobalID)
	assert.Equal(t, "Groceries", cats[0].Name)
	assert.Equal(t, entity.CategoryExpense, cats[0].Kind)
	assert.True(t, cats[0].UpdatedAt.Equal(base))
	assert.False(t, cats[0].Deleted)

	cats[0].Name = "Food"
	cats[0].UpdatedAt = base.Add(time.Hour)
	require.NoError(t, store.UpdateCategory(ctx, 0, cats[0]))

	cats, err = store.ListCategories(ctx, 0)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Food", cats[0].Name)
}

func TestSQLiteStorage_ChangedSinceIsStrictlyAfter(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	old := entity.NewCategory("Old", entity.CategoryExpense, base.Add(-time.Hour))
	_, err := store.InsertCategory(ctx, 0, old)
	require.NoError(t, err)
	at := entity.NewCategory("At", entity.CategoryExpense, base)
	_, err = store.InsertCategory(ctx, 0, at)
	require.NoError(t, err)
	fresh := entity.NewCategory("Fresh", entity.CategoryExpense, base.Add(time.Hour))
	_, err = store.InsertCategory(ctx, 0, fresh)
	require.NoError(t, err)

	changed, err := store.ListCategoriesChangedSince(ctx, 0, base)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, "Fresh", changed[0].Name)
}

func TestSQLiteStorage_ChangedSinceIncludesDeleted(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	c := entity.NewCategory("Gone", entity.CategoryExpense, base)
	c.Deleted = true
	_, err := store.InsertCategory(ctx, 0, c)
	require.NoError(t, err)

	changed, err := store.ListCategoriesChangedSince(ctx, 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, changed, 1, "tombstones replicate like any other change")
	assert.True(t, changed[0].Deleted)
}

func TestSQLiteStorage_SoftDelete(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	id, err := store.InsertCategory(ctx, 0, entity.NewCategory("Rent", entity.CategoryExpense, base))
	require.NoError(t, err)

	deletedAt := base.Add(time.Hour)
	require.NoError(t, store.SoftDelete(ctx, "categories", id, deletedAt))

	cats, err := store.ListCategories(ctx, 0)
	require.NoError(t, err)
	require.Len(t, cats, 1, "the row stays behind so the deletion replicates")
	assert.True(t, cats[0].Deleted)
	assert.True(t, cats[0].UpdatedAt.Equal(deletedAt))

	active, err := store.ListActiveCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, store.SoftDelete(ctx, "categories", 999, deletedAt), sql.ErrNoRows)
}

func TestSQLiteStorage_DeleteIsPhysical(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	id, err := store.InsertCategory(ctx, 0, entity.NewCategory("Rent", entity.CategoryExpense, base))
	require.NoError(t, err)

	require.NoError(t, store.DeleteCategory(ctx, 0, id))
	cats, err := store.ListCategories(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestSQLiteStorage_ReassignCategoryRefs(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	fromID, err := store.InsertCategory(ctx, 0, entity.NewCategory("Dup", entity.CategoryExpense, base))
	require.NoError(t, err)
	toID, err := store.InsertCategory(ctx, 0, entity.NewCategory("Keep", entity.CategoryExpense, base))
	require.NoError(t, err)

	txID, err := store.InsertTransaction(ctx, 0, entity.NewTransaction(fromID, -500, "coffee", base, base))
	require.NoError(t, err)
	budgetID, err := store.InsertBudget(ctx, 0, entity.NewBudget(fromID, 40000, "2025-06", base))
	require.NoError(t, err)
	recurID, err := store.InsertRecurringTransaction(ctx, 0,
		entity.NewRecurringTransaction(fromID, -9900, "subscription", entity.RecurMonthly, base.AddDate(0, 1, 0), base))
	require.NoError(t, err)

	require.NoError(t, store.ReassignCategoryRefs(ctx, 0, fromID, toID))

	txs, err := store.ListTransactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, txID, txs[0].ID)
	assert.Equal(t, toID, txs[0].CategoryID)

	budgets, err := store.ListBudgets(ctx, 0)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, budgetID, budgets[0].ID)
	assert.Equal(t, toID, budgets[0].CategoryID)

	recurs, err := store.ListRecurringTransactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recurs, 1)
	assert.Equal(t, recurID, recurs[0].ID)
	assert.Equal(t, toID, recurs[0].CategoryID)
}

func TestSQLiteStorage_ReassignSavingsGoalRefs(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	fromID, err := store.InsertSavingsGoal(ctx, 0, entity.NewSavingsGoal("Dup", 100000, time.Time{}, base))
	require.NoError(t, err)
	toID, err := store.InsertSavingsGoal(ctx, 0, entity.NewSavingsGoal("Keep", 100000, time.Time{}, base))
	require.NoError(t, err)

	_, err = store.InsertSavingsGoalTransaction(ctx, 0, entity.NewSavingsGoalTransaction(fromID, 2500, "", base, base))
	require.NoError(t, err)

	require.NoError(t, store.ReassignSavingsGoalRefs(ctx, 0, fromID, toID))

	deposits, err := store.ListSavingsGoalTransactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, toID, deposits[0].GoalID)
}

func TestSQLiteStorage_CountChangedSince(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	catID, err := store.InsertCategory(ctx, 0, entity.NewCategory("Rent", entity.CategoryExpense, base))
	require.NoError(t, err)
	_, err = store.InsertTransaction(ctx, 0, entity.NewTransaction(catID, -500, "", base, base))
	require.NoError(t, err)
	_, err = store.InsertSettings(ctx, 0, entity.NewSettings("USD", 1, base.Add(-2*time.Hour)))
	require.NoError(t, err)

	n, err := store.CountChangedSince(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the settings row predates the watermark")
}

func TestSQLiteStorage_SeedDefaults(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SeedDefaults(ctx, base))

	cats, err := store.ListActiveCategories(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cats)
	names := make(map[string]bool, len(cats))
	for _, c := range cats {
		names[c.Name] = true
	}
	assert.True(t, names[entity.FallbackCategoryName])

	st, err := store.ActiveSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", st.Currency)

	// A second run leaves the populated database alone.
	require.NoError(t, store.SeedDefaults(ctx, base.Add(time.Hour)))
	again, err := store.ListActiveCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(cats))
}

func TestSQLiteStorage_ListActiveTransactionsLimit(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.InsertTransaction(ctx, 0,
			entity.NewTransaction(0, -100, "", base.Add(time.Duration(i)*time.Minute), base))
		require.NoError(t, err)
	}

	txs, err := store.ListActiveTransactions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}
