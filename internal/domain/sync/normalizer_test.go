package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"coinkeeper/internal/domain/entity"
)

func newTestNormalizer(ledger Ledger) *Normalizer {
	n := NewNormalizer(ledger, slog.Default())
	n.now = func() time.Time { return serverTime }
	return n
}

func TestNormalizer_ExactDuplicates(t *testing.T) {
	ledger := newFakeLedger()
	ctx := context.Background()

	gid := entity.NewGlobalID()
	loserID, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: gid, Name: "Rent", Kind: entity.CategoryExpense, UpdatedAt: base})
	require.NoError(t, err)
	winnerID, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: gid, Name: "Rent", Kind: entity.CategoryExpense, UpdatedAt: base})
	require.NoError(t, err)

	txID, err := ledger.InsertTransaction(ctx, 1, entity.Transaction{GlobalID: entity.NewGlobalID(), CategoryID: loserID, Amount: -100, OccurredAt: base, UpdatedAt: base})
	require.NoError(t, err)

	require.NoError(t, newTestNormalizer(ledger).Run(ctx, 1))

	// The higher surrogate id survives, the loser is physically gone, and
	// the child was repointed before removal.
	require.Len(t, ledger.categories, 1)
	_, ok := ledger.categories[winnerID]
	assert.True(t, ok)
	assert.Equal(t, winnerID, ledger.transactions[txID].CategoryID)
}

func TestNormalizer_SemanticDuplicates(t *testing.T) {
	ledger := newFakeLedger()
	ctx := context.Background()

	oldID, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: " Rent ", Kind: entity.CategoryExpense, UpdatedAt: base})
	require.NoError(t, err)
	newID, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: "rent", Kind: entity.CategoryExpense, UpdatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	budgetID, err := ledger.InsertBudget(ctx, 1, entity.Budget{GlobalID: entity.NewGlobalID(), CategoryID: oldID, Amount: 50000, Month: "2025-06", UpdatedAt: base})
	require.NoError(t, err)

	require.NoError(t, newTestNormalizer(ledger).Run(ctx, 1))

	// Most recently updated row wins; the loser is soft-deleted with a
	// fresh timestamp so the collapse replicates.
	assert.False(t, ledger.categories[newID].Deleted)
	loser := ledger.categories[oldID]
	assert.True(t, loser.Deleted)
	assert.Equal(t, serverTime, loser.UpdatedAt)
	assert.Equal(t, newID, ledger.budgets[budgetID].CategoryID)
}

func TestNormalizer_SemanticTieBreaksOnHigherID(t *testing.T) {
	ledger := newFakeLedger()
	ctx := context.Background()

	_, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: "Rent", Kind: entity.CategoryExpense, UpdatedAt: base})
	require.NoError(t, err)
	higherID, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: "Rent", Kind: entity.CategoryExpense, UpdatedAt: base})
	require.NoError(t, err)

	require.NoError(t, newTestNormalizer(ledger).Run(ctx, 1))

	assert.False(t, ledger.categories[higherID].Deleted)
}

func TestNormalizer_KindDistinguishesCategories(t *testing.T) {
	ledger := newFakeLedger()
	ctx := context.Background()

	_, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: "Misc", Kind: entity.CategoryExpense, UpdatedAt: base})
	require.NoError(t, err)
	_, err = ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: "Misc", Kind: entity.CategoryIncome, UpdatedAt: base})
	require.NoError(t, err)

	require.NoError(t, newTestNormalizer(ledger).Run(ctx, 1))

	for _, c := range ledger.categories {
		assert.False(t, c.Deleted, "same name with different kinds is not a duplicate")
	}
}

func TestNormalizer_DeletedRowsSkipSemanticPass(t *testing.T) {
	ledger := newFakeLedger()
	ctx := context.Background()

	_, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: "Rent", Kind: entity.CategoryExpense, UpdatedAt: base, Deleted: true})
	require.NoError(t, err)
	activeID, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: "Rent", Kind: entity.CategoryExpense, UpdatedAt: base.Add(-time.Hour)})
	require.NoError(t, err)

	require.NoError(t, newTestNormalizer(ledger).Run(ctx, 1))

	assert.False(t, ledger.categories[activeID].Deleted, "a tombstone must not collapse an active row")
}

func TestNormalizer_TransactionsOnlyExactPass(t *testing.T) {
	ledger := newFakeLedger()
	ctx := context.Background()

	// Two identical-looking transactions are legitimate data.
	for i := 0; i < 2; i++ {
		_, err := ledger.InsertTransaction(ctx, 1, entity.Transaction{GlobalID: entity.NewGlobalID(), Amount: -300, Note: "coffee", OccurredAt: base, UpdatedAt: base})
		require.NoError(t, err)
	}

	require.NoError(t, newTestNormalizer(ledger).Run(ctx, 1))
	assert.Len(t, ledger.transactions, 2)
}

func TestNormalizer_BudgetsCollapseOnCategoryAndMonth(t *testing.T) {
	ledger := newFakeLedger()
	ctx := context.Background()

	catID, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: "Rent", Kind: entity.CategoryExpense, UpdatedAt: base})
	require.NoError(t, err)

	_, err = ledger.InsertBudget(ctx, 1, entity.Budget{GlobalID: entity.NewGlobalID(), CategoryID: catID, Amount: 40000, Month: "2025-06", UpdatedAt: base})
	require.NoError(t, err)
	winnerID, err := ledger.InsertBudget(ctx, 1, entity.Budget{GlobalID: entity.NewGlobalID(), CategoryID: catID, Amount: 45000, Month: "2025-06", UpdatedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	otherMonthID, err := ledger.InsertBudget(ctx, 1, entity.Budget{GlobalID: entity.NewGlobalID(), CategoryID: catID, Amount: 40000, Month: "2025-07", UpdatedAt: base})
	require.NoError(t, err)

	require.NoError(t, newTestNormalizer(ledger).Run(ctx, 1))

	assert.False(t, ledger.budgets[winnerID].Deleted)
	assert.False(t, ledger.budgets[otherMonthID].Deleted)
	active := 0
	for _, b := range ledger.budgets {
		if !b.Deleted && b.Month == "2025-06" {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestNormalizer_Idempotent(t *testing.T) {
	ledger := newFakeLedger()
	ctx := context.Background()

	gid := entity.NewGlobalID()
	_, err := ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: gid, Name: "Rent", Kind: entity.CategoryExpense, UpdatedAt: base})
	require.NoError(t, err)
	_, err = ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: gid, Name: "Rent", Kind: entity.CategoryExpense, UpdatedAt: base})
	require.NoError(t, err)
	_, err = ledger.InsertCategory(ctx, 1, entity.Category{GlobalID: entity.NewGlobalID(), Name: "rent", Kind: entity.CategoryExpense, UpdatedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	n := newTestNormalizer(ledger)
	require.NoError(t, n.Run(ctx, 1))

	snapshot := make(map[int64]entity.Category, len(ledger.categories))
	for id, c := range ledger.categories {
		snapshot[id] = c
	}

	require.NoError(t, n.Run(ctx, 1))
	assert.Equal(t, snapshot, ledger.categories)
}
