package sync

import (
	"context"
	"time"

	"coinkeeper/internal/domain/entity"
)

// Repository opens transactions against the server-side change ledger. Each
// sync call runs entirely inside one transaction so that apply-phase writes,
// normalization writes and change collection are serialized per request.
type Repository interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a ledger bound to one transaction.
type Tx interface {
	Ledger
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Ledger exposes the change-tracking primitives the sync processor needs,
// per entity type, always scoped to one owner.
//
// All List* reads are unfiltered by the soft-delete flag: deleted records
// still drive deletion propagation and still resolve foreign keys. Delete*
// removes a row physically and is used only when collapsing exact-GlobalID
// duplicates; semantic duplicates are soft-deleted through Update* so the
// deletion itself syncs out.
type Ledger interface {
	ListCategories(ctx context.Context, userID int64) ([]entity.Category, error)
	ListCategoriesChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.Category, error)
	InsertCategory(ctx context.Context, userID int64, c entity.Category) (int64, error)
	UpdateCategory(ctx context.Context, userID int64, c entity.Category) error
	DeleteCategory(ctx context.Context, userID int64, id int64) error
	// ReassignCategoryRefs repoints every transaction, budget and recurring
	// transaction of the owner from one local category id to another.
	ReassignCategoryRefs(ctx context.Context, userID int64, fromID, toID int64) error

	ListSavingsGoals(ctx context.Context, userID int64) ([]entity.SavingsGoal, error)
	ListSavingsGoalsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.SavingsGoal, error)
	InsertSavingsGoal(ctx context.Context, userID int64, g entity.SavingsGoal) (int64, error)
	UpdateSavingsGoal(ctx context.Context, userID int64, g entity.SavingsGoal) error
	DeleteSavingsGoal(ctx context.Context, userID int64, id int64) error
	ReassignSavingsGoalRefs(ctx context.Context, userID int64, fromID, toID int64) error

	ListSettings(ctx context.Context, userID int64) ([]entity.Settings, error)
	ListSettingsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.Settings, error)
	InsertSettings(ctx context.Context, userID int64, s entity.Settings) (int64, error)
	UpdateSettings(ctx context.Context, userID int64, s entity.Settings) error
	DeleteSettings(ctx context.Context, userID int64, id int64) error

	ListTransactions(ctx context.Context, userID int64) ([]entity.Transaction, error)
	ListTransactionsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.Transaction, error)
	InsertTransaction(ctx context.Context, userID int64, t entity.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, userID int64, t entity.Transaction) error
	DeleteTransaction(ctx context.Context, userID int64, id int64) error

	ListBudgets(ctx context.Context, userID int64) ([]entity.Budget, error)
	ListBudgetsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.Budget, error)
	InsertBudget(ctx context.Context, userID int64, b entity.Budget) (int64, error)
	UpdateBudget(ctx context.Context, userID int64, b entity.Budget) error
	DeleteBudget(ctx context.Context, userID int64, id int64) error

	ListRecurringTransactions(ctx context.Context, userID int64) ([]entity.RecurringTransaction, error)
	ListRecurringTransactionsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.RecurringTransaction, error)
	InsertRecurringTransaction(ctx context.Context, userID int64, r entity.RecurringTransaction) (int64, error)
	UpdateRecurringTransaction(ctx context.Context, userID int64, r entity.RecurringTransaction) error
	DeleteRecurringTransaction(ctx context.Context, userID int64, id int64) error

	ListSavingsGoalTransactions(ctx context.Context, userID int64) ([]entity.SavingsGoalTransaction, error)
	ListSavingsGoalTransactionsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.SavingsGoalTransaction, error)
	InsertSavingsGoalTransaction(ctx context.Context, userID int64, t entity.SavingsGoalTransaction) (int64, error)
	UpdateSavingsGoalTransaction(ctx context.Context, userID int64, t entity.SavingsGoalTransaction) error
	DeleteSavingsGoalTransaction(ctx context.Context, userID int64, id int64) error
}
