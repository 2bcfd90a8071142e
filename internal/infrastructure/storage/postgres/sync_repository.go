package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"coinkeeper/internal/domain/entity"
	"coinkeeper/internal/domain/sync"
)

// SyncRepository is the pgx implementation of the server-side change ledger.
// Every sync call runs inside one transaction obtained through Begin, so
// apply, normalization and change collection observe a consistent snapshot
// and commit atomically.
type SyncRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewSyncRepository(db *Storage, log *slog.Logger) *SyncRepository {
	return &SyncRepository{
		db:  db,
		log: log,
	}
}

func (r *SyncRepository) Begin(ctx context.Context) (sync.Tx, error) {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &syncTx{tx: tx, log: r.log}, nil
}

type syncTx struct {
	tx  pgx.Tx
	log *slog.Logger
}

func (t *syncTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *syncTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Categories

func scanCategories(rows pgx.Rows) ([]entity.Category, error) {
	defer rows.Close()
	var out []entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.GlobalID, &c.Name, &c.Kind, &c.UpdatedAt, &c.Deleted); err != nil {
			return nil, err
		}
		c.UpdatedAt = c.UpdatedAt.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

const categoryCols = `id, global_id, name, kind, updated_at, deleted`

func (t *syncTx) ListCategories(ctx context.Context, userID int64) ([]entity.Category, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return scanCategories(rows)
}

func (t *syncTx) ListCategoriesChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.Category, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE user_id = $1 AND updated_at > $2 ORDER BY id`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("list changed categories: %w", err)
	}
	return scanCategories(rows)
}

func (t *syncTx) InsertCategory(ctx context.Context, userID int64, c entity.Category) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO categories (user_id, global_id, name, kind, updated_at, deleted)
         VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		userID, c.GlobalID, c.Name, c.Kind, c.UpdatedAt, c.Deleted).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return id, nil
}

func (t *syncTx) UpdateCategory(ctx context.Context, userID int64, c entity.Category) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE categories SET name = $1, kind = $2, updated_at = $3, deleted = $4
         WHERE user_id = $5 AND id = $6`,
		c.Name, c.Kind, c.UpdatedAt, c.Deleted, userID, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (t *syncTx) DeleteCategory(ctx context.Context, userID int64, id int64) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM categories WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (t *syncTx) ReassignCategoryRefs(ctx context.Context, userID int64, fromID, toID int64) error {
	for _, table := range []string{"transactions", "budgets", "recurring_transactions"} {
		_, err := t.tx.Exec(ctx,
			`UPDATE `+table+` SET category_id = $1 WHERE user_id = $2 AND category_id = $3`,
			toID, userID, fromID)
		if err != nil {
			return fmt.Errorf("reassign %s category refs: %w", table, err)
		}
	}
	return nil
}

// Savings goals

func scanSavingsGoals(rows pgx.Rows) ([]entity.SavingsGoal, error) {
	defer rows.Close()
	var out []entity.SavingsGoal
	for rows.Next() {
		var g entity.SavingsGoal
		if err := rows.Scan(&g.ID, &g.GlobalID, &g.Name, &g.TargetAmount, &g.Deadline, &g.UpdatedAt, &g.Deleted); err != nil {
			return nil, err
		}
		g.Deadline = g.Deadline.UTC()
		g.UpdatedAt = g.UpdatedAt.UTC()
		out = append(out, g)
	}
	return out, rows.Err()
}

const savingsGoalCols = `id, global_id, name, target_amount, deadline, updated_at, deleted`

func (t *syncTx) ListSavingsGoals(ctx context.Context, userID int64) ([]entity.SavingsGoal, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+savingsGoalCols+` FROM savings_goals WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	return scanSavingsGoals(rows)
}

func (t *syncTx) ListSavingsGoalsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.SavingsGoal, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+savingsGoalCols+` FROM savings_goals WHERE user_id = $1 AND updated_at > $2 ORDER BY id`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("list changed savings goals: %w", err)
	}
	return scanSavingsGoals(rows)
}

func (t *syncTx) InsertSavingsGoal(ctx context.Context, userID int64, g entity.SavingsGoal) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO savings_goals (user_id, global_id, name, target_amount, deadline, updated_at, deleted)
         VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		userID, g.GlobalID, g.Name, g.TargetAmount, g.Deadline, g.UpdatedAt, g.Deleted).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert savings goal: %w", err)
	}
	return id, nil
}

func (t *syncTx) UpdateSavingsGoal(ctx context.Context, userID int64, g entity.SavingsGoal) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE savings_goals SET name = $1, target_amount = $2, deadline = $3, updated_at = $4, deleted = $5
         WHERE user_id = $6 AND id = $7`,
		g.Name, g.TargetAmount, g.Deadline, g.UpdatedAt, g.Deleted, userID, g.ID)
	if err != nil {
		return fmt.Errorf("update savings goal: %w", err)
	}
	return nil
}

func (t *syncTx) DeleteSavingsGoal(ctx context.Context, userID int64, id int64) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM savings_goals WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return nil
}

func (t *syncTx) ReassignSavingsGoalRefs(ctx context.Context, userID int64, fromID, toID int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE savings_goal_transactions SET goal_id = $1 WHERE user_id = $2 AND goal_id = $3`,
		toID, userID, fromID)
	if err != nil {
		return fmt.Errorf("reassign savings goal refs: %w", err)
	}
	return nil
}

// Settings

func scanSettings(rows pgx.Rows) ([]entity.Settings, error) {
	defer rows.Close()
	var out []entity.Settings
	for rows.Next() {
		var s entity.Settings
		if err := rows.Scan(&s.ID, &s.GlobalID, &s.Currency, &s.MonthStartDay, &s.UpdatedAt, &s.Deleted); err != nil {
			return nil, err
		}
		s.UpdatedAt = s.UpdatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

const settingsCols = `id, global_id, currency, month_start_day, updated_at, deleted`

func (t *syncTx) ListSettings(ctx context.Context, userID int64) ([]entity.Settings, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+settingsCols+` FROM settings WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return scanSettings(rows)
}

func (t *syncTx) ListSettingsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.Settings, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+settingsCols+` FROM settings WHERE user_id = $1 AND updated_at > $2 ORDER BY id`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("list changed settings: %w", err)
	}
	return scanSettings(rows)
}

func (t *syncTx) InsertSettings(ctx context.Context, userID int64, s entity.Settings) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO settings (user_id, global_id, currency, month_start_day, updated_at, deleted)
         VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		userID, s.GlobalID, s.Currency, s.MonthStartDay, s.UpdatedAt, s.Deleted).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert settings: %w", err)
	}
	return id, nil
}

func (t *syncTx) UpdateSettings(ctx context.Context, userID int64, s entity.Settings) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE settings SET currency = $1, month_start_day = $2, updated_at = $3, deleted = $4
         WHERE user_id = $5 AND id = $6`,
		s.Currency, s.MonthStartDay, s.UpdatedAt, s.Deleted, userID, s.ID)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func (t *syncTx) DeleteSettings(ctx context.Context, userID int64, id int64) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM settings WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}

// Transactions

func scanTransactions(rows pgx.Rows) ([]entity.Transaction, error) {
	defer rows.Close()
	var out []entity.Transaction
	for rows.Next() {
		var tr entity.Transaction
		if err := rows.Scan(&tr.ID, &tr.GlobalID, &tr.CategoryID, &tr.Amount, &tr.Note, &tr.OccurredAt, &tr.UpdatedAt, &tr.Deleted); err != nil {
			return nil, err
		}
		tr.OccurredAt = tr.OccurredAt.UTC()
		tr.UpdatedAt = tr.UpdatedAt.UTC()
		out = append(out, tr)
	}
	return out, rows.Err()
}

const transactionCols = `id, global_id, COALESCE(category_id, 0), amount, note, occurred_at, updated_at, deleted`

func (t *syncTx) ListTransactions(ctx context.Context, userID int64) ([]entity.Transaction, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return scanTransactions(rows)
}

func (t *syncTx) ListTransactionsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.Transaction, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE user_id = $1 AND updated_at > $2 ORDER BY id`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("list changed transactions: %w", err)
	}
	return scanTransactions(rows)
}

func (t *syncTx) InsertTransaction(ctx context.Context, userID int64, tr entity.Transaction) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO transactions (user_id, global_id, category_id, amount, note, occurred_at, updated_at, deleted)
         VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, $7, $8) RETURNING id`,
		userID, tr.GlobalID, tr.CategoryID, tr.Amount, tr.Note, tr.OccurredAt, tr.UpdatedAt, tr.Deleted).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (t *syncTx) UpdateTransaction(ctx context.Context, userID int64, tr entity.Transaction) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE transactions SET category_id = NULLIF($1, 0), amount = $2, note = $3, occurred_at = $4, updated_at = $5, deleted = $6
         WHERE user_id = $7 AND id = $8`,
		tr.CategoryID, tr.Amount, tr.Note, tr.OccurredAt, tr.UpdatedAt, tr.Deleted, userID, tr.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (t *syncTx) DeleteTransaction(ctx context.Context, userID int64, id int64) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// Budgets

func scanBudgets(rows pgx.Rows) ([]entity.Budget, error) {
	defer rows.Close()
	var out []entity.Budget
	for rows.Next() {
		var b entity.Budget
		if err := rows.Scan(&b.ID, &b.GlobalID, &b.CategoryID, &b.Amount, &b.Month, &b.UpdatedAt, &b.Deleted); err != nil {
			return nil, err
		}
		b.UpdatedAt = b.UpdatedAt.UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

const budgetCols = `id, global_id, COALESCE(category_id, 0), amount, month, updated_at, deleted`

func (t *syncTx) ListBudgets(ctx context.Context, userID int64) ([]entity.Budget, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+budgetCols+` FROM budgets WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return scanBudgets(rows)
}

func (t *syncTx) ListBudgetsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.Budget, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+budgetCols+` FROM budgets WHERE user_id = $1 AND updated_at > $2 ORDER BY id`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("list changed budgets: %w", err)
	}
	return scanBudgets(rows)
}

func (t *syncTx) InsertBudget(ctx context.Context, userID int64, b entity.Budget) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO budgets (user_id, global_id, category_id, amount, month, updated_at, deleted)
         VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, $7) RETURNING id`,
		userID, b.GlobalID, b.CategoryID, b.Amount, b.Month, b.UpdatedAt, b.Deleted).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	return id, nil
}

func (t *syncTx) UpdateBudget(ctx context.Context, userID int64, b entity.Budget) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE budgets SET category_id = NULLIF($1, 0), amount = $2, month = $3, updated_at = $4, deleted = $5
         WHERE user_id = $6 AND id = $7`,
		b.CategoryID, b.Amount, b.Month, b.UpdatedAt, b.Deleted, userID, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (t *syncTx) DeleteBudget(ctx context.Context, userID int64, id int64) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM budgets WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// Recurring transactions

func scanRecurring(rows pgx.Rows) ([]entity.RecurringTransaction, error) {
	defer rows.Close()
	var out []entity.RecurringTransaction
	for rows.Next() {
		var r entity.RecurringTransaction
		if err := rows.Scan(&r.ID, &r.GlobalID, &r.CategoryID, &r.Amount, &r.Note, &r.Interval, &r.NextAt, &r.UpdatedAt, &r.Deleted); err != nil {
			return nil, err
		}
		r.NextAt = r.NextAt.UTC()
		r.UpdatedAt = r.UpdatedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

const recurringCols = `id, global_id, COALESCE(category_id, 0), amount, note, recur_interval, next_at, updated_at, deleted`

func (t *syncTx) ListRecurringTransactions(ctx context.Context, userID int64) ([]entity.RecurringTransaction, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+recurringCols+` FROM recurring_transactions WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return scanRecurring(rows)
}

func (t *syncTx) ListRecurringTransactionsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.RecurringTransaction, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+recurringCols+` FROM recurring_transactions WHERE user_id = $1 AND updated_at > $2 ORDER BY id`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("list changed recurring transactions: %w", err)
	}
	return scanRecurring(rows)
}

func (t *syncTx) InsertRecurringTransaction(ctx context.Context, userID int64, r entity.RecurringTransaction) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO recurring_transactions (user_id, global_id, category_id, amount, note, recur_interval, next_at, updated_at, deleted)
         VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, $7, $8, $9) RETURNING id`,
		userID, r.GlobalID, r.CategoryID, r.Amount, r.Note, r.Interval, r.NextAt, r.UpdatedAt, r.Deleted).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert recurring transaction: %w", err)
	}
	return id, nil
}

func (t *syncTx) UpdateRecurringTransaction(ctx context.Context, userID int64, r entity.RecurringTransaction) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE recurring_transactions SET category_id = NULLIF($1, 0), amount = $2, note = $3, recur_interval = $4, next_at = $5, updated_at = $6, deleted = $7
         WHERE user_id = $8 AND id = $9`,
		r.CategoryID, r.Amount, r.Note, r.Interval, r.NextAt, r.UpdatedAt, r.Deleted, userID, r.ID)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return nil
}

func (t *syncTx) DeleteRecurringTransaction(ctx context.Context, userID int64, id int64) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM recurring_transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return nil
}

// Savings goal transactions

func scanGoalTransactions(rows pgx.Rows) ([]entity.SavingsGoalTransaction, error) {
	defer rows.Close()
	var out []entity.SavingsGoalTransaction
	for rows.Next() {
		var g entity.SavingsGoalTransaction
		if err := rows.Scan(&g.ID, &g.GlobalID, &g.GoalID, &g.Amount, &g.Note, &g.OccurredAt, &g.UpdatedAt, &g.Deleted); err != nil {
			return nil, err
		}
		g.OccurredAt = g.OccurredAt.UTC()
		g.UpdatedAt = g.UpdatedAt.UTC()
		out = append(out, g)
	}
	return out, rows.Err()
}

const goalTransactionCols = `id, global_id, COALESCE(goal_id, 0), amount, note, occurred_at, updated_at, deleted`

func (t *syncTx) ListSavingsGoalTransactions(ctx context.Context, userID int64) ([]entity.SavingsGoalTransaction, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+goalTransactionCols+` FROM savings_goal_transactions WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goal transactions: %w", err)
	}
	return scanGoalTransactions(rows)
}

func (t *syncTx) ListSavingsGoalTransactionsChangedSince(ctx context.Context, userID int64, since time.Time) ([]entity.SavingsGoalTransaction, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+goalTransactionCols+` FROM savings_goal_transactions WHERE user_id = $1 AND updated_at > $2 ORDER BY id`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("list changed savings goal transactions: %w", err)
	}
	return scanGoalTransactions(rows)
}

func (t *syncTx) InsertSavingsGoalTransaction(ctx context.Context, userID int64, g entity.SavingsGoalTransaction) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO savings_goal_transactions (user_id, global_id, goal_id, amount, note, occurred_at, updated_at, deleted)
         VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, $7, $8) RETURNING id`,
		userID, g.GlobalID, g.GoalID, g.Amount, g.Note, g.OccurredAt, g.UpdatedAt, g.Deleted).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert savings goal transaction: %w", err)
	}
	return id, nil
}

func (t *syncTx) UpdateSavingsGoalTransaction(ctx context.Context, userID int64, g entity.SavingsGoalTransaction) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE savings_goal_transactions SET goal_id = NULLIF($1, 0), amount = $2, note = $3, occurred_at = $4, updated_at = $5, deleted = $6
         WHERE user_id = $7 AND id = $8`,
		g.GoalID, g.Amount, g.Note, g.OccurredAt, g.UpdatedAt, g.Deleted, userID, g.ID)
	if err != nil {
		return fmt.Errorf("update savings goal transaction: %w", err)
	}
	return nil
}

func (t *syncTx) DeleteSavingsGoalTransaction(ctx context.Context, userID int64, id int64) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM savings_goal_transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete savings goal transaction: %w", err)
	}
	return nil
}
