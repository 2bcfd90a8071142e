package client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coinkeeper/internal/domain/entity"
)

// Ledger implementation. Every method takes the owner id the shared contract
// requires and ignores it: this database has exactly one owner.

func (s *SQLiteStorage) ListCategories(ctx context.Context, _ int64) ([]entity.Category, error) {
	return s.queryCategories(ctx, `SELECT id, global_id, name, kind, updated_at, deleted FROM categories`)
}

func (s *SQLiteStorage) ListCategoriesChangedSince(ctx context.Context, _ int64, since time.Time) ([]entity.Category, error) {
	return s.queryCategories(ctx,
		`SELECT id, global_id, name, kind, updated_at, deleted FROM categories WHERE updated_at > ?`,
		since.UTC())
}

// ListActiveCategories returns the rows the CLI shows: not soft-deleted.
func (s *SQLiteStorage) ListActiveCategories(ctx context.Context) ([]entity.Category, error) {
	return s.queryCategories(ctx,
		`SELECT id, global_id, name, kind, updated_at, deleted FROM categories WHERE deleted = 0 ORDER BY name`)
}

func (s *SQLiteStorage) queryCategories(ctx context.Context, query string, args ...interface{}) ([]entity.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.GlobalID, &c.Name, &c.Kind, &c.UpdatedAt, &c.Deleted); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.UpdatedAt = c.UpdatedAt.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) InsertCategory(ctx context.Context, _ int64, c entity.Category) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (global_id, name, kind, updated_at, deleted) VALUES (?, ?, ?, ?, ?)`,
		c.GlobalID, c.Name, c.Kind, c.UpdatedAt.UTC(), c.Deleted)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStorage) UpdateCategory(ctx context.Context, _ int64, c entity.Category) error {
	return s.exec(ctx, "update category",
		`UPDATE categories SET global_id = ?, name = ?, kind = ?, updated_at = ?, deleted = ? WHERE id = ?`,
		c.GlobalID, c.Name, c.Kind, c.UpdatedAt.UTC(), c.Deleted, c.ID)
}

func (s *SQLiteStorage) DeleteCategory(ctx context.Context, _ int64, id int64) error {
	return s.exec(ctx, "delete category", `DELETE FROM categories WHERE id = ?`, id)
}

func (s *SQLiteStorage) ReassignCategoryRefs(ctx context.Context, _ int64, fromID, toID int64) error {
	for _, table := range []string{"transactions", "budgets", "recurring_transactions"} {
		query := fmt.Sprintf(`UPDATE %s SET category_id = ? WHERE category_id = ?`, table)
		if _, err := s.db.ExecContext(ctx, query, toID, fromID); err != nil {
			return fmt.Errorf("reassign category refs in %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) ListSavingsGoals(ctx context.Context, _ int64) ([]entity.SavingsGoal, error) {
	return s.querySavingsGoals(ctx,
		`SELECT id, global_id, name, target_amount, deadline, updated_at, deleted FROM savings_goals`)
}

func (s *SQLiteStorage) ListSavingsGoalsChangedSince(ctx context.Context, _ int64, since time.Time) ([]entity.SavingsGoal, error) {
	return s.querySavingsGoals(ctx,
		`SELECT id, global_id, name, target_amount, deadline, updated_at, deleted FROM savings_goals WHERE updated_at > ?`,
		since.UTC())
}

func (s *SQLiteStorage) ListActiveSavingsGoals(ctx context.Context) ([]entity.SavingsGoal, error) {
	return s.querySavingsGoals(ctx,
		`SELECT id, global_id, name, target_amount, deadline, updated_at, deleted FROM savings_goals WHERE deleted = 0 ORDER BY name`)
}

func (s *SQLiteStorage) querySavingsGoals(ctx context.Context, query string, args ...interface{}) ([]entity.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query savings goals: %w", err)
	}
	defer rows.Close()

	var out []entity.SavingsGoal
	for rows.Next() {
		var g entity.SavingsGoal
		if err := rows.Scan(&g.ID, &g.GlobalID, &g.Name, &g.TargetAmount, &g.Deadline, &g.UpdatedAt, &g.Deleted); err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		g.Deadline = g.Deadline.UTC()
		g.UpdatedAt = g.UpdatedAt.UTC()
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) InsertSavingsGoal(ctx context.Context, _ int64, g entity.SavingsGoal) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO savings_goals (global_id, name, target_amount, deadline, updated_at, deleted) VALUES (?, ?, ?, ?, ?, ?)`,
		g.GlobalID, g.Name, g.TargetAmount, g.Deadline.UTC(), g.UpdatedAt.UTC(), g.Deleted)
	if err != nil {
		return 0, fmt.Errorf("insert savings goal: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStorage) UpdateSavingsGoal(ctx context.Context, _ int64, g entity.SavingsGoal) error {
	return s.exec(ctx, "update savings goal",
		`UPDATE savings_goals SET global_id = ?, name = ?, target_amount = ?, deadline = ?, updated_at = ?, deleted = ? WHERE id = ?`,
		g.GlobalID, g.Name, g.TargetAmount, g.Deadline.UTC(), g.UpdatedAt.UTC(), g.Deleted, g.ID)
}

func (s *SQLiteStorage) DeleteSavingsGoal(ctx context.Context, _ int64, id int64) error {
	return s.exec(ctx, "delete savings goal", `DELETE FROM savings_goals WHERE id = ?`, id)
}

func (s *SQLiteStorage) ReassignSavingsGoalRefs(ctx context.Context, _ int64, fromID, toID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE savings_goal_transactions SET goal_id = ? WHERE goal_id = ?`, toID, fromID); err != nil {
		return fmt.Errorf("reassign savings goal refs: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListSettings(ctx context.Context, _ int64) ([]entity.Settings, error) {
	return s.querySettings(ctx,
		`SELECT id, global_id, currency, month_start_day, updated_at, deleted FROM settings`)
}

func (s *SQLiteStorage) ListSettingsChangedSince(ctx context.Context, _ int64, since time.Time) ([]entity.Settings, error) {
	return s.querySettings(ctx,
		`SELECT id, global_id, currency, month_start_day, updated_at, deleted FROM settings WHERE updated_at > ?`,
		since.UTC())
}

// ActiveSettings returns the owner's settings singleton, or nil if none
// survives (fresh database before seeding).
func (s *SQLiteStorage) ActiveSettings(ctx context.Context) (*entity.Settings, error) {
	all, err := s.querySettings(ctx,
		`SELECT id, global_id, currency, month_start_day, updated_at, deleted FROM settings WHERE deleted = 0 ORDER BY updated_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return &all[0], nil
}

func (s *SQLiteStorage) querySettings(ctx context.Context, query string, args ...interface{}) ([]entity.Settings, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	var out []entity.Settings
	for rows.Next() {
		var st entity.Settings
		if err := rows.Scan(&st.ID, &st.GlobalID, &st.Currency, &st.MonthStartDay, &st.UpdatedAt, &st.Deleted); err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		st.UpdatedAt = st.UpdatedAt.UTC()
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) InsertSettings(ctx context.Context, _ int64, st entity.Settings) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (global_id, currency, month_start_day, updated_at, deleted) VALUES (?, ?, ?, ?, ?)`,
		st.GlobalID, st.Currency, st.MonthStartDay, st.UpdatedAt.UTC(), st.Deleted)
	if err != nil {
		return 0, fmt.Errorf("insert settings: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStorage) UpdateSettings(ctx context.Context, _ int64, st entity.Settings) error {
	return s.exec(ctx, "update settings",
		`UPDATE settings SET global_id = ?, currency = ?, month_start_day = ?, updated_at = ?, deleted = ? WHERE id = ?`,
		st.GlobalID, st.Currency, st.MonthStartDay, st.UpdatedAt.UTC(), st.Deleted, st.ID)
}

func (s *SQLiteStorage) DeleteSettings(ctx context.Context, _ int64, id int64) error {
	return s.exec(ctx, "delete settings", `DELETE FROM settings WHERE id = ?`, id)
}

func (s *SQLiteStorage) ListTransactions(ctx context.Context, _ int64) ([]entity.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT id, global_id, category_id, amount, note, occurred_at, updated_at, deleted FROM transactions`)
}

func (s *SQLiteStorage) ListTransactionsChangedSince(ctx context.Context, _ int64, since time.Time) ([]entity.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT id, global_id, category_id, amount, note, occurred_at, updated_at, deleted FROM transactions WHERE updated_at > ?`,
		since.UTC())
}

func (s *SQLiteStorage) ListActiveTransactions(ctx context.Context, limit int) ([]entity.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT id, global_id, category_id, amount, note, occurred_at, updated_at, deleted FROM transactions WHERE deleted = 0 ORDER BY occurred_at DESC LIMIT ?`,
		limit)
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]entity.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		if err := rows.Scan(&t.ID, &t.GlobalID, &t.CategoryID, &t.Amount, &t.Note, &t.OccurredAt, &t.UpdatedAt, &t.Deleted); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.OccurredAt = t.OccurredAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) InsertTransaction(ctx context.Context, _ int64, t entity.Transaction) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (global_id, category_id, amount, note, occurred_at, updated_at, deleted) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.GlobalID, t.CategoryID, t.Amount, t.Note, t.OccurredAt.UTC(), t.UpdatedAt.UTC(), t.Deleted)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, _ int64, t entity.Transaction) error {
	return s.exec(ctx, "update transaction",
		`UPDATE transactions SET global_id = ?, category_id = ?, amount = ?, note = ?, occurred_at = ?, updated_at = ?, deleted = ? WHERE id = ?`,
		t.GlobalID, t.CategoryID, t.Amount, t.Note, t.OccurredAt.UTC(), t.UpdatedAt.UTC(), t.Deleted, t.ID)
}

func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, _ int64, id int64) error {
	return s.exec(ctx, "delete transaction", `DELETE FROM transactions WHERE id = ?`, id)
}

func (s *SQLiteStorage) ListBudgets(ctx context.Context, _ int64) ([]entity.Budget, error) {
	return s.queryBudgets(ctx,
		`SELECT id, global_id, category_id, amount, month, updated_at, deleted FROM budgets`)
}

func (s *SQLiteStorage) ListBudgetsChangedSince(ctx context.Context, _ int64, since time.Time) ([]entity.Budget, error) {
	return s.queryBudgets(ctx,
		`SELECT id, global_id, category_id, amount, month, updated_at, deleted FROM budgets WHERE updated_at > ?`,
		since.UTC())
}

func (s *SQLiteStorage) ListActiveBudgets(ctx context.Context) ([]entity.Budget, error) {
	return s.queryBudgets(ctx,
		`SELECT id, global_id, category_id, amount, month, updated_at, deleted FROM budgets WHERE deleted = 0 ORDER BY month DESC`)
}

func (s *SQLiteStorage) queryBudgets(ctx context.Context, query string, args ...interface{}) ([]entity.Budget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []entity.Budget
	for rows.Next() {
		var b entity.Budget
		if err := rows.Scan(&b.ID, &b.GlobalID, &b.CategoryID, &b.Amount, &b.Month, &b.UpdatedAt, &b.Deleted); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.UpdatedAt = b.UpdatedAt.UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) InsertBudget(ctx context.Context, _ int64, b entity.Budget) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (global_id, category_id, amount, month, updated_at, deleted) VALUES (?, ?, ?, ?, ?, ?)`,
		b.GlobalID, b.CategoryID, b.Amount, b.Month, b.UpdatedAt.UTC(), b.Deleted)
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStorage) UpdateBudget(ctx context.Context, _ int64, b entity.Budget) error {
	return s.exec(ctx, "update budget",
		`UPDATE budgets SET global_id = ?, category_id = ?, amount = ?, month = ?, updated_at = ?, deleted = ? WHERE id = ?`,
		b.GlobalID, b.CategoryID, b.Amount, b.Month, b.UpdatedAt.UTC(), b.Deleted, b.ID)
}

func (s *SQLiteStorage) DeleteBudget(ctx context.Context, _ int64, id int64) error {
	return s.exec(ctx, "delete budget", `DELETE FROM budgets WHERE id = ?`, id)
}

func (s *SQLiteStorage) ListRecurringTransactions(ctx context.Context, _ int64) ([]entity.RecurringTransaction, error) {
	return s.queryRecurring(ctx,
		`SELECT id, global_id, category_id, amount, note, recur_interval, next_at, updated_at, deleted FROM recurring_transactions`)
}

func (s *SQLiteStorage) ListRecurringTransactionsChangedSince(ctx context.Context, _ int64, since time.Time) ([]entity.RecurringTransaction, error) {
	return s.queryRecurring(ctx,
		`SELECT id, global_id, category_id, amount, note, recur_interval, next_at, updated_at, deleted FROM recurring_transactions WHERE updated_at > ?`,
		since.UTC())
}

func (s *SQLiteStorage) ListActiveRecurringTransactions(ctx context.Context) ([]entity.RecurringTransaction, error) {
	return s.queryRecurring(ctx,
		`SELECT id, global_id, category_id, amount, note, recur_interval, next_at, updated_at, deleted FROM recurring_transactions WHERE deleted = 0 ORDER BY next_at`)
}

func (s *SQLiteStorage) queryRecurring(ctx context.Context, query string, args ...interface{}) ([]entity.RecurringTransaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []entity.RecurringTransaction
	for rows.Next() {
		var r entity.RecurringTransaction
		if err := rows.Scan(&r.ID, &r.GlobalID, &r.CategoryID, &r.Amount, &r.Note, &r.Interval, &r.NextAt, &r.UpdatedAt, &r.Deleted); err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		r.NextAt = r.NextAt.UTC()
		r.UpdatedAt = r.UpdatedAt.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) InsertRecurringTransaction(ctx context.Context, _ int64, r entity.RecurringTransaction) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (global_id, category_id, amount, note, recur_interval, next_at, updated_at, deleted) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GlobalID, r.CategoryID, r.Amount, r.Note, r.Interval, r.NextAt.UTC(), r.UpdatedAt.UTC(), r.Deleted)
	if err != nil {
		return 0, fmt.Errorf("insert recurring transaction: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStorage) UpdateRecurringTransaction(ctx context.Context, _ int64, r entity.RecurringTransaction) error {
	return s.exec(ctx, "update recurring transaction",
		`UPDATE recurring_transactions SET global_id = ?, category_id = ?, amount = ?, note = ?, recur_interval = ?, next_at = ?, updated_at = ?, deleted = ? WHERE id = ?`,
		r.GlobalID, r.CategoryID, r.Amount, r.Note, r.Interval, r.NextAt.UTC(), r.UpdatedAt.UTC(), r.Deleted, r.ID)
}

func (s *SQLiteStorage) DeleteRecurringTransaction(ctx context.Context, _ int64, id int64) error {
	return s.exec(ctx, "delete recurring transaction", `DELETE FROM recurring_transactions WHERE id = ?`, id)
}

func (s *SQLiteStorage) ListSavingsGoalTransactions(ctx context.Context, _ int64) ([]entity.SavingsGoalTransaction, error) {
	return s.queryGoalTransactions(ctx,
		`SELECT id, global_id, goal_id, amount, note, occurred_at, updated_at, deleted FROM savings_goal_transactions`)
}

func (s *SQLiteStorage) ListSavingsGoalTransactionsChangedSince(ctx context.Context, _ int64, since time.Time) ([]entity.SavingsGoalTransaction, error) {
	return s.queryGoalTransactions(ctx,
		`SELECT id, global_id, goal_id, amount, note, occurred_at, updated_at, deleted FROM savings_goal_transactions WHERE updated_at > ?`,
		since.UTC())
}

func (s *SQLiteStorage) ListActiveSavingsGoalTransactions(ctx context.Context, goalID int64) ([]entity.SavingsGoalTransaction, error) {
	return s.queryGoalTransactions(ctx,
		`SELECT id, global_id, goal_id, amount, note, occurred_at, updated_at, deleted FROM savings_goal_transactions WHERE deleted = 0 AND goal_id = ? ORDER BY occurred_at DESC`,
		goalID)
}

func (s *SQLiteStorage) queryGoalTransactions(ctx context.Context, query string, args ...interface{}) ([]entity.SavingsGoalTransaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query savings goal transactions: %w", err)
	}
	defer rows.Close()

	var out []entity.SavingsGoalTransaction
	for rows.Next() {
		var t entity.SavingsGoalTransaction
		if err := rows.Scan(&t.ID, &t.GlobalID, &t.GoalID, &t.Amount, &t.Note, &t.OccurredAt, &t.UpdatedAt, &t.Deleted); err != nil {
			return nil, fmt.Errorf("scan savings goal transaction: %w", err)
		}
		t.OccurredAt = t.OccurredAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) InsertSavingsGoalTransaction(ctx context.Context, _ int64, t entity.SavingsGoalTransaction) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO savings_goal_transactions (global_id, goal_id, amount, note, occurred_at, updated_at, deleted) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.GlobalID, t.GoalID, t.Amount, t.Note, t.OccurredAt.UTC(), t.UpdatedAt.UTC(), t.Deleted)
	if err != nil {
		return 0, fmt.Errorf("insert savings goal transaction: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStorage) UpdateSavingsGoalTransaction(ctx context.Context, _ int64, t entity.SavingsGoalTransaction) error {
	return s.exec(ctx, "update savings goal transaction",
		`UPDATE savings_goal_transactions SET global_id = ?, goal_id = ?, amount = ?, note = ?, occurred_at = ?, updated_at = ?, deleted = ? WHERE id = ?`,
		t.GlobalID, t.GoalID, t.Amount, t.Note, t.OccurredAt.UTC(), t.UpdatedAt.UTC(), t.Deleted, t.ID)
}

func (s *SQLiteStorage) DeleteSavingsGoalTransaction(ctx context.Context, _ int64, id int64) error {
	return s.exec(ctx, "delete savings goal transaction", `DELETE FROM savings_goal_transactions WHERE id = ?`, id)
}

// SoftDelete marks a row deleted with a fresh UpdatedAt so the deletion
// replicates on the next sync. The table name is one of the fixed entity
// tables, never user input.
func (s *SQLiteStorage) SoftDelete(ctx context.Context, table string, id int64, now time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET deleted = 1, updated_at = ? WHERE id = ?`, table)
	res, err := s.db.ExecContext(ctx, query, now.UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLiteStorage) exec(ctx context.Context, op, query string, args ...interface{}) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
