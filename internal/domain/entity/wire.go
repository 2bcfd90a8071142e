package entity

import "time"

// Wire representations exchanged during sync. Local surrogate keys never
// cross the wire: foreign keys are carried as the referenced record's
// global id, and an absent reference is an empty string.

type CategoryWire struct {
	GlobalID  string    `json:"gid" doc:"Stable cross-device identifier"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind" enum:"expense,income"`
	UpdatedAt time.Time `json:"updated_at" format:"date-time"`
	Deleted   bool      `json:"deleted,omitempty"`
}

type SavingsGoalWire struct {
	GlobalID     string    `json:"gid"`
	Name         string    `json:"name"`
	TargetAmount int64     `json:"target_amount" doc:"Minor currency units"`
	Deadline     time.Time `json:"deadline,omitempty"`
	UpdatedAt    time.Time `json:"updated_at" format:"date-time"`
	Deleted      bool      `json:"deleted,omitempty"`
}

type SettingsWire struct {
	GlobalID      string    `json:"gid"`
	Currency      string    `json:"currency"`
	MonthStartDay int       `json:"month_start_day"`
	UpdatedAt     time.Time `json:"updated_at" format:"date-time"`
	Deleted       bool      `json:"deleted,omitempty"`
}

type TransactionWire struct {
	GlobalID    string    `json:"gid"`
	CategoryGID string    `json:"category_gid,omitempty" doc:"Global id of the category, empty if uncategorized"`
	Amount      int64     `json:"amount" doc:"Minor currency units, negative for expenses"`
	Note        string    `json:"note,omitempty"`
	OccurredAt  time.Time `json:"occurred_at" format:"date-time"`
	UpdatedAt   time.Time `json:"updated_at" format:"date-time"`
	Deleted     bool      `json:"deleted,omitempty"`
}

type BudgetWire struct {
	GlobalID    string    `json:"gid"`
	CategoryGID string    `json:"category_gid,omitempty"`
	Amount      int64     `json:"amount"`
	Month       string    `json:"month" doc:"Budget month in YYYY-MM form"`
	UpdatedAt   time.Time `json:"updated_at" format:"date-time"`
	Deleted     bool      `json:"deleted,omitempty"`
}

type RecurringTransactionWire struct {
	GlobalID    string    `json:"gid"`
	CategoryGID string    `json:"category_gid,omitempty"`
	Amount      int64     `json:"amount"`
	Note        string    `json:"note,omitempty"`
	Interval    string    `json:"interval" enum:"daily,weekly,monthly,yearly"`
	NextAt      time.Time `json:"next_at" format:"date-time"`
	UpdatedAt   time.Time `json:"updated_at" format:"date-time"`
	Deleted     bool      `json:"deleted,omitempty"`
}

type SavingsGoalTransactionWire struct {
	GlobalID   string    `json:"gid"`
	GoalGID    string    `json:"goal_gid,omitempty"`
	Amount     int64     `json:"amount"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at" format:"date-time"`
	UpdatedAt  time.Time `json:"updated_at" format:"date-time"`
	Deleted    bool      `json:"deleted,omitempty"`
}

// ChangeSet is the sync payload: every changed record, grouped by type.
// Phase 1 types (no foreign keys to other syncable types) come first and are
// applied before the phase 2 types that reference them.
type ChangeSet struct {
	Categories              []CategoryWire               `json:"categories,omitempty"`
	SavingsGoals            []SavingsGoalWire            `json:"savings_goals,omitempty"`
	Settings                []SettingsWire               `json:"settings,omitempty"`
	Transactions            []TransactionWire            `json:"transactions,omitempty"`
	Budgets                 []BudgetWire                 `json:"budgets,omitempty"`
	RecurringTransactions   []RecurringTransactionWire   `json:"recurring_transactions,omitempty"`
	SavingsGoalTransactions []SavingsGoalTransactionWire `json:"savings_goal_transactions,omitempty"`
}

// Total reports how many records the set carries across all types.
func (c ChangeSet) Total() int {
	return len(c.Categories) + len(c.SavingsGoals) + len(c.Settings) +
		len(c.Transactions) + len(c.Budgets) + len(c.RecurringTransactions) +
		len(c.SavingsGoalTransactions)
}

func (c ChangeSet) Empty() bool {
	return c.Total() == 0
}

// Local-to-wire mappings. Callers resolve foreign keys to global ids through
// an unfiltered lookup table before mapping; a zero local key maps to an
// empty global reference.

func CategoryToWire(c Category) CategoryWire {
	return CategoryWire{
		GlobalID:  c.GlobalID,
		Name:      c.Name,
		Kind:      string(c.Kind),
		UpdatedAt: c.UpdatedAt,
		Deleted:   c.Deleted,
	}
}

func SavingsGoalToWire(g SavingsGoal) SavingsGoalWire {
	return SavingsGoalWire{
		GlobalID:     g.GlobalID,
		Name:         g.Name,
		TargetAmount: g.TargetAmount,
		Deadline:     g.Deadline,
		UpdatedAt:    g.UpdatedAt,
		Deleted:      g.Deleted,
	}
}

func SettingsToWire(s Settings) SettingsWire {
	return SettingsWire{
		GlobalID:      s.GlobalID,
		Currency:      s.Currency,
		MonthStartDay: s.MonthStartDay,
		UpdatedAt:     s.UpdatedAt,
		Deleted:       s.Deleted,
	}
}

func TransactionToWire(t Transaction, categoryGID string) TransactionWire {
	return TransactionWire{
		GlobalID:    t.GlobalID,
		CategoryGID: categoryGID,
		Amount:      t.Amount,
		Note:        t.Note,
		OccurredAt:  t.OccurredAt,
		UpdatedAt:   t.UpdatedAt,
		Deleted:     t.Deleted,
	}
}

func BudgetToWire(b Budget, categoryGID string) BudgetWire {
	return BudgetWire{
		GlobalID:    b.GlobalID,
		CategoryGID: categoryGID,
		Amount:      b.Amount,
		Month:       b.Month,
		UpdatedAt:   b.UpdatedAt,
		Deleted:     b.Deleted,
	}
}

func RecurringTransactionToWire(r RecurringTransaction, categoryGID string) RecurringTransactionWire {
	return RecurringTransactionWire{
		GlobalID:    r.GlobalID,
		CategoryGID: categoryGID,
		Amount:      r.Amount,
		Note:        r.Note,
		Interval:    string(r.Interval),
		NextAt:      r.NextAt,
		UpdatedAt:   r.UpdatedAt,
		Deleted:     r.Deleted,
	}
}

func SavingsGoalTransactionToWire(t SavingsGoalTransaction, goalGID string) SavingsGoalTransactionWire {
	return SavingsGoalTransactionWire{
		GlobalID:   t.GlobalID,
		GoalGID:    goalGID,
		Amount:     t.Amount,
		Note:       t.Note,
		OccurredAt: t.OccurredAt,
		UpdatedAt:  t.UpdatedAt,
		Deleted:    t.Deleted,
	}
}

// Wire-to-local mappings. The surrogate key is left zero; callers either
// assign the key of the record being overwritten or insert a fresh row.
// Foreign keys are resolved by the caller (phase 2 only, after phase 1 is
// durably written).

func CategoryFromWire(w CategoryWire) Category {
	return Category{
		GlobalID:  w.GlobalID,
		Name:      w.Name,
		Kind:      CategoryKind(w.Kind),
		UpdatedAt: w.UpdatedAt,
		Deleted:   w.Deleted,
	}
}

func SavingsGoalFromWire(w SavingsGoalWire) SavingsGoal {
	return SavingsGoal{
		GlobalID:     w.GlobalID,
		Name:         w.Name,
		TargetAmount: w.TargetAmount,
		Deadline:     w.Deadline,
		UpdatedAt:    w.UpdatedAt,
		Deleted:      w.Deleted,
	}
}

func SettingsFromWire(w SettingsWire) Settings {
	return Settings{
		GlobalID:      w.GlobalID,
		Currency:      w.Currency,
		MonthStartDay: w.MonthStartDay,
		UpdatedAt:     w.UpdatedAt,
		Deleted:       w.Deleted,
	}
}

func TransactionFromWire(w TransactionWire, categoryID int64) Transaction {
	return Transaction{
		GlobalID:   w.GlobalID,
		CategoryID: categoryID,
		Amount:     w.Amount,
		Note:       w.Note,
		OccurredAt: w.OccurredAt,
		UpdatedAt:  w.UpdatedAt,
		Deleted:    w.Deleted,
	}
}

func BudgetFromWire(w BudgetWire, categoryID int64) Budget {
	return Budget{
		GlobalID:   w.GlobalID,
		CategoryID: categoryID,
		Amount:     w.Amount,
		Month:      w.Month,
		UpdatedAt:  w.UpdatedAt,
		Deleted:    w.Deleted,
	}
}

func RecurringTransactionFromWire(w RecurringTransactionWire, categoryID int64) RecurringTransaction {
	return RecurringTransaction{
		GlobalID:   w.GlobalID,
		CategoryID: categoryID,
		Amount:     w.Amount,
		Note:       w.Note,
		Interval:   RecurrenceInterval(w.Interval),
		NextAt:     w.NextAt,
		UpdatedAt:  w.UpdatedAt,
		Deleted:    w.Deleted,
	}
}

func SavingsGoalTransactionFromWire(w SavingsGoalTransactionWire, goalID int64) SavingsGoalTransaction {
	return SavingsGoalTransaction{
		GlobalID:   w.GlobalID,
		GoalID:     goalID,
		Amount:     w.Amount,
		Note:       w.Note,
		OccurredAt: w.OccurredAt,
		UpdatedAt:  w.UpdatedAt,
		Deleted:    w.Deleted,
	}
}
