// Package entity defines the syncable budgeting entities and their wire
// representations.
//
// Every syncable type carries the same four sync attributes: ID (the
// store-local surrogate key, never transmitted as a reference), GlobalID
// (assigned once at creation, stable across devices and the server),
// UpdatedAt (bumped on every mutation, drives change collection and
// conflict resolution) and Deleted (soft-delete marker; deleted rows stay
// behind so the deletion itself can replicate).
package entity

import (
	"time"

	"github.com/google/uuid"
)

type CategoryKind string

const (
	CategoryExpense CategoryKind = "expense"
	CategoryIncome  CategoryKind = "income"
)

type RecurrenceInterval string

const (
	RecurDaily   RecurrenceInterval = "daily"
	RecurWeekly  RecurrenceInterval = "weekly"
	RecurMonthly RecurrenceInterval = "monthly"
	RecurYearly  RecurrenceInterval = "yearly"
)

// Names of the lazily created per-owner fallback parents. A foreign key that
// cannot be resolved by global id points here instead of at a missing row.
const (
	FallbackCategoryName    = "Uncategorized"
	FallbackSavingsGoalName = "Unassigned"
)

type Category struct {
	ID        int64
	GlobalID  string
	Name      string
	Kind      CategoryKind
	UpdatedAt time.Time
	Deleted   bool
}

type SavingsGoal struct {
	ID           int64
	GlobalID     string
	Name         string
	TargetAmount int64 // minor currency units
	Deadline     time.Time
	UpdatedAt    time.Time
	Deleted      bool
}

// Settings is a per-owner singleton; it still carries a GlobalID because two
// devices may each create their own copy before the first sync.
type Settings struct {
	ID            int64
	GlobalID      string
	Currency      string
	MonthStartDay int
	UpdatedAt     time.Time
	Deleted       bool
}

type Transaction struct {
	ID         int64
	GlobalID   string
	CategoryID int64 // local foreign key, 0 = uncategorized
	Amount     int64 // minor currency units, negative for expenses
	Note       string
	OccurredAt time.Time
	UpdatedAt  time.Time
	Deleted    bool
}

type Budget struct {
	ID         int64
	GlobalID   string
	CategoryID int64
	Amount     int64
	Month      string // "2006-01"
	UpdatedAt  time.Time
	Deleted    bool
}

type RecurringTransaction struct {
	ID         int64
	GlobalID   string
	CategoryID int64
	Amount     int64
	Note       string
	Interval   RecurrenceInterval
	NextAt     time.Time
	UpdatedAt  time.Time
	Deleted    bool
}

type SavingsGoalTransaction struct {
	ID         int64
	GlobalID   string
	GoalID     int64
	Amount     int64
	Note       string
	OccurredAt time.Time
	UpdatedAt  time.Time
	Deleted    bool
}

// NewGlobalID returns a fresh cross-device identifier.
func NewGlobalID() string {
	return uuid.NewString()
}

func NewCategory(name string, kind CategoryKind, now time.Time) Category {
	return Category{
		GlobalID:  NewGlobalID(),
		Name:      name,
		Kind:      kind,
		UpdatedAt: now.UTC(),
	}
}

func NewSavingsGoal(name string, target int64, deadline, now time.Time) SavingsGoal {
	return SavingsGoal{
		GlobalID:     NewGlobalID(),
		Name:         name,
		TargetAmount: target,
		Deadline:     deadline.UTC(),
		UpdatedAt:    now.UTC(),
	}
}

func NewSettings(currency string, monthStartDay int, now time.Time) Settings {
	return Settings{
		GlobalID:      NewGlobalID(),
		Currency:      currency,
		MonthStartDay: monthStartDay,
		UpdatedAt:     now.UTC(),
	}
}

func NewTransaction(categoryID, amount int64, note string, occurredAt, now time.Time) Transaction {
	return Transaction{
		GlobalID:   NewGlobalID(),
		CategoryID: categoryID,
		Amount:     amount,
		Note:       note,
		OccurredAt: occurredAt.UTC(),
		UpdatedAt:  now.UTC(),
	}
}

func NewBudget(categoryID, amount int64, month string, now time.Time) Budget {
	return Budget{
		GlobalID:   NewGlobalID(),
		CategoryID: categoryID,
		Amount:     amount,
		Month:      month,
		UpdatedAt:  now.UTC(),
	}
}

func NewRecurringTransaction(categoryID, amount int64, note string, interval RecurrenceInterval, nextAt, now time.Time) RecurringTransaction {
	return RecurringTransaction{
		GlobalID:   NewGlobalID(),
		CategoryID: categoryID,
		Amount:     amount,
		Note:       note,
		Interval:   interval,
		NextAt:     nextAt.UTC(),
		UpdatedAt:  now.UTC(),
	}
}

func NewSavingsGoalTransaction(goalID, amount int64, note string, occurredAt, now time.Time) SavingsGoalTransaction {
	return SavingsGoalTransaction{
		GlobalID:   NewGlobalID(),
		GoalID:     goalID,
		Amount:     amount,
		Note:       note,
		OccurredAt: occurredAt.UTC(),
		UpdatedAt:  now.UTC(),
	}
}
