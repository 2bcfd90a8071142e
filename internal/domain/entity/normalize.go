package entity

import (
	"fmt"
	"strings"
)

// NormalizeName folds a user-entered name for semantic duplicate detection:
// surrounding and repeated whitespace is collapsed and the result is
// case-folded, so " Rent " and "rent" compare equal.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NaturalKey groups categories that represent the same logical category even
// when created independently on different devices.
func (c Category) NaturalKey() string {
	return NormalizeName(c.Name) + "|" + string(c.Kind)
}

func (g SavingsGoal) NaturalKey() string {
	return NormalizeName(g.Name)
}

// NaturalKey for settings is constant: the record is a per-owner singleton,
// so any two active copies are duplicates.
func (s Settings) NaturalKey() string {
	return "settings"
}

// NaturalKey groups budgets for the same category and month.
func (b Budget) NaturalKey() string {
	return fmt.Sprintf("%d|%s", b.CategoryID, b.Month)
}
