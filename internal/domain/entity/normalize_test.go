package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Rent", want: "rent"},
		{name: "trims", input: "  Rent  ", want: "rent"},
		{name: "collapses inner whitespace", input: "Eating   Out", want: "eating out"},
		{name: "tabs and newlines", input: "Eating\tOut\n", want: "eating out"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestNaturalKeys(t *testing.T) {
	a := Category{Name: " Rent ", Kind: CategoryExpense}
	b := Category{Name: "rent", Kind: CategoryExpense}
	c := Category{Name: "rent", Kind: CategoryIncome}
	assert.Equal(t, a.NaturalKey(), b.NaturalKey())
	assert.NotEqual(t, a.NaturalKey(), c.NaturalKey(), "kind is part of the key")

	g1 := SavingsGoal{Name: "Vacation "}
	g2 := SavingsGoal{Name: "vacation"}
	assert.Equal(t, g1.NaturalKey(), g2.NaturalKey())

	assert.Equal(t, Settings{Currency: "USD"}.NaturalKey(), Settings{Currency: "EUR"}.NaturalKey(),
		"settings is a singleton, every copy shares the key")

	b1 := Budget{CategoryID: 3, Month: "2025-06"}
	b2 := Budget{CategoryID: 3, Month: "2025-07"}
	assert.NotEqual(t, b1.NaturalKey(), b2.NaturalKey())
}

func TestWireRoundTripKeepsForeignKeysGlobal(t *testing.T) {
	tx := Transaction{ID: 42, GlobalID: NewGlobalID(), CategoryID: 7, Amount: -1250}

	w := TransactionToWire(tx, "cat-gid")
	assert.Equal(t, "cat-gid", w.CategoryGID)

	back := TransactionFromWire(w, 99)
	assert.Equal(t, int64(99), back.CategoryID, "local key comes from the resolver, never the wire")
	assert.Zero(t, back.ID, "surrogate ids never cross the wire")
}

func TestTransactionToWire_ZeroCategoryMapsToEmptyRef(t *testing.T) {
	tx := Transaction{GlobalID: NewGlobalID(), CategoryID: 0, Amount: -100}
	w := TransactionToWire(tx, "")
	assert.Empty(t, w.CategoryGID)
}
