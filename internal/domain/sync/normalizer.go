package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"coinkeeper/internal/domain/entity"
)

// Normalizer collapses records that should be one logical entity but exist
// as several rows. Two passes, always in this order:
//
//  1. exact pass: rows sharing a GlobalID are artifacts of concurrent
//     first-sync races; the row with the highest surrogate id survives, the
//     rest are physically deleted and their children repointed;
//  2. semantic pass: active rows sharing a natural key (two devices each
//     seeding a "Rent" category offline) are true duplicates; the most
//     recently updated row survives, the rest are soft-deleted with a fresh
//     UpdatedAt so the collapse itself replicates to every device.
//
// Both passes are idempotent and safe to re-run.
type Normalizer struct {
	ledger Ledger
	log    *slog.Logger
	now    func() time.Time
}

func NewNormalizer(ledger Ledger, log *slog.Logger) *Normalizer {
	return &Normalizer{
		ledger: ledger,
		log:    log.With("module", "normalizer"),
		now:    time.Now,
	}
}

// Run normalizes every entity type of one owner. Types without a natural key
// (transactions, recurring transactions, goal transactions) only get the
// exact pass: two identical transactions are legitimate data.
func (n *Normalizer) Run(ctx context.Context, userID int64) error {
	if err := n.collapseCategories(ctx, userID); err != nil {
		return fmt.Errorf("normalize categories: %w", err)
	}
	if err := n.collapseSavingsGoals(ctx, userID); err != nil {
		return fmt.Errorf("normalize savings goals: %w", err)
	}
	if err := n.collapseSettings(ctx, userID); err != nil {
		return fmt.Errorf("normalize settings: %w", err)
	}
	if err := n.collapseTransactions(ctx, userID); err != nil {
		return fmt.Errorf("normalize transactions: %w", err)
	}
	if err := n.collapseBudgets(ctx, userID); err != nil {
		return fmt.Errorf("normalize budgets: %w", err)
	}
	if err := n.collapseRecurringTransactions(ctx, userID); err != nil {
		return fmt.Errorf("normalize recurring transactions: %w", err)
	}
	if err := n.collapseSavingsGoalTransactions(ctx, userID); err != nil {
		return fmt.Errorf("normalize savings goal transactions: %w", err)
	}
	return nil
}

func (n *Normalizer) collapseCategories(ctx context.Context, userID int64) error {
	cats, err := n.ledger.ListCategories(ctx, userID)
	if err != nil {
		return err
	}

	// Exact pass.
	byGID := make(map[string][]entity.Category)
	for _, c := range cats {
		byGID[c.GlobalID] = append(byGID[c.GlobalID], c)
	}
	for gid, group := range byGID {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, c := range group[1:] {
			if c.ID > keep.ID {
				keep = c
			}
		}
		for _, c := range group {
			if c.ID == keep.ID {
				continue
			}
			if err := n.ledger.ReassignCategoryRefs(ctx, userID, c.ID, keep.ID); err != nil {
				return err
			}
			if err := n.ledger.DeleteCategory(ctx, userID, c.ID); err != nil {
				return err
			}
		}
		n.log.Info("collapsed duplicate category rows", "gid", gid, "removed", len(group)-1)
	}

	// Semantic pass over the surviving active rows.
	cats, err = n.ledger.ListCategories(ctx, userID)
	if err != nil {
		return err
	}
	byKey := make(map[string][]entity.Category)
	for _, c := range cats {
		if c.Deleted {
			continue
		}
		byKey[c.NaturalKey()] = append(byKey[c.NaturalKey()], c)
	}
	for key, group := range byKey {
		if len(group) < 2 {
			continue
		}
		keep := mostRecentCategory(group)
		for _, c := range group {
			if c.ID == keep.ID {
				continue
			}
			if err := n.ledger.ReassignCategoryRefs(ctx, userID, c.ID, keep.ID); err != nil {
				return err
			}
			c.Deleted = true
			c.UpdatedAt = n.now().UTC()
			if err := n.ledger.UpdateCategory(ctx, userID, c); err != nil {
				return err
			}
		}
		n.log.Info("collapsed semantic category duplicates", "key", key, "kept", keep.GlobalID)
	}
	return nil
}

func (n *Normalizer) collapseSavingsGoals(ctx context.Context, userID int64) error {
	goals, err := n.ledger.ListSavingsGoals(ctx, userID)
	if err != nil {
		return err
	}

	byGID := make(map[string][]entity.SavingsGoal)
	for _, g := range goals {
		byGID[g.GlobalID] = append(byGID[g.GlobalID], g)
	}
	for gid, group := range byGID {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, g := range group[1:] {
			if g.ID > keep.ID {
				keep = g
			}
		}
		for _, g := range group {
			if g.ID == keep.ID {
				continue
			}
			if err := n.ledger.ReassignSavingsGoalRefs(ctx, userID, g.ID, keep.ID); err != nil {
				return err
			}
			if err := n.ledger.DeleteSavingsGoal(ctx, userID, g.ID); err != nil {
				return err
			}
		}
		n.log.Info("collapsed duplicate savings goal rows", "gid", gid, "removed", len(group)-1)
	}

	goals, err = n.ledger.ListSavingsGoals(ctx, userID)
	if err != nil {
		return err
	}
	byKey := make(map[string][]entity.SavingsGoal)
	for _, g := range goals {
		if g.Deleted {
			continue
		}
		byKey[g.NaturalKey()] = append(byKey[g.NaturalKey()], g)
	}
	for key, group := range byKey {
		if len(group) < 2 {
			continue
		}
		keep := mostRecentSavingsGoal(group)
		for _, g := range group {
			if g.ID == keep.ID {
				continue
			}
			if err := n.ledger.ReassignSavingsGoalRefs(ctx, userID, g.ID, keep.ID); err != nil {
				return err
			}
			g.Deleted = true
			g.UpdatedAt = n.now().UTC()
			if err := n.ledger.UpdateSavingsGoal(ctx, userID, g); err != nil {
				return err
			}
		}
		n.log.Info("collapsed semantic savings goal duplicates", "key", key, "kept", keep.GlobalID)
	}
	return nil
}

func (n *Normalizer) collapseSettings(ctx context.Context, userID int64) error {
	rows, err := n.ledger.ListSettings(ctx, userID)
	if err != nil {
		return err
	}

	byGID := make(map[string][]entity.Settings)
	for _, s := range rows {
		byGID[s.GlobalID] = append(byGID[s.GlobalID], s)
	}
	for _, group := range byGID {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, s := range group[1:] {
			if s.ID > keep.ID {
				keep = s
			}
		}
		for _, s := range group {
			if s.ID == keep.ID {
				continue
			}
			if err := n.ledger.DeleteSettings(ctx, userID, s.ID); err != nil {
				return err
			}
		}
	}

	// Settings is a per-owner singleton, so every active row shares the same
	// natural key.
	rows, err = n.ledger.ListSettings(ctx, userID)
	if err != nil {
		return err
	}
	var active []entity.Settings
	for _, s := range rows {
		if !s.Deleted {
			active = append(active, s)
		}
	}
	if len(active) < 2 {
		return nil
	}
	keep := active[0]
	for _, s := range active[1:] {
		if s.UpdatedAt.After(keep.UpdatedAt) || (s.UpdatedAt.Equal(keep.UpdatedAt) && s.ID > keep.ID) {
			keep = s
		}
	}
	for _, s := range active {
		if s.ID == keep.ID {
			continue
		}
		s.Deleted = true
		s.UpdatedAt = n.now().UTC()
		if err := n.ledger.UpdateSettings(ctx, userID, s); err != nil {
			return err
		}
	}
	n.log.Info("collapsed duplicate settings rows", "kept", keep.GlobalID, "removed", len(active)-1)
	return nil
}

func (n *Normalizer) collapseBudgets(ctx context.Context, userID int64) error {
	budgets, err := n.ledger.ListBudgets(ctx, userID)
	if err != nil {
		return err
	}

	byGID := make(map[string][]entity.Budget)
	for _, b := range budgets {
		byGID[b.GlobalID] = append(byGID[b.GlobalID], b)
	}
	for _, group := range byGID {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, b := range group[1:] {
			if b.ID > keep.ID {
				keep = b
			}
		}
		for _, b := range group {
			if b.ID != keep.ID {
				if err := n.ledger.DeleteBudget(ctx, userID, b.ID); err != nil {
					return err
				}
			}
		}
	}

	budgets, err = n.ledger.ListBudgets(ctx, userID)
	if err != nil {
		return err
	}
	byKey := make(map[string][]entity.Budget)
	for _, b := range budgets {
		if b.Deleted {
			continue
		}
		byKey[b.NaturalKey()] = append(byKey[b.NaturalKey()], b)
	}
	for key, group := range byKey {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, b := range group[1:] {
			if b.UpdatedAt.After(keep.UpdatedAt) || (b.UpdatedAt.Equal(keep.UpdatedAt) && b.ID > keep.ID) {
				keep = b
			}
		}
		for _, b := range group {
			if b.ID == keep.ID {
				continue
			}
			b.Deleted = true
			b.UpdatedAt = n.now().UTC()
			if err := n.ledger.UpdateBudget(ctx, userID, b); err != nil {
				return err
			}
		}
		n.log.Info("collapsed duplicate budgets", "key", key, "kept", keep.GlobalID)
	}
	return nil
}

func (n *Normalizer) collapseTransactions(ctx context.Context, userID int64) error {
	txs, err := n.ledger.ListTransactions(ctx, userID)
	if err != nil {
		return err
	}
	byGID := make(map[string][]entity.Transaction)
	for _, t := range txs {
		byGID[t.GlobalID] = append(byGID[t.GlobalID], t)
	}
	for _, group := range byGID {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, t := range group[1:] {
			if t.ID > keep.ID {
				keep = t
			}
		}
		for _, t := range group {
			if t.ID != keep.ID {
				if err := n.ledger.DeleteTransaction(ctx, userID, t.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (n *Normalizer) collapseRecurringTransactions(ctx context.Context, userID int64) error {
	rows, err := n.ledger.ListRecurringTransactions(ctx, userID)
	if err != nil {
		return err
	}
	byGID := make(map[string][]entity.RecurringTransaction)
	for _, r := range rows {
		byGID[r.GlobalID] = append(byGID[r.GlobalID], r)
	}
	for _, group := range byGID {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, r := range group[1:] {
			if r.ID > keep.ID {
				keep = r
			}
		}
		for _, r := range group {
			if r.ID != keep.ID {
				if err := n.ledger.DeleteRecurringTransaction(ctx, userID, r.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (n *Normalizer) collapseSavingsGoalTransactions(ctx context.Context, userID int64) error {
	rows, err := n.ledger.ListSavingsGoalTransactions(ctx, userID)
	if err != nil {
		return err
	}
	byGID := make(map[string][]entity.SavingsGoalTransaction)
	for _, t := range rows {
		byGID[t.GlobalID] = append(byGID[t.GlobalID], t)
	}
	for _, group := range byGID {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, t := range group[1:] {
			if t.ID > keep.ID {
				keep = t
			}
		}
		for _, t := range group {
			if t.ID != keep.ID {
				if err := n.ledger.DeleteSavingsGoalTransaction(ctx, userID, t.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func mostRecentCategory(group []entity.Category) entity.Category {
	keep := group[0]
	for _, c := range group[1:] {
		if c.UpdatedAt.After(keep.UpdatedAt) || (c.UpdatedAt.Equal(keep.UpdatedAt) && c.ID > keep.ID) {
			keep = c
		}
	}
	return keep
}

func mostRecentSavingsGoal(group []entity.SavingsGoal) entity.SavingsGoal {
	keep := group[0]
	for _, g := range group[1:] {
		if g.UpdatedAt.After(keep.UpdatedAt) || (g.UpdatedAt.Equal(keep.UpdatedAt) && g.ID > keep.ID) {
			keep = g
		}
	}
	return keep
}
