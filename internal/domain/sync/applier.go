package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"coinkeeper/internal/domain/entity"
)

// Applier writes an inbound change set into a ledger with last-write-wins
// conflict resolution. The server runs it against the Postgres ledger inside
// a sync transaction; the device agent runs the same code against its sqlite
// store when applying the server's reciprocal change set.
type Applier struct {
	ledger Ledger
	log    *slog.Logger
	now    func() time.Time
}

func NewApplier(ledger Ledger, log *slog.Logger, now func() time.Time) *Applier {
	if now == nil {
		now = time.Now
	}
	return &Applier{
		ledger: ledger,
		log:    log.With("module", "applier"),
		now:    now,
	}
}

// Apply writes the change set in two ordered phases. Phase 1 covers the
// types nothing else references; phase 2 resolves global foreign keys
// against the ledger only after phase 1 rows are written, so a record and
// its parent arriving in the same payload link up correctly.
func (a *Applier) Apply(ctx context.Context, userID int64, cs entity.ChangeSet) error {
	if err := a.applyCategories(ctx, userID, cs.Categories); err != nil {
		return err
	}
	if err := a.applySavingsGoals(ctx, userID, cs.SavingsGoals); err != nil {
		return err
	}
	if err := a.applySettings(ctx, userID, cs.Settings); err != nil {
		return err
	}

	if err := a.applyTransactions(ctx, userID, cs.Transactions); err != nil {
		return err
	}
	if err := a.applyBudgets(ctx, userID, cs.Budgets); err != nil {
		return err
	}
	if err := a.applyRecurringTransactions(ctx, userID, cs.RecurringTransactions); err != nil {
		return err
	}
	if err := a.applySavingsGoalTransactions(ctx, userID, cs.SavingsGoalTransactions); err != nil {
		return err
	}
	return nil
}

// newerWins is the whole conflict rule: last write wins at whole-record
// granularity. A concurrent edit to a different field of the older record is
// discarded wholesale; that is an accepted limitation, not a bug.
func newerWins(incoming, existing time.Time) bool {
	return incoming.After(existing)
}

func (a *Applier) applyCategories(ctx context.Context, userID int64, incoming []entity.CategoryWire) error {
	if len(incoming) == 0 {
		return nil
	}
	existing, err := a.ledger.ListCategories(ctx, userID)
	if err != nil {
		return err
	}
	// byGID also tracks rows inserted by this request, so a payload carrying
	// the same GlobalID twice (retry artifacts) cannot insert twice.
	byGID := make(map[string]entity.Category, len(existing))
	for _, c := range existing {
		if prev, ok := byGID[c.GlobalID]; !ok || c.ID > prev.ID {
			byGID[c.GlobalID] = c
		}
	}
	for _, w := range incoming {
		cur, ok := byGID[w.GlobalID]
		if !ok {
			c := entity.CategoryFromWire(w)
			id, err := a.ledger.InsertCategory(ctx, userID, c)
			if err != nil {
				return err
			}
			c.ID = id
			byGID[w.GlobalID] = c
			continue
		}
		if !newerWins(w.UpdatedAt, cur.UpdatedAt) {
			continue
		}
		c := entity.CategoryFromWire(w)
		c.ID = cur.ID
		if err := a.ledger.UpdateCategory(ctx, userID, c); err != nil {
			return err
		}
		byGID[w.GlobalID] = c
	}
	return nil
}

func (a *Applier) applySavingsGoals(ctx context.Context, userID int64, incoming []entity.SavingsGoalWire) error {
	if len(incoming) == 0 {
		return nil
	}
	existing, err := a.ledger.ListSavingsGoals(ctx, userID)
	if err != nil {
		return err
	}
	byGID := make(map[string]entity.SavingsGoal, len(existing))
	for _, g := range existing {
		if prev, ok := byGID[g.GlobalID]; !ok || g.ID > prev.ID {
			byGID[g.GlobalID] = g
		}
	}
	for _, w := range incoming {
		cur, ok := byGID[w.GlobalID]
		if !ok {
			g := entity.SavingsGoalFromWire(w)
			id, err := a.ledger.InsertSavingsGoal(ctx, userID, g)
			if err != nil {
				return err
			}
			g.ID = id
			byGID[w.GlobalID] = g
			continue
		}
		if !newerWins(w.UpdatedAt, cur.UpdatedAt) {
			continue
		}
		g := entity.SavingsGoalFromWire(w)
		g.ID = cur.ID
		if err := a.ledger.UpdateSavingsGoal(ctx, userID, g); err != nil {
			return err
		}
		byGID[w.GlobalID] = g
	}
	return nil
}

func (a *Applier) applySettings(ctx context.Context, userID int64, incoming []entity.SettingsWire) error {
	if len(incoming) == 0 {
		return nil
	}
	existing, err := a.ledger.ListSettings(ctx, userID)
	if err != nil {
		return err
	}
	byGID := make(map[string]entity.Settings, len(existing))
	for _, st := range existing {
		if prev, ok := byGID[st.GlobalID]; !ok || st.ID > prev.ID {
			byGID[st.GlobalID] = st
		}
	}
	for _, w := range incoming {
		cur, ok := byGID[w.GlobalID]
		if !ok {
			st := entity.SettingsFromWire(w)
			id, err := a.ledger.InsertSettings(ctx, userID, st)
			if err != nil {
				return err
			}
			st.ID = id
			byGID[w.GlobalID] = st
			continue
		}
		if !newerWins(w.UpdatedAt, cur.UpdatedAt) {
			continue
		}
		st := entity.SettingsFromWire(w)
		st.ID = cur.ID
		if err := a.ledger.UpdateSettings(ctx, userID, st); err != nil {
			return err
		}
		byGID[w.GlobalID] = st
	}
	return nil
}

// categoryResolver maps wire category references to local ids, falling back
// to the lazily created per-owner "Uncategorized" category for references
// that do not resolve (parent never synced, or legitimately collapsed away).
type categoryResolver struct {
	applier  *Applier
	userID   int64
	byGID    map[string]entity.Category
	fallback *entity.Category
}

func (a *Applier) newCategoryResolver(ctx context.Context, userID int64) (*categoryResolver, error) {
	cats, err := a.ledger.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	byGID := make(map[string]entity.Category, len(cats))
	for _, c := range cats {
		if prev, ok := byGID[c.GlobalID]; !ok || c.ID > prev.ID {
			byGID[c.GlobalID] = c
		}
	}
	return &categoryResolver{applier: a, userID: userID, byGID: byGID}, nil
}

func (r *categoryResolver) resolve(ctx context.Context, gid string) (int64, error) {
	if gid == "" {
		return 0, nil
	}
	if c, ok := r.byGID[gid]; ok {
		return c.ID, nil
	}
	fb, err := r.ensureFallback(ctx)
	if err != nil {
		return 0, err
	}
	return fb.ID, nil
}

func (r *categoryResolver) ensureFallback(ctx context.Context) (*entity.Category, error) {
	if r.fallback != nil {
		return r.fallback, nil
	}
	// An active category already named like the fallback serves as-is.
	want := entity.NormalizeName(entity.FallbackCategoryName)
	for _, c := range r.byGID {
		if !c.Deleted && entity.NormalizeName(c.Name) == want {
			r.fallback = &c
			return r.fallback, nil
		}
	}
	c := entity.NewCategory(entity.FallbackCategoryName, entity.CategoryExpense, r.applier.now())
	id, err := r.applier.ledger.InsertCategory(ctx, r.userID, c)
	if err != nil {
		return nil, fmt.Errorf("create fallback category: %w", err)
	}
	c.ID = id
	r.byGID[c.GlobalID] = c
	r.fallback = &c
	r.applier.log.Info("created fallback category", "user_id", r.userID, "gid", c.GlobalID)
	return r.fallback, nil
}

type goalResolver struct {
	applier  *Applier
	userID   int64
	byGID    map[string]entity.SavingsGoal
	fallback *entity.SavingsGoal
}

func (a *Applier) newGoalResolver(ctx context.Context, userID int64) (*goalResolver, error) {
	goals, err := a.ledger.ListSavingsGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	byGID := make(map[string]entity.SavingsGoal, len(goals))
	for _, g := range goals {
		if prev, ok := byGID[g.GlobalID]; !ok || g.ID > prev.ID {
			byGID[g.GlobalID] = g
		}
	}
	return &goalResolver{applier: a, userID: userID, byGID: byGID}, nil
}

func (r *goalResolver) resolve(ctx context.Context, gid string) (int64, error) {
	if gid == "" {
		return 0, nil
	}
	if g, ok := r.byGID[gid]; ok {
		return g.ID, nil
	}
	if r.fallback == nil {
		want := entity.NormalizeName(entity.FallbackSavingsGoalName)
		for _, g := range r.byGID {
			if !g.Deleted && entity.NormalizeName(g.Name) == want {
				r.fallback = &g
				break
			}
		}
	}
	if r.fallback == nil {
		g := entity.NewSavingsGoal(entity.FallbackSavingsGoalName, 0, time.Time{}, r.applier.now())
		id, err := r.applier.ledger.InsertSavingsGoal(ctx, r.userID, g)
		if err != nil {
			return 0, fmt.Errorf("create fallback savings goal: %w", err)
		}
		g.ID = id
		r.byGID[g.GlobalID] = g
		r.fallback = &g
		r.applier.log.Info("created fallback savings goal", "user_id", r.userID, "gid", g.GlobalID)
	}
	return r.fallback.ID, nil
}

func (a *Applier) applyTransactions(ctx context.Context, userID int64, incoming []entity.TransactionWire) error {
	if len(incoming) == 0 {
		return nil
	}
	resolver, err := a.newCategoryResolver(ctx, userID)
	if err != nil {
		return err
	}
	existing, err := a.ledger.ListTransactions(ctx, userID)
	if err != nil {
		return err
	}
	byGID := make(map[string]entity.Transaction, len(existing))
	for _, t := range existing {
		if prev, ok := byGID[t.GlobalID]; !ok || t.ID > prev.ID {
			byGID[t.GlobalID] = t
		}
	}
	for _, w := range incoming {
		catID, err := resolver.resolve(ctx, w.CategoryGID)
		if err != nil {
			return err
		}
		cur, ok := byGID[w.GlobalID]
		if !ok {
			t := entity.TransactionFromWire(w, catID)
			id, err := a.ledger.InsertTransaction(ctx, userID, t)
			if err != nil {
				return err
			}
			t.ID = id
			byGID[w.GlobalID] = t
			continue
		}
		if !newerWins(w.UpdatedAt, cur.UpdatedAt) {
			continue
		}
		t := entity.TransactionFromWire(w, catID)
		t.ID = cur.ID
		if err := a.ledger.UpdateTransaction(ctx, userID, t); err != nil {
			return err
		}
		byGID[w.GlobalID] = t
	}
	return nil
}

func (a *Applier) applyBudgets(ctx context.Context, userID int64, incoming []entity.BudgetWire) error {
	if len(incoming) == 0 {
		return nil
	}
	resolver, err := a.newCategoryResolver(ctx, userID)
	if err != nil {
		return err
	}
	existing, err := a.ledger.ListBudgets(ctx, userID)
	if err != nil {
		return err
	}
	byGID := make(map[string]entity.Budget, len(existing))
	for _, b := range existing {
		if prev, ok := byGID[b.GlobalID]; !ok || b.ID > prev.ID {
			byGID[b.GlobalID] = b
		}
	}
	for _, w := range incoming {
		catID, err := resolver.resolve(ctx, w.CategoryGID)
		if err != nil {
			return err
		}
		cur, ok := byGID[w.GlobalID]
		if !ok {
			b := entity.BudgetFromWire(w, catID)
			id, err := a.ledger.InsertBudget(ctx, userID, b)
			if err != nil {
				return err
			}
			b.ID = id
			byGID[w.GlobalID] = b
			continue
		}
		if !newerWins(w.UpdatedAt, cur.UpdatedAt) {
			continue
		}
		b := entity.BudgetFromWire(w, catID)
		b.ID = cur.ID
		if err := a.ledger.UpdateBudget(ctx, userID, b); err != nil {
			return err
		}
		byGID[w.GlobalID] = b
	}
	return nil
}

func (a *Applier) applyRecurringTransactions(ctx context.Context, userID int64, incoming []entity.RecurringTransactionWire) error {
	if len(incoming) == 0 {
		return nil
	}
	resolver, err := a.newCategoryResolver(ctx, userID)
	if err != nil {
		return err
	}
	existing, err := a.ledger.ListRecurringTransactions(ctx, userID)
	if err != nil {
		return err
	}
	byGID := make(map[string]entity.RecurringTransaction, len(existing))
	for _, r := range existing {
		if prev, ok := byGID[r.GlobalID]; !ok || r.ID > prev.ID {
			byGID[r.GlobalID] = r
		}
	}
	for _, w := range incoming {
		catID, err := resolver.resolve(ctx, w.CategoryGID)
		if err != nil {
			return err
		}
		cur, ok := byGID[w.GlobalID]
		if !ok {
			r := entity.RecurringTransactionFromWire(w, catID)
			id, err := a.ledger.InsertRecurringTransaction(ctx, userID, r)
			if err != nil {
				return err
			}
			r.ID = id
			byGID[w.GlobalID] = r
			continue
		}
		if !newerWins(w.UpdatedAt, cur.UpdatedAt) {
			continue
		}
		r := entity.RecurringTransactionFromWire(w, catID)
		r.ID = cur.ID
		if err := a.ledger.UpdateRecurringTransaction(ctx, userID, r); err != nil {
			return err
		}
		byGID[w.GlobalID] = r
	}
	return nil
}

func (a *Applier) applySavingsGoalTransactions(ctx context.Context, userID int64, incoming []entity.SavingsGoalTransactionWire) error {
	if len(incoming) == 0 {
		return nil
	}
	resolver, err := a.newGoalResolver(ctx, userID)
	if err != nil {
		return err
	}
	existing, err := a.ledger.ListSavingsGoalTransactions(ctx, userID)
	if err != nil {
		return err
	}
	byGID := make(map[string]entity.SavingsGoalTransaction, len(existing))
	for _, t := range existing {
		if prev, ok := byGID[t.GlobalID]; !ok || t.ID > prev.ID {
			byGID[t.GlobalID] = t
		}
	}
	for _, w := range incoming {
		goalID, err := resolver.resolve(ctx, w.GoalGID)
		if err != nil {
			return err
		}
		cur, ok := byGID[w.GlobalID]
		if !ok {
			t := entity.SavingsGoalTransactionFromWire(w, goalID)
			id, err := a.ledger.InsertSavingsGoalTransaction(ctx, userID, t)
			if err != nil {
				return err
			}
			t.ID = id
			byGID[w.GlobalID] = t
			continue
		}
		if !newerWins(w.UpdatedAt, cur.UpdatedAt) {
			continue
		}
		t := entity.SavingsGoalTransactionFromWire(w, goalID)
		t.ID = cur.ID
		if err := a.ledger.UpdateSavingsGoalTransaction(ctx, userID, t); err != nil {
			return err
		}
		byGID[w.GlobalID] = t
	}
	return nil
}
