// Package budget implements budget CRUD, threshold alert derivation,
// and spend forecasting over a pluggable store.
package budget

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// Store is the persistence port. Implementations must serialize writers
// per budget id; readers may run concurrently.
type Store interface {
	CreateBudget(ctx context.Context, b types.Budget) error
	GetBudget(ctx context.Context, id string) (types.Budget, error)
	ListBudgets(ctx context.Context) ([]types.Budget, error)
	UpdateBudget(ctx context.Context, b types.Budget) error

	// DeleteBudget removes a budget and cascades to its alerts
	DeleteBudget(ctx context.Context, id string) error

	CreateAlert(ctx context.Context, a types.Alert) error
	GetAlert(ctx context.Context, id string) (types.Alert, error)
	ListAlerts(ctx context.Context, budgetID string) ([]types.Alert, error)
	UpdateAlert(ctx context.Context, a types.Alert) error
}

// Config tunes the budget engine
type Config struct {
	// ForecastDataPoints is the minimum history length for a forecast
	ForecastDataPoints int
}

// Engine manages budgets and their derived alerts
type Engine struct {
	store Store
	cfg   Config
	log   *zap.Logger
}

// New creates a budget engine over the given store
func New(store Store, cfg Config) *Engine {
	if cfg.ForecastDataPoints <= 0 {
		cfg.ForecastDataPoints = 5
	}
	return &Engine{store: store, cfg: cfg, log: logging.Named("budget")}
}

// Create validates and persists a budget. Threshold amounts are derived
// from their percentages when absent, and thresholds are stored sorted
// ascending by percentage.
func (e *Engine) Create(ctx context.Context, b types.Budget) (types.Budget, error) {
	if err := validate(&b); err != nil {
		return types.Budget{}, err
	}
	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.StartTime.IsZero() {
		b.StartTime = now
	}
	if err := e.store.CreateBudget(ctx, b); err != nil {
		return types.Budget{}, err
	}
	e.log.Info("budget created",
		zap.String("budget_id", b.ID),
		zap.String("name", b.Name),
		zap.String("amount", b.Amount.Display()))
	return b, nil
}

// Get returns one budget by id
func (e *Engine) Get(ctx context.Context, id string) (types.Budget, error) {
	return e.store.GetBudget(ctx, id)
}

// List returns all budgets
func (e *Engine) List(ctx context.Context) ([]types.Budget, error) {
	return e.store.ListBudgets(ctx)
}

// Update revalidates and persists changes to an existing budget. The id,
// creation time, and start time are immutable.
func (e *Engine) Update(ctx context.Context, b types.Budget) (types.Budget, error) {
	existing, err := e.store.GetBudget(ctx, b.ID)
	if err != nil {
		return types.Budget{}, err
	}
	if err := validate(&b); err != nil {
		return types.Budget{}, err
	}
	b.CreatedAt = existing.CreatedAt
	b.StartTime = existing.StartTime
	b.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateBudget(ctx, b); err != nil {
		return types.Budget{}, err
	}
	return b, nil
}

// Delete removes a budget; its alerts go with it
func (e *Engine) Delete(ctx context.Context, id string) error {
	if _, err := e.store.GetBudget(ctx, id); err != nil {
		return err
	}
	return e.store.DeleteBudget(ctx, id)
}

// Evaluate compares current spend against the budget's thresholds and
// creates one alert per newly crossed threshold in the current period.
// Already-alerted thresholds stay quiet until the period rolls over.
func (e *Engine) Evaluate(ctx context.Context, budgetID string, spend types.Money) ([]types.Alert, error) {
	b, err := e.store.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if spend.Currency != b.Amount.Currency {
		return nil, errors.Validation("spend", spend.Currency,
			"currency must match the budget currency "+string(b.Amount.Currency))
	}

	now := time.Now().UTC()
	start := periodStart(b, now)

	existing, err := e.store.ListAlerts(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	alerted := make(map[string]bool)
	for _, a := range existing {
		if !a.TriggeredAt.Before(start) {
			alerted[a.Threshold.Percentage.String()] = true
		}
	}

	var created []types.Alert
	for _, th := range b.Thresholds {
		if spend.Amount.LessThan(th.Amount.Amount) {
			break
		}
		if alerted[th.Percentage.String()] {
			continue
		}
		alert := types.Alert{
			ID:          uuid.NewString(),
			BudgetID:    b.ID,
			Threshold:   th,
			Spend:       spend,
			Status:      types.AlertActive,
			TriggeredAt: now,
		}
		if err := e.store.CreateAlert(ctx, alert); err != nil {
			return created, err
		}
		e.log.Warn("budget threshold crossed",
			zap.String("budget_id", b.ID),
			zap.String("threshold", th.Percentage.String()+"%"),
			zap.String("spend", spend.Display()))
		created = append(created, alert)
	}
	return created, nil
}

// Alerts lists a budget's alerts, newest first
func (e *Engine) Alerts(ctx context.Context, budgetID string) ([]types.Alert, error) {
	if _, err := e.store.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	alerts, err := e.store.ListAlerts(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].TriggeredAt.After(alerts[j].TriggeredAt)
	})
	return alerts, nil
}

// Acknowledge marks an active alert acknowledged
func (e *Engine) Acknowledge(ctx context.Context, alertID string) (types.Alert, error) {
	return e.transition(ctx, alertID, types.AlertAcknowledged)
}

// Resolve marks an alert resolved
func (e *Engine) Resolve(ctx context.Context, alertID string) (types.Alert, error) {
	return e.transition(ctx, alertID, types.AlertResolved)
}

func (e *Engine) transition(ctx context.Context, alertID string, to types.AlertStatus) (types.Alert, error) {
	a, err := e.store.GetAlert(ctx, alertID)
	if err != nil {
		return types.Alert{}, err
	}
	if a.Status == types.AlertResolved && to == types.AlertAcknowledged {
		return types.Alert{}, errors.Validation("status", a.Status, "resolved alerts cannot be acknowledged")
	}
	a.Status = to
	if err := e.store.UpdateAlert(ctx, a); err != nil {
		return types.Alert{}, err
	}
	return a, nil
}

// periodStart returns the start of the evaluation period containing now
func periodStart(b types.Budget, now time.Time) time.Time {
	if now.Before(b.StartTime) {
		return b.StartTime
	}
	var step func(t time.Time) time.Time
	switch b.Period {
	case types.BudgetQuarterly:
		step = func(t time.Time) time.Time { return t.AddDate(0, 3, 0) }
	case types.BudgetAnnually:
		step = func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }
	default:
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	}
	start := b.StartTime
	for next := step(start); !next.After(now); next = step(start) {
		start = next
	}
	return start
}

// periodEnd returns the exclusive end of the period starting at start
func periodEnd(b types.Budget, start time.Time) time.Time {
	switch b.Period {
	case types.BudgetQuarterly:
		return start.AddDate(0, 3, 0)
	case types.BudgetAnnually:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

func validate(b *types.Budget) error {
	if b.Name == "" {
		return errors.Validation("name", b.Name, "must not be empty")
	}
	if b.Amount.Amount.Sign() <= 0 {
		return errors.Validation("amount", b.Amount.Amount, "must be positive")
	}
	switch b.Period {
	case types.BudgetMonthly, types.BudgetQuarterly, types.BudgetAnnually:
	default:
		return errors.Validation("period", b.Period, "must be monthly, quarterly, or annually")
	}
	if b.EndTime != nil && !b.EndTime.After(b.StartTime) {
		return errors.Validation("end_time", b.EndTime, "must be after start_time")
	}

	seen := make(map[string]bool, len(b.Thresholds))
	for i := range b.Thresholds {
		th := &b.Thresholds[i]
		if th.Percentage.Sign() <= 0 {
			return errors.Validation("thresholds", th.Percentage, "percentage must be positive")
		}
		if seen[th.Percentage.String()] {
			return errors.Validation("thresholds", th.Percentage, "duplicate percentage")
		}
		seen[th.Percentage.String()] = true
		if th.Amount.Amount.IsZero() {
			th.Amount = types.NewMoney(
				b.Amount.Amount.Mul(th.Percentage).Div(decimal.NewFromInt(100)),
				b.Amount.Currency)
		}
	}
	sort.Slice(b.Thresholds, func(i, j int) bool {
		return b.Thresholds[i].Percentage.LessThan(b.Thresholds[j].Percentage)
	})
	return nil
}
