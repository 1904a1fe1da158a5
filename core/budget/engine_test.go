package budget

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/adapters/store/memory"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func usd(s string) types.Money {
	return types.NewMoney(d(s), types.CurrencyUSD)
}

func newTestEngine() *Engine {
	return New(memory.New(), Config{ForecastDataPoints: 3})
}

func monthlyBudget() types.Budget {
	return types.Budget{
		Name:   "platform-spend",
		Amount: usd("100"),
		Period: types.BudgetMonthly,
		Thresholds: []types.BudgetThreshold{
			{Percentage: d("80")},
			{Percentage: d("50")},
			{Percentage: d("100")},
		},
	}
}

func mustCreate(t *testing.T, eng *Engine) types.Budget {
	t.Helper()
	b, err := eng.Create(context.Background(), monthlyBudget())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return b
}

func TestCreateDerivesThresholds(t *testing.T) {
	eng := newTestEngine()
	b := mustCreate(t, eng)

	if b.ID == "" {
		t.Error("created budget has no id")
	}
	if b.CreatedAt.IsZero() || b.StartTime.IsZero() {
		t.Error("created budget missing timestamps")
	}

	// Sorted ascending with amounts derived from percentages
	wantPct := []string{"50", "80", "100"}
	wantAmt := []string{"50", "80", "100"}
	if len(b.Thresholds) != 3 {
		t.Fatalf("got %d thresholds, want 3", len(b.Thresholds))
	}
	for i, th := range b.Thresholds {
		if !th.Percentage.Equal(d(wantPct[i])) {
			t.Errorf("threshold %d percentage = %s, want %s", i, th.Percentage, wantPct[i])
		}
		if !th.Amount.Amount.Equal(d(wantAmt[i])) {
			t.Errorf("threshold %d amount = %s, want %s", i, th.Amount.Amount, wantAmt[i])
		}
		if th.Amount.Currency != types.CurrencyUSD {
			t.Errorf("threshold %d currency = %s, want USD", i, th.Amount.Currency)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	eng := newTestEngine()

	past := time.Now().UTC().Add(-time.Hour)
	tests := []struct {
		name   string
		mutate func(*types.Budget)
	}{
		{"empty name", func(b *types.Budget) { b.Name = "" }},
		{"zero amount", func(b *types.Budget) { b.Amount = usd("0") }},
		{"negative amount", func(b *types.Budget) { b.Amount = usd("-10") }},
		{"bad period", func(b *types.Budget) { b.Period = "weekly" }},
		{"end before start", func(b *types.Budget) {
			b.StartTime = time.Now().UTC()
			b.EndTime = &past
		}},
		{"zero threshold", func(b *types.Budget) {
			b.Thresholds = []types.BudgetThreshold{{Percentage: decimal.Zero}}
		}},
		{"duplicate threshold", func(b *types.Budget) {
			b.Thresholds = []types.BudgetThreshold{{Percentage: d("50")}, {Percentage: d("50")}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := monthlyBudget()
			tt.mutate(&b)
			_, err := eng.Create(context.Background(), b)
			if !errors.IsType(err, errors.TypeValidation) {
				t.Errorf("error = %v, want validation", err)
			}
		})
	}
}

func TestUpdateKeepsImmutableFields(t *testing.T) {
	eng := newTestEngine()
	created := mustCreate(t, eng)

	changed := created
	changed.Name = "renamed"
	changed.Amount = usd("200")
	changed.CreatedAt = time.Time{}
	changed.StartTime = time.Now().UTC().AddDate(1, 0, 0)

	updated, err := eng.Update(context.Background(), changed)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "renamed" {
		t.Errorf("name = %s, want renamed", updated.Name)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed: %s vs %s", updated.CreatedAt, created.CreatedAt)
	}
	if !updated.StartTime.Equal(created.StartTime) {
		t.Errorf("start_time changed: %s vs %s", updated.StartTime, created.StartTime)
	}
}

func TestEvaluateCreatesAlertsOnce(t *testing.T) {
	eng := newTestEngine()
	ctx := context.Background()
	b := mustCreate(t, eng)

	// 85 crosses the 50% and 80% thresholds
	alerts, err := eng.Evaluate(ctx, b.ID, usd("85"))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if !alerts[0].Threshold.Percentage.Equal(d("50")) || !alerts[1].Threshold.Percentage.Equal(d("80")) {
		t.Errorf("alert thresholds = %s, %s; want 50, 80",
			alerts[0].Threshold.Percentage, alerts[1].Threshold.Percentage)
	}
	for _, a := range alerts {
		if a.Status != types.AlertActive {
			t.Errorf("alert status = %s, want active", a.Status)
		}
	}

	// Same spend again: both thresholds already alerted this period
	again, err := eng.Evaluate(ctx, b.ID, usd("85"))
	if err != nil {
		t.Fatalf("second Evaluate() error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("got %d repeat alerts, want 0", len(again))
	}

	// Higher spend only fires the newly crossed threshold
	higher, err := eng.Evaluate(ctx, b.ID, usd("100"))
	if err != nil {
		t.Fatalf("third Evaluate() error = %v", err)
	}
	if len(higher) != 1 || !higher[0].Threshold.Percentage.Equal(d("100")) {
		t.Errorf("alerts = %v, want only the 100%% threshold", higher)
	}
}

func TestEvaluateCurrencyMismatch(t *testing.T) {
	eng := newTestEngine()
	b := mustCreate(t, eng)

	_, err := eng.Evaluate(context.Background(), b.ID,
		types.NewMoney(d("85"), types.CurrencyEUR))
	if !errors.IsType(err, errors.TypeValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestEvaluateUnknownBudget(t *testing.T) {
	eng := newTestEngine()
	_, err := eng.Evaluate(context.Background(), "nope", usd("10"))
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestAlertTransitions(t *testing.T) {
	eng := newTestEngine()
	ctx := context.Background()
	b := mustCreate(t, eng)

	alerts, err := eng.Evaluate(ctx, b.ID, usd("55"))
	if err != nil || len(alerts) != 1 {
		t.Fatalf("Evaluate() = %v, %v; want one alert", alerts, err)
	}
	id := alerts[0].ID

	acked, err := eng.Acknowledge(ctx, id)
	if err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}
	if acked.Status != types.AlertAcknowledged {
		t.Errorf("status = %s, want acknowledged", acked.Status)
	}

	resolved, err := eng.Resolve(ctx, id)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.Status != types.AlertResolved {
		t.Errorf("status = %s, want resolved", resolved.Status)
	}

	// Resolved is terminal with respect to acknowledgement
	if _, err := eng.Acknowledge(ctx, id); !errors.IsType(err, errors.TypeValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestDeleteCascadesAlerts(t *testing.T) {
	store := memory.New()
	eng := New(store, Config{})
	ctx := context.Background()

	b, err := eng.Create(ctx, monthlyBudget())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := eng.Evaluate(ctx, b.ID, usd("85")); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if err := eng.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := eng.Get(ctx, b.ID); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("Get after delete = %v, want not found", err)
	}
	alerts, err := store.ListAlerts(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts survived budget deletion: %v", alerts)
	}
}

func TestForecastInsufficientData(t *testing.T) {
	eng := newTestEngine()
	b := mustCreate(t, eng)

	history := []types.ForecastPoint{
		{Time: time.Now().UTC().Add(-48 * time.Hour), Cost: d("10")},
		{Time: time.Now().UTC().Add(-24 * time.Hour), Cost: d("20")},
	}
	_, err := eng.Forecast(context.Background(), b.ID, history)
	if !errors.IsType(err, errors.TypeInsufficientData) {
		t.Errorf("error = %v, want insufficient data", err)
	}
}

func TestForecastProjectsTrend(t *testing.T) {
	eng := newTestEngine()
	b := mustCreate(t, eng)

	now := time.Now().UTC()
	history := []types.ForecastPoint{
		{Time: now.Add(-72 * time.Hour), Cost: d("10")},
		{Time: now.Add(-48 * time.Hour), Cost: d("20")},
		{Time: now.Add(-24 * time.Hour), Cost: d("30")},
	}
	forecast, err := eng.Forecast(context.Background(), b.ID, history)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if forecast.BudgetID != b.ID {
		t.Errorf("budget id = %s, want %s", forecast.BudgetID, b.ID)
	}
	if forecast.Currency != types.CurrencyUSD {
		t.Errorf("currency = %s, want USD", forecast.Currency)
	}
	if len(forecast.Points) == 0 {
		t.Fatal("no projected points")
	}
	// Rising history must project past the last observed sample
	if !forecast.ProjectedEnd.GreaterThan(d("30")) {
		t.Errorf("projected end = %s, want above 30", forecast.ProjectedEnd)
	}
	// Points never step backwards in time
	for i := 1; i < len(forecast.Points); i++ {
		if forecast.Points[i].Time.Before(forecast.Points[i-1].Time) {
			t.Errorf("projected points out of order at %d", i)
		}
	}
}

func TestForecastFlatHistory(t *testing.T) {
	eng := newTestEngine()
	b := mustCreate(t, eng)

	now := time.Now().UTC()
	history := []types.ForecastPoint{
		{Time: now.Add(-72 * time.Hour), Cost: d("15")},
		{Time: now.Add(-48 * time.Hour), Cost: d("15")},
		{Time: now.Add(-24 * time.Hour), Cost: d("15")},
	}
	forecast, err := eng.Forecast(context.Background(), b.ID, history)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if !forecast.ProjectedEnd.Equal(d("15")) {
		t.Errorf("projected end = %s, want 15 for flat history", forecast.ProjectedEnd)
	}
}
