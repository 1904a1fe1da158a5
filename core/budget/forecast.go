package budget

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// Forecast fits a least-squares line through the spend history and
// projects it to the end of the budget's current period. Fewer samples
// than the configured minimum is an insufficient-data error.
func (e *Engine) Forecast(ctx context.Context, budgetID string, history []types.ForecastPoint) (types.Forecast, error) {
	b, err := e.store.GetBudget(ctx, budgetID)
	if err != nil {
		return types.Forecast{}, err
	}
	if len(history) < e.cfg.ForecastDataPoints {
		return types.Forecast{}, errors.InsufficientData(len(history), e.cfg.ForecastDataPoints)
	}

	samples := make([]types.ForecastPoint, len(history))
	copy(samples, history)
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})

	now := time.Now().UTC()
	end := periodEnd(b, periodStart(b, now))
	slope, intercept := fitLine(samples)

	points := projectDaily(samples[len(samples)-1].Time, end, slope, intercept, samples[0].Time)
	projected := at(slope, intercept, hoursSince(samples[0].Time, end))

	return types.Forecast{
		BudgetID:     b.ID,
		Points:       points,
		ProjectedEnd: projected,
		Currency:     b.Amount.Currency,
		GeneratedAt:  now,
	}, nil
}

// fitLine computes ordinary least squares over (hours-since-origin, cost)
func fitLine(samples []types.ForecastPoint) (slope, intercept decimal.Decimal) {
	origin := samples[0].Time
	n := decimal.NewFromInt(int64(len(samples)))

	var sumX, sumY, sumXY, sumXX decimal.Decimal
	for _, p := range samples {
		x := hoursSince(origin, p.Time)
		sumX = sumX.Add(x)
		sumY = sumY.Add(p.Cost)
		sumXY = sumXY.Add(x.Mul(p.Cost))
		sumXX = sumXX.Add(x.Mul(x))
	}

	denom := n.Mul(sumXX).Sub(sumX.Mul(sumX))
	if denom.IsZero() {
		// All samples at the same instant; flat projection
		return decimal.Zero, sumY.Div(n)
	}
	slope = n.Mul(sumXY).Sub(sumX.Mul(sumY)).Div(denom)
	intercept = sumY.Sub(slope.Mul(sumX)).Div(n)
	return slope, intercept
}

// projectDaily emits one projected point per day from the last sample
// to the period end, inclusive of the endpoint.
func projectDaily(from, end time.Time, slope, intercept decimal.Decimal, origin time.Time) []types.ForecastPoint {
	var points []types.ForecastPoint
	for t := from.Add(24 * time.Hour); t.Before(end); t = t.Add(24 * time.Hour) {
		points = append(points, types.ForecastPoint{
			Time: t,
			Cost: at(slope, intercept, hoursSince(origin, t)),
		})
	}
	points = append(points, types.ForecastPoint{
		Time: end,
		Cost: at(slope, intercept, hoursSince(origin, end)),
	})
	return points
}

func at(slope, intercept, x decimal.Decimal) decimal.Decimal {
	cost := slope.Mul(x).Add(intercept)
	if cost.Sign() < 0 {
		return decimal.Zero
	}
	return cost
}

func hoursSince(origin, t time.Time) decimal.Decimal {
	return decimal.NewFromFloat(t.Sub(origin).Hours())
}
