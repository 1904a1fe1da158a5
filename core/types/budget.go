// Package types - Budget, alert, and recommendation shapes
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod is the budget evaluation cadence
type BudgetPeriod string

const (
	BudgetMonthly   BudgetPeriod = "monthly"
	BudgetQuarterly BudgetPeriod = "quarterly"
	BudgetAnnually  BudgetPeriod = "annually"
)

// BudgetThreshold triggers an alert when spend crosses it. Thresholds in a
// budget are sorted ascending by percentage.
type BudgetThreshold struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     Money           `json:"amount"`
}

// Budget tracks spend against a limit. A budget owns its alerts; deleting
// the budget cascades to them.
type Budget struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Amount Money        `json:"amount"`
	Period BudgetPeriod `json:"period"`

	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Thresholds []BudgetThreshold `json:"thresholds"`

	// Filter is a dotted-path expression selecting the entries this budget
	// covers, e.g. "resource.provider=aws"
	Filter string `json:"filter,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AlertStatus is the lifecycle state of an alert
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Alert is a derived value: one per budget-threshold crossing per
// evaluation period.
type Alert struct {
	ID         string          `json:"id"`
	BudgetID   string          `json:"budget_id"`
	Threshold  BudgetThreshold `json:"threshold"`
	Spend      Money           `json:"spend"`
	Status     AlertStatus     `json:"status"`
	TriggeredAt time.Time      `json:"triggered_at"`
}

// ForecastPoint is one projected spend sample
type ForecastPoint struct {
	Time time.Time       `json:"time"`
	Cost decimal.Decimal `json:"cost"`
}

// Forecast projects spend from historical samples
type Forecast struct {
	BudgetID    string          `json:"budget_id,omitempty"`
	Points      []ForecastPoint `json:"points"`
	ProjectedEnd decimal.Decimal `json:"projected_end"`
	Currency    Currency        `json:"currency"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// RecommendationType classifies a recommendation
type RecommendationType string

const (
	RecommendationCostOptimization RecommendationType = "cost_optimization"
	RecommendationPerformance      RecommendationType = "performance_optimization"
	RecommendationPlacement        RecommendationType = "placement"
	RecommendationMigration        RecommendationType = "migration"
)

// Recommendation is a derived advisory; it is never applied to provider
// APIs by this system.
type Recommendation struct {
	ID   string             `json:"id"`
	Type RecommendationType `json:"type"`

	Provider Provider `json:"provider"`
	Region   Region   `json:"region"`

	// ResourceID links to an inventory resource when applicable
	ResourceID string `json:"resource_id,omitempty"`

	Summary string `json:"summary"`
	Action  string `json:"action"`

	CurrentMonthlyCost  *Money `json:"current_monthly_cost,omitempty"`
	ProposedMonthlyCost *Money `json:"proposed_monthly_cost,omitempty"`
	MonthlySavings      *Money `json:"monthly_savings,omitempty"`

	// Details carries structured context for the consumer
	Details map[string]interface{} `json:"details,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	ValidUntil time.Time `json:"valid_until"`
}

// Resource is the inventory port's view of a deployed resource
type Resource struct {
	ID       string            `json:"id"`
	Provider Provider          `json:"provider"`
	Region   Region            `json:"region"`
	Type     ResourceType      `json:"type"`
	Name     string            `json:"name"`
	Tags     map[string]string `json:"tags,omitempty"`

	MonthlyCost *Money `json:"monthly_cost,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
