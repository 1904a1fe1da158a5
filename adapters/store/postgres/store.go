// Package postgres persists budgets, alerts, and inventory resources in
// PostgreSQL. Row-level constraints enforce the cascade from a budget to
// its alerts.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"cloudcost/core/recommend"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS budgets (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	amount      NUMERIC(20,6) NOT NULL,
	currency    TEXT NOT NULL,
	period      TEXT NOT NULL,
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ,
	thresholds  JSONB NOT NULL DEFAULT '[]',
	filter      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id             TEXT PRIMARY KEY,
	budget_id      TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
	threshold      JSONB NOT NULL,
	spend_amount   NUMERIC(20,6) NOT NULL,
	spend_currency TEXT NOT NULL,
	status         TEXT NOT NULL,
	triggered_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS alerts_budget_idx ON alerts(budget_id);

CREATE TABLE IF NOT EXISTS resources (
	id            TEXT PRIMARY KEY,
	provider      TEXT NOT NULL,
	region        TEXT NOT NULL,
	type          TEXT NOT NULL,
	name          TEXT NOT NULL,
	tags          JSONB NOT NULL DEFAULT '{}',
	cost_amount   NUMERIC(20,6),
	cost_currency TEXT,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS resources_type_region_idx ON resources(type, region);
`

// Store is a PostgreSQL-backed budget and inventory store
type Store struct {
	db *sql.DB
}

// Open connects with the lib/pq driver and applies the schema
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfiguration, "opening postgres connection", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.TypeConfiguration, "pinging postgres", err).AsTransient()
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.TypeInternal, "applying store schema", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateBudget(ctx context.Context, b types.Budget) error {
	thresholds, err := json.Marshal(b.Thresholds)
	if err != nil {
		return errors.Internal("encoding thresholds", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, name, amount, currency, period, start_time, end_time, thresholds, filter, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.Name, b.Amount.Amount.String(), string(b.Amount.Currency), string(b.Period),
		b.StartTime, b.EndTime, thresholds, b.Filter, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "inserting budget", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, id string) (types.Budget, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, amount, currency, period, start_time, end_time, thresholds, filter, created_at, updated_at
		FROM budgets WHERE id = $1`, id)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return types.Budget{}, errors.NotFound("budget", id)
	}
	return b, err
}

func (s *Store) ListBudgets(ctx context.Context) ([]types.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, currency, period, start_time, end_time, thresholds, filter, created_at, updated_at
		FROM budgets ORDER BY created_at`)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "listing budgets", err)
	}
	defer rows.Close()

	var out []types.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBudget(ctx context.Context, b types.Budget) error {
	thresholds, err := json.Marshal(b.Thresholds)
	if err != nil {
		return errors.Internal("encoding thresholds", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets SET name = $2, amount = $3, currency = $4, period = $5,
			end_time = $6, thresholds = $7, filter = $8, updated_at = $9
		WHERE id = $1`,
		b.ID, b.Name, b.Amount.Amount.String(), string(b.Amount.Currency), string(b.Period),
		b.EndTime, thresholds, b.Filter, b.UpdatedAt)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "updating budget", err)
	}
	return requireRow(res, "budget", b.ID)
}

// DeleteBudget relies on the foreign key cascade to remove alerts
func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "deleting budget", err)
	}
	return requireRow(res, "budget", id)
}

func (s *Store) CreateAlert(ctx context.Context, a types.Alert) error {
	threshold, err := json.Marshal(a.Threshold)
	if err != nil {
		return errors.Internal("encoding threshold", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, budget_id, threshold, spend_amount, spend_currency, status, triggered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.BudgetID, threshold, a.Spend.Amount.String(), string(a.Spend.Currency),
		string(a.Status), a.TriggeredAt)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "inserting alert", err)
	}
	return nil
}

func (s *Store) GetAlert(ctx context.Context, id string) (types.Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, budget_id, threshold, spend_amount, spend_currency, status, triggered_at
		FROM alerts WHERE id = $1`, id)
	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return types.Alert{}, errors.NotFound("alert", id)
	}
	return a, err
}

func (s *Store) ListAlerts(ctx context.Context, budgetID string) ([]types.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, budget_id, threshold, spend_amount, spend_currency, status, triggered_at
		FROM alerts WHERE budget_id = $1 ORDER BY triggered_at`, budgetID)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "listing alerts", err)
	}
	defer rows.Close()

	var out []types.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAlert(ctx context.Context, a types.Alert) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET status = $2 WHERE id = $1`,
		a.ID, string(a.Status))
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "updating alert", err)
	}
	return requireRow(res, "alert", a.ID)
}

// UpsertResource inserts or refreshes an inventory resource
func (s *Store) UpsertResource(ctx context.Context, r types.Resource) error {
	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return errors.Internal("encoding tags", err)
	}
	var costAmount, costCurrency interface{}
	if r.MonthlyCost != nil {
		costAmount = r.MonthlyCost.Amount.String()
		costCurrency = string(r.MonthlyCost.Currency)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resources (id, provider, region, type, name, tags, cost_amount, cost_currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (id) DO UPDATE SET
			provider = EXCLUDED.provider, region = EXCLUDED.region, type = EXCLUDED.type,
			name = EXCLUDED.name, tags = EXCLUDED.tags,
			cost_amount = EXCLUDED.cost_amount, cost_currency = EXCLUDED.cost_currency,
			updated_at = EXCLUDED.updated_at`,
		r.ID, string(r.Provider), string(r.Region), string(r.Type), r.Name, tags,
		costAmount, costCurrency, now)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "upserting resource", err)
	}
	return nil
}

func (s *Store) DeleteResource(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "deleting resource", err)
	}
	return requireRow(res, "resource", id)
}

func (s *Store) ListResources(ctx context.Context, filter recommend.ResourceFilter) ([]types.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, region, type, name, tags, cost_amount, cost_currency, created_at, updated_at
		FROM resources
		WHERE ($1 = '' OR type = $1) AND ($2 = '' OR region = $2)
		ORDER BY id`,
		string(filter.Type), string(filter.Region))
	if err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "listing resources", err)
	}
	defer rows.Close()

	var out []types.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetResource(ctx context.Context, id string) (types.Resource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, region, type, name, tags, cost_amount, cost_currency, created_at, updated_at
		FROM resources WHERE id = $1`, id)
	r, err := scanResource(row)
	if err == sql.ErrNoRows {
		return types.Resource{}, errors.NotFound("resource", id)
	}
	return r, err
}

func (s *Store) TagResource(ctx context.Context, id string, tags map[string]string) (types.Resource, error) {
	r, err := s.GetResource(ctx, id)
	if err != nil {
		return types.Resource{}, err
	}
	if r.Tags == nil {
		r.Tags = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		r.Tags[k] = v
	}
	merged, err := json.Marshal(r.Tags)
	if err != nil {
		return types.Resource{}, errors.Internal("encoding tags", err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `UPDATE resources SET tags = $2, updated_at = $3 WHERE id = $1`,
		id, merged, now)
	if err != nil {
		return types.Resource{}, errors.Wrap(errors.TypeInternal, "tagging resource", err)
	}
	r.UpdatedAt = now
	return r, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBudget(row scanner) (types.Budget, error) {
	var (
		b          types.Budget
		amount     string
		currency   string
		period     string
		endTime    sql.NullTime
		thresholds []byte
	)
	err := row.Scan(&b.ID, &b.Name, &amount, &currency, &period,
		&b.StartTime, &endTime, &thresholds, &b.Filter, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Budget{}, err
		}
		return types.Budget{}, errors.Wrap(errors.TypeInternal, "scanning budget row", err)
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return types.Budget{}, errors.Wrap(errors.TypeParsing, "parsing budget amount", err)
	}
	b.Amount = types.NewMoney(dec, types.Currency(currency))
	b.Period = types.BudgetPeriod(period)
	if endTime.Valid {
		t := endTime.Time
		b.EndTime = &t
	}
	if err := json.Unmarshal(thresholds, &b.Thresholds); err != nil {
		return types.Budget{}, errors.Wrap(errors.TypeParsing, "decoding thresholds", err)
	}
	return b, nil
}

func scanAlert(row scanner) (types.Alert, error) {
	var (
		a         types.Alert
		threshold []byte
		amount    string
		currency  string
		status    string
	)
	err := row.Scan(&a.ID, &a.BudgetID, &threshold, &amount, &currency, &status, &a.TriggeredAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Alert{}, err
		}
		return types.Alert{}, errors.Wrap(errors.TypeInternal, "scanning alert row", err)
	}
	if err := json.Unmarshal(threshold, &a.Threshold); err != nil {
		return types.Alert{}, errors.Wrap(errors.TypeParsing, "decoding threshold", err)
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return types.Alert{}, errors.Wrap(errors.TypeParsing, "parsing alert spend", err)
	}
	a.Spend = types.NewMoney(dec, types.Currency(currency))
	a.Status = types.AlertStatus(status)
	return a, nil
}

func scanResource(row scanner) (types.Resource, error) {
	var (
		r            types.Resource
		provider     string
		region       string
		resourceType string
		tags         []byte
		costAmount   sql.NullString
		costCurrency sql.NullString
	)
	err := row.Scan(&r.ID, &provider, &region, &resourceType, &r.Name, &tags,
		&costAmount, &costCurrency, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.Resource{}, err
		}
		return types.Resource{}, errors.Wrap(errors.TypeInternal, "scanning resource row", err)
	}
	r.Provider = types.Provider(provider)
	r.Region = types.Region(region)
	r.Type = types.ResourceType(resourceType)
	if err := json.Unmarshal(tags, &r.Tags); err != nil {
		return types.Resource{}, errors.Wrap(errors.TypeParsing, "decoding tags", err)
	}
	if costAmount.Valid && costCurrency.Valid {
		dec, err := decimal.NewFromString(costAmount.String)
		if err != nil {
			return types.Resource{}, errors.Wrap(errors.TypeParsing, "parsing resource cost", err)
		}
		cost := types.NewMoney(dec, types.Currency(costCurrency.String))
		r.MonthlyCost = &cost
	}
	return r, nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "checking affected rows", err)
	}
	if n == 0 {
		return errors.NotFound(kind, id)
	}
	return nil
}
