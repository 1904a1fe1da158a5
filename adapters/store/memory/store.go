// Package memory is the in-process store used by tests and single-node
// deployments. It implements the budget and inventory ports.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloudcost/core/recommend"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// Store holds budgets, alerts, and inventory resources in maps. Writers
// serialize on one mutex; reads copy out so callers never alias state.
type Store struct {
	mu        sync.RWMutex
	budgets   map[string]types.Budget
	alerts    map[string]types.Alert
	resources map[string]types.Resource
}

// New creates an empty store
func New() *Store {
	return &Store{
		budgets:   make(map[string]types.Budget),
		alerts:    make(map[string]types.Alert),
		resources: make(map[string]types.Resource),
	}
}

func (s *Store) CreateBudget(_ context.Context, b types.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.budgets[b.ID]; exists {
		return errors.Validation("id", b.ID, "budget already exists")
	}
	s.budgets[b.ID] = cloneBudget(b)
	return nil
}

func (s *Store) GetBudget(_ context.Context, id string) (types.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return types.Budget{}, errors.NotFound("budget", id)
	}
	return cloneBudget(b), nil
}

func (s *Store) ListBudgets(_ context.Context) ([]types.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, cloneBudget(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, b types.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; !ok {
		return errors.NotFound("budget", b.ID)
	}
	s.budgets[b.ID] = cloneBudget(b)
	return nil
}

// DeleteBudget removes the budget and every alert it owns
func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return errors.NotFound("budget", id)
	}
	delete(s.budgets, id)
	for alertID, a := range s.alerts {
		if a.BudgetID == id {
			delete(s.alerts, alertID)
		}
	}
	return nil
}

func (s *Store) CreateAlert(_ context.Context, a types.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[a.BudgetID]; !ok {
		return errors.NotFound("budget", a.BudgetID)
	}
	s.alerts[a.ID] = a
	return nil
}

func (s *Store) GetAlert(_ context.Context, id string) (types.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok {
		return types.Alert{}, errors.NotFound("alert", id)
	}
	return a, nil
}

func (s *Store) ListAlerts(_ context.Context, budgetID string) ([]types.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Alert
	for _, a := range s.alerts {
		if a.BudgetID == budgetID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.Before(out[j].TriggeredAt) })
	return out, nil
}

func (s *Store) UpdateAlert(_ context.Context, a types.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[a.ID]; !ok {
		return errors.NotFound("alert", a.ID)
	}
	s.alerts[a.ID] = a
	return nil
}

// UpsertResource seeds or refreshes an inventory resource
func (s *Store) UpsertResource(_ context.Context, r types.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := s.resources[r.ID]; ok {
		r.CreatedAt = existing.CreatedAt
	} else if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.resources[r.ID] = cloneResource(r)
	return nil
}

func (s *Store) DeleteResource(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[id]; !ok {
		return errors.NotFound("resource", id)
	}
	delete(s.resources, id)
	return nil
}

func (s *Store) ListResources(_ context.Context, filter recommend.ResourceFilter) ([]types.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Resource
	for _, r := range s.resources {
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.Region != "" && r.Region != filter.Region {
			continue
		}
		out = append(out, cloneResource(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetResource(_ context.Context, id string) (types.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok {
		return types.Resource{}, errors.NotFound("resource", id)
	}
	return cloneResource(r), nil
}

func (s *Store) TagResource(_ context.Context, id string, tags map[string]string) (types.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok {
		return types.Resource{}, errors.NotFound("resource", id)
	}
	if r.Tags == nil {
		r.Tags = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		r.Tags[k] = v
	}
	r.UpdatedAt = time.Now().UTC()
	s.resources[id] = r
	return cloneResource(r), nil
}

func cloneBudget(b types.Budget) types.Budget {
	out := b
	out.Thresholds = append([]types.BudgetThreshold(nil), b.Thresholds...)
	if b.EndTime != nil {
		end := *b.EndTime
		out.EndTime = &end
	}
	return out
}

func cloneResource(r types.Resource) types.Resource {
	out := r
	if r.Tags != nil {
		out.Tags = make(map[string]string, len(r.Tags))
		for k, v := range r.Tags {
			out.Tags[k] = v
		}
	}
	if r.MonthlyCost != nil {
		cost := *r.MonthlyCost
		out.MonthlyCost = &cost
	}
	return out
}
