package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/countryrates/country-service/internal/country"
)

// MemoryRepo is an in-memory repository used by STORE_DRIVER=memory and unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]country.Country
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]country.Country)}
}

func (m *MemoryRepo) Upsert(_ context.Context, c *country.Country) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.LastRefreshedAt.IsZero() {
		c.LastRefreshedAt = time.Now().UTC()
	}
	m.store[c.Name] = *c
	return nil
}

func (m *MemoryRepo) List(_ context.Context) ([]country.Country, error) {
	out := m.filter(func(country.Country) bool { return true })
	sortByName(out)
	return out, nil
}

func (m *MemoryRepo) ListByRegion(_ context.Context, region string) ([]country.Country, error) {
	out := m.filter(func(c country.Country) bool {
		return c.Region != nil && *c.Region == region
	})
	sortByName(out)
	return out, nil
}

func (m *MemoryRepo) ListByCurrency(_ context.Context, code string) ([]country.Country, error) {
	out := m.filter(func(c country.Country) bool {
		return c.CurrencyCode != nil && *c.CurrencyCode == code
	})
	sortByName(out)
	return out, nil
}

func (m *MemoryRepo) ListByGDPDesc(_ context.Context) ([]country.Country, error) {
	out := m.filter(func(country.Country) bool { return true })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EstimatedGDP != out[j].EstimatedGDP {
			return out[i].EstimatedGDP > out[j].EstimatedGDP
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryRepo) Get(_ context.Context, name string) (*country.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.store[name]; ok {
		return &c, nil
	}
	return nil, country.ErrNotFound
}

func (m *MemoryRepo) Delete(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[name]; !ok {
		return false, nil
	}
	delete(m.store, name)
	return true, nil
}

func (m *MemoryRepo) Stats(_ context.Context) (country.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := country.Stats{Total: int64(len(m.store))}
	for _, c := range m.store {
		if st.LastRefreshedAt == nil || c.LastRefreshedAt.After(*st.LastRefreshedAt) {
			t := c.LastRefreshedAt
			st.LastRefreshedAt = &t
		}
	}
	return st, nil
}

func (m *MemoryRepo) filter(keep func(country.Country) bool) []country.Country {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]country.Country, 0, len(m.store))
	for _, c := range m.store {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func sortByName(cs []country.Country) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
}
