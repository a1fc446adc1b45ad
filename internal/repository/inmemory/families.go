package inmemory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"water-app-go/internal/domain/property"
	"water-app-go/internal/store"
)

type FamilyRepository struct {
	mu       sync.RWMutex
	families map[familyKey]property.Family
}

type familyKey struct {
	root string
	code string
}

func NewFamilyRepository() *FamilyRepository {
	return &FamilyRepository{families: make(map[familyKey]property.Family)}
}

func (r *FamilyRepository) Create(_ context.Context, family *property.Family) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := familyKey{root: family.RootID, code: family.TenantCode}
	if _, ok := r.families[key]; ok {
		return store.ErrConflict
	}
	if family.ID == "" {
		family.ID = uuid.NewString()
	}
	r.families[key] = cloneFamily(*family)
	return nil
}

func (r *FamilyRepository) Get(_ context.Context, rootID, tenantCode string) (*property.Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	family, ok := r.families[familyKey{root: rootID, code: tenantCode}]
	if !ok {
		return nil, store.ErrNotFound
	}
	family = cloneFamily(family)
	return &family, nil
}

func (r *FamilyRepository) Delete(_ context.Context, rootID, tenantCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := familyKey{root: rootID, code: tenantCode}
	if _, ok := r.families[key]; !ok {
		return store.ErrNotFound
	}
	delete(r.families, key)
	return nil
}

func (r *FamilyRepository) DeleteByRoot(_ context.Context, rootID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for key := range r.families {
		if key.root == rootID {
			delete(r.families, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *FamilyRepository) SetUsage(_ context.Context, rootID, tenantCode, date string, liters float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := familyKey{root: rootID, code: tenantCode}
	family, ok := r.families[key]
	if !ok {
		return store.ErrNotFound
	}
	family = cloneFamily(family)
	family.WaterUsage[date] = liters
	r.families[key] = family
	return nil
}

// Put replaces a family ledger wholesale. Tests use it to seed history.
func (r *FamilyRepository) Put(family property.Family) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if family.ID == "" {
		family.ID = uuid.NewString()
	}
	r.families[familyKey{root: family.RootID, code: family.TenantCode}] = cloneFamily(family)
}

func cloneFamily(family property.Family) property.Family {
	family.WaterUsage = cloneMap(family.WaterUsage)
	family.Guests = cloneMap(family.Guests)
	family.Fines = cloneMap(family.Fines)
	family.ExtraWaterDates = slices.Clone(family.ExtraWaterDates)
	return family
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	return maps.Clone(in)
}
