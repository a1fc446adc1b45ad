package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"water-app-go/internal/domain/property"
	"water-app-go/internal/store"
)

type PropertyRepository struct {
	mu    sync.RWMutex
	byID  map[string]property.Property
	roots map[string]string
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{
		byID:  make(map[string]property.Property),
		roots: make(map[string]string),
	}
}

func (r *PropertyRepository) Create(_ context.Context, p *property.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.byID[p.ID]; ok {
		return store.ErrConflict
	}
	if _, ok := r.roots[p.RootID]; ok {
		return store.ErrConflict
	}
	for _, existing := range r.byID {
		if existing.IDType == p.IDType && existing.IdentifierNumber == p.IdentifierNumber {
			return store.ErrConflict
		}
	}
	r.byID[p.ID] = cloneProperty(*p)
	r.roots[p.RootID] = p.ID
	return nil
}

func (r *PropertyRepository) GetByID(_ context.Context, id string) (*property.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p = cloneProperty(p)
	return &p, nil
}

func (r *PropertyRepository) GetByRootID(ctx context.Context, rootID string) (*property.Property, error) {
	r.mu.RLock()
	id, ok := r.roots[rootID]
	r.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PropertyRepository) ListByRootIDs(_ context.Context, rootIDs []string) ([]property.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]property.Property, 0, len(rootIDs))
	for _, rootID := range rootIDs {
		if id, ok := r.roots[rootID]; ok {
			out = append(out, cloneProperty(r.byID[id]))
		}
	}
	return out, nil
}

func (r *PropertyRepository) IdentifierExists(_ context.Context, idType property.IDType, number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byID {
		if p.IDType == idType && p.IdentifierNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *PropertyRepository) RootIDExists(_ context.Context, rootID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.roots[rootID]
	return ok, nil
}

func (r *PropertyRepository) AppendFamily(_ context.Context, id, waterID string) error {
	return r.update(id, func(p *property.Property) {
		p.Families = append(p.Families, waterID)
		p.NumberOfTenants++
	})
}

func (r *PropertyRepository) RemoveFamily(_ context.Context, id, waterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok || !slices.Contains(p.Families, waterID) {
		return store.ErrNotFound
	}
	p = cloneProperty(p)
	p.Families = slices.DeleteFunc(p.Families, func(existing string) bool { return existing == waterID })
	p.NumberOfTenants = max(p.NumberOfTenants-1, 0)
	r.byID[id] = p
	return nil
}

func (r *PropertyRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.roots, p.RootID)
	return nil
}

func (r *PropertyRepository) update(id string, fn func(*property.Property)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	p = cloneProperty(p)
	fn(&p)
	r.byID[id] = p
	return nil
}

func cloneProperty(p property.Property) property.Property {
	p.Families = slices.Clone(p.Families)
	if p.Families == nil {
		p.Families = []string{}
	}
	return p
}
