package inmemory

import (
	"context"
	"slices"
	"sync"

	"water-app-go/internal/domain/registration"
	"water-app-go/internal/store"
)

type RegistrationRepository struct {
	mu    sync.RWMutex
	items map[registrationKey]registration.Registration
}

type registrationKey struct {
	waterID string
	date    string
	slot    int
}

func NewRegistrationRepository() *RegistrationRepository {
	return &RegistrationRepository{items: make(map[registrationKey]registration.Registration)}
}

func (r *RegistrationRepository) Create(_ context.Context, reg *registration.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registrationKey{waterID: reg.WaterID, date: reg.ServiceDate, slot: reg.Slot}
	if _, ok := r.items[key]; ok {
		return store.ErrConflict
	}
	r.items[key] = cloneRegistration(*reg)
	return nil
}

func (r *RegistrationRepository) Get(_ context.Context, waterID, serviceDate string, slot int) (*registration.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.items[registrationKey{waterID: waterID, date: serviceDate, slot: slot}]
	if !ok {
		return nil, store.ErrNotFound
	}
	reg = cloneRegistration(reg)
	return &reg, nil
}

func (r *RegistrationRepository) Latest(_ context.Context, waterID string) (*registration.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		latest registrationKey
		found  bool
	)
	for key := range r.items {
		if key.waterID != waterID {
			continue
		}
		if !found || key.date > latest.date || (key.date == latest.date && key.slot > latest.slot) {
			latest, found = key, true
		}
	}
	if !found {
		return nil, store.ErrNotFound
	}
	reg := cloneRegistration(r.items[latest])
	return &reg, nil
}

func (r *RegistrationRepository) AddInvitedGuest(_ context.Context, waterID, serviceDate string, slot int, guestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registrationKey{waterID: waterID, date: serviceDate, slot: slot}
	reg, ok := r.items[key]
	if !ok {
		return store.ErrNotFound
	}
	if slices.Contains(reg.InvitedGuests, guestID) {
		return nil
	}
	reg = cloneRegistration(reg)
	reg.InvitedGuests = append(reg.InvitedGuests, guestID)
	r.items[key] = reg
	return nil
}

func cloneRegistration(reg registration.Registration) registration.Registration {
	reg.PrimaryMembers = slices.Clone(reg.PrimaryMembers)
	reg.SpecialMembers = slices.Clone(reg.SpecialMembers)
	reg.InvitedGuests = slices.Clone(reg.InvitedGuests)
	return reg
}
