package inmemory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"water-app-go/internal/domain/invitation"
	"water-app-go/internal/store"
)

type InvitationRepository struct {
	mu     sync.RWMutex
	byID   map[string]invitation.Invitation
	byHost map[string]string
}

func NewInvitationRepository() *InvitationRepository {
	return &InvitationRepository{
		byID:   make(map[string]invitation.Invitation),
		byHost: make(map[string]string),
	}
}

func (r *InvitationRepository) Upsert(_ context.Context, inv *invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existingID, ok := r.byHost[inv.HostWaterID]; ok {
		inv.ID = existingID
		inv.CreatedAt = r.byID[existingID].CreatedAt
	}
	r.byID[inv.ID] = cloneInvitation(*inv)
	r.byHost[inv.HostWaterID] = inv.ID
	return nil
}

func (r *InvitationRepository) GetByID(_ context.Context, id string) (*invitation.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	inv = cloneInvitation(inv)
	return &inv, nil
}

func (r *InvitationRepository) ListByGuest(_ context.Context, guestID string) ([]invitation.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []invitation.Invitation
	for _, inv := range r.byID {
		if inv.HasGuest(guestID) {
			out = append(out, cloneInvitation(inv))
		}
	}
	slices.SortFunc(out, func(a, b invitation.Invitation) int { return strings.Compare(a.HostWaterID, b.HostWaterID) })
	return out, nil
}

func (r *InvitationRepository) SetGuestStatus(_ context.Context, id, guestID string, expect, status invitation.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, err := r.answerable(id, guestID, expect)
	if err != nil {
		return err
	}
	inv = cloneInvitation(inv)
	inv.Status[guestID] = string(status)
	r.byID[id] = inv
	return nil
}

func (r *InvitationRepository) RemoveGuest(_ context.Context, id, guestID string, expect invitation.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, err := r.answerable(id, guestID, expect)
	if err != nil {
		return false, err
	}
	inv = cloneInvitation(inv)
	delete(inv.Status, guestID)
	delete(inv.ArrivalTime, guestID)
	delete(inv.StayDuration, guestID)
	delete(inv.OTP, guestID)

	if inv.Empty() {
		delete(r.byID, id)
		delete(r.byHost, inv.HostWaterID)
		return true, nil
	}
	r.byID[id] = inv
	return false, nil
}

// answerable looks up the invitation a guest answers. Callers hold the lock.
func (r *InvitationRepository) answerable(id, guestID string, expect invitation.Status) (invitation.Invitation, error) {
	inv, ok := r.byID[id]
	if !ok || !inv.HasGuest(guestID) {
		return invitation.Invitation{}, store.ErrNotFound
	}
	if expect != "" && invitation.Status(inv.Status[guestID]) != expect {
		return invitation.Invitation{}, store.ErrConflict
	}
	return inv, nil
}

func cloneInvitation(inv invitation.Invitation) invitation.Invitation {
	inv.Status = cloneStrings(inv.Status)
	inv.ArrivalTime = cloneStrings(inv.ArrivalTime)
	inv.StayDuration = cloneStrings(inv.StayDuration)
	inv.OTP = cloneStrings(inv.OTP)
	return inv
}

func cloneStrings(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	return maps.Clone(in)
}
