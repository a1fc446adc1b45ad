package inmemory

import (
	"context"
	"slices"
	"strings"
	"sync"

	userdomain "water-app-go/internal/domain/user"
	"water-app-go/internal/domain/waterid"
	"water-app-go/internal/store"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]userdomain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]userdomain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserID]; ok {
		return store.ErrConflict
	}
	for _, existing := range r.users {
		if existing.NationalID == user.NationalID {
			return store.ErrConflict
		}
	}
	r.users[user.UserID] = cloneUser(*user)
	return nil
}

func (r *UserRepository) Get(_ context.Context, userID string) (*userdomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	user = cloneUser(user)
	return &user, nil
}

func (r *UserRepository) GetMany(_ context.Context, userIDs []string) ([]userdomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]userdomain.User, 0, len(userIDs))
	for _, id := range userIDs {
		if user, ok := r.users[id]; ok {
			out = append(out, cloneUser(user))
		}
	}
	return out, nil
}

func (r *UserRepository) FindByWaterID(_ context.Context, waterID string) (*userdomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.sorted() {
		if user.WaterID == waterID {
			user = cloneUser(user)
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *UserRepository) ListByWaterRoot(_ context.Context, rootID string) ([]userdomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []userdomain.User
	for _, user := range r.sorted() {
		if root, err := waterid.RootID(user.WaterID); err == nil && root == rootID {
			out = append(out, cloneUser(user))
		}
	}
	return out, nil
}

func (r *UserRepository) ListOwners(_ context.Context, rootID string) ([]userdomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []userdomain.User
	for _, user := range r.sorted() {
		if user.Owns(rootID) {
			out = append(out, cloneUser(user))
		}
	}
	return out, nil
}

func (r *UserRepository) SetTenancy(_ context.Context, userID, waterID, tenantCode string) error {
	return r.update(userID, func(user *userdomain.User) {
		user.WaterID = waterID
		user.TenantCode = tenantCode
	})
}

func (r *UserRepository) ClaimTenancy(_ context.Context, userID, waterID, tenantCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if user.WaterID != "" {
		return store.ErrConflict
	}
	user = cloneUser(user)
	user.WaterID = waterID
	user.TenantCode = tenantCode
	r.users[userID] = user
	return nil
}

func (r *UserRepository) AddProperty(_ context.Context, userID, rootID string) error {
	return r.update(userID, func(user *userdomain.User) {
		if !user.Owns(rootID) {
			user.Properties = append(user.Properties, rootID)
		}
	})
}

func (r *UserRepository) RemoveProperty(_ context.Context, userID, rootID string) error {
	return r.update(userID, func(user *userdomain.User) {
		user.Properties = slices.DeleteFunc(user.Properties, func(root string) bool { return root == rootID })
	})
}

func (r *UserRepository) update(userID string, fn func(*userdomain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user = cloneUser(user)
	fn(&user)
	r.users[userID] = user
	return nil
}

// sorted gives scans a stable order. Callers hold the lock.
func (r *UserRepository) sorted() []userdomain.User {
	out := make([]userdomain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	slices.SortFunc(out, func(a, b userdomain.User) int { return strings.Compare(a.UserID, b.UserID) })
	return out
}

func cloneUser(user userdomain.User) userdomain.User {
	user.Properties = slices.Clone(user.Properties)
	if user.Properties == nil {
		user.Properties = []string{}
	}
	return user
}
