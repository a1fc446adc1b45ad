package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "water-app-go/internal/domain/user"
	"water-app-go/internal/store"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Properties == nil {
		user.Properties = []string{}
	}
	return store.Translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, store.Translate(err)
	}
	return &user, nil
}

func (r *PostgresRepository) GetMany(ctx context.Context, userIDs []string) ([]domain.User, error) {
	var users []domain.User
	if len(userIDs) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresRepository) FindByWaterID(ctx context.Context, waterID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("water_id = ?", waterID).
		Order("user_id asc").
		First(&user).Error
	if err != nil {
		return nil, store.Translate(err)
	}
	return &user, nil
}

func (r *PostgresRepository) ListByWaterRoot(ctx context.Context, rootID string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Where("water_id <> '' AND split_part(water_id, '_', 1) = ?", rootID).
		Order("user_id asc").
		Find(&users).Error
	return users, err
}

func (r *PostgresRepository) ListOwners(ctx context.Context, rootID string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).
		Where("? = ANY(properties)", rootID).
		Order("user_id asc").
		Find(&users).Error
	return users, err
}

func (r *PostgresRepository) SetTenancy(ctx context.Context, userID, waterID, tenantCode string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"water_id": waterID, "tenant_code": tenantCode})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ClaimTenancy(ctx context.Context, userID, waterID, tenantCode string) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET water_id = ?, tenant_code = ?, updated_at = NOW()
		WHERE user_id = ? AND water_id = ''
	`, waterID, tenantCode, userID)
	if err := r.checkTouched(ctx, result, userID); err != nil {
		return err
	}
	if result.RowsAffected == 0 {
		return store.ErrConflict
	}
	return nil
}

// AddProperty appends rootID unless the user already owns it.
func (r *PostgresRepository) AddProperty(ctx context.Context, userID, rootID string) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET properties = array_append(properties, ?::text), updated_at = NOW()
		WHERE user_id = ? AND NOT (?::text = ANY(properties))
	`, rootID, userID, rootID)
	return r.checkTouched(ctx, result, userID)
}

func (r *PostgresRepository) RemoveProperty(ctx context.Context, userID, rootID string) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET properties = array_remove(properties, ?::text), updated_at = NOW()
		WHERE user_id = ?
	`, rootID, userID)
	return r.checkTouched(ctx, result, userID)
}

// checkTouched tells a no-op conditional update apart from a missing user.
func (r *PostgresRepository) checkTouched(ctx context.Context, result *gorm.DB, userID string) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	_, err := r.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return store.ErrNotFound
	}
	return err
}
