package family

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "water-app-go/internal/domain/property"
	"water-app-go/internal/store"
)

// PostgresRepository stores per-tenant-code ledgers in the families table.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, family *domain.Family) error {
	if family.ID == "" {
		family.ID = uuid.NewString()
	}
	for _, m := range []*map[string]any{&family.WaterUsage, &family.Guests, &family.Fines} {
		if *m == nil {
			*m = map[string]any{}
		}
	}
	if family.ExtraWaterDates == nil {
		family.ExtraWaterDates = []string{}
	}
	return store.Translate(r.db.WithContext(ctx).Create(family).Error)
}

func (r *PostgresRepository) Get(ctx context.Context, rootID, tenantCode string) (*domain.Family, error) {
	var family domain.Family
	err := r.db.WithContext(ctx).
		Where("root_id = ? AND tenant_code = ?", rootID, tenantCode).
		First(&family).Error
	if err != nil {
		return nil, store.Translate(err)
	}
	return &family, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, rootID, tenantCode string) error {
	result := r.db.WithContext(ctx).
		Where("root_id = ? AND tenant_code = ?", rootID, tenantCode).
		Delete(&domain.Family{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByRoot(ctx context.Context, rootID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("root_id = ?", rootID).Delete(&domain.Family{})
	return result.RowsAffected, result.Error
}

// SetUsage writes one date key of the usage ledger in place.
func (r *PostgresRepository) SetUsage(ctx context.Context, rootID, tenantCode, date string, liters float64) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE families
		SET water_usage = jsonb_set(water_usage, ARRAY[?::text], to_jsonb(?::float8)),
		    updated_at = NOW()
		WHERE root_id = ? AND tenant_code = ?
	`, date, liters, rootID, tenantCode)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
