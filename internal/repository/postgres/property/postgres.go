package property

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "water-app-go/internal/domain/property"
	"water-app-go/internal/store"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, property *domain.Property) error {
	if property.ID == "" {
		property.ID = uuid.NewString()
	}
	return store.Translate(r.db.WithContext(ctx).Create(property).Error)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	// Property ids are uuids; anything else cannot match and would only
	// make postgres reject the query.
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}
	var property domain.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, store.Translate(err)
	}
	return &property, nil
}

func (r *PostgresRepository) GetByRootID(ctx context.Context, rootID string) (*domain.Property, error) {
	var property domain.Property
	if err := r.db.WithContext(ctx).Where("root_id = ?", rootID).First(&property).Error; err != nil {
		return nil, store.Translate(err)
	}
	return &property, nil
}

func (r *PostgresRepository) ListByRootIDs(ctx context.Context, rootIDs []string) ([]domain.Property, error) {
	var properties []domain.Property
	if len(rootIDs) == 0 {
		return properties, nil
	}
	err := r.db.WithContext(ctx).Where("root_id IN ?", rootIDs).Find(&properties).Error
	return properties, err
}

func (r *PostgresRepository) IdentifierExists(ctx context.Context, idType domain.IDType, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Property{}).
		Where("id_type = ? AND identifier_number = ?", idType, number).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresRepository) RootIDExists(ctx context.Context, rootID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Property{}).Where("root_id = ?", rootID).Count(&count).Error
	return count > 0, err
}

func (r *PostgresRepository) AppendFamily(ctx context.Context, id, waterID string) error {
	return affected(r.db.WithContext(ctx).Exec(`
		UPDATE properties
		SET families = array_append(families, ?::text),
		    number_of_tenants = number_of_tenants + 1,
		    updated_at = NOW()
		WHERE id = ?
	`, waterID, id))
}

func (r *PostgresRepository) RemoveFamily(ctx context.Context, id, waterID string) error {
	return affected(r.db.WithContext(ctx).Exec(`
		UPDATE properties
		SET families = array_remove(families, ?::text),
		    number_of_tenants = GREATEST(number_of_tenants - 1, 0),
		    updated_at = NOW()
		WHERE id = ? AND ?::text = ANY(families)
	`, waterID, id, waterID))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Property{}))
}

func affected(result *gorm.DB) error {
	if result.Error != nil {
		return store.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
