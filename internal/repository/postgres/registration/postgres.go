package registration

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "water-app-go/internal/domain/registration"
	"water-app-go/internal/store"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, registration *domain.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.InvitedGuests == nil {
		registration.InvitedGuests = []string{}
	}
	if registration.SpecialMembers == nil {
		registration.SpecialMembers = []string{}
	}
	return store.Translate(r.db.WithContext(ctx).Create(registration).Error)
}

func (r *PostgresRepository) Get(ctx context.Context, waterID, serviceDate string, slot int) (*domain.Registration, error) {
	var registration domain.Registration
	err := r.db.WithContext(ctx).
		Where("water_id = ? AND service_date = ? AND slot = ?", waterID, serviceDate, slot).
		First(&registration).Error
	if err != nil {
		return nil, store.Translate(err)
	}
	return &registration, nil
}

func (r *PostgresRepository) Latest(ctx context.Context, waterID string) (*domain.Registration, error) {
	var registration domain.Registration
	err := r.db.WithContext(ctx).
		Where("water_id = ?", waterID).
		Order("service_date desc, slot desc").
		First(&registration).Error
	if err != nil {
		return nil, store.Translate(err)
	}
	return &registration, nil
}

// AddInvitedGuest is a conditional append so concurrent accepts cannot list
// the same guest twice.
func (r *PostgresRepository) AddInvitedGuest(ctx context.Context, waterID, serviceDate string, slot int, guestID string) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE registrations
		SET invited_guests = array_append(invited_guests, ?::text)
		WHERE water_id = ? AND service_date = ? AND slot = ?
		  AND NOT (?::text = ANY(invited_guests))
	`, guestID, waterID, serviceDate, slot, guestID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.Get(ctx, waterID, serviceDate, slot); err != nil {
		return err
	}
	return nil
}
