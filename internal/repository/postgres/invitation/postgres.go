package invitation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "water-app-go/internal/domain/invitation"
	"water-app-go/internal/store"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, invitation *domain.Invitation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Invitation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("host_water_id = ?", invitation.HostWaterID).
			First(&existing).Error
		switch {
		case err == nil:
			invitation.ID = existing.ID
			invitation.CreatedAt = existing.CreatedAt
			return store.Translate(tx.Save(invitation).Error)
		case errors.Is(err, gorm.ErrRecordNotFound):
			if invitation.ID == "" {
				invitation.ID = uuid.NewString()
			}
			return store.Translate(tx.Create(invitation).Error)
		default:
			return err
		}
	})
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}
	var invitation domain.Invitation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&invitation).Error; err != nil {
		return nil, store.Translate(err)
	}
	return &invitation, nil
}

func (r *PostgresRepository) ListByGuest(ctx context.Context, guestID string) ([]domain.Invitation, error) {
	var invitations []domain.Invitation
	err := r.db.WithContext(ctx).
		Where("jsonb_exists(status, ?)", guestID).
		Order("host_water_id asc").
		Find(&invitations).Error
	return invitations, err
}

// SetGuestStatus checks the expected status in the same statement as the
// write, so two answers racing for a pending guest cannot both land.
func (r *PostgresRepository) SetGuestStatus(ctx context.Context, id, guestID string, expect, status domain.Status) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	result := r.db.WithContext(ctx).Exec(`
		UPDATE invitations
		SET status = jsonb_set(status, ARRAY[?::text], to_jsonb(?::text)), updated_at = NOW()
		WHERE id = ? AND jsonb_exists(status, ?)
		  AND (?::text = '' OR status->>? = ?::text)
	`, guestID, string(status), id, guestID, string(expect), guestID, string(expect))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missed(ctx, id, guestID)
	}
	return nil
}

// missed explains an answer that matched no row: the guest is gone, or the
// expected status no longer holds.
func (r *PostgresRepository) missed(ctx context.Context, id, guestID string) error {
	invitation, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !invitation.HasGuest(guestID) {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

// RemoveGuest drops the guest key from every map in one statement, then
// deletes the row if that emptied it.
func (r *PostgresRepository) RemoveGuest(ctx context.Context, id, guestID string, expect domain.Status) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, store.ErrNotFound
	}
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE invitations
			SET status = status - ?::text,
			    arrival_time = arrival_time - ?::text,
			    stay_duration = stay_duration - ?::text,
			    otp = otp - ?::text,
			    updated_at = NOW()
			WHERE id = ? AND jsonb_exists(status, ?)
			  AND (?::text = '' OR status->>? = ?::text)
		`, guestID, guestID, guestID, guestID, id, guestID, string(expect), guestID, string(expect))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}

		result = tx.Exec(`
			DELETE FROM invitations
			WHERE id = ?
			  AND status = '{}'::jsonb
			  AND arrival_time = '{}'::jsonb
			  AND stay_duration = '{}'::jsonb
		`, id)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, r.missed(ctx, id, guestID)
	}
	return deleted, err
}
