package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"inkwell-api/models"
)

type ResetTokenRepository struct {
	db *gorm.DB
}

func NewResetTokenRepository(db *gorm.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *ResetTokenRepository) WithTx(tx *gorm.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: tx}
}

// Upsert stores token as the active reset token for email, replacing any
// previous one and clearing its used flag.
func (r *ResetTokenRepository) Upsert(ctx context.Context, email, token string, now time.Time) error {
	db := r.db.WithContext(ctx)

	var existing models.PasswordResetToken
	err := db.Where("email = ?", email).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.Create(&models.PasswordResetToken{
				Email:     email,
				Token:     token,
				CreatedAt: now,
			}).Error
		}
		return err
	}

	return db.Model(&existing).Updates(map[string]interface{}{
		"token":      token,
		"created_at": now,
		"is_used":    false,
	}).Error
}

func (r *ResetTokenRepository) FindUnused(ctx context.Context, email, token string) (*models.PasswordResetToken, error) {
	var row models.PasswordResetToken
	err := r.db.WithContext(ctx).
		Where("email = ? AND token = ? AND is_used = ?", email, token, false).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkUsed flips is_used on the row still holding token. It returns false
// when the row was already used or replaced, so two concurrent consumers
// cannot both succeed.
func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id uint, token string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("id = ? AND token = ? AND is_used = ?", id, token, false).
		Update("is_used", true)
	return result.RowsAffected == 1, result.Error
}
