package repositories

import (
	"context"

	"gorm.io/gorm"
	"inkwell-api/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListSubscribers returns every user that has an email address on file.
func (r *UserRepository) ListSubscribers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("email IS NOT NULL AND email <> ''").
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, email, hashedPassword string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Update("password", hashedPassword)
	return result.RowsAffected, result.Error
}
