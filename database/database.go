// File: /database/database.go
package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"inkwell-api/config"
	"inkwell-api/models"
)

func Initialize(driver, databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(databaseURL)
	case "sqlite":
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// sqlite allows a single writer; one connection keeps writes serialized
		// and makes ":memory:" databases visible to every query.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.SugaredLogger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.PasswordResetToken{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	addCustomIndexes(db, log)
	return nil
}

func addCustomIndexes(db *gorm.DB, log *zap.SugaredLogger) {
	// Category pages and the related-posts sidebar
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_posts_category_status ON posts(category, status)").Error; err != nil {
		log.Warnw("could not create index for posts category", "error", err)
	}

	// Top-level comments of a post
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_comments_post_parent ON comments(post_id, parent_id)").Error; err != nil {
		log.Warnw("could not create index for comments", "error", err)
	}
}

// SeedAdmin makes sure the configured administrator exists and holds the admin role.
func SeedAdmin(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) error {
	if cfg.AdminEmail == "" {
		log.Warn("ADMIN_EMAIL not set, no administrator will be seeded")
		return nil
	}

	var user models.User
	err := db.Where("email = ?", cfg.AdminEmail).First(&user).Error
	if err == nil {
		if user.Role != models.RoleAdmin {
			if err := db.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
				return fmt.Errorf("failed to promote admin: %w", err)
			}
			log.Infow("promoted existing user to admin", "email", user.Email)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD is required to create the administrator")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		ID:       uuid.New().String(),
		Email:    cfg.AdminEmail,
		Password: string(hashedPassword),
		Name:     cfg.AdminName,
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	log.Infow("administrator seeded", "email", admin.Email)
	return nil
}
