package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"inkwell-api/metrics"
	"inkwell-api/models"
	"inkwell-api/repositories"
	"inkwell-api/utils"
)

const MinPasswordLength = 6

type AuthService struct {
	db        *gorm.DB
	users     *repositories.UserRepository
	resets    *repositories.ResetTokenRepository
	tokens    *TokenService
	mailer    Mailer
	publicURL string
	now       func() time.Time
	log       *zap.SugaredLogger
	metrics   *metrics.Metrics
}

func NewAuthService(db *gorm.DB, users *repositories.UserRepository, resets *repositories.ResetTokenRepository, tokens *TokenService, mailer Mailer, publicURL string, log *zap.SugaredLogger, m *metrics.Metrics) *AuthService {
	return &AuthService{
		db:        db,
		users:     users,
		resets:    resets,
		tokens:    tokens,
		mailer:    mailer,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
		log:       log,
		metrics:   m,
	}
}

var errEmailRegistered = userErrorRedirect(ErrDuplicate, "You've already signed up with that email, log in instead!", "/login")

func (as *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, newValidationError("name", "name is required.")
	}
	if !utils.IsValidEmail(email) {
		return nil, newValidationError("email", "enter a valid email address.")
	}
	if len(password) < MinPasswordLength {
		return nil, newValidationError("password", fmt.Sprintf("password must be at least %d characters.", MinPasswordLength))
	}

	if _, err := as.users.FindByEmail(ctx, email); err == nil {
		return nil, errEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Password: string(hashedPassword),
		Name:     name,
		Role:     models.RoleReader,
	}
	if err := as.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errEmailRegistered
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	as.log.Infow("user registered", "user_id", user.ID)
	return user, nil
}

var errBadCredentials = userError(ErrAuth, "Invalid email or password.")

func (as *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := as.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return user, nil
}

// Authenticate resolves a session token to its current user record.
func (as *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := as.tokens.ParseSession(token)
	if err != nil {
		return nil, err
	}
	user, err := as.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuth
		}
		return nil, err
	}
	return user, nil
}

func (as *AuthService) IssueSession(user *models.User) (string, error) {
	return as.tokens.IssueSession(user)
}

// ResetURL is the link mailed to the user.
func (as *AuthService) ResetURL(token string) string {
	return as.publicURL + "/reset-password/" + token
}

// RequestReset stores a fresh reset token for email and mails the link.
func (as *AuthService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	user, err := as.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return userErrorRedirect(ErrNotFound, "Email not found. Please register.", "/register")
		}
		return err
	}

	token, err := as.tokens.IssueReset(user.Email)
	if err != nil {
		return fmt.Errorf("failed to sign reset token: %w", err)
	}

	if err := as.resets.Upsert(ctx, user.Email, token, as.now()); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}
	as.metrics.PasswordResets.WithLabelValues("requested").Inc()

	msg := NewPasswordResetMessage(as.mailer.From(), user.Email, as.ResetURL(token))
	if err := as.mailer.Send(ctx, msg); err != nil {
		as.log.Errorw("failed to send reset email", "user_id", user.ID, "error", err)
		return userError(ErrTransport, "We could not send the reset email. Please try again later.")
	}
	return nil
}

// VerifyReset checks signature, expiry and that the token is still the
// unused one on file. It returns the email the token belongs to.
func (as *AuthService) VerifyReset(ctx context.Context, token string) (string, *models.PasswordResetToken, error) {
	email, err := as.tokens.ParseReset(token)
	if err != nil {
		return "", nil, err
	}
	row, err := as.resets.FindUnused(ctx, email, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, userError(ErrTokenInvalid, "Invalid or already used reset link.")
		}
		return "", nil, err
	}
	return email, row, nil
}

// ConsumeReset sets a new password and burns the token in one transaction.
func (as *AuthService) ConsumeReset(ctx context.Context, token, newPassword, confirmPassword string) error {
	email, row, err := as.VerifyReset(ctx, token)
	if err != nil {
		return err
	}
	if newPassword != confirmPassword {
		return newValidationError("confirm_password", "Passwords do not match.")
	}
	if len(newPassword) < MinPasswordLength {
		return newValidationError("new_password", fmt.Sprintf("password must be at least %d characters.", MinPasswordLength))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := as.resets.WithTx(tx).MarkUsed(ctx, row.ID, token)
		if err != nil {
			return err
		}
		if !ok {
			return userError(ErrTokenInvalid, "Invalid or already used reset link.")
		}
		affected, err := as.users.WithTx(tx).UpdatePassword(ctx, email, string(hashedPassword))
		if err != nil {
			return err
		}
		if affected == 0 {
			return userError(ErrNotFound, "Email not found. Please register.")
		}
		return nil
	})
	if err != nil {
		var userErr *UserError
		if !errors.As(err, &userErr) {
			err = fmt.Errorf("failed to reset password: %w", err)
		}
		return err
	}

	as.metrics.PasswordResets.WithLabelValues("completed").Inc()
	as.log.Infow("password reset", "email", email)

	if user, err := as.users.FindByEmail(ctx, email); err == nil {
		msg := NewPasswordChangedMessage(as.mailer.From(), user.Email, user.Name, as.now())
		if err := as.mailer.Send(ctx, msg); err != nil {
			as.log.Warnw("failed to send password changed email", "user_id", user.ID, "error", err)
		}
	}
	return nil
}
