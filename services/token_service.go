package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"inkwell-api/models"
)

const (
	// ResetTokenSalt scopes reset tokens so they cannot stand in for any
	// other token the service signs.
	ResetTokenSalt = "email-reset"

	ResetTokenTTL   = time.Hour
	SessionTokenTTL = 7 * 24 * time.Hour
)

type SessionClaims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type ResetClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService signs session and password reset tokens.
type TokenService struct {
	sessionKey []byte
	resetKey   []byte
	now        func() time.Time
}

func NewTokenService(jwtSecret, mailSecret string) *TokenService {
	return &TokenService{
		sessionKey: []byte(jwtSecret),
		resetKey:   deriveKey(mailSecret, ResetTokenSalt),
		now:        time.Now,
	}
}

func deriveKey(secret, salt string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(salt))
	return mac.Sum(nil)
}

func (ts *TokenService) IssueSession(user *models.User) (string, error) {
	now := ts.now()
	claims := SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.sessionKey)
}

func (ts *TokenService) ParseSession(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return ts.sessionKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ts.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrAuth)
	}
	return claims, nil
}

// IssueReset signs a one hour reset token for email. Every call yields a
// distinct token.
func (ts *TokenService) IssueReset(email string) (string, error) {
	now := ts.now()
	claims := ResetClaims{
		Email:   email,
		Purpose: ResetTokenSalt,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.resetKey)
}

// ParseReset verifies a reset token and returns the email it was issued for.
func (ts *TokenService) ParseReset(tokenString string) (string, error) {
	claims := &ResetClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return ts.resetKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ts.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", userError(ErrTokenExpired, "The reset link is expired! Request for another one.")
		}
		return "", userError(ErrTokenInvalid, "Invalid or already used reset link.")
	}
	if claims.Purpose != ResetTokenSalt || claims.Email == "" {
		return "", userError(ErrTokenInvalid, "Invalid or already used reset link.")
	}
	return claims.Email, nil
}
