package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/config"
	"github.com/gautam-ch/KrashiDukan/jwt"
	"github.com/gautam-ch/KrashiDukan/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type AuthService struct {
	DB         *gorm.DB
	Tokens     *jwt.Manager
	RefreshTTL time.Duration
	BcryptCost int
	Now        func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *jwt.Manager, config config.AuthConfig) *AuthService {
	cost := config.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		DB:         db,
		Tokens:     tokens,
		RefreshTTL: config.RefreshTokenTTL,
		BcryptCost: cost,
		Now:        time.Now,
	}
}

type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SigninInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Credentials are handed out at sign-in. RefreshToken is the raw token; only its
// digest is stored.
type Credentials struct {
	User             *models.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashRefreshToken returns the hex SHA-256 digest sessions are keyed by.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *AuthService) now() time.Time {
	return s.Now().UTC()
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	if fields := validateStruct(in); fields != nil {
		return nil, apperr.Validation("Invalid input!", fields)
	}
	if !ValidateEmail(in.Email) {
		return nil, apperr.Validation("Invalid input!", apperr.Fields{"email": "Invalid email address!"})
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if count > 0 {
		return nil, apperr.Conflict("Email already registered!")
	}

	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("Password must be at least 6 characters long", apperr.Fields{
			"password": "Password must be at least 6 characters long",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.BcryptCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, dbError(err, "", "Email already registered!")
	}
	return user, nil
}

func (s *AuthService) Signin(ctx context.Context, in SigninInput) (*Credentials, error) {
	in.Email = normalizeEmail(in.Email)
	if fields := validateStruct(in); fields != nil {
		return nil, apperr.Validation("Credentials are required!", fields)
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("User does not exist!")
		}
		return nil, apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, apperr.Unauthorized("Invalid password!")
	}

	now := s.now()

	// expired sessions of this user are dropped at their next sign-in
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND expires_at <= ?", user.ID, now).
		Delete(&models.Session{}).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	session := models.Session{
		UserID:    user.ID,
		TokenHash: HashRefreshToken(refreshToken),
		ExpiresAt: now.Add(s.RefreshTTL),
	}
	if err := s.DB.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	accessToken, accessExpiresAt, err := s.Tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &Credentials{
		User:             &user,
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

// Refresh mints a new access token for the session refreshToken belongs to.
// The refresh token itself is not rotated. A missing or expired session is a 401
// and an expired row is removed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, uint, error) {
	if refreshToken == "" {
		return "", 0, apperr.Unauthorized("Unauthorized request!")
	}

	digest := HashRefreshToken(refreshToken)
	var session models.Session
	err := s.DB.WithContext(ctx).Where("token_hash = ?", digest).First(&session).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, apperr.Internal(err)
	}

	if err != nil || session.Expired(s.now()) {
		if err := s.DB.WithContext(ctx).Where("token_hash = ?", digest).Delete(&models.Session{}).Error; err != nil {
			return "", 0, apperr.Internal(err)
		}
		return "", 0, apperr.Unauthorized("Session expired")
	}

	accessToken, _, err := s.Tokens.GenerateToken(session.UserID)
	if err != nil {
		return "", 0, apperr.Internal(err)
	}
	return accessToken, session.UserID, nil
}

// Signout deletes the session behind refreshToken, if any.
func (s *AuthService) Signout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.DB.WithContext(ctx).
		Where("token_hash = ?", HashRefreshToken(refreshToken)).
		Delete(&models.Session{}).Error
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Authenticate verifies an access token. The returned error wraps
// jwt.ErrTokenExpired when the token is only expired.
func (s *AuthService) Authenticate(accessToken string) (uint, error) {
	return s.Tokens.VerifyToken(accessToken)
}

func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.Tokens.TTL()
}

func (s *AuthService) User(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, dbError(err, "User does not exist!", "")
	}
	return &user, nil
}
