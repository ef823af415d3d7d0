package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/gtd_shop/internal/config"
	"github.com/GTDGit/gtd_shop/internal/dto"
	"github.com/GTDGit/gtd_shop/internal/mailer"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

const minPasswordLength = 6

// UserService handles accounts, tokens, profiles and password resets.
type UserService struct {
	users        UserRepository
	tokens       *utils.TokenManager
	mail         MailQueue
	host         string
	secret       string
	resetTimeout time.Duration
	now          func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users UserRepository, tokens *utils.TokenManager, mail MailQueue, cfg *config.Config) *UserService {
	return &UserService{
		users:        users,
		tokens:       tokens,
		mail:         mail,
		host:         cfg.Host,
		secret:       cfg.JWTSecret,
		resetTimeout: cfg.PasswordResetTimeout,
		now:          time.Now,
	}
}

// CreateAccountRequest is the sign up payload.
type CreateAccountRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"max=150"`
	LastName  string `json:"lastName" binding:"max=150"`
	Address   string `json:"address" binding:"max=255"`
	Country   string `json:"country" binding:"max=100"`
	City      string `json:"city" binding:"max=100"`
	ZipCode   string `json:"zipCode" binding:"max=15"`
}

// TokenRequest is the login payload.
type TokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is a partial profile update. Nil fields are left as is.
type UpdateProfileRequest struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName" binding:"omitempty,max=150"`
	LastName  *string `json:"lastName" binding:"omitempty,max=150"`
	Address   *string `json:"address" binding:"omitempty,max=255"`
	Country   *string `json:"country" binding:"omitempty,max=100"`
	City      *string `json:"city" binding:"omitempty,max=100"`
	ZipCode   *string `json:"zipCode" binding:"omitempty,max=15"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// CreateAccount registers a user together with the profile.
func (s *UserService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*dto.Profile, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		IsActive:     true,
	}
	profile := &models.UserProfile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Country:   req.Country,
		City:      req.City,
		ZipCode:   req.ZipCode,
	}
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, utils.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	log.Info().Int("user_id", user.ID).Msg("Account created")
	out := dto.NewProfile(*user, *profile)
	return &out, nil
}

// IssueToken checks the credentials and returns a signed access token.
func (s *UserService) IssueToken(ctx context.Context, req TokenRequest) (*dto.Token, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, utils.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateJWT(user.ID, user.Email, user.IsStaff)
	if err != nil {
		return nil, err
	}
	return &dto.Token{Token: token}, nil
}

// GetProfile returns the account and shipping details of a user.
func (s *UserService) GetProfile(ctx context.Context, userID int) (*dto.Profile, error) {
	user, profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := dto.NewProfile(*user, *profile)
	return &out, nil
}

// UpdateProfile applies a partial update. The email cannot be changed.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*dto.Profile, error) {
	user, profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && !strings.EqualFold(strings.TrimSpace(*req.Email), user.Email) {
		return nil, utils.ErrEmailImmutable
	}

	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
		user.PasswordHash = hash
	}

	setIfPresent(&profile.FirstName, req.FirstName)
	setIfPresent(&profile.LastName, req.LastName)
	setIfPresent(&profile.Address, req.Address)
	setIfPresent(&profile.Country, req.Country)
	setIfPresent(&profile.City, req.City)
	setIfPresent(&profile.ZipCode, req.ZipCode)

	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	out := dto.NewProfile(*user, *profile)
	return &out, nil
}

// RequestPasswordReset queues a reset email when the address belongs to an
// account and reports whether it did.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}

	var name string
	if profile, err := s.users.GetProfile(ctx, user.ID); err == nil {
		name = strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	}

	msg, err := mailer.NewPasswordResetMessage(user.Email, mailer.PasswordReset{
		Name:     name,
		Link:     s.ResetLink(user),
		ValidFor: s.resetTimeout.String(),
	})
	if err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to render reset email")
		return true, nil
	}
	if !s.mail.Enqueue(msg) {
		log.Error().Int("user_id", user.ID).Msg("Reset email dropped")
	}
	return true, nil
}

// ResetLink builds the password reset URL for user.
func (s *UserService) ResetLink(user *models.User) string {
	token := utils.ResetToken(user.ID, user.PasswordHash, s.now(), s.secret)
	return fmt.Sprintf("%s/users/reset-password/%s/%s/", s.host, utils.EncodeUserID(user.ID), token)
}

// ResetPassword sets a new password when the encoded id and token are valid.
func (s *UserService) ResetPassword(ctx context.Context, encodedID, token, password string) error {
	userID, err := utils.DecodeUserID(encodedID)
	if err != nil {
		return utils.ErrInvalidResetLink
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrInvalidResetLink
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !utils.CheckResetToken(token, user.ID, user.PasswordHash, s.now(), s.resetTimeout, s.secret) {
		return utils.ErrInvalidResetLink
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	log.Info().Int("user_id", user.ID).Msg("Password reset")
	return nil
}

func (s *UserService) load(ctx context.Context, userID int) (*models.User, *models.UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, utils.ErrUserNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	profile, err := s.users.GetProfile(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, utils.ErrUserNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get profile: %w", err)
	}
	return user, profile, nil
}

func hashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return "", utils.ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
