// internal/domain/user/service.go
package user

import (
	"fmt"
	"time"

	"github.com/your-org/hospital-backend/internal/config"
	"github.com/your-org/hospital-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles staff account business logic
type Service struct {
	db         *gorm.DB
	config     *config.Config
	jwtManager *auth.JWTManager
	passwords  *auth.PasswordManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:         db,
		config:     cfg,
		jwtManager: auth.NewJWTManager(cfg),
		passwords:  auth.NewPasswordManager(cfg),
	}
}

// RegisterRequest represents staff registration data
type RegisterRequest struct {
	HospitalID uint   `json:"hospital_id" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Role       Role   `json:"role"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenPair holds the issued access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a staff account
func (s *Service) Register(req *RegisterRequest) (*User, error) {
	var existing User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("email '%s' is already registered", req.Email)
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = RolePharmacist
	}

	u := &User{
		HospitalID:   req.HospitalID,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.db.Create(u).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Login verifies credentials and issues a token pair
func (s *Service) Login(req *LoginRequest) (*User, *TokenPair, error) {
	var u User
	if err := s.db.Where("email = ? AND is_active = ?", req.Email, true).First(&u).Error; err != nil {
		return nil, nil, fmt.Errorf("invalid credentials")
	}

	if err := s.passwords.VerifyPassword(req.Password, u.PasswordHash); err != nil {
		return nil, nil, fmt.Errorf("invalid credentials")
	}

	pair, err := s.issueTokens(&u)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	s.db.Model(&u).Update("last_login_at", now)

	return &u, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	var u User
	if err := s.db.Where("id = ? AND is_active = ?", claims.UserID, true).First(&u).Error; err != nil {
		return nil, fmt.Errorf("user no longer active")
	}

	return s.issueTokens(&u)
}

// GetProfile retrieves a user by id
func (s *Service) GetProfile(userID uint) (*User, error) {
	var u User
	if err := s.db.Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &u, nil
}

func (s *Service) issueTokens(u *User) (*TokenPair, error) {
	access, err := s.jwtManager.GenerateAccessToken(u.ID, u.HospitalID, u.Email, u.IsAdmin())
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(u.ID, u.HospitalID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
