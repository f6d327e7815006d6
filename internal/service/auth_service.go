package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jinzhu/copier"
	"github.com/lshigami/nodo-plus/config"
	"github.com/lshigami/nodo-plus/internal/dto"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

const (
	msgInvalidCredentials = "Invalid credentials"
	msgSocialLogin        = "This account uses social login. Please sign in with Google or Microsoft."
	msgEmailTaken         = "Email already registered"
)

// Claims are the JWT claims issued on login and register.
type Claims struct {
	UserID string     `json:"userId"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(req dto.LoginRequest) (*dto.AuthResponse, error)
	Me(userID string) (*dto.MeResponse, error)
	ForgotPassword() error
	ResetPassword() error
}

type authService struct {
	userRepo repository.UserRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set. Tokens are signed with an empty key.")
	}
	return &authService{
		userRepo: userRepo,
		secret:   []byte(cfg.Auth.JWTSecret),
		ttl:      cfg.Auth.JWTExpiresIn,
		now:      time.Now,
	}
}

func (s *authService) Register(req dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := req.Role
	if role == "" {
		role = model.RoleEdTech
	}
	if !role.Valid() {
		return nil, NewInvalidError("Invalid role")
	}
	if role == model.RoleAdmin {
		return nil, NewInvalidError("Admin accounts cannot be self-registered")
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, NewInvalidError(msgEmailTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: email, Password: &hashed, Role: role}

	switch role {
	case model.RoleEdTech:
		company := &model.EdTechCompany{}
		if err := copier.Copy(company, &req); err != nil {
			return nil, fmt.Errorf("map company: %w", err)
		}
		user.EdTechCompany = company
	case model.RoleIE:
		user.Institution = &model.Institution{
			Name:     req.Name,
			Type:     req.Type,
			Location: req.Location,
			Rural:    req.Rural,
			Status:   model.InstitutionPending,
		}
	case model.RoleConsultant:
		user.ConsultantProfile = &model.ConsultantProfile{Name: req.Name, Organization: req.Organization, Active: true}
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewInvalidError(msgEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Info().Str("userID", user.ID).Str("role", string(role)).Msg("User registered")
	return s.authResponse(user)
}

func (s *authService) Login(req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewUnauthorizedError(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.Password == nil || *user.Password == "" {
		return nil, NewUnauthorizedError(msgSocialLogin)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(req.Password)); err != nil {
		log.Warn().Str("userID", user.ID).Msg("Login failed: wrong password")
		return nil, NewUnauthorizedError(msgInvalidCredentials)
	}
	return s.authResponse(user)
}

func (s *authService) Me(userID string) (*dto.MeResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	var resp dto.MeResponse
	if err := copier.Copy(&resp, user); err != nil {
		return nil, fmt.Errorf("map user: %w", err)
	}
	return &resp, nil
}

func (s *authService) ForgotPassword() error {
	return NewNotImplementedError("Password recovery not implemented yet")
}

func (s *authService) ResetPassword() error {
	return NewNotImplementedError("Password reset not implemented yet")
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *authService) authResponse(user *model.User) (*dto.AuthResponse, error) {
	token, err := IssueToken(s.secret, user.ID, user.Role, s.now(), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &dto.AuthResponse{
		Token: token,
		User:  dto.UserSummary{ID: user.ID, Email: user.Email, Role: user.Role},
	}, nil
}

// IssueToken signs an HS256 token for the user valid for ttl.
func IssueToken(secret []byte, userID string, role model.Role, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates signature, algorithm and expiry of a token.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
