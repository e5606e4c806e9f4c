package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"pmtctportal/internal/model"
	"pmtctportal/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for unknown users and bad passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a JWT fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUsernameTaken is returned when creating a duplicate account.
	ErrUsernameTaken = errors.New("username already taken")
)

// AuthService handles login, token issuance, and account management.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*model.LoginResponse, error)
	ValidateToken(tokenString string) (*model.Claims, error)
	CreateUser(ctx context.Context, username, password, role string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type authService struct {
	users     repository.UserRepo
	activity  repository.ActivityRepo
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepo, activity repository.ActivityRepo, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		users:     users,
		activity:  activity,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	_ = s.users.TouchLogin(ctx, user.ID)
	_ = s.activity.Record(ctx, &model.ActivityEntry{
		Username: user.Username,
		Action:   model.ActionLogin,
	})

	return &model.LoginResponse{
		Token:    token,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

func (s *authService) generateToken(user *model.User) (string, error) {
	claims := &model.Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) ValidateToken(tokenString string) (*model.Claims, error) {
	claims := &model.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) CreateUser(ctx context.Context, username, password, role string) (*model.User, error) {
	if role != model.RoleUser && role != model.RoleSuperuser {
		return nil, errors.New("unknown role: " + role)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	_ = s.activity.Record(ctx, &model.ActivityEntry{
		Username: username,
		Action:   model.ActionUserCreated,
	})
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.users.List(ctx)
}

func (s *authService) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}
