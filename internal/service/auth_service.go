package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tailor-backend/internal/cache"
	"tailor-backend/internal/model"
	"tailor-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

const minPasswordLength = 6

// DTOs for Request validation
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthService registers dashboard users and issues bearer tokens.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest, callerRole string) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	CurrentUser(ctx context.Context, userID string) (*UserResponse, error)
	EnsureAdmin(ctx context.Context, username, password string) error
}

type authService struct {
	repo   repository.UserRepository
	guard  cache.LoginGuard
	secret []byte
	now    func() time.Time
}

func NewAuthService(repo repository.UserRepository, guard cache.LoginGuard, secret string) AuthService {
	return &authService{repo: repo, guard: guard, secret: []byte(secret), now: time.Now}
}

// Register creates a user. Only an authenticated admin may create another admin.
func (s *authService) Register(ctx context.Context, req RegisterRequest, callerRole string) (*TokenResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, validationError("username is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	switch role {
	case "":
		role = model.RoleUser
	case model.RoleUser:
	case model.RoleAdmin:
		if callerRole != model.RoleAdmin {
			return nil, &Error{Kind: ErrForbidden, Msg: "only an admin can create admin users"}
		}
	default:
		return nil, validationError("role must be %s or %s", model.RoleAdmin, model.RoleUser)
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, conflictError("user %s already exists", username)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, lookupError(err, "user")
	}

	user, err := s.createUser(ctx, username, req.Password, role)
	if err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

func (s *authService) createUser(ctx context.Context, username, password, role string) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{Username: username, Password: string(hashed), Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, writeError(err, "create user")
	}
	return user, nil
}

// Login verifies credentials. Repeated failures block the username for a while;
// guard outages are logged and do not block logins.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	username := strings.TrimSpace(req.Username)

	blocked, err := s.guard.Blocked(ctx, username)
	if err != nil {
		log.Printf("Warning: login guard unavailable: %v", err)
	}
	if blocked {
		return nil, unauthorizedError("too many failed login attempts, try again later")
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, lookupError(err, "user")
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		if guardErr := s.guard.RecordFailure(ctx, username); guardErr != nil {
			log.Printf("Warning: failed to record login failure: %v", guardErr)
		}
		return nil, unauthorizedError("invalid username or password")
	}

	if err := s.guard.Reset(ctx, username); err != nil {
		log.Printf("Warning: failed to reset login attempts: %v", err)
	}
	return s.issueToken(user)
}

func (s *authService) issueToken(user *model.User) (*TokenResponse, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(TokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &TokenResponse{Token: signed}, nil
}

func (s *authService) CurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, unauthorizedError("invalid token subject")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	return &UserResponse{ID: user.ID, Username: user.Username, Role: user.Role, CreatedAt: user.CreatedAt}, nil
}

// EnsureAdmin seeds the initial admin account when it does not exist yet.
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}
	if _, err := s.createUser(ctx, username, password, model.RoleAdmin); err != nil {
		return err
	}
	log.Printf("Seeded admin user %q", username)
	return nil
}
