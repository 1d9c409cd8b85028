package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/henrychris/EventManagement/internal/clock"
	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/internal/dto"
	"github.com/henrychris/EventManagement/internal/repository"
	"github.com/henrychris/EventManagement/pkg/config"
	"github.com/henrychris/EventManagement/pkg/logger"
)

type authService struct {
	users  repository.UserRepository
	jwtCfg config.JWTConfig
	clock  clock.Clock
	log    *logger.Logger
}

// NewAuthService creates the authentication service.
func NewAuthService(users repository.UserRepository, jwtCfg config.JWTConfig, c clock.Clock) AuthService {
	if c == nil {
		c = clock.NewSystem()
	}
	return &authService{
		users:  users,
		jwtCfg: jwtCfg,
		clock:  c,
		log:    logger.Get(),
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	role := domain.RoleUser
	switch domain.Role(req.Role) {
	case domain.RoleOrganiser:
		role = domain.RoleOrganiser
	case domain.RoleUser, "":
		role = domain.RoleUser
	default:
		// admin cannot be self-assigned at registration
		role = domain.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can win between the existence check and
		// the insert; the repository reports that as ErrDuplicateEmail.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	// A missing account and a wrong password are indistinguishable to the
	// caller.
	if user == nil {
		return nil, domain.ErrLoginFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrLoginFailed
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID))
	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *domain.User) (*dto.AuthResponse, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtCfg.AccessTokenTTL.Seconds()),
		User:        dto.ToUserResponse(user),
	}, nil
}

func (s *authService) generateToken(user *domain.User) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"iss":     s.jwtCfg.Issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(s.jwtCfg.AccessTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.Secret))
}

func (s *authService) ValidateToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Claims{
		UserID: userID,
		Email:  email,
		Role:   domain.Role(role),
	}, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	resp := dto.ToUserResponse(user)
	return &resp, nil
}
