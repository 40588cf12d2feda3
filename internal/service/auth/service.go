package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-desk-api/internal/email"
	"github.com/jwalitptl/clinic-desk-api/internal/model"
	"github.com/jwalitptl/clinic-desk-api/internal/repository"
	"github.com/jwalitptl/clinic-desk-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-desk-api/pkg/errors"
	"github.com/jwalitptl/clinic-desk-api/pkg/logger"
	"github.com/jwalitptl/clinic-desk-api/pkg/security"
)

const (
	profileCacheTTL     = 15 * time.Minute
	profileCacheCleanup = time.Hour
)

type AuthService interface {
	Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
	Profile(ctx context.Context, claims *auth.Claims) *model.User
}

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	emailSvc email.Service
	profiles *cache.Cache
	logger   *logger.Logger
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService,
	hasher security.PasswordHasher, emailSvc email.Service, logger *logger.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		emailSvc: emailSvc,
		profiles: cache.New(profileCacheTTL, profileCacheCleanup),
		logger:   logger,
	}
}

func (s *Service) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	role := model.Role(req.Role)
	if !role.Valid() {
		return nil, apperrors.BadRequest("role must be doctor or receptionist", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.BadRequest(err.Error(), nil)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		ID:           uuid.New(),
		Role:         role,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if role == model.RoleDoctor && req.Specialization != "" {
		user.Specialization = &req.Specialization
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	// Best effort, a mail failure must not fail the signup.
	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.logger.Error(err, "failed to send welcome email", "email", user.Email)
	}

	s.logger.Info("staff account created", "user_id", user.ID.String(), "role", string(user.Role))
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials", err)
	}

	token, err := s.jwtSvc.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}

	s.logger.Info("login successful", "user_id", user.ID.String(), "role", string(user.Role))
	return &model.TokenResponse{Token: token, User: user}, nil
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token", err)
	}
	return claims, nil
}

// Profile resolves the signed-in user's stored profile for the
// dashboard header. A lookup failure degrades to an empty name, it
// never blocks access.
func (s *Service) Profile(ctx context.Context, claims *auth.Claims) *model.User {
	if cached, ok := s.profiles.Get(claims.UserID.String()); ok {
		return cached.(*model.User)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		s.logger.Error(err, "failed to load profile, name unknown", "user_id", claims.UserID.String())
		return &model.User{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  model.Role(claims.Role),
		}
	}

	s.profiles.Set(claims.UserID.String(), user, cache.DefaultExpiration)
	return user
}
