// Package identity implements sign-up, authentication and team management.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/auth"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong
	ErrInvalidCredentials = shared.WrapDomainError(shared.ErrUnauthorized.Code, "Invalid email or password", shared.ErrUnauthorized)
	ErrEmailTaken         = shared.WrapDomainError(shared.ErrAlreadyExists.Code, "Email is already registered", shared.ErrAlreadyExists)
	ErrSessionRevoked     = shared.WrapDomainError(shared.ErrUnauthorized.Code, "Session has been revoked", shared.ErrUnauthorized)
	ErrTenantSuspended    = shared.WrapDomainError(shared.ErrForbidden.Code, "Account is suspended", shared.ErrForbidden)
)

const (
	defaultBranchName = "Main"
	defaultBranchCode = "MAIN"
)

// AuthService handles sign-up and the token lifecycle
type AuthService struct {
	tx        shared.TransactionScope
	tenants   identity.TenantRepository
	users     identity.UserRepository
	branches  location.Repository
	tokens    *auth.JWTService
	blacklist auth.TokenBlacklist
	events    shared.EventPublisher
	trialDays int
	now       func() time.Time
	logger    *zap.Logger
}

// NewAuthService creates the service
func NewAuthService(
	tx shared.TransactionScope,
	tenants identity.TenantRepository,
	users identity.UserRepository,
	branches location.Repository,
	tokens *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	trialDays int,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		tx:        tx,
		tenants:   tenants,
		users:     users,
		branches:  branches,
		tokens:    tokens,
		blacklist: blacklist,
		events:    events,
		trialDays: trialDays,
		now:       time.Now,
		logger:    logger,
	}
}

// SignUp creates the tenant, its default branch and the owner in one
// transaction, then signs the owner in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*SessionResponse, error) {
	email, err := identity.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	var (
		tenant *identity.Tenant
		branch *location.Branch
		owner  *identity.User
	)
	err = s.tx.Execute(ctx, func(ctx context.Context) error {
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}

		tenant, err = identity.NewTrialTenant(in.TenantName, email, s.trialDays)
		if err != nil {
			return err
		}
		if tenant.Slug, err = s.uniqueSlug(ctx, tenant.Slug); err != nil {
			return err
		}
		if err := s.tenants.Save(ctx, tenant); err != nil {
			return err
		}

		branch, err = location.NewBranch(tenant.ID, defaultBranchName, defaultBranchCode)
		if err != nil {
			return err
		}
		if err := s.branches.Save(ctx, branch); err != nil {
			return err
		}

		owner, err = identity.NewUser(tenant.ID, email, in.OwnerName, in.Password, identity.RoleOwner)
		if err != nil {
			return err
		}
		if err := owner.AssignLocations([]shared.LocationID{branch.LocationID()}); err != nil {
			return err
		}
		owner.RecordLogin(s.now())
		return s.users.Save(ctx, owner)
	})
	if err != nil {
		return nil, err
	}

	for _, agg := range []shared.AggregateRoot{tenant, branch, owner} {
		if err := shared.PublishAndClear(ctx, s.events, agg); err != nil {
			logger.L(ctx).Warn("publish sign-up events", zap.Error(err))
		}
	}
	logger.L(ctx).Info("tenant signed up",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug))

	return s.session(owner, tenant)
}

// uniqueSlug appends -2, -3 ... until the slug is free
func (s *AuthService) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for n := 2; ; n++ {
		exists, err := s.tenants.ExistsBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

// Login authenticates by email and password
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*SessionResponse, error) {
	email, err := identity.NormalizeEmail(in.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active || !user.CheckPassword(in.Password) {
		logger.L(ctx).Warn("login rejected", zap.String("user_id", user.ID.String()), zap.Bool("active", user.Active))
		return nil, ErrInvalidCredentials
	}

	tenant, err := s.tenants.FindByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsOperational() {
		return nil, ErrTenantSuspended
	}

	user.RecordLogin(s.now())
	if err := s.users.Save(ctx, user); err != nil {
		logger.L(ctx).Warn("record login time", zap.Error(err))
	}
	return s.session(user, tenant)
}

// Refresh rotates a refresh token. The old refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (*SessionResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.TenantUUID(), claims.UserUUID())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrSessionRevoked
	}
	tenant, err := s.tenants.FindByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsOperational() {
		return nil, ErrTenantSuspended
	}

	pair, err := s.tokens.Refresh(in.RefreshToken, auth.SubjectOf(user))
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
		logger.L(ctx).Warn("revoke rotated refresh token", zap.Error(err))
	}
	return &SessionResponse{Tokens: pair, User: ToUserResponse(user), Tenant: ToTenantResponse(tenant)}, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, in LogoutInput) error {
	now := s.now()
	if in.AccessClaims != nil {
		if err := s.blacklist.Revoke(ctx, in.AccessClaims.ID, in.AccessClaims.RemainingTTL(now)); err != nil {
			return err
		}
	}
	if in.RefreshToken == "" {
		return nil
	}
	claims, err := s.tokens.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		// an unusable refresh token needs no revocation
		return nil
	}
	if in.AccessClaims != nil && claims.UserID != in.AccessClaims.UserID {
		return shared.ErrForbidden
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(now))
}

// Me returns the caller and their tenant
func (s *AuthService) Me(ctx context.Context, actor identity.Actor) (*MeResponse, error) {
	user, err := s.users.FindByID(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenants.FindByID(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	return &MeResponse{User: ToUserResponse(user), Tenant: ToTenantResponse(tenant)}, nil
}

// CheckAccessToken validates an access token and its revocation state
func (s *AuthService) CheckAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return ErrSessionRevoked
	}
	return nil
}

func (s *AuthService) session(user *identity.User, tenant *identity.Tenant) (*SessionResponse, error) {
	pair, err := s.tokens.Issue(auth.SubjectOf(user))
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	return &SessionResponse{Tokens: pair, User: ToUserResponse(user), Tenant: ToTenantResponse(tenant)}, nil
}

// tokenError turns token validation failures into 401 domain errors
func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.WrapDomainError("TOKEN_EXPIRED", "Token has expired", err)
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.WrapDomainError("TOKEN_MAX_REFRESH", "Session is too old, sign in again", err)
	default:
		return shared.WrapDomainError(shared.ErrUnauthorized.Code, "Invalid token", err)
	}
}
