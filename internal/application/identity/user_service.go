package identity

import (
	"context"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/auth"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLastOwner is returned when a change would leave the tenant without an active owner
var ErrLastOwner = shared.WrapDomainError(shared.ErrInvalidState.Code, "A tenant needs at least one active owner", shared.ErrInvalidState)

// UserService manages the team of a tenant
type UserService struct {
	tx        shared.TransactionScope
	tenants   identity.TenantRepository
	users     identity.UserRepository
	blacklist auth.TokenBlacklist
	events    shared.EventPublisher
	// sessionTTL bounds how long revoked sessions stay denied
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewUserService creates the service
func NewUserService(
	tx shared.TransactionScope,
	tenants identity.TenantRepository,
	users identity.UserRepository,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		tx:         tx,
		tenants:    tenants,
		users:      users,
		blacklist:  blacklist,
		events:     events,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Invite creates a team member. Managers may add staff and managers;
// only owners may add owners. The plan's user limit applies.
func (s *UserService) Invite(ctx context.Context, actor identity.Actor, in InviteUserInput) (*UserResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	role := identity.Role(in.Role)
	if role == identity.RoleOwner {
		if err := actor.RequireOwner(); err != nil {
			return nil, err
		}
	}
	locations, err := parseLocations(in.LocationIDs)
	if err != nil {
		return nil, err
	}

	var user *identity.User
	err = s.tx.Execute(ctx, func(ctx context.Context) error {
		tenant, err := s.tenants.FindByID(ctx, actor.TenantID)
		if err != nil {
			return err
		}
		active, err := s.users.CountActive(ctx, actor.TenantID)
		if err != nil {
			return err
		}
		if !tenant.CanAddUser(int(active)) {
			return shared.WrapDomainError(shared.ErrPlanLimitExceeded.Code,
				"User limit of the current plan reached", shared.ErrPlanLimitExceeded)
		}

		email, err := identity.NormalizeEmail(in.Email)
		if err != nil {
			return err
		}
		taken, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}

		user, err = identity.NewUser(actor.TenantID, email, in.Name, in.Password, role)
		if err != nil {
			return err
		}
		if err := user.AssignLocations(locations); err != nil {
			return err
		}
		user.SetCreatedBy(actor.UserID)
		return s.users.Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.events, user); err != nil {
		logger.L(ctx).Warn("publish user events", zap.Error(err))
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List returns the team of the caller's tenant
func (s *UserService) List(ctx context.Context, actor identity.Actor, filter shared.Filter) (*shared.Paginated[UserResponse], error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	users, total, err := s.users.FindAll(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToUserResponse(&users[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update changes name, role or locations of a team member
func (s *UserService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, in UpdateUserInput) (*UserResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}

	var user *identity.User
	var roleChanged bool
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.FindByID(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		// managers cannot edit owners
		if user.Role == identity.RoleOwner {
			if err := actor.RequireOwner(); err != nil {
				return err
			}
		}

		if in.Name != nil {
			if err := user.Rename(*in.Name); err != nil {
				return err
			}
		}
		if in.Role != nil && identity.Role(*in.Role) != user.Role {
			role := identity.Role(*in.Role)
			if role == identity.RoleOwner {
				if err := actor.RequireOwner(); err != nil {
					return err
				}
			}
			if user.Role == identity.RoleOwner && user.Active {
				if err := s.ensureAnotherOwner(ctx, actor.TenantID); err != nil {
					return err
				}
			}
			if err := user.ChangeRole(role); err != nil {
				return err
			}
			roleChanged = true
		}
		if in.LocationIDs != nil {
			locations, err := parseLocations(in.LocationIDs)
			if err != nil {
				return err
			}
			if err := user.AssignLocations(locations); err != nil {
				return err
			}
			roleChanged = true
		}
		return s.users.Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	// tokens carry role and locations, so outstanding ones must be reissued
	if roleChanged {
		s.revokeSessions(ctx, user.ID)
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// Deactivate disables a team member and revokes their sessions
func (s *UserService) Deactivate(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	if err := actor.RequireManager(); err != nil {
		return err
	}
	if id == actor.UserID {
		return shared.NewDomainError("CANNOT_DEACTIVATE_SELF", "You cannot deactivate your own account")
	}

	var user *identity.User
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.FindByID(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if user.Role == identity.RoleOwner {
			if err := actor.RequireOwner(); err != nil {
				return err
			}
			if err := s.ensureAnotherOwner(ctx, actor.TenantID); err != nil {
				return err
			}
		}
		if err := user.Deactivate(); err != nil {
			return err
		}
		return s.users.Save(ctx, user)
	})
	if err != nil {
		return err
	}

	s.revokeSessions(ctx, user.ID)
	if err := shared.PublishAndClear(ctx, s.events, user); err != nil {
		logger.L(ctx).Warn("publish user events", zap.Error(err))
	}
	logger.L(ctx).Info("user deactivated", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *UserService) ensureAnotherOwner(ctx context.Context, tenantID uuid.UUID) error {
	owners, err := s.users.CountActiveOwners(ctx, tenantID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return ErrLastOwner
	}
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.sessionTTL); err != nil {
		logger.L(ctx).Error("revoke user sessions", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
