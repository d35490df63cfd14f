package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

// AdminUserService lists accounts and applies ban/unban/promote/demote.
type AdminUserService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewAdminUserService(users ports.UserRepository, log zerolog.Logger) *AdminUserService {
	return &AdminUserService{users: users, log: log}
}

func (s *AdminUserService) List(ctx context.Context, filter ports.UserFilter, page domain.Page) ([]*domain.User, domain.PageInfo, error) {
	switch filter.Role {
	case "", domain.RoleUser, domain.RoleAdmin:
	default:
		return nil, domain.PageInfo{}, domain.Validationf("role must be one of: USER, ADMIN")
	}
	switch filter.Status {
	case "", domain.UserActive, domain.UserBanned:
	default:
		return nil, domain.PageInfo{}, domain.Validationf("status must be one of: ACTIVE, BANNED")
	}
	filter.Search = strings.TrimSpace(filter.Search)

	items, total, err := s.users.List(ctx, filter, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return items, page.Info(total), nil
}

// Transition applies action to the target user. Status actions go through
// UserStatusTransitions and role actions through UserRoleTransitions; both
// are written conditionally on the value read.
func (s *AdminUserService) Transition(ctx context.Context, actor domain.Identity, userID string, rawAction string) (*domain.User, error) {
	action, isRole, err := domain.ParseUserAction(strings.ToLower(strings.TrimSpace(rawAction)))
	if err != nil {
		return nil, err
	}

	if userID == actor.UserID && (action == domain.ActionBan || action == domain.ActionDemote) {
		return nil, domain.Forbiddenf("administrators cannot %s themselves", action)
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var updated *domain.User
	if !isRole {
		next, err := domain.UserStatusTransitions.Next(target.Status, action)
		if err != nil {
			return nil, err
		}
		updated, err = s.users.UpdateStatus(ctx, userID, target.Status, next)
		if err != nil {
			return nil, s.classifyMiss(ctx, userID, action, err)
		}
	} else {
		next, err := domain.UserRoleTransitions.Next(target.Role, action)
		if err != nil {
			return nil, err
		}
		updated, err = s.users.UpdateRole(ctx, userID, target.Role, next)
		if err != nil {
			return nil, s.classifyMiss(ctx, userID, action, err)
		}
	}

	s.log.Info().Str("op", "user_transition").Str("user_id", userID).Str("action", string(action)).Str("admin_id", actor.UserID).Msg("user updated")
	return updated, nil
}

func (s *AdminUserService) classifyMiss(ctx context.Context, userID string, action domain.Action, err error) error {
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	latest, ferr := s.users.FindByID(ctx, userID)
	if ferr != nil {
		return ferr
	}
	if _, serr := domain.UserStatusTransitions.Next(latest.Status, action); serr == nil {
		return domain.Conflictf("user changed concurrently, retry")
	}
	if _, rerr := domain.UserRoleTransitions.Next(latest.Role, action); rerr == nil {
		return domain.Conflictf("user changed concurrently, retry")
	}
	return domain.InvalidStatef("cannot %s user in its current state", action)
}
