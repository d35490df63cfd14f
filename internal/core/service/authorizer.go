package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

// Authorizer re-reads the user on every call so a ban or demotion applies to
// the next request made with an already issued token.
type Authorizer struct {
	codec ports.SessionCodec
	users ports.UserRepository
	log   zerolog.Logger
}

func NewAuthorizer(codec ports.SessionCodec, users ports.UserRepository, log zerolog.Logger) *Authorizer {
	return &Authorizer{codec: codec, users: users, log: log}
}

// Authorize resolves token to the current identity. required may be empty.
func (a *Authorizer) Authorize(ctx context.Context, token string, required domain.Role) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	claimed, err := a.codec.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}

	user, err := a.users.FindByID(ctx, claimed.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.log.Warn().Str("op", "authorize").Str("user_id", claimed.UserID).Msg("token subject no longer exists")
			return domain.Identity{}, domain.ErrUserNotFound
		}
		return domain.Identity{}, err
	}

	if user.Status == domain.UserBanned {
		a.log.Info().Str("op", "authorize").Str("user_id", user.ID).Msg("banned user rejected")
		return domain.Identity{}, domain.ErrAccountBanned
	}
	if required == domain.RoleAdmin && user.Role != domain.RoleAdmin {
		return domain.Identity{}, domain.ErrInsufficientRole
	}

	return user.Identity(), nil
}
