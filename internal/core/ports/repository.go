package ports

import (
	"context"
	"time"

	"github.com/agentdex/platform/internal/core/domain"
)

// Conditional writes (UpdateStatus, UpdateRole, Redeem, DeleteCancellable, ...)
// apply only when the stored document still matches the expected source state.
// When nothing matches they return the entity's NotFound error; the caller
// reloads to tell a vanished document from one whose state moved.

// UserFilter narrows the admin user listing. Empty fields are ignored.
type UserFilter struct {
	Role   domain.Role
	Status domain.UserStatus
	Search string // substring of email or nickname, case-insensitive
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter, page domain.Page) ([]*domain.User, int64, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.UserStatus) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, from, to domain.Role) (*domain.User, error)
}

// AgentFilter narrows the public catalog listing. Soft-deleted and inactive
// agents are always excluded by the repository.
type AgentFilter struct {
	Rarity   domain.Rarity
	SeriesID string
	Keyword  string // case-insensitive substring of name or description
	Sort     domain.AgentSort
}

type AgentRepository interface {
	List(ctx context.Context, filter AgentFilter, page domain.Page) ([]*domain.Agent, int64, error)
	// FindBySlug and FindByID return the agent in any state; callers decide
	// whether a deleted or inactive agent is visible.
	FindBySlug(ctx context.Context, slug string) (*domain.Agent, error)
	FindByID(ctx context.Context, id string) (*domain.Agent, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Agent, error)
}

type SeriesRepository interface {
	ListPublic(ctx context.Context, page domain.Page) ([]*domain.Series, int64, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Series, error)
}

// UserAgentRepository records agent ownership.
type UserAgentRepository interface {
	// Grant records ownership idempotently. created is false when the user
	// already owned the agent.
	Grant(ctx context.Context, userID, agentID string, source domain.OwnershipSource, at time.Time) (ua *domain.UserAgent, created bool, err error)
	Owns(ctx context.Context, userID, agentID string) (bool, error)
	// Revoke removes the ownership if it was granted with source. removed is
	// false when there was nothing matching to delete.
	Revoke(ctx context.Context, userID, agentID string, source domain.OwnershipSource) (removed bool, err error)
	ListByUser(ctx context.Context, userID string, page domain.Page) ([]*domain.UserAgent, int64, error)
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	UserID string
	Status domain.OrderStatus
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter, page domain.Page) ([]*domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (*domain.Order, error)
}

type ExchangeRepository interface {
	Create(ctx context.Context, ex *domain.Exchange) error
	FindByID(ctx context.Context, id string) (*domain.Exchange, error)
	ListByOwner(ctx context.Context, ownerID string, page domain.Page) ([]*domain.Exchange, int64, error)
	// AddProposal appends p while the exchange is still in status.
	AddProposal(ctx context.Context, id string, status domain.ExchangeStatus, p domain.Proposal) (*domain.Exchange, error)
	// DeleteCancellable removes the exchange only if it is owned by ownerID,
	// still in status and has no pending proposals, in one atomic operation.
	DeleteCancellable(ctx context.Context, id, ownerID string, status domain.ExchangeStatus) error
}

type ActivationCodeRepository interface {
	InsertMany(ctx context.Context, codes []*domain.ActivationCode) error
	FindByCode(ctx context.Context, code string) (*domain.ActivationCode, error)
	ListByStatus(ctx context.Context, status domain.ActivationCodeStatus, page domain.Page) ([]*domain.ActivationCode, int64, error)
	// Redeem moves an unexpired code from one status to another for userID.
	Redeem(ctx context.Context, code, userID string, from, to domain.ActivationCodeStatus, now time.Time) (*domain.ActivationCode, error)
	// ExpireBefore moves every code in from whose expiry is not after now.
	ExpireBefore(ctx context.Context, from, to domain.ActivationCodeStatus, now time.Time) (int64, error)
}

type UploadRepository interface {
	Create(ctx context.Context, u *domain.Upload) error
	List(ctx context.Context, page domain.Page) ([]*domain.Upload, int64, error)
}
