package ports

import (
	"context"
	"io"
	"time"

	"github.com/agentdex/platform/internal/core/domain"
)

// ---- Auth ----

type RegisterInput struct {
	Email    string
	Nickname string
	Password string
}

// Session is a signed token together with the identity it carries.
type Session struct {
	Token    string
	Identity domain.Identity
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

// Authorizer resolves a session token to the acting identity and enforces
// role and account status against the current stored user.
type Authorizer interface {
	Authorize(ctx context.Context, token string, required domain.Role) (domain.Identity, error)
}

// ---- Catalog ----

// AgentView is an agent with its abilities decoded.
type AgentView struct {
	Agent     *domain.Agent
	Abilities []domain.Ability
}

type SeriesView struct {
	Series *domain.Series
	Agents []AgentView
}

// OwnedAgent is an ownership record with its agent attached. Agent is nil
// when the agent document no longer exists.
type OwnedAgent struct {
	Ownership *domain.UserAgent
	Agent     *AgentView
}

type CatalogService interface {
	ListAgents(ctx context.Context, filter AgentFilter, page domain.Page) ([]AgentView, domain.PageInfo, error)
	GetAgent(ctx context.Context, slug string) (AgentView, error)
	ListSeries(ctx context.Context, page domain.Page) ([]SeriesView, domain.PageInfo, error)
	GetSeries(ctx context.Context, slug string) (SeriesView, error)
	ListOwned(ctx context.Context, userID string, page domain.Page) ([]OwnedAgent, domain.PageInfo, error)
}

// ---- Exchange ----

type CreateExchangeInput struct {
	OfferedAgentID string
	WantedAgentID  string
	Note           string
}

type ExchangeService interface {
	Create(ctx context.Context, actor domain.Identity, in CreateExchangeInput) (*domain.Exchange, error)
	ListMine(ctx context.Context, actor domain.Identity, page domain.Page) ([]*domain.Exchange, domain.PageInfo, error)
	Propose(ctx context.Context, actor domain.Identity, exchangeID, offeredAgentID string) (*domain.Exchange, error)
	Cancel(ctx context.Context, actor domain.Identity, exchangeID string) error
}

// ---- Activation codes ----

type GenerateCodesInput struct {
	AgentID   string
	Count     int
	ExpiresAt *time.Time
}

// Redemption is the outcome of a successful code redemption.
type Redemption struct {
	Code      *domain.ActivationCode
	Ownership *domain.UserAgent
}

type ActivationService interface {
	Redeem(ctx context.Context, actor domain.Identity, code string) (Redemption, error)
	ListByStatus(ctx context.Context, status string, page domain.Page) ([]*domain.ActivationCode, domain.PageInfo, error)
	Generate(ctx context.Context, actor domain.Identity, in GenerateCodesInput) ([]*domain.ActivationCode, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// ---- Orders ----

type OrderService interface {
	Create(ctx context.Context, actor domain.Identity, agentSlug string) (*domain.Order, error)
	ListMine(ctx context.Context, actor domain.Identity, page domain.Page) ([]*domain.Order, domain.PageInfo, error)
	List(ctx context.Context, status string, page domain.Page) ([]*domain.Order, domain.PageInfo, error)
	Transition(ctx context.Context, actor domain.Identity, orderID string, action string) (*domain.Order, error)
}

// ---- Admin users ----

type AdminUserService interface {
	List(ctx context.Context, filter UserFilter, page domain.Page) ([]*domain.User, domain.PageInfo, error)
	Transition(ctx context.Context, actor domain.Identity, userID string, action string) (*domain.User, error)
}

// ---- Uploads ----

type UploadInput struct {
	Filename    string
	ContentType string // as declared by the client; may be empty
	Size        int64
	Body        io.Reader
}

type UploadService interface {
	Upload(ctx context.Context, actor domain.Identity, in UploadInput) (*domain.Upload, error)
	List(ctx context.Context, page domain.Page) ([]*domain.Upload, domain.PageInfo, error)
}
