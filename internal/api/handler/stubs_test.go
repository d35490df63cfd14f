package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/api/middleware"
	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

var (
	alice = domain.Identity{UserID: "u-alice", Email: "alice@example.com", Nickname: "alice", Role: domain.RoleUser}
	root  = domain.Identity{UserID: "u-root", Email: "root@example.com", Nickname: "root", Role: domain.RoleAdmin}
)

// newCtx builds an echo context with the validator installed and, when id is
// non-zero, the identity the Auth middleware would have injected.
func newCtx(t *testing.T, method, target string, body io.Reader, id domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id.UserID != "" {
		middleware.SetIdentity(c, id)
	}
	return c, rec
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// ---- Service stubs ----

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (ports.Session, error)
	loginFn    func(ctx context.Context, email, password string) (ports.Session, error)
	meFn       func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (ports.Session, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (ports.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

type stubCatalogService struct {
	listAgentsFn func(ctx context.Context, f ports.AgentFilter, p domain.Page) ([]ports.AgentView, domain.PageInfo, error)
	getAgentFn   func(ctx context.Context, slug string) (ports.AgentView, error)
	listOwnedFn  func(ctx context.Context, userID string, p domain.Page) ([]ports.OwnedAgent, domain.PageInfo, error)
}

func (s *stubCatalogService) ListAgents(ctx context.Context, f ports.AgentFilter, p domain.Page) ([]ports.AgentView, domain.PageInfo, error) {
	return s.listAgentsFn(ctx, f, p)
}

func (s *stubCatalogService) GetAgent(ctx context.Context, slug string) (ports.AgentView, error) {
	return s.getAgentFn(ctx, slug)
}

func (s *stubCatalogService) ListSeries(context.Context, domain.Page) ([]ports.SeriesView, domain.PageInfo, error) {
	return nil, domain.PageInfo{}, nil
}

func (s *stubCatalogService) GetSeries(context.Context, string) (ports.SeriesView, error) {
	return ports.SeriesView{}, domain.ErrSeriesNotFound
}

func (s *stubCatalogService) ListOwned(ctx context.Context, userID string, p domain.Page) ([]ports.OwnedAgent, domain.PageInfo, error) {
	return s.listOwnedFn(ctx, userID, p)
}

type stubExchangeService struct {
	cancelFn  func(ctx context.Context, actor domain.Identity, exchangeID string) error
	proposeFn func(ctx context.Context, actor domain.Identity, exchangeID, agentID string) (*domain.Exchange, error)
}

func (s *stubExchangeService) Create(context.Context, domain.Identity, ports.CreateExchangeInput) (*domain.Exchange, error) {
	return nil, nil
}

func (s *stubExchangeService) ListMine(context.Context, domain.Identity, domain.Page) ([]*domain.Exchange, domain.PageInfo, error) {
	return nil, domain.PageInfo{}, nil
}

func (s *stubExchangeService) Propose(ctx context.Context, actor domain.Identity, exchangeID, agentID string) (*domain.Exchange, error) {
	return s.proposeFn(ctx, actor, exchangeID, agentID)
}

func (s *stubExchangeService) Cancel(ctx context.Context, actor domain.Identity, exchangeID string) error {
	return s.cancelFn(ctx, actor, exchangeID)
}

type stubActivationService struct {
	redeemFn   func(ctx context.Context, actor domain.Identity, code string) (ports.Redemption, error)
	generateFn func(ctx context.Context, actor domain.Identity, in ports.GenerateCodesInput) ([]*domain.ActivationCode, error)
	listFn     func(ctx context.Context, status string, p domain.Page) ([]*domain.ActivationCode, domain.PageInfo, error)
}

func (s *stubActivationService) Redeem(ctx context.Context, actor domain.Identity, code string) (ports.Redemption, error) {
	return s.redeemFn(ctx, actor, code)
}

func (s *stubActivationService) ListByStatus(ctx context.Context, status string, p domain.Page) ([]*domain.ActivationCode, domain.PageInfo, error) {
	return s.listFn(ctx, status, p)
}

func (s *stubActivationService) Generate(ctx context.Context, actor domain.Identity, in ports.GenerateCodesInput) ([]*domain.ActivationCode, error) {
	return s.generateFn(ctx, actor, in)
}

func (s *stubActivationService) ExpireStale(context.Context) (int64, error) { return 0, nil }

type stubOrderService struct {
	createFn     func(ctx context.Context, actor domain.Identity, slug string) (*domain.Order, error)
	transitionFn func(ctx context.Context, actor domain.Identity, id, action string) (*domain.Order, error)
}

func (s *stubOrderService) Create(ctx context.Context, actor domain.Identity, slug string) (*domain.Order, error) {
	return s.createFn(ctx, actor, slug)
}

func (s *stubOrderService) ListMine(context.Context, domain.Identity, domain.Page) ([]*domain.Order, domain.PageInfo, error) {
	return nil, domain.PageInfo{}, nil
}

func (s *stubOrderService) List(context.Context, string, domain.Page) ([]*domain.Order, domain.PageInfo, error) {
	return nil, domain.PageInfo{}, nil
}

func (s *stubOrderService) Transition(ctx context.Context, actor domain.Identity, id, action string) (*domain.Order, error) {
	return s.transitionFn(ctx, actor, id, action)
}

type stubAdminUserService struct {
	listFn       func(ctx context.Context, f ports.UserFilter, p domain.Page) ([]*domain.User, domain.PageInfo, error)
	transitionFn func(ctx context.Context, actor domain.Identity, id, action string) (*domain.User, error)
}

func (s *stubAdminUserService) List(ctx context.Context, f ports.UserFilter, p domain.Page) ([]*domain.User, domain.PageInfo, error) {
	return s.listFn(ctx, f, p)
}

func (s *stubAdminUserService) Transition(ctx context.Context, actor domain.Identity, id, action string) (*domain.User, error) {
	return s.transitionFn(ctx, actor, id, action)
}

type stubUploadService struct {
	uploadFn func(ctx context.Context, actor domain.Identity, in ports.UploadInput) (*domain.Upload, error)
}

func (s *stubUploadService) Upload(ctx context.Context, actor domain.Identity, in ports.UploadInput) (*domain.Upload, error) {
	return s.uploadFn(ctx, actor, in)
}

func (s *stubUploadService) List(context.Context, domain.Page) ([]*domain.Upload, domain.PageInfo, error) {
	return nil, domain.PageInfo{}, nil
}
