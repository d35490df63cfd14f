package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

// ---- Users ----

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		clone := *u
		r.users[u.ID] = &clone
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[created.ID] = created
	return cloneUser(created), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter, page domain.Page) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, page), int64(len(out)), nil
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, id string, from, to domain.UserStatus) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Status != from {
		return nil, domain.ErrUserNotFound
	}
	u.Status = to
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id string, from, to domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Role != from {
		return nil, domain.ErrUserNotFound
	}
	u.Role = to
	return cloneUser(u), nil
}

func (r *stubUserRepo) set(id string, mutate func(*domain.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mutate(r.users[id])
}

// ---- Catalog ----

type stubAgentRepo struct {
	agents map[string]*domain.Agent
}

func newStubAgentRepo(agents ...*domain.Agent) *stubAgentRepo {
	r := &stubAgentRepo{agents: make(map[string]*domain.Agent)}
	for _, a := range agents {
		r.agents[a.ID] = a
	}
	return r
}

func (r *stubAgentRepo) List(_ context.Context, f ports.AgentFilter, page domain.Page) ([]*domain.Agent, int64, error) {
	var out []*domain.Agent
	for _, a := range r.agents {
		if !a.IsPublic() {
			continue
		}
		if f.Rarity != "" && a.Rarity != f.Rarity {
			continue
		}
		if f.SeriesID != "" && a.SeriesID != f.SeriesID {
			continue
		}
		if f.Keyword != "" {
			kw := strings.ToLower(f.Keyword)
			if !strings.Contains(strings.ToLower(a.Name), kw) && !strings.Contains(strings.ToLower(a.Description), kw) {
				continue
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		switch f.Sort {
		case domain.SortPriceAsc:
			return out[i].Price < out[j].Price
		case domain.SortPriceDesc:
			return out[i].Price > out[j].Price
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return window(out, page), int64(len(out)), nil
}

func (r *stubAgentRepo) FindBySlug(_ context.Context, slug string) (*domain.Agent, error) {
	for _, a := range r.agents {
		if a.Slug == slug {
			return a, nil
		}
	}
	return nil, domain.ErrAgentNotFound
}

func (r *stubAgentRepo) FindByID(_ context.Context, id string) (*domain.Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	return a, nil
}

func (r *stubAgentRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.Agent, error) {
	out := make(map[string]*domain.Agent, len(ids))
	for _, id := range ids {
		if a, ok := r.agents[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

type stubSeriesRepo struct {
	series []*domain.Series
}

func (r *stubSeriesRepo) ListPublic(_ context.Context, page domain.Page) ([]*domain.Series, int64, error) {
	var out []*domain.Series
	for _, s := range r.series {
		if s.IsPublic() {
			out = append(out, s)
		}
	}
	return window(out, page), int64(len(out)), nil
}

func (r *stubSeriesRepo) FindBySlug(_ context.Context, slug string) (*domain.Series, error) {
	for _, s := range r.series {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, domain.ErrSeriesNotFound
}

// ---- Ownership ----

type stubUserAgentRepo struct {
	mu    sync.Mutex
	owned map[string]*domain.UserAgent // key: user|agent
	err   error
}

func newStubUserAgentRepo() *stubUserAgentRepo {
	return &stubUserAgentRepo{owned: make(map[string]*domain.UserAgent)}
}

func (r *stubUserAgentRepo) give(userID, agentID string) {
	r.owned[userID+"|"+agentID] = &domain.UserAgent{ID: userID + "|" + agentID, UserID: userID, AgentID: agentID, Source: domain.SourceActivation}
}

func (r *stubUserAgentRepo) Grant(_ context.Context, userID, agentID string, source domain.OwnershipSource, at time.Time) (*domain.UserAgent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, false, r.err
	}
	key := userID + "|" + agentID
	if ua, ok := r.owned[key]; ok {
		return ua, false, nil
	}
	ua := &domain.UserAgent{ID: key, UserID: userID, AgentID: agentID, Source: source, ActivatedAt: at}
	r.owned[key] = ua
	return ua, true, nil
}

func (r *stubUserAgentRepo) Owns(_ context.Context, userID, agentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.owned[userID+"|"+agentID]
	return ok, nil
}

func (r *stubUserAgentRepo) Revoke(_ context.Context, userID, agentID string, source domain.OwnershipSource) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := userID + "|" + agentID
	ua, ok := r.owned[key]
	if !ok || ua.Source != source {
		return false, nil
	}
	delete(r.owned, key)
	return true, nil
}

func (r *stubUserAgentRepo) ListByUser(_ context.Context, userID string, page domain.Page) ([]*domain.UserAgent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.UserAgent
	for _, ua := range r.owned {
		if ua.UserID == userID {
			out = append(out, ua)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, page), int64(len(out)), nil
}

// ---- Exchanges ----

// stubExchangeRepo serializes every call so conditional writes behave like
// single-document atomic operations.
type stubExchangeRepo struct {
	mu        sync.Mutex
	exchanges map[string]*domain.Exchange
	seq       int
	// beforeDelete runs inside DeleteCancellable before the condition is
	// evaluated, without the lock held.
	beforeDelete func()
}

func newStubExchangeRepo(exchanges ...*domain.Exchange) *stubExchangeRepo {
	r := &stubExchangeRepo{exchanges: make(map[string]*domain.Exchange)}
	for _, ex := range exchanges {
		r.exchanges[ex.ID] = cloneExchange(ex)
	}
	return r
}

func cloneExchange(ex *domain.Exchange) *domain.Exchange {
	clone := *ex
	clone.Proposals = append([]domain.Proposal(nil), ex.Proposals...)
	return &clone
}

func (r *stubExchangeRepo) Create(_ context.Context, ex *domain.Exchange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ex.ID = fmt.Sprintf("ex-%d", r.seq)
	r.exchanges[ex.ID] = cloneExchange(ex)
	return nil
}

func (r *stubExchangeRepo) FindByID(_ context.Context, id string) (*domain.Exchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exchanges[id]
	if !ok {
		return nil, domain.ErrExchangeNotFound
	}
	return cloneExchange(ex), nil
}

func (r *stubExchangeRepo) ListByOwner(_ context.Context, ownerID string, page domain.Page) ([]*domain.Exchange, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Exchange
	for _, ex := range r.exchanges {
		if ex.OwnerID == ownerID {
			out = append(out, cloneExchange(ex))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, page), int64(len(out)), nil
}

func (r *stubExchangeRepo) AddProposal(_ context.Context, id string, status domain.ExchangeStatus, p domain.Proposal) (*domain.Exchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exchanges[id]
	if !ok || ex.Status != status {
		return nil, domain.ErrExchangeNotFound
	}
	ex.Proposals = append(ex.Proposals, p)
	return cloneExchange(ex), nil
}

func (r *stubExchangeRepo) DeleteCancellable(_ context.Context, id, ownerID string, status domain.ExchangeStatus) error {
	if r.beforeDelete != nil {
		r.beforeDelete()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exchanges[id]
	if !ok || ex.OwnerID != ownerID || ex.Status != status || ex.PendingProposals() > 0 {
		return domain.ErrExchangeNotFound
	}
	delete(r.exchanges, id)
	return nil
}

func (r *stubExchangeRepo) exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.exchanges[id]
	return ok
}

// ---- Activation codes ----

type stubCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*domain.ActivationCode
	// redeemMiss forces Redeem to miss once, emulating a concurrent writer.
	redeemMiss func(c *domain.ActivationCode)
}

func newStubCodeRepo(codes ...*domain.ActivationCode) *stubCodeRepo {
	r := &stubCodeRepo{codes: make(map[string]*domain.ActivationCode)}
	for _, c := range codes {
		clone := *c
		r.codes[c.Code] = &clone
	}
	return r
}

func (r *stubCodeRepo) InsertMany(_ context.Context, codes []*domain.ActivationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range codes {
		if _, dup := r.codes[c.Code]; dup {
			return errors.New("duplicate code")
		}
		c.ID = fmt.Sprintf("code-%d", len(r.codes)+i)
		clone := *c
		r.codes[c.Code] = &clone
	}
	return nil
}

func (r *stubCodeRepo) FindByCode(_ context.Context, code string) (*domain.ActivationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if !ok {
		return nil, domain.ErrActivationCodeNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCodeRepo) ListByStatus(_ context.Context, status domain.ActivationCodeStatus, page domain.Page) ([]*domain.ActivationCode, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ActivationCode
	for _, c := range r.codes {
		if c.Status == status {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return window(out, page), int64(len(out)), nil
}

func (r *stubCodeRepo) Redeem(_ context.Context, code, userID string, from, to domain.ActivationCodeStatus, now time.Time) (*domain.ActivationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if ok && r.redeemMiss != nil {
		r.redeemMiss(c)
		r.redeemMiss = nil
	}
	if !ok || c.Status != from || (c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)) {
		return nil, domain.ErrActivationCodeNotFound
	}
	c.Status = to
	c.ActivatedBy = userID
	c.ActivatedAt = &now
	clone := *c
	return &clone, nil
}

func (r *stubCodeRepo) ExpireBefore(_ context.Context, from, to domain.ActivationCodeStatus, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.codes {
		if c.Status == from && c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
			c.Status = to
			n++
		}
	}
	return n, nil
}

// ---- Orders ----

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	seq    int
}

func newStubOrderRepo(orders ...*domain.Order) *stubOrderRepo {
	r := &stubOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		clone := *o
		r.orders[o.ID] = &clone
	}
	return r
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	o.ID = fmt.Sprintf("order-%d", r.seq)
	clone := *o
	r.orders[o.ID] = &clone
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *stubOrderRepo) List(_ context.Context, f ports.OrderFilter, page domain.Page) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		clone := *o
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, page), int64(len(out)), nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return nil, domain.ErrOrderNotFound
	}
	o.Status = to
	o.UpdatedAt = at
	clone := *o
	return &clone, nil
}

// ---- Uploads ----

type stubUploadRepo struct {
	uploads []*domain.Upload
}

func (r *stubUploadRepo) Create(_ context.Context, u *domain.Upload) error {
	u.ID = fmt.Sprintf("upload-%d", len(r.uploads)+1)
	r.uploads = append(r.uploads, u)
	return nil
}

func (r *stubUploadRepo) List(_ context.Context, page domain.Page) ([]*domain.Upload, int64, error) {
	return window(r.uploads, page), int64(len(r.uploads)), nil
}

type stubObjectStore struct {
	puts []ports.StoredObject
	body []byte
	err  error
}

func (s *stubObjectStore) Put(_ context.Context, key string, r io.Reader, size int64, _ string) (ports.StoredObject, error) {
	if s.err != nil {
		return ports.StoredObject{}, s.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return ports.StoredObject{}, err
	}
	s.body = body
	obj := ports.StoredObject{Bucket: "media", Key: key, URL: "http://minio.local/media/" + key, Size: size}
	s.puts = append(s.puts, obj)
	return obj, nil
}

// ---- Throttle ----

type stubThrottle struct {
	failures map[string]int
	limit    int
	err      error
}

func newStubThrottle(limit int) *stubThrottle {
	return &stubThrottle{failures: make(map[string]int), limit: limit}
}

func (t *stubThrottle) Blocked(_ context.Context, email string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.failures[email] >= t.limit, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, email string) error {
	if t.err != nil {
		return t.err
	}
	t.failures[email]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, email string) error {
	delete(t.failures, email)
	return nil
}

// ---- Helpers ----

func window[T any](items []T, page domain.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }
