package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

// CatalogService serves the public agent and series catalog and the caller's
// owned agents.
type CatalogService struct {
	agents     ports.AgentRepository
	series     ports.SeriesRepository
	userAgents ports.UserAgentRepository
	log        zerolog.Logger
}

func NewCatalogService(
	agents ports.AgentRepository,
	series ports.SeriesRepository,
	userAgents ports.UserAgentRepository,
	log zerolog.Logger,
) *CatalogService {
	return &CatalogService{agents: agents, series: series, userAgents: userAgents, log: log}
}

func (s *CatalogService) ListAgents(ctx context.Context, filter ports.AgentFilter, page domain.Page) ([]ports.AgentView, domain.PageInfo, error) {
	if filter.Rarity != "" && !filter.Rarity.Valid() {
		return nil, domain.PageInfo{}, domain.Validationf("rarity must be one of: COMMON, RARE, EPIC, LEGENDARY")
	}
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	if filter.Sort == "" {
		filter.Sort = domain.SortNewest
	}

	agents, total, err := s.agents.List(ctx, filter, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	views, err := s.views(agents)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return views, page.Info(total), nil
}

// GetAgent returns a public agent by slug. A soft-deleted agent is Gone; an
// inactive one is reported as not found.
func (s *CatalogService) GetAgent(ctx context.Context, slug string) (ports.AgentView, error) {
	agent, err := s.agents.FindBySlug(ctx, slug)
	if err != nil {
		return ports.AgentView{}, err
	}
	if agent.DeletedAt != nil {
		return ports.AgentView{}, domain.ErrAgentGone
	}
	if !agent.IsActive {
		return ports.AgentView{}, domain.ErrAgentNotFound
	}
	return s.view(agent)
}

func (s *CatalogService) ListSeries(ctx context.Context, page domain.Page) ([]ports.SeriesView, domain.PageInfo, error) {
	series, total, err := s.series.ListPublic(ctx, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	out := make([]ports.SeriesView, 0, len(series))
	for _, sr := range series {
		v, err := s.seriesView(ctx, sr)
		if err != nil {
			return nil, domain.PageInfo{}, err
		}
		out = append(out, v)
	}
	return out, page.Info(total), nil
}

func (s *CatalogService) GetSeries(ctx context.Context, slug string) (ports.SeriesView, error) {
	sr, err := s.series.FindBySlug(ctx, slug)
	if err != nil {
		return ports.SeriesView{}, err
	}
	if sr.DeletedAt != nil {
		return ports.SeriesView{}, domain.ErrSeriesGone
	}
	if !sr.IsActive {
		return ports.SeriesView{}, domain.ErrSeriesNotFound
	}
	return s.seriesView(ctx, sr)
}

// ListOwned lists the caller's agents. Ownership outlives the catalog entry,
// so soft-deleted agents are still returned.
func (s *CatalogService) ListOwned(ctx context.Context, userID string, page domain.Page) ([]ports.OwnedAgent, domain.PageInfo, error) {
	owned, total, err := s.userAgents.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	ids := make([]string, 0, len(owned))
	for _, ua := range owned {
		ids = append(ids, ua.AgentID)
	}
	agents, err := s.agents.FindByIDs(ctx, ids)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	out := make([]ports.OwnedAgent, 0, len(owned))
	for _, ua := range owned {
		item := ports.OwnedAgent{Ownership: ua}
		if agent, ok := agents[ua.AgentID]; ok {
			v, err := s.view(agent)
			if err != nil {
				return nil, domain.PageInfo{}, err
			}
			item.Agent = &v
		} else {
			s.log.Warn().Str("op", "list_owned").Str("user_id", userID).Str("agent_id", ua.AgentID).Msg("owned agent missing from catalog")
		}
		out = append(out, item)
	}
	return out, page.Info(total), nil
}

// seriesView nests every public agent of the series, reading the catalog in
// MaxPageLimit chunks.
func (s *CatalogService) seriesView(ctx context.Context, sr *domain.Series) (ports.SeriesView, error) {
	filter := ports.AgentFilter{SeriesID: sr.ID, Sort: domain.SortNewest}
	var agents []*domain.Agent
	for page := domain.NewPage(domain.MaxPageLimit, 0); ; page.Offset += page.Limit {
		batch, total, err := s.agents.List(ctx, filter, page)
		if err != nil {
			return ports.SeriesView{}, err
		}
		agents = append(agents, batch...)
		if len(batch) == 0 || int64(page.Offset+len(batch)) >= total {
			break
		}
	}
	views, err := s.views(agents)
	if err != nil {
		return ports.SeriesView{}, err
	}
	return ports.SeriesView{Series: sr, Agents: views}, nil
}

func (s *CatalogService) views(agents []*domain.Agent) ([]ports.AgentView, error) {
	out := make([]ports.AgentView, 0, len(agents))
	for _, a := range agents {
		v, err := s.view(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *CatalogService) view(a *domain.Agent) (ports.AgentView, error) {
	abilities, err := a.DecodeAbilities()
	if err != nil {
		if errors.Is(err, domain.ErrDataIntegrity) {
			s.log.Error().Err(err).Str("op", "decode_abilities").Str("agent_id", a.ID).Msg("stored abilities are malformed")
		}
		return ports.AgentView{}, err
	}
	return ports.AgentView{Agent: a, Abilities: abilities}, nil
}
