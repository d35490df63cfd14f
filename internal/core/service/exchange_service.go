package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

type ExchangeService struct {
	exchanges  ports.ExchangeRepository
	agents     ports.AgentRepository
	userAgents ports.UserAgentRepository
	log        zerolog.Logger
	now        func() time.Time
}

func NewExchangeService(
	exchanges ports.ExchangeRepository,
	agents ports.AgentRepository,
	userAgents ports.UserAgentRepository,
	log zerolog.Logger,
) *ExchangeService {
	return &ExchangeService{
		exchanges:  exchanges,
		agents:     agents,
		userAgents: userAgents,
		log:        log,
		now:        time.Now,
	}
}

// Create lists one of the actor's agents for trade.
func (s *ExchangeService) Create(ctx context.Context, actor domain.Identity, in ports.CreateExchangeInput) (*domain.Exchange, error) {
	if in.OfferedAgentID == "" {
		return nil, domain.Validationf("offeredAgentId is required")
	}
	if in.WantedAgentID != "" {
		if in.WantedAgentID == in.OfferedAgentID {
			return nil, domain.Validationf("wantedAgentId must differ from offeredAgentId")
		}
		if _, err := s.agents.FindByID(ctx, in.WantedAgentID); err != nil {
			return nil, err
		}
	}
	if err := s.requireOwnership(ctx, actor.UserID, in.OfferedAgentID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ex := &domain.Exchange{
		OwnerID:        actor.UserID,
		OfferedAgentID: in.OfferedAgentID,
		WantedAgentID:  in.WantedAgentID,
		Note:           strings.TrimSpace(in.Note),
		Status:         domain.ExchangePending,
		Proposals:      []domain.Proposal{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.exchanges.Create(ctx, ex); err != nil {
		s.log.Error().Err(err).Str("op", "create_exchange").Str("user_id", actor.UserID).Msg("failed to create exchange")
		return nil, err
	}

	s.log.Info().Str("op", "create_exchange").Str("exchange_id", ex.ID).Str("user_id", actor.UserID).Msg("exchange created")
	return ex, nil
}

func (s *ExchangeService) ListMine(ctx context.Context, actor domain.Identity, page domain.Page) ([]*domain.Exchange, domain.PageInfo, error) {
	items, total, err := s.exchanges.ListByOwner(ctx, actor.UserID, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return items, page.Info(total), nil
}

// Propose offers one of the actor's agents against someone else's pending
// exchange.
func (s *ExchangeService) Propose(ctx context.Context, actor domain.Identity, exchangeID, offeredAgentID string) (*domain.Exchange, error) {
	if offeredAgentID == "" {
		return nil, domain.Validationf("offeredAgentId is required")
	}

	ex, err := s.exchanges.FindByID(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if ex.OwnerID == actor.UserID {
		return nil, domain.Forbiddenf("cannot propose on your own exchange")
	}
	if _, err := domain.ExchangeTransitions.Next(ex.Status, domain.ActionPropose); err != nil {
		return nil, err
	}
	for _, p := range ex.Proposals {
		if p.ProposerID == actor.UserID && p.Status == domain.ProposalPending {
			return nil, domain.Conflictf("you already have a pending proposal on this exchange")
		}
	}
	if err := s.requireOwnership(ctx, actor.UserID, offeredAgentID); err != nil {
		return nil, err
	}

	proposal := domain.Proposal{
		ID:             uuid.NewString(),
		ProposerID:     actor.UserID,
		OfferedAgentID: offeredAgentID,
		Status:         domain.ProposalPending,
		CreatedAt:      s.now().UTC(),
	}
	updated, err := s.exchanges.AddProposal(ctx, exchangeID, domain.ExchangePending, proposal)
	if err != nil {
		if errors.Is(err, domain.ErrExchangeNotFound) {
			return nil, s.classifyMiss(ctx, exchangeID, domain.ActionPropose)
		}
		return nil, err
	}

	s.log.Info().Str("op", "propose").Str("exchange_id", exchangeID).Str("user_id", actor.UserID).Msg("proposal submitted")
	return updated, nil
}

// Cancel withdraws a pending exchange that has no pending proposals. Checks
// run in order: existence, ownership, status, blocking proposals. The delete
// itself re-asserts every precondition, so of two racing cancels exactly one
// succeeds.
func (s *ExchangeService) Cancel(ctx context.Context, actor domain.Identity, exchangeID string) error {
	ex, err := s.exchanges.FindByID(ctx, exchangeID)
	if err != nil {
		return err
	}
	if ex.OwnerID != actor.UserID {
		s.log.Info().Str("op", "cancel_exchange").Str("exchange_id", exchangeID).Str("user_id", actor.UserID).Msg("non-owner cancel rejected")
		return domain.Forbiddenf("only the owner can cancel this exchange")
	}
	if err := s.checkCancellable(ex); err != nil {
		return err
	}

	if err := s.exchanges.DeleteCancellable(ctx, exchangeID, actor.UserID, domain.ExchangePending); err != nil {
		if errors.Is(err, domain.ErrExchangeNotFound) {
			return s.classifyMiss(ctx, exchangeID, domain.ActionCancel)
		}
		s.log.Error().Err(err).Str("op", "cancel_exchange").Str("exchange_id", exchangeID).Msg("delete failed")
		return err
	}

	s.log.Info().Str("op", "cancel_exchange").Str("exchange_id", exchangeID).Str("user_id", actor.UserID).Msg("exchange cancelled")
	return nil
}

func (s *ExchangeService) checkCancellable(ex *domain.Exchange) error {
	if _, err := domain.ExchangeTransitions.Next(ex.Status, domain.ActionCancel); err != nil {
		return err
	}
	if n := ex.PendingProposals(); n > 0 {
		return domain.Conflictf("exchange has %d pending proposal(s)", n)
	}
	return nil
}

// classifyMiss explains why a conditional write matched nothing by looking at
// the exchange as it is now.
func (s *ExchangeService) classifyMiss(ctx context.Context, exchangeID string, action domain.Action) error {
	current, err := s.exchanges.FindByID(ctx, exchangeID)
	if err != nil {
		return err
	}
	if action == domain.ActionCancel {
		if err := s.checkCancellable(current); err != nil {
			return err
		}
	} else if _, err := domain.ExchangeTransitions.Next(current.Status, action); err != nil {
		return err
	}
	return domain.Conflictf("exchange changed concurrently, retry")
}

func (s *ExchangeService) requireOwnership(ctx context.Context, userID, agentID string) error {
	owns, err := s.userAgents.Owns(ctx, userID, agentID)
	if err != nil {
		return err
	}
	if !owns {
		return domain.Forbiddenf("you do not own agent %s", agentID)
	}
	return nil
}
