package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

type OrderService struct {
	orders     ports.OrderRepository
	agents     ports.AgentRepository
	userAgents ports.UserAgentRepository
	log        zerolog.Logger
	now        func() time.Time
}

func NewOrderService(
	orders ports.OrderRepository,
	agents ports.AgentRepository,
	userAgents ports.UserAgentRepository,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{orders: orders, agents: agents, userAgents: userAgents, log: log, now: time.Now}
}

// Create opens a pending order for a public agent the actor does not own yet.
func (s *OrderService) Create(ctx context.Context, actor domain.Identity, agentSlug string) (*domain.Order, error) {
	agentSlug = strings.TrimSpace(agentSlug)
	if agentSlug == "" {
		return nil, domain.Validationf("agentSlug is required")
	}

	agent, err := s.agents.FindBySlug(ctx, agentSlug)
	if err != nil {
		return nil, err
	}
	if agent.DeletedAt != nil {
		return nil, domain.ErrAgentGone
	}
	if !agent.IsActive {
		return nil, domain.ErrAgentNotFound
	}

	owns, err := s.userAgents.Owns(ctx, actor.UserID, agent.ID)
	if err != nil {
		return nil, err
	}
	if owns {
		return nil, domain.ErrAlreadyOwned
	}

	now := s.now().UTC()
	order := &domain.Order{
		UserID:    actor.UserID,
		AgentID:   agent.ID,
		Amount:    agent.Price,
		Status:    domain.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error().Err(err).Str("op", "create_order").Str("user_id", actor.UserID).Msg("failed to create order")
		return nil, err
	}

	s.log.Info().Str("op", "create_order").Str("order_id", order.ID).Str("user_id", actor.UserID).Str("agent_id", agent.ID).Msg("order created")
	return order, nil
}

func (s *OrderService) ListMine(ctx context.Context, actor domain.Identity, page domain.Page) ([]*domain.Order, domain.PageInfo, error) {
	return s.list(ctx, ports.OrderFilter{UserID: actor.UserID}, page)
}

// List is the admin view; status may be empty.
func (s *OrderService) List(ctx context.Context, status string, page domain.Page) ([]*domain.Order, domain.PageInfo, error) {
	var filter ports.OrderFilter
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		st, err := domain.ParseOrderStatus(status)
		if err != nil {
			return nil, domain.PageInfo{}, err
		}
		filter.Status = st
	}
	return s.list(ctx, filter, page)
}

func (s *OrderService) list(ctx context.Context, filter ports.OrderFilter, page domain.Page) ([]*domain.Order, domain.PageInfo, error) {
	items, total, err := s.orders.List(ctx, filter, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return items, page.Info(total), nil
}

// Transition applies an admin action (pay, cancel, refund). Paying grants the
// buyer ownership of the agent; refunding takes the purchased ownership back.
func (s *OrderService) Transition(ctx context.Context, actor domain.Identity, orderID string, rawAction string) (*domain.Order, error) {
	action, err := domain.OrderTransitions.ParseAction(strings.ToLower(strings.TrimSpace(rawAction)))
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, err := domain.OrderTransitions.Next(order.Status, action)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated, err := s.orders.UpdateStatus(ctx, orderID, order.Status, next, now)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			latest, ferr := s.orders.FindByID(ctx, orderID)
			if ferr != nil {
				return nil, ferr
			}
			if _, terr := domain.OrderTransitions.Next(latest.Status, action); terr != nil {
				return nil, terr
			}
			return nil, domain.Conflictf("order changed concurrently, retry")
		}
		return nil, err
	}

	switch action {
	case domain.ActionPay:
		if _, _, err := s.userAgents.Grant(ctx, updated.UserID, updated.AgentID, domain.SourcePurchase, now); err != nil {
			s.log.Error().Err(err).Str("op", "order_transition").Str("order_id", orderID).Msg("order paid but ownership grant failed")
			return nil, err
		}
	case domain.ActionRefund:
		// Ownership obtained any other way (activation code) is kept.
		removed, err := s.userAgents.Revoke(ctx, updated.UserID, updated.AgentID, domain.SourcePurchase)
		if err != nil {
			s.log.Error().Err(err).Str("op", "order_transition").Str("order_id", orderID).Msg("order refunded but ownership revoke failed")
			return nil, err
		}
		if !removed {
			s.log.Info().Str("op", "order_transition").Str("order_id", orderID).Msg("refund left ownership from another source in place")
		}
	}

	s.log.Info().Str("op", "order_transition").Str("order_id", orderID).Str("action", string(action)).
		Str("from", string(order.Status)).Str("to", string(next)).Str("admin_id", actor.UserID).Msg("order transitioned")
	return updated, nil
}
