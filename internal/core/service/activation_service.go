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

// MaxCodesPerBatch bounds a single Generate call.
const MaxCodesPerBatch = 100

type ActivationService struct {
	codes      ports.ActivationCodeRepository
	agents     ports.AgentRepository
	userAgents ports.UserAgentRepository
	log        zerolog.Logger
	now        func() time.Time
}

func NewActivationService(
	codes ports.ActivationCodeRepository,
	agents ports.AgentRepository,
	userAgents ports.UserAgentRepository,
	log zerolog.Logger,
) *ActivationService {
	return &ActivationService{
		codes:      codes,
		agents:     agents,
		userAgents: userAgents,
		log:        log,
		now:        time.Now,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redeem activates code for the actor and grants the agent it carries.
func (s *ActivationService) Redeem(ctx context.Context, actor domain.Identity, code string) (ports.Redemption, error) {
	code = normalizeCode(code)
	if code == "" {
		return ports.Redemption{}, domain.Validationf("code is required")
	}
	now := s.now().UTC()

	current, err := s.codes.FindByCode(ctx, code)
	if err != nil {
		return ports.Redemption{}, err
	}
	if err := s.checkRedeemable(current, now); err != nil {
		s.log.Info().Err(err).Str("op", "redeem").Str("code", code).Str("user_id", actor.UserID).Msg("redeem rejected")
		return ports.Redemption{}, err
	}
	agent, err := s.agents.FindByID(ctx, current.AgentID)
	if err != nil {
		return ports.Redemption{}, err
	}
	if agent.DeletedAt != nil {
		s.log.Info().Str("op", "redeem").Str("code", code).Str("agent_id", agent.ID).Msg("redeem rejected, agent removed")
		return ports.Redemption{}, domain.ErrAgentGone
	}

	to, _ := domain.ActivationCodeTransitions.Next(domain.CodeUnused, domain.ActionRedeem)
	redeemed, err := s.codes.Redeem(ctx, code, actor.UserID, domain.CodeUnused, to, now)
	if err != nil {
		if !errors.Is(err, domain.ErrActivationCodeNotFound) {
			return ports.Redemption{}, err
		}
		// Lost a race; report what the code looks like now.
		latest, ferr := s.codes.FindByCode(ctx, code)
		if ferr != nil {
			return ports.Redemption{}, ferr
		}
		if cerr := s.checkRedeemable(latest, now); cerr != nil {
			return ports.Redemption{}, cerr
		}
		return ports.Redemption{}, domain.Conflictf("activation code changed concurrently, retry")
	}

	ownership, created, err := s.userAgents.Grant(ctx, actor.UserID, redeemed.AgentID, domain.SourceActivation, now)
	if err != nil {
		s.log.Error().Err(err).Str("op", "redeem").Str("code", code).Str("user_id", actor.UserID).
			Str("agent_id", redeemed.AgentID).Msg("code activated but ownership grant failed")
		return ports.Redemption{}, err
	}
	if !created {
		s.log.Info().Str("op", "redeem").Str("code", code).Str("agent_id", redeemed.AgentID).Msg("agent already owned, code consumed")
	}

	s.log.Info().Str("op", "redeem").Str("code", code).Str("user_id", actor.UserID).Str("agent_id", redeemed.AgentID).Msg("activation code redeemed")
	return ports.Redemption{Code: redeemed, Ownership: ownership}, nil
}

func (s *ActivationService) checkRedeemable(c *domain.ActivationCode, now time.Time) error {
	if c.Status == domain.CodeActivated {
		return domain.InvalidStatef("activation code already activated")
	}
	if c.IsExpired(now) {
		return domain.ErrActivationCodeExpired
	}
	if c.AgentID == "" {
		return domain.InvalidStatef("activation code is not bound to an agent")
	}
	_, err := domain.ActivationCodeTransitions.Next(c.Status, domain.ActionRedeem)
	return err
}

func (s *ActivationService) ListByStatus(ctx context.Context, status string, page domain.Page) ([]*domain.ActivationCode, domain.PageInfo, error) {
	st, err := domain.ParseActivationCodeStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	items, total, err := s.codes.ListByStatus(ctx, st, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return items, page.Info(total), nil
}

// Generate mints a batch of unused codes for an agent.
func (s *ActivationService) Generate(ctx context.Context, actor domain.Identity, in ports.GenerateCodesInput) ([]*domain.ActivationCode, error) {
	if in.Count < 1 || in.Count > MaxCodesPerBatch {
		return nil, domain.Validationf("count must be between 1 and %d", MaxCodesPerBatch)
	}
	now := s.now().UTC()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, domain.Validationf("expiresAt must be in the future")
	}

	agent, err := s.agents.FindByID(ctx, in.AgentID)
	if err != nil {
		return nil, err
	}
	if agent.DeletedAt != nil {
		return nil, domain.ErrAgentGone
	}

	codes := make([]*domain.ActivationCode, 0, in.Count)
	for i := 0; i < in.Count; i++ {
		codes = append(codes, &domain.ActivationCode{
			Code:      newActivationCode(),
			AgentID:   agent.ID,
			Status:    domain.CodeUnused,
			ExpiresAt: in.ExpiresAt,
			CreatedAt: now,
		})
	}
	if err := s.codes.InsertMany(ctx, codes); err != nil {
		s.log.Error().Err(err).Str("op", "generate_codes").Str("agent_id", agent.ID).Msg("failed to store codes")
		return nil, err
	}

	s.log.Info().Str("op", "generate_codes").Str("agent_id", agent.ID).Str("user_id", actor.UserID).Int("count", len(codes)).Msg("activation codes generated")
	return codes, nil
}

// ExpireStale marks every unused code past its expiry as expired.
func (s *ActivationService) ExpireStale(ctx context.Context) (int64, error) {
	to, _ := domain.ActivationCodeTransitions.Next(domain.CodeUnused, domain.ActionExpire)
	n, err := s.codes.ExpireBefore(ctx, domain.CodeUnused, to, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Str("op", "expire_codes").Int64("count", n).Msg("expired stale activation codes")
	}
	return n, nil
}

// newActivationCode returns a code like 3F2A-9C1B-77D0-E4A5.
func newActivationCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
	return raw[0:4] + "-" + raw[4:8] + "-" + raw[8:12] + "-" + raw[12:16]
}
