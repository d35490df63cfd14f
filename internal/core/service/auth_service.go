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

// AuthService implements registration and login.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	codec    ports.SessionCodec
	throttle ports.LoginThrottle
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService wires the auth flow. throttle may be nil, which disables
// login throttling.
func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	codec ports.SessionCodec,
	throttle ports.LoginThrottle,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		codec:    codec,
		throttle: throttle,
		log:      log,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (ports.Session, error) {
	email := normalizeEmail(in.Email)
	nickname := strings.TrimSpace(in.Nickname)
	if email == "" || nickname == "" || in.Password == "" {
		return ports.Session{}, domain.Validationf("email, nickname and password are required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return ports.Session{}, err
	}

	now := s.now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       domain.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			s.log.Info().Str("op", "register").Str("email", email).Msg("email already registered")
		}
		return ports.Session{}, err
	}

	s.log.Info().Str("op", "register").Str("user_id", user.ID).Msg("user registered")
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (ports.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return ports.Session{}, domain.Validationf("email and password are required")
	}

	if s.throttle != nil {
		blocked, err := s.throttle.Blocked(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Str("op", "login").Msg("login throttle unavailable")
		} else if blocked {
			return ports.Session{}, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.recordFailure(ctx, email)
			return ports.Session{}, domain.ErrInvalidCredentials
		}
		return ports.Session{}, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.recordFailure(ctx, email)
		s.log.Info().Str("op", "login").Str("user_id", user.ID).Msg("password mismatch")
		return ports.Session{}, domain.ErrInvalidCredentials
	}

	if user.Status == domain.UserBanned {
		return ports.Session{}, domain.ErrAccountBanned
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Str("op", "login").Msg("failed to reset login throttle")
		}
	}

	return s.session(user)
}

// Me returns the stored user behind an authorized identity.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) session(user *domain.User) (ports.Session, error) {
	id := user.Identity()
	token, err := s.codec.Issue(id)
	if err != nil {
		return ports.Session{}, err
	}
	return ports.Session{Token: token, Identity: id}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("op", "login").Msg("failed to record login failure")
	}
}
