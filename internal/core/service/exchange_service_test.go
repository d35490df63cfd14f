package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

var (
	owner    = domain.Identity{UserID: "owner", Role: domain.RoleUser}
	stranger = domain.Identity{UserID: "stranger", Role: domain.RoleUser}
)

func pendingExchange(id string, proposals ...domain.Proposal) *domain.Exchange {
	return &domain.Exchange{
		ID:             id,
		OwnerID:        owner.UserID,
		OfferedAgentID: "agent-1",
		Status:         domain.ExchangePending,
		Proposals:      proposals,
	}
}

func newExchangeFixture(exchanges ...*domain.Exchange) (*ExchangeService, *stubExchangeRepo, *stubUserAgentRepo) {
	repo := newStubExchangeRepo(exchanges...)
	agents := newStubAgentRepo(
		&domain.Agent{ID: "agent-1", Slug: "one", IsActive: true},
		&domain.Agent{ID: "agent-2", Slug: "two", IsActive: true},
	)
	owned := newStubUserAgentRepo()
	owned.give(owner.UserID, "agent-1")
	owned.give(stranger.UserID, "agent-2")
	return NewExchangeService(repo, agents, owned, zerolog.Nop()), repo, owned
}

// ---- Cancel ----

func TestExchangeService_Cancel_Success(t *testing.T) {
	svc, repo, _ := newExchangeFixture(pendingExchange("ex-1",
		domain.Proposal{ID: "p1", Status: domain.ProposalRejected},
	))

	if err := svc.Cancel(context.Background(), owner, "ex-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if repo.exists("ex-1") {
		t.Fatal("exchange should be deleted")
	}
}

func TestExchangeService_Cancel_PendingProposalConflict(t *testing.T) {
	svc, repo, _ := newExchangeFixture(pendingExchange("ex-1",
		domain.Proposal{ID: "p1", Status: domain.ProposalPending},
	))

	err := svc.Cancel(context.Background(), owner, "ex-1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err.Error() != "exchange has 1 pending proposal(s)" {
		t.Fatalf("expected count in message, got %q", err.Error())
	}
	if !repo.exists("ex-1") {
		t.Fatal("exchange must still exist")
	}
}

func TestExchangeService_Cancel_NonOwnerForbiddenRegardlessOfStatus(t *testing.T) {
	completed := pendingExchange("ex-2")
	completed.Status = domain.ExchangeCompleted
	blocked := pendingExchange("ex-3", domain.Proposal{ID: "p", Status: domain.ProposalPending})

	svc, _, _ := newExchangeFixture(pendingExchange("ex-1"), completed, blocked)

	for _, id := range []string{"ex-1", "ex-2", "ex-3"} {
		if err := svc.Cancel(context.Background(), stranger, id); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("%s: expected ErrForbidden, got %v", id, err)
		}
	}
}

func TestExchangeService_Cancel_NotPending(t *testing.T) {
	completed := pendingExchange("ex-1")
	completed.Status = domain.ExchangeCompleted
	svc, repo, _ := newExchangeFixture(completed)

	if err := svc.Cancel(context.Background(), owner, "ex-1"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if !repo.exists("ex-1") {
		t.Fatal("exchange must still exist")
	}
}

func TestExchangeService_Cancel_NotFound(t *testing.T) {
	svc, _, _ := newExchangeFixture()
	if err := svc.Cancel(context.Background(), owner, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExchangeService_Cancel_ProposalArrivesBeforeDelete(t *testing.T) {
	svc, repo, _ := newExchangeFixture(pendingExchange("ex-1"))
	repo.beforeDelete = func() {
		repo.beforeDelete = nil
		_, _ = repo.AddProposal(context.Background(), "ex-1", domain.ExchangePending,
			domain.Proposal{ID: "late", ProposerID: stranger.UserID, Status: domain.ProposalPending})
	}

	if err := svc.Cancel(context.Background(), owner, "ex-1"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if !repo.exists("ex-1") {
		t.Fatal("exchange must still exist")
	}
}

func TestExchangeService_Cancel_Concurrent(t *testing.T) {
	for round := 0; round < 50; round++ {
		svc, repo, _ := newExchangeFixture(pendingExchange("ex-1"))

		// Hold both cancels at the delete until both have passed their checks.
		var arrived sync.WaitGroup
		arrived.Add(2)
		repo.beforeDelete = func() {
			arrived.Done()
			arrived.Wait()
		}

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = svc.Cancel(context.Background(), owner, "ex-1")
			}(i)
		}
		wg.Wait()

		var ok, rejected int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidState):
				rejected++
			default:
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}
		if ok != 1 || rejected != 1 {
			t.Fatalf("round %d: expected one success and one rejection, got %d/%d (%v)", round, ok, rejected, errs)
		}
		if repo.exists("ex-1") {
			t.Fatalf("round %d: exchange should be deleted", round)
		}
	}
}

// ---- Create / Propose ----

func TestExchangeService_Create(t *testing.T) {
	svc, _, _ := newExchangeFixture()

	ex, err := svc.Create(context.Background(), owner, ports.CreateExchangeInput{OfferedAgentID: "agent-1", WantedAgentID: "agent-2", Note: " swap? "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ex.Status != domain.ExchangePending || ex.OwnerID != owner.UserID || ex.Note != "swap?" {
		t.Fatalf("unexpected exchange: %+v", ex)
	}

	if _, err := svc.Create(context.Background(), owner, ports.CreateExchangeInput{OfferedAgentID: "agent-2"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("offering an agent not owned: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Create(context.Background(), owner, ports.CreateExchangeInput{OfferedAgentID: "agent-1", WantedAgentID: "nope"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown wanted agent: expected ErrNotFound, got %v", err)
	}
}

func TestExchangeService_Propose(t *testing.T) {
	svc, _, _ := newExchangeFixture(pendingExchange("ex-1"))

	ex, err := svc.Propose(context.Background(), stranger, "ex-1", "agent-2")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if ex.PendingProposals() != 1 || ex.Proposals[0].ProposerID != stranger.UserID {
		t.Fatalf("unexpected proposals: %+v", ex.Proposals)
	}

	if _, err := svc.Propose(context.Background(), stranger, "ex-1", "agent-2"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second pending proposal: expected ErrConflict, got %v", err)
	}
	if _, err := svc.Propose(context.Background(), owner, "ex-1", "agent-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("owner proposing: expected ErrForbidden, got %v", err)
	}

	if err := svc.Cancel(context.Background(), owner, "ex-1"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("cancel with pending proposal: expected ErrConflict, got %v", err)
	}
}

func TestExchangeService_Propose_NotPending(t *testing.T) {
	completed := pendingExchange("ex-1")
	completed.Status = domain.ExchangeCompleted
	svc, _, _ := newExchangeFixture(completed)

	if _, err := svc.Propose(context.Background(), stranger, "ex-1", "agent-2"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestExchangeService_ListMine(t *testing.T) {
	other := pendingExchange("ex-9")
	other.OwnerID = stranger.UserID
	svc, _, _ := newExchangeFixture(pendingExchange("ex-1"), pendingExchange("ex-2"), other)

	items, info, err := svc.ListMine(context.Background(), owner, domain.NewPage(1, 0))
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(items) != 1 || info.Total != 2 || !info.HasMore {
		t.Fatalf("unexpected page: %d items, %+v", len(items), info)
	}
}
