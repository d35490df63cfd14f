package domain

import "time"

type ExchangeStatus string

const (
	ExchangePending   ExchangeStatus = "PENDING"
	ExchangeCompleted ExchangeStatus = "COMPLETED"
	ExchangeCancelled ExchangeStatus = "CANCELLED"
)

// Cancelling a pending exchange deletes it; CANCELLED is the logical target
// and is only reported, never stored. Proposing leaves the exchange pending.
var ExchangeTransitions = NewTransitionTable("exchange",
	Transition[ExchangeStatus]{From: ExchangePending, Action: ActionCancel, To: ExchangeCancelled},
	Transition[ExchangeStatus]{From: ExchangePending, Action: ActionPropose, To: ExchangePending},
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "PENDING"
	ProposalAccepted ProposalStatus = "ACCEPTED"
	ProposalRejected ProposalStatus = "REJECTED"
)

// Proposal is an offer submitted against an exchange.
type Proposal struct {
	ID             string
	ProposerID     string
	OfferedAgentID string
	Status         ProposalStatus
	CreatedAt      time.Time
}

// Exchange is a user-to-user trade listing.
type Exchange struct {
	ID             string
	OwnerID        string
	OfferedAgentID string
	WantedAgentID  string
	Note           string
	Status         ExchangeStatus
	Proposals      []Proposal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PendingProposals counts proposals still awaiting a decision.
func (e *Exchange) PendingProposals() int {
	n := 0
	for _, p := range e.Proposals {
		if p.Status == ProposalPending {
			n++
		}
	}
	return n
}
