package domain

import "time"

type ActivationCodeStatus string

const (
	CodeUnused    ActivationCodeStatus = "UNUSED"
	CodeActivated ActivationCodeStatus = "ACTIVATED"
	CodeExpired   ActivationCodeStatus = "EXPIRED"
)

var ActivationCodeTransitions = NewTransitionTable("activation code",
	Transition[ActivationCodeStatus]{From: CodeUnused, Action: ActionRedeem, To: CodeActivated},
	Transition[ActivationCodeStatus]{From: CodeUnused, Action: ActionExpire, To: CodeExpired},
)

// ParseActivationCodeStatus accepts only the three known statuses.
func ParseActivationCodeStatus(s string) (ActivationCodeStatus, error) {
	switch st := ActivationCodeStatus(s); st {
	case CodeUnused, CodeActivated, CodeExpired:
		return st, nil
	}
	return "", Validationf("status must be one of: UNUSED, ACTIVATED, EXPIRED")
}

// ActivationCode is a redeemable token granting ownership of an agent.
type ActivationCode struct {
	ID          string
	Code        string
	AgentID     string
	Status      ActivationCodeStatus
	ActivatedBy string
	ActivatedAt *time.Time
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}

// IsExpired reports whether the code is expired at now, either by status or
// by its expiry timestamp.
func (c *ActivationCode) IsExpired(now time.Time) bool {
	if c.Status == CodeExpired {
		return true
	}
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
