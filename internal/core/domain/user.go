package domain

import "time"

// Role gates access to administrative routes.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// UserStatus gates all authenticated access.
type UserStatus string

const (
	UserActive UserStatus = "ACTIVE"
	UserBanned UserStatus = "BANNED"
)

var UserStatusTransitions = NewTransitionTable("user",
	Transition[UserStatus]{From: UserActive, Action: ActionBan, To: UserBanned},
	Transition[UserStatus]{From: UserBanned, Action: ActionUnban, To: UserActive},
)

var UserRoleTransitions = NewTransitionTable("user",
	Transition[Role]{From: RoleUser, Action: ActionPromote, To: RoleAdmin},
	Transition[Role]{From: RoleAdmin, Action: ActionDemote, To: RoleUser},
)

// ParseUserAction resolves raw against both user tables. isRole reports that
// the action belongs to UserRoleTransitions rather than UserStatusTransitions.
func ParseUserAction(raw string) (a Action, isRole bool, err error) {
	if a, err := UserStatusTransitions.ParseAction(raw); err == nil {
		return a, false, nil
	}
	if a, err := UserRoleTransitions.ParseAction(raw); err == nil {
		return a, true, nil
	}
	return "", false, Validationf("action must be one of: ban, unban, promote, demote")
}

// User models a registered account.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Nickname     string     `json:"nickname"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Identity is what a session token carries and what the authorization guard
// hands to handlers.
type Identity struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     Role   `json:"role"`
}

func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, Nickname: u.Nickname, Role: u.Role}
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
