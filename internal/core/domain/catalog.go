package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Ability is one entry of an agent's serialized ability list.
type Ability struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level,omitempty"`
}

// Agent is a catalog item a user can own after activation or purchase.
type Agent struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Rarity      Rarity
	Price       int64 // minor currency units
	SeriesID    string
	ImageURL    string
	// Abilities is stored serialized; use DecodeAbilities before exposing it.
	Abilities string
	IsActive  bool
	DeletedAt *time.Time
	CreatedAt time.Time
}

// IsPublic reports whether the agent may appear in public listings.
func (a *Agent) IsPublic() bool {
	return a.DeletedAt == nil && a.IsActive
}

// DecodeAbilities deserializes the stored ability list. An empty value is an
// empty list; anything unparsable is a data-integrity fault.
func (a *Agent) DecodeAbilities() ([]Ability, error) {
	raw := strings.TrimSpace(a.Abilities)
	if raw == "" || raw == "null" {
		return []Ability{}, nil
	}
	var out []Ability
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: agent %s abilities: %v", ErrDataIntegrity, a.ID, err)
	}
	return out, nil
}

// Series is a named grouping of agents for merchandising.
type Series struct {
	ID          string
	Slug        string
	Name        string
	Description string
	CoverImage  string
	IsActive    bool
	DeletedAt   *time.Time
	CreatedAt   time.Time
}

func (s *Series) IsPublic() bool {
	return s.DeletedAt == nil && s.IsActive
}

// AgentSort enumerates the catalog sort keys.
type AgentSort string

const (
	SortNewest    AgentSort = "newest"
	SortPriceAsc  AgentSort = "price_asc"
	SortPriceDesc AgentSort = "price_desc"
)

// ParseAgentSort maps a query value to a sort key; empty means newest first.
func ParseAgentSort(s string) (AgentSort, error) {
	switch AgentSort(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortPriceAsc:
		return SortPriceAsc, nil
	case SortPriceDesc:
		return SortPriceDesc, nil
	}
	return "", Validationf("sort must be one of: newest, price_asc, price_desc")
}

// OwnershipSource records how a user came to own an agent.
type OwnershipSource string

const (
	SourceActivation OwnershipSource = "ACTIVATION"
	SourcePurchase   OwnershipSource = "PURCHASE"
)

// UserAgent is an activated agent owned by a user.
type UserAgent struct {
	ID          string
	UserID      string
	AgentID     string
	Source      OwnershipSource
	ActivatedAt time.Time
}
