package handler

import "github.com/agentdex/platform/internal/core/domain"

// --- Requests ---

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Nickname string `json:"nickname" validate:"required,min=2,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createOrderRequest struct {
	AgentSlug string `json:"agentSlug" validate:"required"`
}

type transitionRequest struct {
	Action string `json:"action" validate:"required"`
}

type createExchangeRequest struct {
	OfferedAgentID string `json:"offeredAgentId" validate:"required"`
	WantedAgentID  string `json:"wantedAgentId"`
	Note           string `json:"note" validate:"max=500"`
}

type proposeRequest struct {
	OfferedAgentID string `json:"offeredAgentId" validate:"required"`
}

type cancelExchangeRequest struct {
	ExchangeID string `json:"exchangeId" validate:"required"`
}

type redeemRequest struct {
	Code string `json:"code" validate:"required"`
}

type generateCodesRequest struct {
	AgentID   string `json:"agentId" validate:"required"`
	Count     int    `json:"count" validate:"required,min=1,max=100"`
	ExpiresAt string `json:"expiresAt"` // RFC 3339, optional
}

// --- Responses ---

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	User domain.Identity `json:"user"`
}

type abilityResponse struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Level       int    `json:"level,omitempty"`
}

type agentResponse struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Rarity      string            `json:"rarity"`
	Price       int64             `json:"price"`
	SeriesID    string            `json:"seriesId,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	Abilities   []abilityResponse `json:"abilities"`
	CreatedAt   string            `json:"createdAt"`
}

type agentListResponse struct {
	Agents     []agentResponse `json:"agents"`
	Pagination domain.PageInfo `json:"pagination"`
}

type seriesResponse struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CoverImage  string          `json:"coverImage,omitempty"`
	Agents      []agentResponse `json:"agents"`
	CreatedAt   string          `json:"createdAt"`
}

type seriesListResponse struct {
	Series     []seriesResponse `json:"series"`
	Pagination domain.PageInfo  `json:"pagination"`
}

type ownedAgentResponse struct {
	ID          string         `json:"id"`
	AgentID     string         `json:"agentId"`
	Source      string         `json:"source"`
	ActivatedAt string         `json:"activatedAt"`
	Agent       *agentResponse `json:"agent"`
}

type ownedAgentListResponse struct {
	UserAgents []ownedAgentResponse `json:"userAgents"`
	Pagination domain.PageInfo      `json:"pagination"`
}

type orderResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	AgentID   string `json:"agentId"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	Pagination domain.PageInfo `json:"pagination"`
}

type proposalResponse struct {
	ID             string `json:"id"`
	ProposerID     string `json:"proposerId"`
	OfferedAgentID string `json:"offeredAgentId"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

type exchangeResponse struct {
	ID             string             `json:"id"`
	OwnerID        string             `json:"ownerId"`
	OfferedAgentID string             `json:"offeredAgentId"`
	WantedAgentID  string             `json:"wantedAgentId,omitempty"`
	Note           string             `json:"note,omitempty"`
	Status         string             `json:"status"`
	Proposals      []proposalResponse `json:"proposals"`
	CreatedAt      string             `json:"createdAt"`
	UpdatedAt      string             `json:"updatedAt"`
}

type exchangeListResponse struct {
	Exchanges  []exchangeResponse `json:"exchanges"`
	Pagination domain.PageInfo    `json:"pagination"`
}

type activationCodeResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	AgentID     string `json:"agentId"`
	Status      string `json:"status"`
	ActivatedBy string `json:"activatedBy,omitempty"`
	ActivatedAt string `json:"activatedAt,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

type activationCodeListResponse struct {
	Codes      []activationCodeResponse `json:"codes"`
	Pagination domain.PageInfo          `json:"pagination"`
}

type generatedCodesResponse struct {
	Codes []activationCodeResponse `json:"codes"`
}

type redeemResponse struct {
	Code      activationCodeResponse `json:"code"`
	UserAgent ownedAgentResponse     `json:"userAgent"`
}

type adminUserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type adminUserListResponse struct {
	Users      []adminUserResponse `json:"users"`
	Pagination domain.PageInfo     `json:"pagination"`
}

type uploadResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	CreatedAt   string `json:"createdAt"`
}

type uploadListResponse struct {
	Uploads    []uploadResponse `json:"uploads"`
	Pagination domain.PageInfo  `json:"pagination"`
}

type defaultConfigResponse struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	BaseURL          string `json:"baseUrl,omitempty"`
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
}
