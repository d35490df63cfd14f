package handler

import (
	"time"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

// --- Domain → Response ---

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func toAgentResponse(v ports.AgentView) agentResponse {
	a := v.Agent
	abilities := make([]abilityResponse, 0, len(v.Abilities))
	for _, ab := range v.Abilities {
		abilities = append(abilities, abilityResponse(ab))
	}
	return agentResponse{
		ID:          a.ID,
		Slug:        a.Slug,
		Name:        a.Name,
		Description: a.Description,
		Rarity:      string(a.Rarity),
		Price:       a.Price,
		SeriesID:    a.SeriesID,
		ImageURL:    a.ImageURL,
		Abilities:   abilities,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}

func toAgentResponses(views []ports.AgentView) []agentResponse {
	out := make([]agentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toAgentResponse(v))
	}
	return out
}

func toSeriesResponse(v ports.SeriesView) seriesResponse {
	s := v.Series
	return seriesResponse{
		ID:          s.ID,
		Slug:        s.Slug,
		Name:        s.Name,
		Description: s.Description,
		CoverImage:  s.CoverImage,
		Agents:      toAgentResponses(v.Agents),
		CreatedAt:   formatTime(s.CreatedAt),
	}
}

func toOwnedAgentResponse(o ports.OwnedAgent) ownedAgentResponse {
	resp := ownedAgentResponse{
		ID:          o.Ownership.ID,
		AgentID:     o.Ownership.AgentID,
		Source:      string(o.Ownership.Source),
		ActivatedAt: formatTime(o.Ownership.ActivatedAt),
	}
	if o.Agent != nil {
		a := toAgentResponse(*o.Agent)
		resp.Agent = &a
	}
	return resp
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		AgentID:   o.AgentID,
		Amount:    o.Amount,
		Status:    string(o.Status),
		CreatedAt: formatTime(o.CreatedAt),
		UpdatedAt: formatTime(o.UpdatedAt),
	}
}

func toOrderResponses(orders []*domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func toExchangeResponse(x *domain.Exchange) exchangeResponse {
	proposals := make([]proposalResponse, 0, len(x.Proposals))
	for _, p := range x.Proposals {
		proposals = append(proposals, proposalResponse{
			ID:             p.ID,
			ProposerID:     p.ProposerID,
			OfferedAgentID: p.OfferedAgentID,
			Status:         string(p.Status),
			CreatedAt:      formatTime(p.CreatedAt),
		})
	}
	return exchangeResponse{
		ID:             x.ID,
		OwnerID:        x.OwnerID,
		OfferedAgentID: x.OfferedAgentID,
		WantedAgentID:  x.WantedAgentID,
		Note:           x.Note,
		Status:         string(x.Status),
		Proposals:      proposals,
		CreatedAt:      formatTime(x.CreatedAt),
		UpdatedAt:      formatTime(x.UpdatedAt),
	}
}

func toActivationCodeResponse(ac *domain.ActivationCode) activationCodeResponse {
	return activationCodeResponse{
		ID:          ac.ID,
		Code:        ac.Code,
		AgentID:     ac.AgentID,
		Status:      string(ac.Status),
		ActivatedBy: ac.ActivatedBy,
		ActivatedAt: formatTimePtr(ac.ActivatedAt),
		ExpiresAt:   formatTimePtr(ac.ExpiresAt),
		CreatedAt:   formatTime(ac.CreatedAt),
	}
}

func toActivationCodeResponses(codes []*domain.ActivationCode) []activationCodeResponse {
	out := make([]activationCodeResponse, 0, len(codes))
	for _, ac := range codes {
		out = append(out, toActivationCodeResponse(ac))
	}
	return out
}

func toAdminUserResponse(u *domain.User) adminUserResponse {
	return adminUserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Nickname:  u.Nickname,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
}

func toUploadResponse(u *domain.Upload) uploadResponse {
	return uploadResponse{
		ID:          u.ID,
		URL:         u.URL,
		Key:         u.ObjectKey,
		ContentType: u.ContentType,
		Size:        u.SizeBytes,
		CreatedAt:   formatTime(u.CreatedAt),
	}
}
