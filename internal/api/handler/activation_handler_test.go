package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

func TestActivationHandler_Redeem(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubActivationService{
		redeemFn: func(_ context.Context, actor domain.Identity, code string) (ports.Redemption, error) {
			if code != "abcd-1234" {
				t.Fatalf("code should reach the service untouched, got %q", code)
			}
			return ports.Redemption{
				Code:      &domain.ActivationCode{ID: "c1", Code: "ABCD-1234", AgentID: "a1", Status: domain.CodeActivated, ActivatedBy: actor.UserID, ActivatedAt: &now},
				Ownership: &domain.UserAgent{ID: "ua1", UserID: actor.UserID, AgentID: "a1", Source: domain.SourceActivation, ActivatedAt: now},
			}, nil
		},
	}
	h := NewActivationHandler(stub)

	c, rec := newCtx(t, http.MethodPost, "/activation-codes/redeem", jsonBody(`{"code":"abcd-1234"}`), alice)
	if err := h.Redeem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	var resp redeemResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Code.Status != "ACTIVATED" || resp.UserAgent.Source != "ACTIVATION" || resp.Code.ActivatedAt != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestActivationHandler_Redeem_Expired(t *testing.T) {
	stub := &stubActivationService{
		redeemFn: func(context.Context, domain.Identity, string) (ports.Redemption, error) {
			return ports.Redemption{}, domain.ErrActivationCodeExpired
		},
	}
	h := NewActivationHandler(stub)

	c, _ := newCtx(t, http.MethodPost, "/activation-codes/redeem", jsonBody(`{"code":"X"}`), alice)
	if err := h.Redeem(c); !errors.Is(err, domain.ErrGone) {
		t.Fatalf("expected Gone, got %v", err)
	}
}

func TestActivationHandler_Generate(t *testing.T) {
	var got ports.GenerateCodesInput
	stub := &stubActivationService{
		generateFn: func(_ context.Context, _ domain.Identity, in ports.GenerateCodesInput) ([]*domain.ActivationCode, error) {
			got = in
			out := make([]*domain.ActivationCode, in.Count)
			for i := range out {
				out[i] = &domain.ActivationCode{Code: "C", AgentID: in.AgentID, Status: domain.CodeUnused, ExpiresAt: in.ExpiresAt}
			}
			return out, nil
		},
	}
	h := NewActivationHandler(stub)

	c, rec := newCtx(t, http.MethodPost, "/admin/activation-codes",
		jsonBody(`{"agentId":"a1","count":3,"expiresAt":"2030-01-01T00:00:00Z"}`), root)
	if err := h.Generate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusCreated)
	if got.Count != 3 || got.ExpiresAt == nil || got.ExpiresAt.Year() != 2030 {
		t.Fatalf("unexpected input: %+v", got)
	}

	var resp generatedCodesResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Codes) != 3 {
		t.Fatalf("expected 3 codes, got %d", len(resp.Codes))
	}
}

func TestActivationHandler_Generate_Validation(t *testing.T) {
	h := NewActivationHandler(&stubActivationService{})

	for _, body := range []string{
		`{"agentId":"a1","count":0}`,
		`{"agentId":"a1","count":101}`,
		`{"agentId":"a1","count":1,"expiresAt":"tomorrow"}`,
	} {
		c, _ := newCtx(t, http.MethodPost, "/admin/activation-codes", jsonBody(body), root)
		if err := h.Generate(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ValidationError, got %v", body, err)
		}
	}
}

func TestActivationHandler_ListByStatus(t *testing.T) {
	stub := &stubActivationService{
		listFn: func(_ context.Context, status string, p domain.Page) ([]*domain.ActivationCode, domain.PageInfo, error) {
			if status != "unused" {
				t.Fatalf("unexpected status %q", status)
			}
			return []*domain.ActivationCode{{Code: "C1", Status: domain.CodeUnused}}, p.Info(1), nil
		},
	}
	h := NewActivationHandler(stub)

	c, rec := newCtx(t, http.MethodGet, "/activation-codes/status/unused", nil, domain.Identity{})
	c.SetParamNames("status")
	c.SetParamValues("unused")
	if err := h.ListByStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)
}
