package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/agentdex/platform/internal/core/domain"
)

func TestOrderHandler_Create(t *testing.T) {
	stub := &stubOrderService{
		createFn: func(_ context.Context, actor domain.Identity, slug string) (*domain.Order, error) {
			return &domain.Order{ID: "o1", UserID: actor.UserID, AgentID: "a1", Amount: 500, Status: domain.OrderPending}, nil
		},
	}
	h := NewOrderHandler(stub)

	c, rec := newCtx(t, http.MethodPost, "/orders", jsonBody(`{"agentSlug":"nova"}`), alice)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusCreated)

	c, _ = newCtx(t, http.MethodPost, "/orders", jsonBody(`{}`), alice)
	if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestOrderHandler_AdminTransition(t *testing.T) {
	stub := &stubOrderService{
		transitionFn: func(_ context.Context, _ domain.Identity, id, action string) (*domain.Order, error) {
			if action != "refund" {
				t.Fatalf("expected normalized action, got %q", action)
			}
			return nil, domain.InvalidStatef("cannot refund a PENDING order")
		},
	}
	h := NewOrderHandler(stub)

	c, _ := newCtx(t, http.MethodPatch, "/admin/orders/o1", jsonBody(`{"action":"Refund"}`), root)
	c.SetParamNames("id")
	c.SetParamValues("o1")
	if err := h.AdminTransition(c); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
}
