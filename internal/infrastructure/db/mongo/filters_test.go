package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

func TestAgentListFilter_AlwaysPublic(t *testing.T) {
	filters := []ports.AgentFilter{
		{},
		{Rarity: domain.RarityEpic},
		{Keyword: "scout"},
		{SeriesID: "s1", Rarity: domain.RarityRare, Keyword: "a.b*", Sort: domain.SortPriceDesc},
	}
	for _, f := range filters {
		got := agentListFilter(f)
		if v, ok := got["deleted_at"]; !ok || v != nil {
			t.Fatalf("%+v: deleted_at must be constrained to null, got %v", f, got)
		}
		if got["is_active"] != true {
			t.Fatalf("%+v: is_active must be true, got %v", f, got)
		}
	}
}

func TestAgentListFilter_KeywordIsLiteralAndCaseInsensitive(t *testing.T) {
	got := agentListFilter(ports.AgentFilter{Keyword: "a.b*"})

	or, ok := got["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected $or over name and description, got %v", got["$or"])
	}
	for i, field := range []string{"name", "description"} {
		clause := or[i].(bson.M)
		re, ok := clause[field].(primitive.Regex)
		if !ok {
			t.Fatalf("%s: expected regex, got %T", field, clause[field])
		}
		if re.Pattern != `a\.b\*` || re.Options != "i" {
			t.Fatalf("%s: unexpected regex %+v", field, re)
		}
	}
}

func TestAgentSort(t *testing.T) {
	cases := map[domain.AgentSort]bson.D{
		domain.SortNewest:    newestFirst,
		domain.SortPriceAsc:  {{Key: "price", Value: 1}, {Key: "_id", Value: 1}},
		domain.SortPriceDesc: {{Key: "price", Value: -1}, {Key: "_id", Value: -1}},
		"":                   newestFirst,
	}
	for in, want := range cases {
		got := agentSort(in)
		if len(got) != len(want) || got[0] != want[0] {
			t.Errorf("agentSort(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCancellableFilter(t *testing.T) {
	oid := primitive.NewObjectID()
	got := cancellableFilter(oid, "owner-1", domain.ExchangePending)

	if got["_id"] != oid || got["owner_id"] != "owner-1" || got["status"] != "PENDING" {
		t.Fatalf("unexpected identity/status clauses: %v", got)
	}
	ne, ok := got["proposals.status"].(bson.M)
	if !ok || ne["$ne"] != "PENDING" {
		t.Fatalf("expected pending proposals to block the delete, got %v", got["proposals.status"])
	}
}

func TestRedeemFilter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.FixedZone("x", 3600))
	got := redeemFilter("CODE", domain.CodeUnused, now)

	if got["code"] != "CODE" || got["status"] != "UNUSED" {
		t.Fatalf("unexpected filter: %v", got)
	}
	or := got["$or"].(bson.A)
	if len(or) != 2 {
		t.Fatalf("expected two expiry clauses, got %v", or)
	}
	gt := or[1].(bson.M)["expires_at"].(bson.M)["$gt"].(time.Time)
	if !gt.Equal(now) || gt.Location() != time.UTC {
		t.Fatalf("expected UTC now, got %v", gt)
	}
}

func TestExpireFilter(t *testing.T) {
	now := time.Now()
	got := expireFilter(domain.CodeUnused, now)
	if got["status"] != "UNUSED" {
		t.Fatalf("only unused codes expire, got %v", got)
	}
	if _, ok := got["expires_at"].(bson.M)["$lte"]; !ok {
		t.Fatalf("expected $lte on expires_at, got %v", got["expires_at"])
	}
}

func TestUserListFilter(t *testing.T) {
	if got := userListFilter(ports.UserFilter{}); len(got) != 0 {
		t.Fatalf("empty filter should match everything, got %v", got)
	}
	got := userListFilter(ports.UserFilter{Role: domain.RoleAdmin, Status: domain.UserBanned, Search: "bob+"})
	if got["role"] != "ADMIN" || got["status"] != "BANNED" {
		t.Fatalf("unexpected filter %v", got)
	}
	or := got["$or"].(bson.A)
	if re := or[0].(bson.M)["email"].(primitive.Regex); re.Pattern != `bob\+` {
		t.Fatalf("search must be quoted, got %q", re.Pattern)
	}
}

func TestOrderListFilter(t *testing.T) {
	got := orderListFilter(ports.OrderFilter{UserID: "u1", Status: domain.OrderPaid})
	if got["user_id"] != "u1" || got["status"] != "PAID" {
		t.Fatalf("unexpected filter %v", got)
	}
}

func TestObjectID(t *testing.T) {
	if _, ok := objectID("not-hex"); ok {
		t.Fatal("malformed ids must not parse")
	}
	oid := primitive.NewObjectID()
	if got, ok := objectID(oid.Hex()); !ok || got != oid {
		t.Fatalf("round trip failed: %v %v", got, ok)
	}
	if ids := objectIDs([]string{oid.Hex(), "junk"}); len(ids) != 1 {
		t.Fatalf("expected junk to be dropped, got %v", ids)
	}
}
