package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/agentdex/platform/internal/api/middleware"
	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

func TestAdminHandler_ListUsers_Filter(t *testing.T) {
	var got ports.UserFilter
	users := &stubAdminUserService{
		listFn: func(_ context.Context, f ports.UserFilter, p domain.Page) ([]*domain.User, domain.PageInfo, error) {
			got = f
			return []*domain.User{{ID: "u1", Email: "x@example.com", Role: domain.RoleUser, Status: domain.UserBanned}}, p.Info(1), nil
		},
	}
	h := NewAdminHandler(users, &stubUploadService{}, ProviderDefaults{})

	c, rec := newCtx(t, http.MethodGet, "/admin/users?role=user&status=banned&search=x", nil, root)
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)
	if got.Role != domain.RoleUser || got.Status != domain.UserBanned || got.Search != "x" {
		t.Fatalf("unexpected filter: %+v", got)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks password fields: %s", rec.Body.String())
	}
}

func TestAdminHandler_TransitionUser(t *testing.T) {
	users := &stubAdminUserService{
		transitionFn: func(_ context.Context, actor domain.Identity, id, action string) (*domain.User, error) {
			if actor.UserID != root.UserID || id != "u1" || action != "ban" {
				t.Fatalf("unexpected args: %+v %s %s", actor, id, action)
			}
			return &domain.User{ID: id, Role: domain.RoleUser, Status: domain.UserBanned}, nil
		},
	}
	h := NewAdminHandler(users, &stubUploadService{}, ProviderDefaults{})

	c, rec := newCtx(t, http.MethodPatch, "/admin/users/u1", jsonBody(`{"action":" BAN "}`), root)
	c.SetParamNames("id")
	c.SetParamValues("u1")
	if err := h.TransitionUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	var resp adminUserResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "BANNED" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestAdminHandler_Upload(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	uploads := &stubUploadService{
		uploadFn: func(_ context.Context, actor domain.Identity, in ports.UploadInput) (*domain.Upload, error) {
			body, _ := io.ReadAll(in.Body)
			if !bytes.Equal(body, png) || in.ContentType != "image/png" || in.Filename != "logo.png" || in.Size != int64(len(png)) {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Upload{ID: "up1", UploaderID: actor.UserID, ObjectKey: "uploads/2026/01/01/x.png", ContentType: "image/png", SizeBytes: in.Size, URL: "http://minio/media/uploads/2026/01/01/x.png"}, nil
		},
	}
	h := NewAdminHandler(&stubAdminUserService{}, uploads, ProviderDefaults{})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(multipartUpload(t, "logo.png", "image/png", png), rec)
	middleware.SetIdentity(c, root)

	if err := h.Upload(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusCreated)

	var resp uploadResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.URL == "" || resp.Key != "uploads/2026/01/01/x.png" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAdminHandler_Upload_MissingFile(t *testing.T) {
	h := NewAdminHandler(&stubAdminUserService{}, &stubUploadService{}, ProviderDefaults{})

	c, _ := newCtx(t, http.MethodPost, "/admin/upload", jsonBody(`{}`), root)
	if err := h.Upload(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAdminHandler_DefaultConfig(t *testing.T) {
	h := NewAdminHandler(&stubAdminUserService{}, &stubUploadService{}, ProviderDefaults{
		Provider:         "openai",
		Model:            "gpt-4o-mini",
		APIKeyConfigured: true,
	})

	c, rec := newCtx(t, http.MethodGet, "/admin/default-config", nil, root)
	if err := h.DefaultConfig(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["provider"] != "openai" || resp["apiKeyConfigured"] != true {
		t.Fatalf("unexpected response: %v", resp)
	}
	if _, ok := resp["apiKey"]; ok {
		t.Fatal("api key must not be returned")
	}
}
