package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"securevault/internal/errs"
	"securevault/internal/models"
)

func TestRegisterHandler(t *testing.T) {
	handler := newTestHandler(stubCredentials{
		registerFn: func(_ context.Context, username, email, password, confirmPassword string) (models.User, error) {
			if username != "alice" || email != "alice@example.com" {
				t.Fatalf("unexpected input: %s %s", username, email)
			}
			if password != "Str0ng!Pass" || confirmPassword != "Str0ng!Pass" {
				t.Fatal("password fields not forwarded")
			}
			return models.User{ID: "user-1", Username: "alice", IsActive: true}, nil
		},
	}, stubSessions{}, stubLedger{}, stubAudit{}, stubUploads{})

	body := `{"username":"alice","email":"alice@example.com","password":"Str0ng!Pass","confirm_password":"Str0ng!Pass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["username"] != "alice" || payload["id"] != "user-1" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestRegisterHandlerValidationError(t *testing.T) {
	handler := newTestHandler(stubCredentials{
		registerFn: func(context.Context, string, string, string, string) (models.User, error) {
			return models.User{}, errs.Validation("username", "must be at least 3 characters")
		},
	}, stubSessions{}, stubLedger{}, stubAudit{}, stubUploads{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"ab"}`))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var payload struct {
		FieldErrors map[string]string `json:"field_errors"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.FieldErrors["username"] == "" {
		t.Fatalf("expected username field error, got %#v", payload.FieldErrors)
	}
}

func TestRegisterHandlerDuplicate(t *testing.T) {
	handler := newTestHandler(stubCredentials{
		registerFn: func(context.Context, string, string, string, string) (models.User, error) {
			return models.User{}, errs.ErrDuplicateIdentity
		},
	}, stubSessions{}, stubLedger{}, stubAudit{}, stubUploads{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"alice"}`))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestLoginHandlerIssuesSession(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute)
	handler := newTestHandler(stubCredentials{
		authenticateFn: func(_ context.Context, identifier, password string) (models.User, error) {
			if identifier != "alice" || password != "Str0ng!Pass" {
				t.Fatalf("unexpected credentials: %s", identifier)
			}
			return models.User{ID: "user-1", Username: "alice", IsActive: true}, nil
		},
	}, stubSessions{
		issueFn: func(_ context.Context, userID string) (models.Session, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user: %s", userID)
			}
			return models.Session{Token: "tok-1", UserID: userID, ExpiresAt: expires}, nil
		},
	}, stubLedger{}, stubAudit{}, stubUploads{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"alice","password":"Str0ng!Pass"}`))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["token"] != "tok-1" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	handler := newTestHandler(stubCredentials{
		authenticateFn: func(context.Context, string, string) (models.User, error) {
			return models.User{}, errs.ErrInvalidCredentials
		},
	}, stubSessions{}, stubLedger{}, stubAudit{}, stubUploads{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"alice","password":"wrong"}`))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginHandlerLockout(t *testing.T) {
	until := time.Now().Add(15 * time.Minute)
	handler := newTestHandler(stubCredentials{
		authenticateFn: func(context.Context, string, string) (models.User, error) {
			return models.User{}, &errs.LockoutError{Until: until}
		},
	}, stubSessions{}, stubLedger{}, stubAudit{}, stubUploads{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"alice","password":"Str0ng!Pass"}`))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["retry_after"] == nil {
		t.Fatalf("expected retry_after, got %#v", payload)
	}
}

func TestLogoutWithoutHeader(t *testing.T) {
	handler := newTestHandler(stubCredentials{}, stubSessions{}, stubLedger{}, stubAudit{}, stubUploads{})
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rr := httptest.NewRecorder()
	handler.Logout(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	var loggedOut string
	handler := newTestHandler(stubCredentials{}, stubSessions{
		logoutFn: func(_ context.Context, token string) error {
			loggedOut = token
			return nil
		},
	}, stubLedger{}, stubAudit{}, stubUploads{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rr := httptest.NewRecorder()
	handler.Logout(rr, req)
	if rr.Code != http.StatusOK || loggedOut != "tok-1" {
		t.Fatalf("expected logout of tok-1, got %d %q", rr.Code, loggedOut)
	}
}

func TestMeReturnsProfile(t *testing.T) {
	handler := newTestHandler(stubCredentials{}, stubSessions{}, stubLedger{}, stubAudit{}, stubUploads{})
	user := models.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rr := httptest.NewRecorder()
	asUser(user, handler.Me).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["username"] != "alice" || payload["email"] != "alice@example.com" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestChangePasswordHandler(t *testing.T) {
	changed := false
	handler := newTestHandler(stubCredentials{
		changePasswordFn: func(_ context.Context, userID, oldPassword, newPassword string) error {
			if userID != "user-1" || oldPassword != "Old#1Passw" || newPassword != "New#1Passw" {
				t.Fatalf("unexpected input: %s", userID)
			}
			changed = true
			return nil
		},
	}, stubSessions{}, stubLedger{}, stubAudit{}, stubUploads{})

	body := `{"old_password":"Old#1Passw","new_password":"New#1Passw"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/password", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok-1")
	rr := httptest.NewRecorder()
	asUser(models.User{ID: "user-1"}, handler.ChangePassword).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !changed {
		t.Fatalf("expected password change, got %d", rr.Code)
	}
}
