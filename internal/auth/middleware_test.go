package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequireAuth(t *testing.T) {
	const secret = "secret"
	var got *Claims
	h := RequireAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := Sign(secret, time.Hour, Claims{UserID: 7, IsAdmin: false})
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got == nil || got.UserID != 7 {
			t.Errorf("claims not propagated: %+v", got)
		}
	})
}

func TestAdminOnly(t *testing.T) {
	const secret = "secret"
	h := RequireAuth(secret)(AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	call := func(t *testing.T, admin bool) int {
		t.Helper()
		token, err := Sign(secret, time.Hour, Claims{UserID: 1, IsAdmin: admin})
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call(t, false); code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", code)
	}
	if code := call(t, true); code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", code)
	}
}
