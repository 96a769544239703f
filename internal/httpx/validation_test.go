package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func bind(t *testing.T, body string, out any) (*httptest.ResponseRecorder, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	return rec, bindJSON(rec, req, out)
}

func TestBindJSONCheckout(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"user_id":1,"items":[{"product_id":2,"qty":3}]}`, true},
		{"valid with extras", `{"user_id":1,"idempotency_key":"k1","notes":"leave at door","items":[{"product_id":2,"qty":1}]}`, true},
		{"malformed json", `{"user_id":`, false},
		{"missing user", `{"items":[{"product_id":2,"qty":3}]}`, false},
		{"empty items", `{"user_id":1,"items":[]}`, false},
		{"zero qty", `{"user_id":1,"items":[{"product_id":2,"qty":0}]}`, false},
		{"missing product", `{"user_id":1,"items":[{"qty":3}]}`, false},
		{"long idempotency key", `{"user_id":1,"idempotency_key":"` + strings.Repeat("x", 65) + `","items":[{"product_id":2,"qty":1}]}`, false},
		{"long notes", `{"user_id":1,"notes":"` + strings.Repeat("n", 501) + `","items":[{"product_id":2,"qty":1}]}`, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var req checkoutReq
			rec, err := bind(t, c.body, &req)
			if c.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected bind to fail")
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("code = %d, want 400", rec.Code)
			}
		})
	}
}

func TestBindJSONStatusUpdate(t *testing.T) {
	var req statusReq
	if _, err := bind(t, `{"status":"shipping"}`, &req); err != nil {
		t.Fatalf("valid status rejected: %v", err)
	}
	req = statusReq{}
	if _, err := bind(t, `{"status":"teleported"}`, &req); err == nil {
		t.Fatal("unknown status accepted")
	}
}
