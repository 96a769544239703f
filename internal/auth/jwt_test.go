package auth

import (
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	in := Claims{UserID: 42, UID: "u-42", IsAdmin: true, Phone: "+998901234567", Name: "Admin"}
	token, err := Sign("secret", time.Hour, in)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	out, err := Verify("secret", token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out.UserID != 42 || out.UID != "u-42" || !out.IsAdmin || out.Phone != in.Phone {
		t.Errorf("claims mangled: %+v", out)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := Sign("secret", time.Hour, Claims{UserID: 1})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Verify("other-secret", token); err == nil {
		t.Error("token signed with a different secret must not verify")
	}
}

func TestVerifyExpired(t *testing.T) {
	token, err := Sign("secret", -time.Minute, Claims{UserID: 1})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Verify("secret", token); err == nil {
		t.Error("expired token must not verify")
	}
}

func TestVerifyGarbage(t *testing.T) {
	if _, err := Verify("secret", "not.a.token"); err == nil {
		t.Error("garbage must not verify")
	}
}
