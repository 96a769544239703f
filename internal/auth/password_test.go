package auth

import "testing"

func TestPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hashed == "s3cret-pass" {
		t.Fatal("password stored in plain text")
	}
	if !CheckPassword(hashed, "s3cret-pass") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hashed, "wrong") {
		t.Error("wrong password accepted")
	}
}
