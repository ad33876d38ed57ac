package auth

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	if hash == "secret" {
		t.Fatalf("hash must not equal the plaintext password")
	}
	if !CheckPassword(hash, "secret") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected mismatched password to fail")
	}
}

func TestHashPasswordRejectsEmptyInput(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected empty password to fail")
	}
}

func TestHashPasswordSaltsEachHash(t *testing.T) {
	first, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	second, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct salts to produce distinct hashes")
	}
}
