package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyKey(t *testing.T) {
	key, _, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	hash, err := HashKey(key)
	if err != nil {
		t.Fatalf("HashKey: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash not in PHC format: %s", hash)
	}

	ok, err := VerifyKey(key, hash)
	if err != nil {
		t.Fatalf("VerifyKey: %v", err)
	}
	if !ok {
		t.Error("correct key did not verify")
	}

	ok, err = VerifyKey("sk_wrong-key", hash)
	if err != nil {
		t.Fatalf("VerifyKey wrong key: %v", err)
	}
	if ok {
		t.Error("wrong key verified")
	}
}

func TestHashKeyUniqueSalt(t *testing.T) {
	h1, err := HashKey("sk_same-input")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashKey("sk_same-input")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same key are identical, salt not random")
	}
}

func TestVerifyKeyInvalidHash(t *testing.T) {
	cases := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not phc", "plainhash"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{"missing fields", "$argon2id$v=19$m=65536"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VerifyKey("sk_anything", tc.hash); err == nil {
				t.Error("expected error for invalid hash")
			}
		})
	}
}

func TestGenerateKeyFormat(t *testing.T) {
	key, prefix, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	if !ValidKeyFormat(key) {
		t.Errorf("generated key failed format check: %s", key)
	}
	if prefix != key[:KeyPrefixLen] {
		t.Errorf("prefix %q does not match key start", prefix)
	}

	other, _, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if key == other {
		t.Error("two generated keys are identical")
	}
}

func TestValidKeyFormat(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"sk_abcdefghijklmnop", true},
		{"sk_short", false},
		{"pk_abcdefghijklmnop", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := ValidKeyFormat(tc.key); got != tc.want {
			t.Errorf("ValidKeyFormat(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestQuickHashDeterministic(t *testing.T) {
	a := QuickHash("203.0.113.9")
	b := QuickHash("203.0.113.9")
	if a != b {
		t.Error("QuickHash not deterministic")
	}
	if a == QuickHash("203.0.113.10") {
		t.Error("different inputs collided")
	}
	if len(a) != 32 {
		t.Errorf("unexpected digest length %d", len(a))
	}
}
