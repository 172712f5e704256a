package services

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := hashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := checkPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("check password: %v", err)
	}
	if err := checkPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	t.Parallel()

	a, err := generateRandomPassword(randomPasswordLength)
	if err != nil {
		t.Fatalf("generate password: %v", err)
	}
	if len(a) != randomPasswordLength {
		t.Fatalf("length = %d, want %d", len(a), randomPasswordLength)
	}
	for _, r := range a {
		if !strings.ContainsRune(passwordAlphabet, r) {
			t.Fatalf("character %q outside alphabet", r)
		}
	}

	b, err := generateRandomPassword(randomPasswordLength)
	if err != nil {
		t.Fatalf("generate password: %v", err)
	}
	if a == b {
		t.Fatal("two generated passwords should differ")
	}
}

func TestGenerateRandomPasswordDefaultsLength(t *testing.T) {
	t.Parallel()

	p, err := generateRandomPassword(0)
	if err != nil {
		t.Fatalf("generate password: %v", err)
	}
	if len(p) != randomPasswordLength {
		t.Fatalf("length = %d, want default %d", len(p), randomPasswordLength)
	}
}
