package auth

import (
	"errors"
	"testing"
)

func TestHashPassword_Verify(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter22", "salt-1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("password stored in plain text")
	}

	if err := VerifyPassword("hunter22", "salt-1", hash); err != nil {
		t.Errorf("VerifyPassword with correct input = %v", err)
	}
	if err := VerifyPassword("hunter23", "salt-1", hash); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("wrong password: got %v, want ErrPasswordMismatch", err)
	}
	if err := VerifyPassword("hunter22", "salt-2", hash); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("wrong salt: got %v, want ErrPasswordMismatch", err)
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	err := VerifyPassword("x", "y", "none")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected a non-mismatch error for a malformed hash, got %v", err)
	}
}
