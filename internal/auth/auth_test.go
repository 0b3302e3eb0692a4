package auth

import (
	"context"
	"errors"
	"testing"
)

var allLevels = []Level{LevelAnonymous, LevelUser, LevelUserPartner, LevelAdmin}

func TestRequireLevel_Matrix(t *testing.T) {
	t.Parallel()

	for _, have := range allLevels {
		for _, min := range allLevels {
			err := RequireLevel(Credential{ClientID: 1, Level: have}, min)
			if have >= min && err != nil {
				t.Errorf("RequireLevel(%s, %s) = %v, want nil", have, min, err)
			}
			if have < min && !errors.Is(err, ErrForbidden) {
				t.Errorf("RequireLevel(%s, %s) = %v, want ErrForbidden", have, min, err)
			}
		}
	}
}

func TestRequireLevel_UserBelowAdmin(t *testing.T) {
	t.Parallel()

	err := RequireLevel(Credential{Level: LevelUser}, LevelAdmin)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err.Error() != "auth: permission denied: requires admin, have user" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestLevelOrder(t *testing.T) {
	t.Parallel()

	for i := 1; i < len(allLevels); i++ {
		if allLevels[i-1] >= allLevels[i] {
			t.Errorf("%s should be below %s", allLevels[i-1], allLevels[i])
		}
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"anonymous", LevelAnonymous, false},
		{"user", LevelUser, false},
		{" USER_PARTNER ", LevelUserPartner, false},
		{"partner", LevelUserPartner, false},
		{"admin", LevelAdmin, false},
		{"root", LevelAnonymous, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	t.Parallel()

	for _, l := range allLevels {
		parsed, err := ParseLevel(l.String())
		if err != nil || parsed != l {
			t.Errorf("level %d does not round-trip through %q", int(l), l.String())
		}
	}
	if Level(9).String() != "level(9)" {
		t.Errorf("unexpected name for undefined level: %s", Level(9))
	}
	if Level(9).Valid() || Level(-1).Valid() {
		t.Error("undefined levels must not be valid")
	}
}

func TestCredentialContext(t *testing.T) {
	t.Parallel()

	if got := CredentialFromContext(context.Background()); got != Anonymous {
		t.Errorf("empty context credential = %+v, want anonymous", got)
	}

	c := Credential{ClientID: 7, Level: LevelUserPartner}
	ctx := WithCredential(context.Background(), c)
	if got := CredentialFromContext(ctx); got != c {
		t.Errorf("CredentialFromContext = %+v, want %+v", got, c)
	}

	if IsMasterKeyFromContext(ctx) {
		t.Error("master key flag should default to false")
	}
	if !IsMasterKeyFromContext(WithMasterKey(ctx, true)) {
		t.Error("master key flag not stored")
	}
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	h := HashToken("secret")
	if len(h) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h))
	}
	if h != HashToken("secret") || h == HashToken("Secret") {
		t.Error("HashToken must be deterministic and case-sensitive")
	}
}
