package auth

import (
	"errors"
	"testing"

	"live-quiz-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("secret")

	token, err := tokens.Issue("player-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id != "player-1" {
		t.Fatalf("expected player-1, got %s", id)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tokens := NewTokens("secret")
	if _, err := tokens.Verify("not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	token, err := NewTokens("secret-a").Issue("player-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokens("secret-b").Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected invalid token across secrets, got %v", err)
	}
}

func TestNewIDLengthAndUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID(16)
		if id == "" {
			t.Fatalf("empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
