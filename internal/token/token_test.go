package token

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
)

func TestNewID_IsUniqueUUID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("expected UUID, got %q: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = true
	}
}

func TestIssue_ProducesURLSafeTokens(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := Issue()
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("expected URL-safe base64, got %q: %v", tok, err)
		}
		if len(raw) != bearerBytes {
			t.Fatalf("expected %d bytes of entropy, got %d", bearerBytes, len(raw))
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}
