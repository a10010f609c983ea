package crypto

import "testing"

func TestNewSessionTokenIsOpaqueAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := NewSessionToken()
		if err != nil {
			t.Fatalf("token generation error: %v", err)
		}
		if len(token) != 43 {
			t.Fatalf("expected 43-char base64url token, got %d chars", len(token))
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}
