package idcodec

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	rapid.Check(t, func(t *rapid.T) {
		id := rapid.Int64Range(0, 1<<53).Draw(t, "id")

		token, err := codec.Encode(id)
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", id, err)
		}
		if len(token) < MinLength {
			t.Errorf("Encode(%d) = %q, shorter than minimum length %d", id, token, MinLength)
		}

		decoded, ok := codec.Decode(token)
		if !ok {
			t.Fatalf("Decode(%q) reported invalid for a valid token", token)
		}
		if decoded != id {
			t.Errorf("Decode(Encode(%d)) = %d", id, decoded)
		}
	})
}

func TestDecodeInvalidInput(t *testing.T) {
	codec, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"too short", "abc"},
		{"whitespace", "        "},
		{"garbage with symbols", "!!$$%%^^"},
		{"unicode", "日本語トークン"},
		{"long garbage", strings.Repeat("~", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if id, ok := codec.Decode(tt.token); ok {
				t.Errorf("Decode(%q) = (%d, true), want invalid", tt.token, id)
			}
		})
	}
}

func TestDecodeRejectsNonCanonicalTokens(t *testing.T) {
	codec, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	token, err := codec.Encode(42)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Appending alphabet characters produces a decodable-looking string
	// that is not the canonical encoding of any ID we issued.
	mutated := token + "aa"
	if decoded, ok := codec.Decode(mutated); ok {
		if canonical, _ := codec.Encode(decoded); canonical != mutated {
			t.Errorf("Decode(%q) accepted a non-canonical token as id %d", mutated, decoded)
		}
	}
}

func TestEncodeNegativeID(t *testing.T) {
	codec, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if _, err := codec.Encode(-1); err == nil {
		t.Error("Encode(-1) succeeded, want error")
	}
}

func TestVerify(t *testing.T) {
	codec, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	token, err := codec.Encode(7)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !codec.Verify(7, token) {
		t.Error("Verify(7, Encode(7)) = false")
	}
	if codec.Verify(8, token) {
		t.Error("Verify(8, Encode(7)) = true")
	}
	if codec.Verify(7, "") {
		t.Error("Verify(7, \"\") = true")
	}
}

func TestDistinctIDsEncodeDistinctTokens(t *testing.T) {
	codec, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	seen := make(map[string]int64)
	for id := int64(0); id < 2000; id++ {
		token, err := codec.Encode(id)
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", id, err)
		}
		if prev, dup := seen[token]; dup {
			t.Fatalf("collision: ids %d and %d both encode to %q", prev, id, token)
		}
		seen[token] = id
	}
}
