// Package idcodec converts internal numeric account and resource IDs
// into opaque external tokens so raw database identifiers never appear
// in API responses. The encoding is reversible: Decode(Encode(x)) == x.
package idcodec

import (
	"fmt"

	"github.com/sqids/sqids-go"
)

const (
	// MinLength pads every token to at least this many characters so the
	// token length does not reveal the magnitude of small IDs
	MinLength = 8

	defaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Codec encodes and decodes internal IDs.
type Codec struct {
	s *sqids.Sqids
}

// New creates a Codec with the default alphabet.
func New() (*Codec, error) {
	return NewWithAlphabet(defaultAlphabet)
}

// NewWithAlphabet creates a Codec with a custom alphabet. The alphabet
// acts as a deployment-specific shuffle key; changing it invalidates
// all previously issued tokens.
func NewWithAlphabet(alphabet string) (*Codec, error) {
	s, err := sqids.New(sqids.Options{
		MinLength: MinLength,
		Alphabet:  alphabet,
	})
	if err != nil {
		return nil, fmt.Errorf("idcodec: initializing sqids: %w", err)
	}
	return &Codec{s: s}, nil
}

// Encode converts an internal ID into its external token.
// IDs are non-negative; a negative ID is a programming error.
func (c *Codec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("idcodec: cannot encode negative id %d", id)
	}
	token, err := c.s.Encode([]uint64{uint64(id)})
	if err != nil {
		return "", fmt.Errorf("idcodec: encoding id %d: %w", id, err)
	}
	return token, nil
}

// Decode converts an external token back to the internal ID. The second
// return value is false for empty, malformed, or non-canonical tokens;
// callers must treat that as "invalid", never as an error to propagate.
func (c *Codec) Decode(token string) (int64, bool) {
	if token == "" || len(token) < MinLength {
		return 0, false
	}
	nums := c.s.Decode(token)
	if len(nums) != 1 {
		return 0, false
	}
	// Sqids decodes some non-canonical strings; only tokens that
	// round-trip back to themselves are accepted.
	canonical, err := c.s.Encode(nums)
	if err != nil || canonical != token {
		return 0, false
	}
	if nums[0] > uint64(1)<<62 {
		return 0, false
	}
	return int64(nums[0]), true
}

// Verify reports whether token is the encoding of id.
func (c *Codec) Verify(id int64, token string) bool {
	encoded, err := c.Encode(id)
	if err != nil {
		return false
	}
	return encoded == token
}
