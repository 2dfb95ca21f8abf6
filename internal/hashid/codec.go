package hashid

import (
	"errors"
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

// ErrInvalidToken is returned by Decode for any token that was not produced
// by Encode under the same salt and alphabet.
var ErrInvalidToken = errors.New("invalid short code")

// Config holds codec configuration. The salt is process-wide and fixed at
// startup; changing it invalidates every previously issued short code.
type Config struct {
	Salt      string
	MinLength int
}

// Codec is a reversible mapping between positive link ids and short,
// URL-safe, salted tokens.
type Codec struct {
	h *hashids.HashID
}

// New creates a Codec from the given configuration.
func New(cfg Config) (*Codec, error) {
	if cfg.Salt == "" {
		return nil, fmt.Errorf("hashid salt cannot be empty")
	}
	if cfg.MinLength <= 0 {
		return nil, fmt.Errorf("hashid min length must be positive, got: %d", cfg.MinLength)
	}

	data := hashids.NewData()
	data.Salt = cfg.Salt
	data.MinLength = cfg.MinLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize hashid codec: %w", err)
	}

	return &Codec{h: h}, nil
}

// Encode maps a positive id to its short code. Deterministic: the same id
// always yields the same token for a given salt and min length.
func (c *Codec) Encode(id int64) (string, error) {
	if id <= 0 {
		return "", fmt.Errorf("id must be positive, got: %d", id)
	}

	code, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("failed to encode id %d: %w", id, err)
	}
	return code, nil
}

// Decode maps a short code back to the id it was issued for. Returns
// ErrInvalidToken for foreign or malformed tokens, never panics.
func (c *Codec) Decode(token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}

	ids, err := c.h.DecodeInt64WithError(token)
	if err != nil || len(ids) != 1 || ids[0] <= 0 {
		return 0, ErrInvalidToken
	}

	// A hashid round-trips only if it is the canonical encoding; anything
	// else decoded by accident is rejected here.
	canonical, err := c.h.EncodeInt64([]int64{ids[0]})
	if err != nil || canonical != token {
		return 0, ErrInvalidToken
	}

	return ids[0], nil
}
