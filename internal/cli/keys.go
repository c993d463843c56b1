package cli

import (
	"time"

	"github.com/google/uuid"
)

// KeyGenerator produces session correlation keys for `session start` when
// --session-id is omitted.
// Implemented by UUIDv7Generator (production) and testutil.FixedKeyGenerator (tests).
type KeyGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 keys.
//
// UUIDv7 embeds a timestamp in the most significant bits, so keys sort by
// creation time when listed.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Clock supplies the current time for `session update --end now`.
// Implemented by SystemClock (production) and testutil.DeterministicClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
