// Package token issues the opaque credentials used across the coordinator:
// record identifiers, speaker access tokens, signup links and session
// tokens. Identifiers are UUIDs; bearer tokens are random URL-safe strings
// with no recoverable structure.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// bearerBytes is the entropy of an issued bearer token. 32 bytes keeps the
// token comfortably unguessable while staying short enough for a link.
const bearerBytes = 32

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// Issue returns an opaque bearer token. The caller is responsible for
// storing it against exactly one record; re-issuing for the same speaker
// would invalidate previously sent self-service links.
func Issue() string {
	buf := make([]byte, bearerBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		// rand.Reader failing means the platform entropy source is gone;
		// fall back to a UUID-and-timestamp token rather than crash.
		return fmt.Sprintf("%s-%d", uuid.NewString(), time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
