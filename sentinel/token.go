// Package sentinel provides the process-unique end-of-stream marker and the
// small set of primitives shared by the pipeline and broker packages: a
// comparable sentinel token, an ephemeral-name generator, and a debug gate.
package sentinel

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"

	"github.com/google/uuid"
)

// Token is the end-of-stream marker passed through queues to signal
// shutdown. Two Tokens are equal only if one was copied from the other;
// NewToken always produces a Token distinct from every other.
//
// Token is a plain comparable struct so it can flow through a chan any
// (as the broker's relay queues do) and still satisfy == comparisons.
// Its id field is unexported: this module has no cross-process boundary
// (every queue here is an in-process Go channel), so Token is never
// actually marshaled. A future transport layer that needed to serialize
// a Token would need to export id or add a custom codec first — this
// type does not claim gob/json support it does not have.
type Token struct {
	id string
}

// NewToken returns a fresh, process-unique Token.
func NewToken() Token {
	return Token{id: uuid.Must(uuid.NewV7()).String()}
}

// String implements fmt.Stringer for logging.
func (t Token) String() string {
	return fmt.Sprintf("sentinel(%s)", t.id)
}

var base32Enc = base32.StdEncoding.WithPadding(base32.NoPadding)

// RandomName returns a fixed-length, lowercase-safe random string suitable
// for naming ephemeral broker registrations (e.g. the throwaway pipeline
// name Flush registers). Unlike the original implementation's
// math/rand-backed helper, this draws from crypto/rand: collisions here
// would silently corrupt the flush barrier, so the stronger source costs
// nothing and removes a class of flaky test.
func RandomName(length int) string {
	if length <= 0 {
		length = 1
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// unavailable, which means nothing else on the machine works
		// either. Fall back to the token's own UUID entropy rather
		// than panic.
		return base32Enc.EncodeToString([]byte(NewToken().id))[:length]
	}

	encoded := base32Enc.EncodeToString(buf)
	if len(encoded) > length {
		encoded = encoded[:length]
	}
	return encoded
}
