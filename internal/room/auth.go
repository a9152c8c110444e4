package room

import (
	"crypto/sha256"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/workspace/room-relay/internal/roomerr"
	"golang.org/x/time/rate"
)

// authRecord is the first-writer-wins passphrase digest for a room
// (spec §3, "AuthRecord"; §4.1, C2).
type authRecord struct {
	digest    [sha256.Size]byte
	createdAt time.Time
}

// authenticator validates room passphrases. The first successful call
// against a fresh room sets the passphrase permanently; every later call
// is compared in constant time against the stored digest.
type authenticator struct {
	mu      sync.Mutex
	record  *authRecord
	limiter *rate.Limiter
}

func newAuthenticator(attemptsPerMinute int) *authenticator {
	if attemptsPerMinute <= 0 {
		attemptsPerMinute = 30
	}
	// Burst equal to the per-minute rate lets a reconnect storm through
	// immediately while still bounding sustained guessing.
	return &authenticator{
		limiter: rate.NewLimiter(rate.Limit(float64(attemptsPerMinute)/60.0), attemptsPerMinute),
	}
}

// validate admits a passphrase, setting it on first use (spec §4.1).
func (a *authenticator) validate(passphrase string) error {
	if passphrase == "" {
		return roomerr.ErrUnauthorized
	}
	if !a.limiter.Allow() {
		return roomerr.ErrForbidden
	}

	digest := sha256.Sum256([]byte(passphrase))

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.record == nil {
		a.record = &authRecord{digest: digest, createdAt: time.Now()}
		return nil
	}

	if subtle.ConstantTimeCompare(a.record.digest[:], digest[:]) != 1 {
		return roomerr.ErrForbidden
	}
	return nil
}
