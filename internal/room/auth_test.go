package room

import (
	"errors"
	"testing"

	"github.com/workspace/room-relay/internal/roomerr"
)

func TestAuthenticatorFirstWriterWins(t *testing.T) {
	a := newAuthenticator(1000)

	if err := a.validate(""); !errors.Is(err, roomerr.ErrUnauthorized) {
		t.Fatalf("validate(\"\") = %v, want ErrUnauthorized", err)
	}

	if err := a.validate("hunter2"); err != nil {
		t.Fatalf("first validate returned error: %v", err)
	}

	if err := a.validate("hunter2"); err != nil {
		t.Fatalf("second validate with same passphrase returned error: %v", err)
	}

	if err := a.validate("wrong"); !errors.Is(err, roomerr.ErrForbidden) {
		t.Fatalf("validate(wrong) = %v, want ErrForbidden", err)
	}
}

func TestAuthenticatorRateLimits(t *testing.T) {
	a := newAuthenticator(1)

	if err := a.validate("first"); err != nil {
		t.Fatalf("first validate returned error: %v", err)
	}

	// Burst is capped at attemptsPerMinute; a rapid second call should be
	// rejected before it even reaches the digest comparison.
	if err := a.validate("first"); !errors.Is(err, roomerr.ErrForbidden) {
		t.Fatalf("rate-limited validate = %v, want ErrForbidden", err)
	}
}
