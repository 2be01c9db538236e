// Package auth — password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// That slowness is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (so two users with the same password get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// NEVER store passwords in plain text or with fast hashes (MD5, SHA-256).
// bcrypt with cost 12 takes ~250ms — negligible for login, brutal for attackers.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor.
//
// Cost 12 is the current recommended minimum for new applications.
// Set cost so that hashing takes ~200-300ms on production hardware.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected
// in tests — using a lower cost (e.g. 4) makes tests run much faster
// without compromising the logic being tested.
//
// NO LOCKOUT:
// The service imposes no maximum-attempt lockout or throttle. That is a
// known gap of the system, left open deliberately rather than papered
// over here — per-guess cost comes from bcrypt alone.
type PasswordService struct {
	cost  int
	dummy []byte // see VerifyDummy
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return newPasswordServiceWithCost(defaultCost)
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Use bcrypt.MinCost (4) in tests to avoid the ~250ms overhead of cost 12
// per hashing operation. Do NOT lower the cost in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return newPasswordServiceWithCost(cost)
}

func newPasswordServiceWithCost(cost int) *PasswordService {
	// Precompute a throwaway hash at the configured cost. VerifyDummy
	// compares against it to burn the same time as a real verification.
	dummy, err := bcrypt.GenerateFromPassword([]byte("taskify.dummy.credential"), cost)
	if err != nil {
		// Only reachable with a cost outside bcrypt's [4,31] range —
		// a programming error, not a runtime condition.
		panic(fmt.Sprintf("auth: invalid bcrypt cost %d: %v", cost, err))
	}
	return &PasswordService{cost: cost, dummy: dummy}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained string like:
//
//	$2a$12$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy
//
// Store this string directly in the database. It includes the salt and
// cost — bcrypt.CompareHashAndPassword knows how to decode it.
//
// Returns an error if the plaintext is too long (>72 bytes — a bcrypt limit).
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates passwords longer than 72 bytes.
		// We reject them explicitly so callers aren't surprised.
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// Returns nil if they match, a non-nil error if they don't.
// bcrypt.CompareHashAndPassword uses a constant-time comparison internally,
// so an attacker can't tell from response time whether they got the first
// byte right.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// VerifyDummy burns one bcrypt verification against a throwaway hash and
// always reports a mismatch.
//
// The login flow calls this when the email lookup misses, so "unknown
// email" and "wrong password" take comparable time. Without it, a fast
// rejection on unknown emails would let an attacker enumerate which
// addresses have accounts by timing responses.
func (p *PasswordService) VerifyDummy(plaintext string) {
	// Result intentionally discarded — it can never match.
	_ = bcrypt.CompareHashAndPassword(p.dummy, []byte(plaintext))
}
