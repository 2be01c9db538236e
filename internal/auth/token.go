// Package auth provides password hashing and JWT token issuance/validation.
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store
// session data. All the information needed (user ID, expiry) is inside the
// signed token, and the HMAC signature ensures nobody can tamper with it
// without the secret key. Validation is pure computation: no database
// lookup, which keeps it non-blocking and horizontally scalable.
//
// The flip side of statelessness: there is no revocation before natural
// expiry. A denylist keyed by the jti claim could be bolted on at
// validation time without changing the signing scheme, but none exists here.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"42","exp":1234567890,"jti":"..."}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// Token validation failure categories. Validate guarantees every error it
// returns wraps exactly one of these, so callers can branch with errors.Is.
var (
	// ErrTokenExpired: the signature checked out but now > exp.
	// No clock-skew leeway is applied.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrTokenMalformed: the string isn't even a parseable JWT.
	ErrTokenMalformed = errors.New("auth: token malformed")

	// ErrTokenInvalid: well-formed but unusable — bad signature, wrong
	// algorithm, wrong issuer, or an unparseable subject.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

const issuer = "taskify"

// DefaultTokenTTL is the token lifetime used when the configuration
// doesn't override it.
const DefaultTokenTTL = 60 * time.Minute

// TokenService mints and verifies signed identity tokens.
//
// It holds the HMAC secret used to sign and verify. The same secret must
// be used for both operations — keep it safe, rotate it periodically in
// production.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. A non-positive ttl falls back to DefaultTokenTTL.
//
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims, which carries
// the standard fields: Subject (the user ID in decimal), ExpiresAt,
// IssuedAt, ID (the jti — a random unique identifier for debuggability)
// and Issuer.
type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates and signs a new token for the given user.
// Returns the signed token string and its absolute expiry time.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key for
// signing and verifying.
func (s *TokenService) Issue(userID int64, email string) (string, time.Time, error) {
	return s.IssueWithDuration(userID, email, s.ttl)
}

// IssueWithDuration creates a token with a custom expiry duration.
// Negative durations produce already-expired tokens, which the tests use
// to exercise the expiry path.
func (s *TokenService) IssueWithDuration(userID int64, email string, d time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(d)

	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        xid.New().String(), // jti — unique per token
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate parses and verifies a token string, returning the user ID from
// the "sub" claim.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (zero leeway — now > exp fails immediately)
//   - Issuer matches (prevents tokens from other apps sharing the secret)
//   - Algorithm is HS256 (prevents algorithm confusion attacks, where an
//     attacker submits a token signed with "none")
//
// Validation never touches storage — it is pure computation over the
// token string and the secret.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HMAC
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Translate jwt library errors into our three categories
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		default:
			return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("%w: unexpected claims type", ErrTokenInvalid)
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrTokenInvalid, c.Subject)
	}

	return userID, nil
}
