package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// context.WithValue uses any as the key type. If you use a plain string,
// ANY package that knows the string can read or shadow your value. A
// package-private type prevents collisions: only this package can create
// a key of type contextKey, so only this package can write userID values
// into the context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header,
// validates it, and stores the userID in the request context. If the
// token is missing or unusable, it returns 401 Unauthorized and stops the
// request chain. The response body distinguishes expired from invalid
// tokens so clients know whether to re-authenticate or give up, but both
// are 401s.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "unauthorized", "valid authentication required")
				return
			}

			userID, err := tokens.Validate(tokenStr)
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					writeUnauthorized(w, "token_expired", "token has expired")
				default:
					// Malformed and tampered tokens get the same wire
					// response — the distinction only matters server-side.
					writeUnauthorized(w, "token_invalid", "token is invalid")
				}
				return
			}

			// Store userID in context so handlers can read it
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the
// request context.
//
// Returns (0, false) if the request carries no authenticated identity.
// On a RequireAuth-protected route it always returns (id, true).
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// ContextWithUserID returns a copy of ctx carrying the given user ID.
// Used by tests to call protected handlers without running the middleware.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// bearerToken extracts the token from the Authorization header.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeUnauthorized emits the standard 401 error body. The middleware
// writes JSON by hand rather than importing the handler package — that
// would invert the dependency direction.
func writeUnauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
