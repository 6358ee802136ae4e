package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/ender-tasks/internal/api/response"
	"github.com/isdelr/ender-tasks/internal/models"
	"github.com/rs/zerolog/log"
)

// Claims defines the token payload handed out by /login.
type Claims struct {
	UserID   int    `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type contextKey string

// UserClaimsKey is the context key for claims decoded by RequireToken.
const UserClaimsKey = contextKey("userClaims")

// TokenIssuer signs login tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. A zero ttl issues tokens without an
// expiry claim.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token carrying the user's id and username.
func (i *TokenIssuer) Issue(user models.User) (string, error) {
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ClaimsFromContext returns the claims RequireToken managed to decode, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// RequireToken rejects requests without an Authorization header. Any
// non-empty value is accepted: the token is never verified. When the value
// happens to be a JWT its claims are decoded, unverified, into the context.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			response.Error(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &Claims{}
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err == nil {
			log.Debug().Int("user_id", claims.UserID).Str("username", claims.Username).Msg("Request carries token")
			r = r.WithContext(context.WithValue(r.Context(), UserClaimsKey, claims))
		}

		next.ServeHTTP(w, r)
	})
}
