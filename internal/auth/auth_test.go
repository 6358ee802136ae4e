package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/ender-tasks/internal/api/response"
	"github.com/isdelr/ender-tasks/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher(HashSHA256)
	require.NoError(t, err)
	assert.IsType(t, SHA256Hasher{}, h)

	h, err = NewPasswordHasher(HashBcrypt)
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)

	_, err = NewPasswordHasher("md5")
	assert.Error(t, err)
}

func TestSHA256Hasher(t *testing.T) {
	h := SHA256Hasher{}

	hash, err := h.Hash("b")
	require.NoError(t, err)
	assert.Equal(t, "3e23e8160039594a33894f6564e1b1348bbd7a0088d42c4acb73eeaed59c009d", hash)

	again, err := h.Hash("b")
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	assert.True(t, h.Matches(hash, "b"))
	assert.False(t, h.Matches(hash, "c"))
	assert.False(t, h.Matches("", ""))
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("1234abcd")
	require.NoError(t, err)
	assert.NotEqual(t, "1234abcd", hash)

	assert.True(t, h.Matches(hash, "1234abcd"))
	assert.False(t, h.Matches(hash, "wrong"))
}

func TestTokenIssuer_Issue(t *testing.T) {
	issuer := NewTokenIssuer("secret", 0)

	tokenStr, err := issuer.Issue(models.User{ID: 1, Username: "us0p"})
	require.NoError(t, err)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, 1, claims.UserID)
	assert.Equal(t, "us0p", claims.Username)
	assert.Nil(t, claims.ExpiresAt)

	// Same input, same token: the payload is only {id, username}.
	again, err := issuer.Issue(models.User{ID: 1, Username: "us0p"})
	require.NoError(t, err)
	assert.Equal(t, tokenStr, again)
}

func TestTokenIssuer_IssueWithTTL(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	tokenStr, err := issuer.Issue(models.User{ID: 2, Username: "a"})
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tokenStr, claims)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestRequireToken(t *testing.T) {
	var seen *Claims
	handler := RequireToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/task", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var body response.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, response.ErrorResponse{Error: "missing authorization token"}, body)
	})

	t.Run("any non-empty value passes", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/task", nil)
		req.Header.Set("Authorization", "anything")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("token signed with another secret still passes", func(t *testing.T) {
		tokenStr, err := NewTokenIssuer("not-the-secret", 0).Issue(models.User{ID: 7, Username: "mari"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/task", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, 7, seen.UserID)
		assert.Equal(t, "mari", seen.Username)
	})
}
