package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAccessClaimsFromToken_Valid(t *testing.T) {
	t.Parallel()

	secret := []byte("access-secret")
	tok := sign(t, jwt.SigningMethodHS256, AccessClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, secret)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestAccessClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("access-secret")
	expired := sign(t, jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}, secret)
	otherAlg := sign(t, jwt.SigningMethodHS512, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}, secret)
	wrongKey := sign(t, jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}, []byte("other"))

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "hs512", token: otherAlg},
		{name: "wrong key", token: wrongKey},
		{name: "garbage", token: "not-a-jwt"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := AccessClaimsFromToken(tt.token, secret)
			require.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestRefreshClaimsFromToken_KeepsJTI(t *testing.T) {
	t.Parallel()

	secret := []byte("refresh-secret")
	jti := NewJTI()
	tok := sign(t, jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-2",
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, secret)

	claims, err := RefreshClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "user-2", claims.Subject)
}

func TestSha256Hex(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", Sha256Hex("hello"))
	assert.Len(t, Sha256Hex("anything"), 64)
}
