package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adoptly/apiserver/internal/logging"
	"github.com/adoptly/apiserver/types"
)

func signClaims(t *testing.T, method jwt.SigningMethod, claims tokenClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseToken(t *testing.T) {
	h := NewAuthHandler(nil, "secret", time.Hour, logging.Discard())
	valid, err := h.issueToken(types.User{ID: 5, Role: types.RoleAdmin})
	require.NoError(t, err)

	claims, err := parseToken(valid, h.secret)
	require.NoError(t, err)
	assert.Equal(t, "5", claims.Subject)
	assert.Equal(t, types.RoleAdmin, claims.Role)

	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	tests := map[string]string{
		"wrong secret": signClaims(t, jwt.SigningMethodHS256, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "5", ExpiresAt: exp},
		}, "other"),
		"wrong algorithm": signClaims(t, jwt.SigningMethodHS384, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "5", ExpiresAt: exp},
		}, "secret"),
		"foreign issuer": signClaims(t, jwt.SigningMethodHS256, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere", Subject: "5", ExpiresAt: exp},
		}, "secret"),
		"no expiry": signClaims(t, jwt.SigningMethodHS256, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "5"},
		}, "secret"),
		"expired": signClaims(t, jwt.SigningMethodHS256, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer: tokenIssuer, Subject: "5",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}, "secret"),
		"non-numeric subject": signClaims(t, jwt.SigningMethodHS256, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "jane", ExpiresAt: exp},
		}, "secret"),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseToken(token, h.secret)
			require.Error(t, err)
		})
	}
}
