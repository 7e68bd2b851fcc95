package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
)

var ada = identity.Payload{Email: "ada@example.com", Name: "Ada", Picture: "pic", Sub: "g-1"}

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()
	secret := []byte("super-secret")

	tok, err := GenerateToken(ada, PurposeSession, secret, time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(tok, PurposeSession, secret)
	require.NoError(t, err)
	assert.Equal(t, ada, got)
}

func TestParseToken_Failures(t *testing.T) {
	t.Parallel()
	secret := []byte("secret")

	expired, err := GenerateToken(ada, PurposeSession, secret, -time.Second)
	require.NoError(t, err)
	pending, err := GenerateToken(ada, PurposePending, secret, time.Hour)
	require.NoError(t, err)
	foreign, err := GenerateToken(ada, PurposeSession, []byte("other"), time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Purpose: PurposeSession, User: ada}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, common.ErrTokenExpired},
		{"wrong purpose", pending, common.ErrInvalidToken},
		{"wrong secret", foreign, common.ErrInvalidToken},
		{"alg none", none, common.ErrInvalidToken},
		{"garbage", "abc.def", common.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, PurposeSession, secret)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, common.KindPermission, common.KindOf(err))
		})
	}
}
