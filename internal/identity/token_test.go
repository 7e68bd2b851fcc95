package identity

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sheetsync/internal/common"
)

func segment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestDecode_RoundTrip(t *testing.T) {
	tests := []Claims{
		{Sub: "1234567890", Email: "ada@example.com", Name: "Ada Lovelace", Picture: "https://lh3.googleusercontent.com/a/x"},
		{Sub: "42", Email: "zoë@example.com", Name: "Zoë Ünïcode", EmailVerified: true, Issuer: GoogleIssuer, Audience: "client", Expiry: 1700000000},
		{},
	}
	for _, want := range tests {
		tok, err := Encode(want)
		require.NoError(t, err)

		got, err := Decode(tok)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecode_PaddedAndStandardAlphabet(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"email":"a@b.c","name":"?>"}`))
	got, err := Decode("h." + payload + ".s")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got.Email)
	assert.Equal(t, "?>", got.Name)

	std := base64.StdEncoding.EncodeToString([]byte(`{"name":"?>?>"}`))
	got, err = Decode("h." + std + ".s")
	require.NoError(t, err)
	assert.Equal(t, "?>?>", got.Name)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one segment", "abc"},
		{"two segments", "a." + segment(`{}`)},
		{"four segments", "a." + segment(`{}`) + ".c.d"},
		{"empty middle", "a..c"},
		{"empty signature", "a." + segment(`{}`) + "."},
		{"bad base64", "a.!!!.c"},
		{"not utf8", "a." + base64.RawURLEncoding.EncodeToString([]byte{0xff, 0xfe}) + ".c"},
		{"not json", "a." + segment(`hello`) + ".c"},
		{"json array", "a." + segment(`[1,2]`) + ".c"},
		{"json null", "a." + segment(`null`) + ".c"},
		{"wrong field type", "a." + segment(`{"email":7}`) + ".c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrDecode)
			assert.Equal(t, common.KindDecode, common.KindOf(err))
		})
	}
}

func TestDecodeOnly_Verify(t *testing.T) {
	tok, err := Encode(Claims{Sub: "s", Email: "e@x.io", Name: "N", Picture: "P", Audience: "ignored"})
	require.NoError(t, err)

	p, err := DecodeOnly{}.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, Payload{Email: "e@x.io", Name: "N", Picture: "P", Sub: "s"}, p)

	_, err = DecodeOnly{}.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrDecode)
}
