package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := New(WithCost(bcrypt.MinCost))

	tests := []struct {
		name     string
		password string
		attempt  string
		wantErr  error
	}{
		{name: "same password", password: "user@123", attempt: "user@123"},
		{name: "different password", password: "user@123", attempt: "user@124", wantErr: ErrMismatch},
		{name: "case differs", password: "Secret", attempt: "secret", wantErr: ErrMismatch},
		{name: "empty attempt", password: "secret", attempt: "", wantErr: ErrMismatch},
		{name: "unicode", password: "пароль-密码", attempt: "пароль-密码"},
		{name: "longer than 72 bytes", password: strings.Repeat("a", 120), attempt: strings.Repeat("a", 120)},
		{name: "differs after 72 bytes", password: strings.Repeat("a", 100) + "x", attempt: strings.Repeat("a", 100) + "y", wantErr: ErrMismatch},
		{name: "empty password", password: "", attempt: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)

			err = h.Compare(hash, tt.attempt)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHasher_SaltDiffersPerCall(t *testing.T) {
	h := New(WithCost(bcrypt.MinCost))

	first, err := h.Hash("secret")
	require.NoError(t, err)
	second, err := h.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, h.Compare(first, "secret"))
	assert.NoError(t, h.Compare(second, "secret"))
}

func TestHasher_MalformedHash(t *testing.T) {
	h := New()

	err := h.Compare("not-a-bcrypt-hash", "secret")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func TestWithCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, New().cost)
	assert.Equal(t, bcrypt.MinCost, New(WithCost(bcrypt.MinCost)).cost)
	assert.Equal(t, bcrypt.DefaultCost, New(WithCost(100)).cost)
	assert.Equal(t, bcrypt.DefaultCost, New(WithCost(1)).cost)
}
