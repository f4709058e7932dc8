package jwt

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJWT_GenerateAndGetClaims(t *testing.T) {
	ctx := context.Background()
	j := New(WithSecretKey("test-secret"), WithExpiration(time.Minute))

	token, err := j.Generate(ctx, 42, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.NoError(t, j.Validate(ctx, token))

	claims, err := j.GetClaims(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestJWT_ExpirationWindow(t *testing.T) {
	ctx := context.Background()
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	issuer := New(WithSecretKey("secret"), WithClock(fixedClock(issuedAt)))
	token, err := issuer.Generate(ctx, 7, "bob", "bob@example.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "at issuance", at: issuedAt},
		{name: "halfway", at: issuedAt.Add(15 * time.Minute)},
		{name: "last second", at: issuedAt.Add(30*time.Minute - time.Second)},
		{name: "exactly at expiry", at: issuedAt.Add(30 * time.Minute), wantErr: ErrTokenExpired},
		{name: "after expiry", at: issuedAt.Add(2 * time.Hour), wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := New(WithSecretKey("secret"), WithClock(fixedClock(tt.at)))

			claims, err := verifier.GetClaims(ctx, token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), claims.UserID)
		})
	}
}

func TestJWT_ExpirationWindow_SubSecondIssue(t *testing.T) {
	ctx := context.Background()
	second := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuedAt := second.Add(700 * time.Millisecond)

	issuer := New(WithSecretKey("secret"), WithClock(fixedClock(issuedAt)))
	token, err := issuer.Generate(ctx, 7, "bob", "bob@example.com")
	require.NoError(t, err)

	claims, err := New(WithSecretKey("secret"), WithClock(fixedClock(issuedAt))).GetClaims(ctx, token)
	require.NoError(t, err)
	assert.True(t, second.Equal(claims.IssuedAt.Time), "iat truncated to the second")
	assert.True(t, second.Add(30*time.Minute).Equal(claims.ExpiresAt.Time), "exp truncated to the second")

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "just before truncated expiry", at: second.Add(30*time.Minute - time.Millisecond)},
		{name: "at truncated expiry", at: second.Add(30 * time.Minute), wantErr: ErrTokenExpired},
		{name: "full lifetime after issuance", at: issuedAt.Add(30 * time.Minute), wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithSecretKey("secret"), WithClock(fixedClock(tt.at))).GetClaims(ctx, token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJWT_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	j := New(WithSecretKey("test-secret"), WithExpiration(-time.Minute)) // already expired

	token, err := j.Generate(ctx, 1, "alice", "alice@example.com")
	require.NoError(t, err)

	err = j.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	claims, err := j.GetClaims(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Nil(t, claims)
}

func TestJWT_InvalidToken(t *testing.T) {
	ctx := context.Background()
	j := New(WithSecretKey("secret"))

	err := j.Validate(ctx, "invalid.token.string")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	claims, err := j.GetClaims(ctx, "invalid.token.string")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.Nil(t, claims)
}

func TestJWT_Validate_WrongSecret(t *testing.T) {
	ctx := context.Background()
	j1 := New(WithSecretKey("secret1"))
	j2 := New(WithSecretKey("secret2"))

	token, err := j1.Generate(ctx, 1, "alice", "alice@example.com")
	require.NoError(t, err)

	err = j2.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestJWT_RejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	secret := "secret"
	j := New(WithSecretKey(secret))
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username:         "ghost",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1,
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"other algorithm": hs512,
		"unsigned":        none,
		"missing id":      noID,
		"missing exp":     noExp,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := j.GetClaims(ctx, token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestJWT_GetTokenFromRequest(t *testing.T) {
	j := New()
	ctx := context.Background()

	tests := []struct {
		name          string
		header        string
		expectedToken string
		expectedErr   error
	}{
		{"ValidBearer", "Bearer mytoken123", "mytoken123", nil},
		{"LowercaseBearer", "bearer mytoken123", "mytoken123", nil},
		{"NoHeader", "", "", ErrAuthorizationMissing},
		{"InvalidFormat", "Token mytoken123", "", ErrAuthorizationFormat},
		{"TooManyParts", "Bearer a b c", "", ErrAuthorizationFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, err := j.GetTokenFromRequest(ctx, req)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedToken, token)
			}
		})
	}
}
