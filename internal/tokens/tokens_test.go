package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/config"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

func seg(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

func newManager(secret string, ttl time.Duration) *Manager {
	return NewManager(config.JWTConfig{Secret: secret, AccessTokenTTL: ttl})
}

func TestGenerateAndParse(t *testing.T) {
	m := newManager("test-secret-32-bytes-should-be-long-enough", 2*time.Minute)
	u := &models.User{ID: "user-123", Name: "Test User", Email: "test@example.com", Role: models.RoleAdmin}

	tok, err := m.Generate(u)
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "user-123", claims.Subject)
	require.Equal(t, models.RoleAdmin, claims.Role)
	require.InDelta(t, (2 * time.Minute).Seconds(), claims.Remaining(time.Now()).Seconds(), 5)
}

func TestParseExpired(t *testing.T) {
	m := newManager("another-secret-32-bytes-longgggg", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	tok, err := m.Generate(&models.User{ID: "u2"})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(tok)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	require.Contains(t, err.Error(), "expired")
}

func TestParseWrongSecret(t *testing.T) {
	tok, err := newManager("secret-one-32-bytes-xxxxxxxxxxxxxxxx", time.Minute).Generate(&models.User{ID: "u3"})
	require.NoError(t, err)
	_, err = newManager("different-secret-xxxxxxxxxxxxxxxx", time.Minute).Parse(tok)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestParseMalformed(t *testing.T) {
	_, err := newManager("x", time.Minute).Parse("not.a.jwt")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestParseRejectsAlgNone(t *testing.T) {
	header := seg([]byte(`{"alg":"none"}`))
	payload := seg([]byte(`{"sub":"u-none","iss":"zedemy","exp":9999999999}`))
	_, err := newManager("x", time.Minute).Parse(header + "." + payload + ".")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestParseRejectsTamperedPayload(t *testing.T) {
	m := newManager("tamper-test-secret-32-bytes-xxxxxxx", 5*time.Minute)
	tok, err := m.Generate(&models.User{ID: "user-t", Role: models.RoleUser})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	parts[1] = seg([]byte(strings.Replace(string(payload), `"role":"user"`, `"role":"admin"`, 1)))

	_, err = m.Parse(strings.Join(parts, "."))
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}
