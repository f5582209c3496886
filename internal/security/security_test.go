package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/common"
)

func TestJWTRoundTrip(t *testing.T) {
	provider := NewJWTProvider("secret")
	id := common.NewUUID()

	token, expiresAt, err := provider.Generate(id, "admin", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := provider.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestJWTRejectsForeignSecretAndExpiry(t *testing.T) {
	token, _, err := NewJWTProvider("secret").Generate(common.NewUUID(), "user", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTProvider("other").Parse(token)
	assert.Error(t, err)

	expired := NewJWTProvider("secret")
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Parse(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	ok, err := CheckPassword(hash, "s3cret!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}
