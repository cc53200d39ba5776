package utils

import (
	"eventbooking/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEventClock(t *testing.T) {
	assert.True(t, IsEventClock("07:30 PM"))
	assert.True(t, IsEventClock("12:00 am"))
	assert.False(t, IsEventClock("13:00 PM"))
	assert.False(t, IsEventClock("7:30 PM"))
	assert.False(t, IsEventClock("19:30"))
}

func TestIsPhone(t *testing.T) {
	assert.True(t, IsPhone("+639171234567"))
	assert.True(t, IsPhone("0917-123-4567"))
	assert.False(t, IsPhone("12345"))
	assert.False(t, IsPhone("phone-number"))
}

func TestParseEventDate(t *testing.T) {
	d, err := ParseEventDate("2030-05-17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 17, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseEventDate("2030-05-17T22:10:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 17, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseEventDate("17/05/2030")
	assert.Error(t, err)
}

func TestCombineDateAndClock(t *testing.T) {
	day := time.Date(2030, 5, 17, 0, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"07:30 PM": time.Date(2030, 5, 17, 19, 30, 0, 0, time.UTC),
		"12:00 PM": time.Date(2030, 5, 17, 12, 0, 0, 0, time.UTC),
		"12:15 AM": time.Date(2030, 5, 17, 0, 15, 0, 0, time.UTC),
		"09:05 am": time.Date(2030, 5, 17, 9, 5, 0, 0, time.UTC),
	}
	for clock, want := range cases {
		got, err := CombineDateAndClock(day, clock)
		require.NoError(t, err, clock)
		assert.Equal(t, want, got, clock)
	}

	_, err := CombineDateAndClock(day, "25:00 PM")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, ComparePassword(hash, "s3cret!"))
	assert.False(t, ComparePassword(hash, "wrong"))
}

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT(42, types.ROLE_ADMIN, time.Now())
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, types.ROLE_ADMIN, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestJWTExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT(1, types.ROLE_USER, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = ParseJWT(token)
	assert.Error(t, err)
}

func TestJWTWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := GenerateJWT(1, types.ROLE_USER, time.Now())
	assert.Error(t, err)
}
