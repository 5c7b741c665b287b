package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	createdAt := time.Date(2025, 5, 15, 14, 30, 45, 123456789, time.UTC)
	entryID := "f7a9e2d4-1f0b-4c55-9f51-2f8d9f0a1b2c"

	token := EncodeToken(createdAt, entryID)
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedAt, decodedID, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, createdAt, decodedAt, "Creation time should match after decode")
	assert.Equal(t, entryID, decodedID, "ID should match after decode")

	// IDs containing the separator survive the round trip.
	weirdID := "entry|with|pipes"
	weirdToken := EncodeToken(createdAt, weirdID)
	_, decodedWeird, err := DecodeToken(weirdToken)
	assert.NoError(t, err)
	assert.Equal(t, weirdID, decodedWeird, "Only the first separator splits the token")

	// Zero time still round-trips.
	zeroToken := EncodeToken(time.Time{}, entryID)
	decodedZero, _, err := DecodeToken(zeroToken)
	assert.NoError(t, err)
	assert.Equal(t, time.Time{}, decodedZero)
}

func TestDecodeTokenError(t *testing.T) {
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	// Base64 of a date without a separator.
	_, _, err = DecodeToken("MjAyMy0wNS0xNVQwMDowMDowMFo=")
	assert.Error(t, err, "Should return an error for a missing separator")
	assert.Contains(t, err.Error(), "split")

	// Base64 of "notadate|some-id".
	_, _, err = DecodeToken("bm90YWRhdGV8c29tZS1pZA==")
	assert.Error(t, err, "Should return an error for an unparsable time")
	assert.Contains(t, err.Error(), "created_at parse")

	// Base64 of a valid time with an empty id part.
	emptyIDToken := EncodeToken(time.Now().UTC(), "")
	_, _, err = DecodeToken(emptyIDToken)
	assert.Error(t, err, "Should return an error for an empty id")
}
