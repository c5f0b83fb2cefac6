package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	tests := []struct {
		password string
		want     string
	}{
		{"", "hash_0"},
		{"a", "hash_2p"},
		{"ab", "hash_2e9"},
		{"admin123", "hash_g10hvh"},
		{"user123", "hash_2fmjy1"},
		{"secret1", "hash_wkzr0h"},
		{"ção1234", "hash_j8ams5"},
		{"🎉", "hash_12099"},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, Hash(tt.password))
		})
	}
}

func TestVerify(t *testing.T) {
	ok, err := Verify("admin123", "hash_g10hvh")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("admin124", "hash_g10hvh")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Verify("admin123", "plaintext")
	assert.ErrorIs(t, err, ErrUnknownDigest)
}

func TestArgon2Hasher(t *testing.T) {
	h := Argon2Hasher{}

	d1, err := h.Hash("secret1")
	require.NoError(t, err)
	d2, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(d1, "$argon2id$v=19$m=19456,t=2,p=1$"))
	assert.NotEqual(t, d1, d2, "digests must be salted")

	ok, err := h.Verify("secret1", d1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("secret2", d1)
	require.NoError(t, err)
	assert.False(t, ok)

	// Legacy digests keep working after switching hashers.
	ok, err = h.Verify("user123", "hash_2fmjy1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasherByName(t *testing.T) {
	h, err := HasherByName("")
	require.NoError(t, err)
	assert.IsType(t, Argon2Hasher{}, h)

	h, err = HasherByName("legacy")
	require.NoError(t, err)
	assert.IsType(t, LegacyHasher{}, h)

	_, err = HasherByName("bcrypt")
	assert.Error(t, err)
}
