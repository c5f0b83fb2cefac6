package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/argon2"
)

// LegacyPrefix marks digests produced by Hash.
const LegacyPrefix = "hash_"

const argon2Prefix = "$argon2id$"

// Argon2id parameters.
const (
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Hash is the site's legacy rolling hash over UTF-16 code units:
// h = h*31 + unit, wrapped to int32, rendered as |h| in base 36. It is not a
// password hash in any cryptographic sense; it is kept so that accounts
// created by the browser version still authenticate.
func Hash(password string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(password)) {
		h = h*31 + int32(u)
	}

	n := int64(h)
	if n < 0 {
		n = -n
	}

	return LegacyPrefix + strconv.FormatInt(n, 36)
}

// Hasher turns passwords into stored digests.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
}

// LegacyHasher stores Hash digests.
type LegacyHasher struct{}

func (LegacyHasher) Hash(password string) (string, error) {
	return Hash(password), nil
}

func (LegacyHasher) Verify(password, digest string) (bool, error) {
	return Verify(password, digest)
}

// Argon2Hasher stores salted argon2id digests in the PHC string format.
type Argon2Hasher struct{}

func (Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (Argon2Hasher) Verify(password, digest string) (bool, error) {
	return Verify(password, digest)
}

// Verify checks password against a digest of either supported scheme.
func Verify(password, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, LegacyPrefix):
		return subtle.ConstantTimeCompare([]byte(Hash(password)), []byte(digest)) == 1, nil
	case strings.HasPrefix(digest, argon2Prefix):
		return verifyArgon2(password, digest)
	default:
		return false, ErrUnknownDigest
	}
}

func verifyArgon2(password, digest string) (bool, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false, ErrUnknownDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var (
		memory, timeCost uint32
		threads          uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return false, fmt.Errorf("parsing parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decoding salt: %w", err)
	}

	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decoding key: %w", err)
	}

	got := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// HasherByName resolves the SUNSET_PASSWORD_HASH setting.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case "", "argon2id":
		return Argon2Hasher{}, nil
	case "legacy":
		return LegacyHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hash %q", name)
	}
}
