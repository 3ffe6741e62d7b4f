package storage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Password hashes are stored in PHC string format,
// $argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<key>, with the salt and
// key base64-encoded without padding.
const phcPrefix = "$argon2id$v=19$"

func defaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      32,
		SaltLen:     16,
	}
}

func hashPassword(password string, p Argon2idParams) (string, error) {
	if p.Time == 0 {
		p = defaultArgon2idParams()
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen)
	return fmt.Sprintf(
		"%sm=%d,t=%d,p=%d$%s$%s",
		phcPrefix, p.MemoryKiB, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyPassword(encoded, password string) bool {
	p, salt, key, err := parsePHC(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen)
	return subtle.ConstantTimeCompare(candidate, key) == 1
}

// passwordParams reports the cost parameters a stored hash was produced with.
func passwordParams(encoded string) (Argon2idParams, bool) {
	p, _, _, err := parsePHC(encoded)
	return p, err == nil
}

func parsePHC(encoded string) (p Argon2idParams, salt, key []byte, err error) {
	rest, found := strings.CutPrefix(encoded, phcPrefix)
	if !found {
		return p, nil, nil, fmt.Errorf("unsupported password hash format")
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 3 {
		return p, nil, nil, fmt.Errorf("malformed password hash")
	}
	if _, err = fmt.Sscanf(fields[0], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &p.Parallelism); err != nil {
		return p, nil, nil, err
	}
	if salt, err = base64.RawStdEncoding.DecodeString(fields[1]); err != nil {
		return p, nil, nil, err
	}
	if key, err = base64.RawStdEncoding.DecodeString(fields[2]); err != nil {
		return p, nil, nil, err
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}
