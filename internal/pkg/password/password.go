package password

import "golang.org/x/crypto/bcrypt"

// Hash produces a salted bcrypt hash of a plaintext password. The hash
// is irreversible; plaintext is never persisted anywhere.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare returns nil only when plain hashes to the stored value.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
