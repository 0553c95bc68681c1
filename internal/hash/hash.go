package hash

import "golang.org/x/crypto/bcrypt"

// Hash returns a bcrypt hash of secret. Used for one-time codes at rest.
func Hash(secret string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashbytes), nil
}

func Check(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
