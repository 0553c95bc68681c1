package tokens

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func NewJTI() string { return uuid.NewString() }
