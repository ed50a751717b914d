package principal

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// Principals (borrowers, governors, the pool, the owner) are 32-char lowercase hex.
var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// New returns a fresh random principal identity.
func New() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func Valid(p string) bool { return reHex32.MatchString(p) }

