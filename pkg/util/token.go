package util

import (
	"crypto/rand"
	"math/big"
)

// codeAlphabet omits 0/O/1/I so codes survive being read aloud over support
// calls.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomCode returns n characters drawn from the code alphabet, used as the
// collision-avoidance suffix on reference codes.
func RandomCode(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[num.Int64()]
	}
	return string(b), nil
}
