package random

import (
	"math/rand"
	"time"

	"github.com/nspcc-dev/mpt/pkg/crypto/hash"
	"github.com/nspcc-dev/mpt/pkg/util"
)

// String returns a random string with the n as its length.
func String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(Int(65, 90))
	}

	return string(b)
}

// Uint256 returns a random Uint256.
func Uint256() util.Uint256 {
	str := String(20)
	return hash.Keccak256([]byte(str))
}

// Bytes returns a random byte slice of specified length.
func Bytes(n int) []byte {
	b := make([]byte, n)
	Fill(b)
	return b
}

// Fill fills buffer with random bytes.
func Fill(buf []byte) {
	// Rand reader returns no errors
	r.Read(buf)
}

// Int returns a random integer in [minI,maxI).
func Int(minI, maxI int) int {
	return minI + r.Intn(maxI-minI)
}

var r = rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
