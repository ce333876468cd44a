/*
Package hash contains the hash function used to address trie nodes.
*/
package hash

import (
	"github.com/nspcc-dev/mpt/pkg/util"
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the incoming byte slice using the legacy (pre-standard)
// Keccak-256 algorithm used by Ethereum.
func Keccak256(data []byte) util.Uint256 {
	var hash util.Uint256
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write(data)
	hasher.Sum(hash[:0])
	return hash
}
