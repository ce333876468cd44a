package mpt

import (
	"errors"
	"fmt"
)

// ErrMalformedPath is returned when hex-prefix encoded path can't be decoded.
var ErrMalformedPath = errors.New("malformed hex-prefix path")

// Hex-prefix flag bits stored in the first nibble of the encoded path.
const (
	flagOdd  = 0x1
	flagLeaf = 0x2
)

// toNibbles mangles path by splitting every byte into 2 containing low- and high- 4-byte part.
func toNibbles(path []byte) []byte {
	result := make([]byte, len(path)*2)
	for i := range path {
		result[i*2] = path[i] >> 4
		result[i*2+1] = path[i] & 0x0F
	}
	return result
}

// fromNibbles performs operation opposite to toNibbles and does no path validity checks.
func fromNibbles(path []byte) []byte {
	result := make([]byte, len(path)/2)
	for i := range result {
		result[i] = path[2*i]<<4 + path[2*i+1]
	}
	return result
}

// lcp returns the length of the longest common prefix of a and b.
func lcp(a, b []byte) int {
	if len(a) > len(b) {
		return lcp(b, a)
	}

	var i int
	for i = 0; i < len(a); i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}

// concat returns a fresh slice holding all the given nibble sequences. Paths
// are shared between immutable nodes, so they're never appended to in place.
func concat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	res := make([]byte, 0, n)
	for _, p := range parts {
		res = append(res, p...)
	}
	return res
}

// encodePath packs nibbles into hex-prefix form, the first nibble holds the
// leaf and odd-length flags, even-length paths are padded with zero nibble.
func encodePath(nibbles []byte, leaf bool) []byte {
	var flag byte
	if leaf {
		flag = flagLeaf
	}
	res := make([]byte, len(nibbles)/2+1)
	if len(nibbles)%2 == 1 {
		flag |= flagOdd
		res[0] = flag<<4 | nibbles[0]
		nibbles = nibbles[1:]
	} else {
		res[0] = flag << 4
	}
	for i := 0; i < len(nibbles); i += 2 {
		res[i/2+1] = nibbles[i]<<4 | nibbles[i+1]
	}
	return res
}

// decodePath unpacks hex-prefix encoded path returning nibbles and the leaf
// flag.
func decodePath(data []byte) ([]byte, bool, error) {
	if len(data) == 0 {
		return nil, false, fmt.Errorf("%w: empty path", ErrMalformedPath)
	}
	flag := data[0] >> 4
	if flag > flagOdd|flagLeaf {
		return nil, false, fmt.Errorf("%w: invalid flag %d", ErrMalformedPath, flag)
	}
	var res []byte
	if flag&flagOdd != 0 {
		res = make([]byte, 0, len(data)*2-1)
		res = append(res, data[0]&0x0F)
	} else {
		if data[0]&0x0F != 0 {
			return nil, false, fmt.Errorf("%w: non-zero padding nibble", ErrMalformedPath)
		}
		res = make([]byte, 0, len(data)*2-2)
	}
	res = append(res, toNibbles(data[1:])...)
	return res, flag&flagLeaf != 0, nil
}
