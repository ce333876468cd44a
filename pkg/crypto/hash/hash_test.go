package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeccak256(t *testing.T) {
	testCases := []struct {
		input    []byte
		expected string
	}{
		{nil, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{[]byte{0x80}, "56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"},
		{[]byte("abc"), "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, Keccak256(tc.input).StringBE())
	}
}
