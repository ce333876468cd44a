package util

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Uint256Size is the size of Uint256 in bytes.
const Uint256Size = 32

// Uint256 is a 32 byte digest. Bytes are kept in the order the hash function
// produces them, so String and BytesBE agree with the usual Ethereum notation.
type Uint256 [Uint256Size]uint8

// Uint256DecodeStringBE attempts to decode the given string (with or without
// 0x prefix) into a Uint256.
func Uint256DecodeStringBE(s string) (u Uint256, err error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Uint256Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", Uint256Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint256DecodeBytesBE(b)
}

// Uint256DecodeBytesBE attempts to decode the given bytes into a Uint256.
func Uint256DecodeBytesBE(b []byte) (u Uint256, err error) {
	if len(b) != Uint256Size {
		return u, fmt.Errorf("expected []byte of size %d got %d", Uint256Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// BytesBE returns a byte slice representation of u.
func (u Uint256) BytesBE() []byte {
	b := make([]byte, Uint256Size)
	copy(b, u[:])
	return b
}

// Equals returns true if both Uint256 values are the same.
func (u Uint256) Equals(other Uint256) bool {
	return u == other
}

// IsZero returns true for an all-zero digest.
func (u Uint256) IsZero() bool {
	return u == Uint256{}
}

// String implements the stringer interface.
func (u Uint256) String() string {
	return "0x" + hex.EncodeToString(u[:])
}

// StringBE returns the hex representation of u without 0x prefix.
func (u Uint256) StringBE() string {
	return hex.EncodeToString(u[:])
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *Uint256) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*u, err = Uint256DecodeStringBE(js)
	return err
}

// MarshalJSON implements the json marshaller interface.
func (u Uint256) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (u *Uint256) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	res, err := Uint256DecodeStringBE(s)
	if err != nil {
		return err
	}
	*u = res
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (u Uint256) MarshalYAML() (any, error) {
	return u.String(), nil
}
