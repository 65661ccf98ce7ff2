// Package bech32 implements the checksummed base-32 encoding used by
// nostr's nsec/npub key encoding. It mirrors the error-type shape used by
// Decred's bech32 package (see ErrMixedCase, ErrInvalidCharacter below)
// but reimplements the codec itself against the exact generator
// polynomial pinned by this project's key-export format.
package bech32

import (
	"fmt"
	"strings"
)

const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// gen is the BCH generator polynomial used by the bech32 checksum.
var gen = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

const xorConstant = 1

const maxLength = 90

// ErrMixedCase is returned when the bech32 string has both lower and
// uppercase characters.
type ErrMixedCase struct{}

func (ErrMixedCase) Error() string { return "bech32: string is not all lowercase or all uppercase" }

// ErrInvalidCharacter is returned when a character outside the bech32
// charset is encountered.
type ErrInvalidCharacter rune

func (e ErrInvalidCharacter) Error() string {
	return fmt.Sprintf("bech32: invalid character %q", rune(e))
}

// ErrInvalidSeparatorIndex is returned when the '1' separator is missing
// or in an invalid position.
type ErrInvalidSeparatorIndex int

func (e ErrInvalidSeparatorIndex) Error() string {
	return fmt.Sprintf("bech32: invalid separator index %d", int(e))
}

// ErrInvalidChecksum is returned when the trailing checksum does not
// verify against the human-readable part and data.
type ErrInvalidChecksum struct{}

func (ErrInvalidChecksum) Error() string { return "bech32: invalid checksum" }

// ErrInvalidLength is returned when the encoded string exceeds the
// maximum length this codec accepts.
type ErrInvalidLength int

func (e ErrInvalidLength) Error() string {
	return fmt.Sprintf("bech32: invalid length %d", int(e))
}

func polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		b := byte(chk >> 25)
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (b>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func hrpExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, byte(c)>>5)
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, byte(c)&31)
	}
	return out
}

func verifyChecksum(hrp string, data []byte) bool {
	values := append(hrpExpand(hrp), data...)
	return polymod(values) == xorConstant
}

func createChecksum(hrp string, data []byte) []byte {
	values := append(hrpExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := polymod(values) ^ xorConstant
	checksum := make([]byte, 6)
	for i := 0; i < 6; i++ {
		checksum[i] = byte((mod >> uint(5*(5-i))) & 31)
	}
	return checksum
}

// Encode encodes data (a slice of 5-bit groups) into a bech32 string with
// the given human-readable part.
func Encode(hrp string, data []byte) (string, error) {
	combined := append(append([]byte{}, data...), createChecksum(hrp, data)...)
	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, b := range combined {
		if int(b) >= len(charset) {
			return "", fmt.Errorf("bech32: invalid 5-bit value %d", b)
		}
		sb.WriteByte(charset[b])
	}
	out := sb.String()
	if len(out) > maxLength {
		return "", ErrInvalidLength(len(out))
	}
	return out, nil
}

// Decode decodes a bech32 string into its human-readable part and 5-bit
// data groups (checksum stripped and verified).
func Decode(s string) (hrp string, data []byte, err error) {
	if len(s) > maxLength {
		return "", nil, ErrInvalidLength(len(s))
	}
	lower := strings.ToLower(s)
	upper := strings.ToUpper(s)
	if s != lower && s != upper {
		return "", nil, ErrMixedCase{}
	}
	s = lower

	sep := strings.LastIndexByte(s, '1')
	if sep < 1 || sep+7 > len(s) {
		return "", nil, ErrInvalidSeparatorIndex(sep)
	}
	hrp = s[:sep]
	dataPart := s[sep+1:]

	values := make([]byte, len(dataPart))
	for i, c := range dataPart {
		idx := strings.IndexRune(charset, c)
		if idx < 0 {
			return "", nil, ErrInvalidCharacter(c)
		}
		values[i] = byte(idx)
	}

	if !verifyChecksum(hrp, values) {
		return "", nil, ErrInvalidChecksum{}
	}

	return hrp, values[:len(values)-6], nil
}

// ConvertBits performs the bit-width conversion used to pack 8-bit bytes
// into the 5-bit groups bech32 encodes, and back.
func ConvertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	maxv := uint32(1<<toBits) - 1
	var out []byte

	for _, value := range data {
		v := uint32(value)
		if v>>fromBits != 0 {
			return nil, fmt.Errorf("bech32: invalid data range for %d-bit input", fromBits)
		}
		acc = (acc << fromBits) | v
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits || (acc<<(toBits-bits))&maxv != 0 {
		return nil, fmt.Errorf("bech32: invalid padding")
	}

	return out, nil
}
