package noise

import "crypto/subtle"

// lowOrderPoints lists the four Curve25519 public-key encodings this
// implementation rejects before performing any DH computation with them:
// all-zero, one, one order-8 point, and all-ff. Other encodings of
// small-order points (such as p-1 or the second order-8 point) are not in
// the list. Accepting a low-order point lets a malicious peer force a
// known, attacker-controlled shared secret.
var lowOrderPoints = [][32]byte{
	// 0x00...00
	{},
	// 0x01 followed by zeros (the identity element encoded in little endian)
	{0x01},
	// a point of order 8, little-endian u-coordinate 0xe0eb7a7c...b800.
	{
		0xe0, 0xeb, 0x7a, 0x7c, 0x3b, 0x41, 0xb8, 0xae,
		0x16, 0x56, 0xe3, 0xfa, 0xf1, 0x9f, 0xc4, 0x6a,
		0xda, 0x09, 0x8d, 0xeb, 0x9c, 0x32, 0xb1, 0xfd,
		0x86, 0x62, 0x05, 0x16, 0x5f, 0x49, 0xb8, 0x00,
	},
	// 0xff...ff
	{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	},
}

// isLowOrderPoint reports, in constant time with respect to pk's
// contents, whether pk matches one of the rejected low-order points.
func isLowOrderPoint(pk [32]byte) bool {
	found := 0
	for _, bad := range lowOrderPoints {
		if subtle.ConstantTimeCompare(pk[:], bad[:]) == 1 {
			found = 1
		}
	}
	return found == 1
}

// validatePublicKey enforces length and low-order rejection for any
// ephemeral or static public key received from a peer.
func validatePublicKey(pk []byte) ([32]byte, error) {
	var out [32]byte
	if len(pk) != 32 {
		return out, ErrInvalidPublicKey
	}
	copy(out[:], pk)
	if isLowOrderPoint(out) {
		return out, ErrInvalidPublicKey
	}
	return out, nil
}
