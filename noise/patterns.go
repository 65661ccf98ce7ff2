package noise

// token is a single step of a Noise message pattern.
type token byte

const (
	tokenE  token = iota // generate/read an ephemeral key
	tokenS               // encrypt-and-hash/decrypt-and-hash a static key
	tokenEE              // DH(local ephemeral, remote ephemeral)
	tokenES              // DH(initiator ephemeral/static, responder static/ephemeral)
	tokenSE              // DH(initiator static/ephemeral, responder ephemeral/static)
	tokenSS              // DH(local static, remote static)
)

// messagePattern is one "→" or "←" line of a handshake pattern: an
// ordered list of tokens applied by the sender, consumed by the receiver.
type messagePattern []token

// Pattern identifies one of the three supported Noise handshake patterns.
type Pattern int

const (
	PatternXX Pattern = iota
	PatternIK
	PatternNK
)

func (p Pattern) String() string {
	switch p {
	case PatternXX:
		return "XX"
	case PatternIK:
		return "IK"
	case PatternNK:
		return "NK"
	default:
		return "unknown"
	}
}

// messagePatterns returns, in wire order, the message patterns an
// initiator sends and a responder sends for the given Pattern. Patterns
// alternate initiator/responder/initiator/... starting with the
// initiator.
func messagePatterns(p Pattern) []messagePattern {
	switch p {
	case PatternXX:
		return []messagePattern{
			{tokenE},
			{tokenE, tokenEE, tokenS, tokenES},
			{tokenS, tokenSE},
		}
	case PatternIK:
		return []messagePattern{
			{tokenE, tokenES, tokenS, tokenSS},
			{tokenE, tokenEE, tokenSE},
		}
	case PatternNK:
		return []messagePattern{
			{tokenE, tokenES},
			{tokenE, tokenEE},
		}
	default:
		return nil
	}
}

// protocolName returns the full Noise protocol name string mixed into the
// initial handshake hash, e.g. "Noise_XX_25519_ChaChaPoly_SHA256".
func protocolName(p Pattern) string {
	return "Noise_" + p.String() + "_25519_ChaChaPoly_SHA256"
}

// hasPreMessageStatic reports whether the pattern requires the
// responder's static public key to be mixed into the hash before the
// first real message (true for IK and NK; false for XX).
func hasPreMessageStatic(p Pattern) bool {
	return p == PatternIK || p == PatternNK
}
