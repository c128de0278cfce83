// Package signature verifies and produces move signatures.
//
// Keys live on secp256k1. Public keys are hex-encoded SEC1 points (compressed
// or uncompressed), signatures are hex-encoded DER ECDSA signatures over the
// SHA-256 digest of the message. Both ends must agree on these parameters.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/mcoot/signedchess/internal/model"
)

// Separator joins the session id and the move notation in a signed message
const Separator = "|"

// ErrMalformedSignature is returned when a signature cannot be decoded
var ErrMalformedSignature = errors.New("malformed signature")

// Verifier reports whether a signature is valid for a key and message
type Verifier interface {
	Verify(publicKey string, message []byte, signature string) bool
}

// MoveMessage builds the message a player signs to submit a move
func MoveMessage(sessionID model.SessionID, notation string) []byte {
	return []byte(string(sessionID) + Separator + notation)
}

// Secp256k1 verifies ECDSA signatures on the secp256k1 curve
type Secp256k1 struct{}

// NewVerifier creates a secp256k1 verifier
func NewVerifier() *Secp256k1 {
	return &Secp256k1{}
}

var _ Verifier = (*Secp256k1)(nil)

// Verify never fails outward: any decoding problem is reported as an invalid signature.
func (v *Secp256k1) Verify(publicKey string, message []byte, signature string) bool {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := parseSignature(signature)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(message)
	return sig.Verify(digest[:], pub)
}

// ParsePublicKey decodes a hex-encoded SEC1 public key
func ParsePublicKey(publicKey string) (*secp256k1.PublicKey, error) {
	raw, err := hex.DecodeString(publicKey)
	if err != nil {
		return nil, err
	}
	return secp256k1.ParsePubKey(raw)
}

// parseSignature decodes a hex DER signature into its r and s scalars
func parseSignature(signature string) (*ecdsa.Signature, error) {
	der, err := hex.DecodeString(signature)
	if err != nil {
		return nil, ErrMalformedSignature
	}

	var inner cryptobyte.String
	var r, s []byte
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(&r) ||
		!inner.ReadASN1Integer(&s) ||
		!inner.Empty() {
		return nil, ErrMalformedSignature
	}

	rScalar, ok := toScalar(r)
	if !ok {
		return nil, ErrMalformedSignature
	}
	sScalar, ok := toScalar(s)
	if !ok {
		return nil, ErrMalformedSignature
	}
	return ecdsa.NewSignature(rScalar, sScalar), nil
}

// toScalar rejects values that are zero or not below the group order
func toScalar(b []byte) (*secp256k1.ModNScalar, bool) {
	if len(b) > 32 {
		return nil, false
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(b); overflow || scalar.IsZero() {
		return nil, false
	}
	return &scalar, true
}
