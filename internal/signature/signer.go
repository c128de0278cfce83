package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrMalformedKey is returned when a private key cannot be decoded
var ErrMalformedKey = errors.New("malformed private key")

// KeyPair holds a hex-encoded secp256k1 key pair
type KeyPair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// GenerateKeyPair creates a fresh key pair. The public key is uncompressed.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{
		PublicKey:  hex.EncodeToString(priv.PubKey().SerializeUncompressed()),
		PrivateKey: hex.EncodeToString(priv.Serialize()),
	}, nil
}

// Sign produces a hex DER signature over the SHA-256 digest of message
func Sign(privateKey string, message []byte) (string, error) {
	raw, err := hex.DecodeString(privateKey)
	if err != nil || len(raw) != 32 {
		return "", ErrMalformedKey
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	digest := sha256.Sum256(message)
	return hex.EncodeToString(ecdsa.Sign(priv, digest[:]).Serialize()), nil
}
