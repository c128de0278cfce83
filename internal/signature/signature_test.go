package signature

import (
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := MoveMessage("chess-abc123abc123", "e4")
	sig, err := Sign(keys.PrivateKey, msg)
	require.NoError(t, err)

	assert.True(t, NewVerifier().Verify(keys.PublicKey, msg, sig))
}

func TestVerifyAcceptsCompressedKey(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)

	pub, err := ParsePublicKey(keys.PublicKey)
	require.NoError(t, err)
	compressed := hex.EncodeToString(pub.SerializeCompressed())

	msg := MoveMessage("chess-000000000000", "Nf3")
	sig, err := Sign(keys.PrivateKey, msg)
	require.NoError(t, err)

	assert.True(t, NewVerifier().Verify(compressed, msg, sig))
}

func TestVerifyRejectsOtherMessage(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)

	sig, err := Sign(keys.PrivateKey, MoveMessage("chess-aaaaaaaaaaaa", "e4"))
	require.NoError(t, err)

	v := NewVerifier()
	assert.False(t, v.Verify(keys.PublicKey, MoveMessage("chess-bbbbbbbbbbbb", "e4"), sig), "replay across sessions")
	assert.False(t, v.Verify(keys.PublicKey, MoveMessage("chess-aaaaaaaaaaaa", "d4"), sig), "different move")
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	signer, err := GenerateKeyPair()
	require.NoError(t, err)
	other, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := MoveMessage("chess-aaaaaaaaaaaa", "e4")
	sig, err := Sign(signer.PrivateKey, msg)
	require.NoError(t, err)

	assert.False(t, NewVerifier().Verify(other.PublicKey, msg, sig))
}

func TestVerifyMalformedInputsReturnFalse(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)
	msg := MoveMessage("chess-aaaaaaaaaaaa", "e4")
	sig, err := Sign(keys.PrivateKey, msg)
	require.NoError(t, err)

	tests := []struct {
		name      string
		publicKey string
		signature string
	}{
		{"empty key", "", sig},
		{"non-hex key", "zz", sig},
		{"truncated key", keys.PublicKey[:20], sig},
		{"empty signature", keys.PublicKey, ""},
		{"non-hex signature", keys.PublicKey, "not-a-signature"},
		{"truncated signature", keys.PublicKey, sig[:len(sig)-4]},
		{"trailing bytes", keys.PublicKey, sig + "00"},
	}

	v := NewVerifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, v.Verify(tt.publicKey, msg, tt.signature))
			})
		})
	}
}

func TestParseSignatureRejectsZeroAndOverflow(t *testing.T) {
	// SEQUENCE { INTEGER 0, INTEGER 1 }
	_, err := parseSignature("3006020100020101")
	assert.ErrorIs(t, err, ErrMalformedSignature)

	// r equal to the group order
	order := secp256k1.Params().N.Bytes()
	der := append([]byte{0x30, byte(2 + 33 + 3), 0x02, 33, 0x00}, order...)
	der = append(der, 0x02, 0x01, 0x01)
	_, err = parseSignature(hex.EncodeToString(der))
	assert.ErrorIs(t, err, ErrMalformedSignature)
}

func TestSignRejectsMalformedKey(t *testing.T) {
	_, err := Sign("abcd", []byte("x"))
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func TestMoveMessage(t *testing.T) {
	assert.Equal(t, []byte("chess-0123456789ab|e4"), MoveMessage("chess-0123456789ab", "e4"))
}
