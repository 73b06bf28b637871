// Package sui holds the wallet key material and submits signed swap transactions
// to a Sui full node over JSON-RPC.
package sui

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/rewired-gh/suimomentum/internal/models"
)

// ed25519Flag is the signature scheme flag byte for ed25519 keys.
const ed25519Flag byte = 0x00

// Keypair is an ed25519 wallet key.
type Keypair struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// LoadKey parses wallet key material. Accepted forms are the keystore encoding
// (base64 of flag || 32-byte seed) and a 32-byte seed as hex. Any failure is a
// FatalConfigError since the agent cannot trade without an identity.
func LoadKey(material string) (*Keypair, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, &models.FatalConfigError{Field: "wallet.private_key", Err: errors.New("missing key material")}
	}

	seed, err := decodeSeed(material)
	if err != nil {
		return nil, &models.FatalConfigError{Field: "wallet.private_key", Err: err}
	}

	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

func decodeSeed(material string) ([]byte, error) {
	hexStr := strings.TrimPrefix(material, "0x")
	if len(hexStr) == 2*ed25519.SeedSize {
		if b, err := hex.DecodeString(hexStr); err == nil {
			return b, nil
		}
	}

	b, err := base64.StdEncoding.DecodeString(material)
	if err != nil {
		return nil, fmt.Errorf("key is neither hex nor base64: %w", err)
	}
	switch len(b) {
	case ed25519.SeedSize + 1:
		if b[0] != ed25519Flag {
			return nil, fmt.Errorf("unsupported signature scheme flag 0x%02x", b[0])
		}
		return b[1:], nil
	case ed25519.SeedSize:
		return b, nil
	default:
		return nil, fmt.Errorf("unexpected key length %d", len(b))
	}
}

// PublicKey returns the raw 32-byte public key.
func (k *Keypair) PublicKey() ed25519.PublicKey {
	return k.pub
}

// Address returns the 0x-prefixed account address: blake2b-256(flag || pubkey).
func (k *Keypair) Address() string {
	h := blake2b.Sum256(append([]byte{ed25519Flag}, k.pub...))
	return "0x" + hex.EncodeToString(h[:])
}

// SignTransaction signs base64 transaction bytes under the transaction intent
// and returns the serialized signature flag || sig || pubkey, base64-encoded.
func (k *Keypair) SignTransaction(txBytesB64 string) (string, error) {
	txBytes, err := base64.StdEncoding.DecodeString(txBytesB64)
	if err != nil {
		return "", fmt.Errorf("invalid transaction bytes: %w", err)
	}

	msg := make([]byte, 0, 3+len(txBytes))
	msg = append(msg, 0, 0, 0) // intent: TransactionData, V0, Sui
	msg = append(msg, txBytes...)
	digest := blake2b.Sum256(msg)

	sig := ed25519.Sign(k.priv, digest[:])

	out := make([]byte, 0, 1+len(sig)+len(k.pub))
	out = append(out, ed25519Flag)
	out = append(out, sig...)
	out = append(out, k.pub...)
	return base64.StdEncoding.EncodeToString(out), nil
}
