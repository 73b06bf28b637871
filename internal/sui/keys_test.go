package sui

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/blake2b"

	"github.com/rewired-gh/suimomentum/internal/models"
)

func testSeed() []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return seed
}

func keystoreEncoding(seed []byte) string {
	return base64.StdEncoding.EncodeToString(append([]byte{ed25519Flag}, seed...))
}

func TestLoadKey_Formats(t *testing.T) {
	seed := testSeed()
	want := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)

	inputs := map[string]string{
		"keystore": keystoreEncoding(seed),
		"raw b64":  base64.StdEncoding.EncodeToString(seed),
		"hex":      hex.EncodeToString(seed),
		"0x hex":   "0x" + hex.EncodeToString(seed),
		"padded":   "  " + keystoreEncoding(seed) + "\n",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			k, err := LoadKey(in)
			if err != nil {
				t.Fatalf("LoadKey: %v", err)
			}
			if !k.PublicKey().Equal(want) {
				t.Errorf("public key mismatch")
			}
		})
	}
}

func TestLoadKey_Errors(t *testing.T) {
	secp := base64.StdEncoding.EncodeToString(append([]byte{0x01}, testSeed()...))
	for name, in := range map[string]string{
		"empty":        "",
		"not encoded":  "definitely not a key!",
		"wrong length": base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
		"secp256k1":    secp,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadKey(in)
			var fatal *models.FatalConfigError
			if !errors.As(err, &fatal) {
				t.Fatalf("expected FatalConfigError, got %v", err)
			}
			if fatal.Field != "wallet.private_key" {
				t.Errorf("field = %q", fatal.Field)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	k, err := LoadKey(keystoreEncoding(testSeed()))
	if err != nil {
		t.Fatal(err)
	}
	h := blake2b.Sum256(append([]byte{0x00}, k.PublicKey()...))
	want := "0x" + hex.EncodeToString(h[:])

	if got := k.Address(); got != want {
		t.Errorf("Address() = %s, want %s", got, want)
	}
	if len(k.Address()) != 66 {
		t.Errorf("address length %d", len(k.Address()))
	}
}

func TestSignTransaction(t *testing.T) {
	k, err := LoadKey(keystoreEncoding(testSeed()))
	if err != nil {
		t.Fatal(err)
	}
	txBytes := []byte{0xde, 0xad, 0xbe, 0xef}

	sigB64, err := k.SignTransaction(base64.StdEncoding.EncodeToString(txBytes))
	if err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(sigB64)
	if len(raw) != 1+ed25519.SignatureSize+ed25519.PublicKeySize {
		t.Fatalf("serialized signature length %d", len(raw))
	}
	if raw[0] != ed25519Flag {
		t.Errorf("flag = %x", raw[0])
	}

	digest := blake2b.Sum256(append([]byte{0, 0, 0}, txBytes...))
	sig := raw[1 : 1+ed25519.SignatureSize]
	pub := ed25519.PublicKey(raw[1+ed25519.SignatureSize:])
	if !ed25519.Verify(pub, digest[:], sig) {
		t.Error("signature does not verify over intent digest")
	}

	if _, err := k.SignTransaction("%%%"); err == nil || !strings.Contains(err.Error(), "invalid transaction bytes") {
		t.Errorf("expected invalid bytes error, got %v", err)
	}
}
