package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParsePrivateKey_InlinePEM(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	if _, ok := signer.Public().(*rsa.PublicKey); !ok {
		t.Errorf("public key type = %T, want *rsa.PublicKey", signer.Public())
	}
}

func TestParsePrivateKey_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.key")
	if err := os.WriteFile(path, []byte(testPrivateKeyPEM), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ParsePrivateKey(path); err != nil {
		t.Fatalf("ParsePrivateKey(path): %v", err)
	}
}

func TestParsePrivateKey_EC(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey: %v", err)
	}
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	signer, err := ParsePrivateKey(pemStr)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	if got := KeyAlg(signer.Public()); got != "ES256" {
		t.Errorf("KeyAlg = %q, want ES256", got)
	}
}

func TestParsePublicKey_InlinePEM(t *testing.T) {
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if got := KeyAlg(pub); got != "RS256" {
		t.Errorf("KeyAlg = %q, want RS256", got)
	}
}

func TestParseKeys_Invalid(t *testing.T) {
	for _, s := range []string{"", "   ", "-----BEGIN GARBAGE-----\nzzzz\n-----END GARBAGE-----"} {
		if _, err := ParsePrivateKey(s); err == nil {
			t.Errorf("ParsePrivateKey(%q): want error", s)
		}
		if _, err := ParsePublicKey(s); err == nil {
			t.Errorf("ParsePublicKey(%q): want error", s)
		}
	}
	if _, err := ParsePrivateKey("not-pem-and-not-a-begin-marker"); err == nil {
		t.Error("ParsePrivateKey of missing file path: want error")
	}
	if _, err := ParsePublicKey("-----BEGIN CERTIFICATE-----\nzz\n-----END CERTIFICATE-----"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("unexpected error for wrong block type: %v", err)
	}
}
