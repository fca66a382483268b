package crypto_test

import (
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rahul01879/chat-app/internal/crypto"
)

// swapRand points the package CSPRNG at r and restores the original when the
// test ends.
func swapRand(t *testing.T, r io.Reader) {
	t.Helper()
	orig := crypto.RandReader
	crypto.RandReader = r
	t.Cleanup(func() { crypto.RandReader = orig })
}

func TestKey_ExportImportRoundTrip(t *testing.T) {
	k, err := crypto.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	portable, err := crypto.Export(k)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	k2, err := crypto.Import(portable)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	portable2, err := crypto.Export(k2)
	if err != nil {
		t.Fatalf("Export reimported: %v", err)
	}
	if portable != portable2 {
		t.Fatalf("round trip changed key: %q != %q", portable, portable2)
	}
}

func TestKey_ImportRejectsWrongLength(t *testing.T) {
	short := base64.StdEncoding.EncodeToString(make([]byte, 16))
	if _, err := crypto.Import(short); !errors.Is(err, crypto.ErrKeyFormat) {
		t.Fatalf("Import 16-byte key: got %v, want ErrKeyFormat", err)
	}
	long := base64.StdEncoding.EncodeToString(make([]byte, 48))
	if _, err := crypto.Import(long); !errors.Is(err, crypto.ErrKeyFormat) {
		t.Fatalf("Import 48-byte key: got %v, want ErrKeyFormat", err)
	}
}

func TestKey_ImportRejectsBadBase64(t *testing.T) {
	if _, err := crypto.Import("not//valid//base64!!!"); !errors.Is(err, crypto.ErrKeyFormat) {
		t.Fatalf("Import garbage: got %v, want ErrKeyFormat", err)
	}
}

func TestKey_GenerateEntropyFailure(t *testing.T) {
	swapRand(t, crypto.RandFail)
	if _, err := crypto.Generate(); err == nil {
		t.Fatal("Generate with failing entropy: want error, got nil")
	}
}

func TestKey_DestroyedKeyIsUnusable(t *testing.T) {
	k, err := crypto.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	k.Destroy()
	k.Destroy() // second call is a no-op
	if _, err := crypto.Export(k); !errors.Is(err, crypto.ErrInvalidKey) {
		t.Fatalf("Export destroyed key: got %v, want ErrInvalidKey", err)
	}
	if _, err := crypto.Encrypt("hi", k); err == nil {
		t.Fatal("Encrypt with destroyed key: want error, got nil")
	}
}

func TestKey_StringNeverLeaksMaterial(t *testing.T) {
	k, err := crypto.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	portable, err := crypto.Export(k)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	s := k.String()
	if strings.Contains(s, portable) || strings.Contains(s, portable[:8]) {
		t.Fatalf("String output %q leaks key material", s)
	}
}
