package keystore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sip-protocol/sip-go/stealth"
)

func mustKeyMaterial(t *testing.T, chain string) *stealth.KeyMaterial {
	t.Helper()
	km, err := stealth.GenerateKeyMaterial(stealth.DefaultRegistry(), chain)
	if err != nil {
		t.Fatalf("GenerateKeyMaterial: %v", err)
	}
	return km
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, chain := range []string{"ethereum", "solana"} {
		t.Run(chain, func(t *testing.T) {
			km := mustKeyMaterial(t, chain)
			path := filepath.Join(t.TempDir(), "keys"+Ext)
			password := []byte("correct horse battery staple")

			if err := Save(path, chain, km, password); err != nil {
				t.Fatalf("Save: %v", err)
			}

			file, restored, err := Load(path, password)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			if file.Chain != chain {
				t.Errorf("chain = %q, want %q", file.Chain, chain)
			}
			if file.MetaAddress != km.MetaAddress(chain).String() {
				t.Error("stored meta-address differs from key material")
			}
			if !bytes.Equal(restored.Spending.Bytes(), km.Spending.Bytes()) {
				t.Error("spending key did not survive the round trip")
			}
			if !bytes.Equal(restored.Viewing.Bytes(), km.Viewing.Bytes()) {
				t.Error("viewing key did not survive the round trip")
			}
		})
	}
}

func TestLoadWrongPassword(t *testing.T) {
	km := mustKeyMaterial(t, "ethereum")
	path := filepath.Join(t.TempDir(), "keys"+Ext)

	if err := Save(path, "ethereum", km, []byte("right")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, _, err := Load(path, []byte("wrong")); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("err = %v, want ErrInvalidPassword", err)
	}
}

func TestReadMetaAddressWithoutPassword(t *testing.T) {
	km := mustKeyMaterial(t, "ethereum")
	path := filepath.Join(t.TempDir(), "keys"+Ext)

	if err := Save(path, "ethereum", km, []byte("secret")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	meta, err := ReadMetaAddress(path)
	if err != nil {
		t.Fatalf("ReadMetaAddress: %v", err)
	}
	if meta != km.MetaAddress("ethereum").String() {
		t.Error("meta-address read back differs")
	}
}

func TestSaveRefusesExistingFile(t *testing.T) {
	km := mustKeyMaterial(t, "ethereum")
	path := filepath.Join(t.TempDir(), "keys"+Ext)

	if err := os.WriteFile(path, []byte("occupied"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Save(path, "ethereum", km, []byte("pw")); !errors.Is(err, ErrFileExists) {
		t.Errorf("err = %v, want ErrFileExists", err)
	}
}

func TestSaveRejectsWrongExtension(t *testing.T) {
	km := mustKeyMaterial(t, "ethereum")
	path := filepath.Join(t.TempDir(), "keys.txt")

	if err := Save(path, "ethereum", km, []byte("pw")); err == nil {
		t.Error("Save accepted a non-.sip extension")
	}
}
