package curve

import (
	"bytes"
	"errors"
	"testing"
)

func TestBridgeDeterminism(t *testing.T) {
	scalar := bytes.Repeat([]byte{0x11}, 32)

	seed1 := BridgeSeed(scalar)
	seed2 := BridgeSeed(scalar)
	if seed1 != seed2 {
		t.Fatal("bridge seed is not deterministic")
	}

	other := BridgeSeed(bytes.Repeat([]byte{0x22}, 32))
	if seed1 == other {
		t.Fatal("distinct scalars bridged to the same seed")
	}

	s1, p1, err := Ed25519KeyFromSeed(seed1)
	if err != nil {
		t.Fatalf("Ed25519KeyFromSeed: %v", err)
	}
	s2, p2, err := Ed25519KeyFromSeed(seed2)
	if err != nil {
		t.Fatalf("Ed25519KeyFromSeed: %v", err)
	}

	if !bytes.Equal(s1.Bytes(), s2.Bytes()) || !bytes.Equal(p1.Bytes(), p2.Bytes()) {
		t.Error("same seed expanded to different keypairs")
	}
	if p1.Equal(EdBaseMult(s1)) != 1 {
		t.Error("public key is not the base multiple of the secret scalar")
	}
}

func TestHashToScalarDomainSeparation(t *testing.T) {
	data := []byte("shared secret bytes")

	a := HashToSecpScalar("DOMAIN-A", data)
	b := HashToSecpScalar("DOMAIN-B", data)
	if a.Equals(b) {
		t.Error("different domains hashed to the same secp scalar")
	}

	again := HashToSecpScalar("DOMAIN-A", data)
	if !a.Equals(again) {
		t.Error("secp hash-to-scalar is not deterministic")
	}

	ea := HashToEdScalar("DOMAIN-A", data)
	eb := HashToEdScalar("DOMAIN-B", data)
	if bytes.Equal(ea.Bytes(), eb.Bytes()) {
		t.Error("different domains hashed to the same ed scalar")
	}
	if !bytes.Equal(ea.Bytes(), HashToEdScalar("DOMAIN-A", data).Bytes()) {
		t.Error("ed hash-to-scalar is not deterministic")
	}
}

func TestSecpScalarValidation(t *testing.T) {
	if _, err := SecpScalarFromBytes(make([]byte, 32)); !errors.Is(err, ErrScalarOutOfRange) {
		t.Errorf("zero scalar: err = %v, want ErrScalarOutOfRange", err)
	}
	if _, err := SecpScalarFromBytes(make([]byte, 16)); !errors.Is(err, ErrScalarOutOfRange) {
		t.Errorf("short scalar: err = %v, want ErrScalarOutOfRange", err)
	}
	if _, err := SecpScalarFromBytes(bytes.Repeat([]byte{0xff}, 32)); !errors.Is(err, ErrScalarOutOfRange) {
		t.Errorf("overflowing scalar: err = %v, want ErrScalarOutOfRange", err)
	}

	k, err := RandomSecpScalar()
	if err != nil {
		t.Fatalf("RandomSecpScalar: %v", err)
	}
	kb := k.Bytes()
	if _, err := SecpScalarFromBytes(kb[:]); err != nil {
		t.Errorf("valid scalar rejected: %v", err)
	}
}

func TestEdScalarValidation(t *testing.T) {
	if _, err := EdScalarFromBytes(make([]byte, 32)); !errors.Is(err, ErrScalarOutOfRange) {
		t.Errorf("zero scalar: err = %v, want ErrScalarOutOfRange", err)
	}
	if _, err := EdScalarFromBytes(make([]byte, 16)); !errors.Is(err, ErrScalarOutOfRange) {
		t.Errorf("short scalar: err = %v, want ErrScalarOutOfRange", err)
	}
	if _, err := EdScalarFromBytes(bytes.Repeat([]byte{0xff}, 32)); !errors.Is(err, ErrScalarOutOfRange) {
		t.Errorf("non-canonical scalar: err = %v, want ErrScalarOutOfRange", err)
	}

	e, err := RandomEdScalar()
	if err != nil {
		t.Fatalf("RandomEdScalar: %v", err)
	}
	if _, err := EdScalarFromBytes(e.Bytes()); err != nil {
		t.Errorf("valid scalar rejected: %v", err)
	}
}

func TestParsePointValidation(t *testing.T) {
	// x-coordinate above the field prime can never decode.
	bad := append([]byte{0x02}, bytes.Repeat([]byte{0xff}, 32)...)
	if _, err := ParseSecpPoint(bad); !errors.Is(err, ErrPointNotOnCurve) {
		t.Errorf("invalid secp point: err = %v, want ErrPointNotOnCurve", err)
	}
	if _, err := ParseSecpPoint([]byte{0x02}); !errors.Is(err, ErrPointNotOnCurve) {
		t.Errorf("short secp point: err = %v, want ErrPointNotOnCurve", err)
	}

	if _, err := ParseEdPoint(make([]byte, 16)); !errors.Is(err, ErrPointNotOnCurve) {
		t.Errorf("short ed point: err = %v, want ErrPointNotOnCurve", err)
	}

	k, err := RandomSecpScalar()
	if err != nil {
		t.Fatalf("RandomSecpScalar: %v", err)
	}
	if _, err := ParseSecpPoint(SecpBaseMult(k).SerializeCompressed()); err != nil {
		t.Errorf("valid secp point rejected: %v", err)
	}

	e, err := RandomEdScalar()
	if err != nil {
		t.Fatalf("RandomEdScalar: %v", err)
	}
	if _, err := ParseEdPoint(EdBaseMult(e).Bytes()); err != nil {
		t.Errorf("valid ed point rejected: %v", err)
	}
}

// The ECDH outputs on both curves must commute: r*(v*B) == v*(r*B).
func TestECDHCommutes(t *testing.T) {
	r, err := RandomSecpScalar()
	if err != nil {
		t.Fatal(err)
	}
	v, err := RandomSecpScalar()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(SecpECDH(r, SecpBaseMult(v)), SecpECDH(v, SecpBaseMult(r))) {
		t.Error("secp ECDH does not commute")
	}

	er, err := RandomEdScalar()
	if err != nil {
		t.Fatal(err)
	}
	ev, err := RandomEdScalar()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(EdECDH(er, EdBaseMult(ev)), EdECDH(ev, EdBaseMult(er))) {
		t.Error("ed ECDH does not commute")
	}
}
