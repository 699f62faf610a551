package stealth

import (
	"context"
	"errors"
	"testing"
)

// buildBatch returns announcements at positions 0..n-1 where every third
// one belongs to km.
func buildBatch(t *testing.T, km, other *KeyMaterial, n int) ([]Announcement, int) {
	t.Helper()

	meta := km.MetaAddress("ethereum")
	otherMeta := other.MetaAddress("ethereum")

	anns := make([]Announcement, 0, n)
	matches := 0
	for i := 0; i < n; i++ {
		target := otherMeta
		if i%3 == 0 {
			target = meta
			matches++
		}
		sa, err := GenerateStealthAddress(target)
		if err != nil {
			t.Fatalf("GenerateStealthAddress: %v", err)
		}
		anns = append(anns, sa.Announcement(uint64(i)))
	}
	return anns, matches
}

func TestScanFindsMatches(t *testing.T) {
	km := mustKeyMaterial(t, "ethereum")
	other := mustKeyMaterial(t, "ethereum")
	anns, want := buildBatch(t, km, other, 30)

	s := NewScanner(km.Spending.Public(), &km.Viewing, DefaultScanConfig(), nil)
	res, err := s.Scan(context.Background(), anns, Cursor{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if !res.Done {
		t.Error("scan over a full batch should report Done")
	}
	if len(res.Matches) != want {
		t.Errorf("matches = %d, want %d", len(res.Matches), want)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("skipped = %d, want 0", len(res.Skipped))
	}
	if res.Cursor.Next != uint64(len(anns)) {
		t.Errorf("cursor = %d, want %d", res.Cursor.Next, len(anns))
	}
}

func TestScanSkipsMalformedAndContinues(t *testing.T) {
	km := mustKeyMaterial(t, "ethereum")
	other := mustKeyMaterial(t, "ethereum")
	anns, want := buildBatch(t, km, other, 12)

	// Corrupt one record and insert one with a foreign scheme: both must be
	// skipped and reported without aborting the batch.
	anns[1].EphemeralPublicKey = "not-hex"
	anns[4].SchemeID = SchemeEd25519

	s := NewScanner(km.Spending.Public(), &km.Viewing, DefaultScanConfig(), nil)
	res, err := s.Scan(context.Background(), anns, Cursor{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(res.Skipped) != 2 {
		t.Fatalf("skipped = %d, want 2", len(res.Skipped))
	}
	if !errors.Is(res.Skipped[0].Err, ErrInvalidAnnouncement) {
		t.Errorf("skip reason = %v, want ErrInvalidAnnouncement", res.Skipped[0].Err)
	}
	if !errors.Is(res.Skipped[1].Err, ErrSchemeMismatch) {
		t.Errorf("skip reason = %v, want ErrSchemeMismatch", res.Skipped[1].Err)
	}

	// The corrupted positions were non-match slots, so every real match
	// survives the skips.
	if len(res.Matches) != want {
		t.Errorf("matches = %d, want %d", len(res.Matches), want)
	}
}

func TestScanChunkLimitAndResume(t *testing.T) {
	km := mustKeyMaterial(t, "ethereum")
	other := mustKeyMaterial(t, "ethereum")
	anns, want := buildBatch(t, km, other, 10)

	s := NewScanner(km.Spending.Public(), &km.Viewing, ScanConfig{ChunkSize: 4}, nil)

	var matches []Announcement
	cur := Cursor{}
	calls := 0
	for {
		res, err := s.Scan(context.Background(), anns, cur)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		matches = append(matches, res.Matches...)
		cur = res.Cursor
		calls++
		if res.Done {
			break
		}
	}

	if calls != 3 {
		t.Errorf("calls = %d, want 3 (10 items, chunk 4)", calls)
	}
	if len(matches) != want {
		t.Errorf("matches across chunks = %d, want %d", len(matches), want)
	}
}

func TestScanCancellation(t *testing.T) {
	km := mustKeyMaterial(t, "ethereum")
	other := mustKeyMaterial(t, "ethereum")
	anns, want := buildBatch(t, km, other, 9)

	s := NewScanner(km.Spending.Public(), &km.Viewing, DefaultScanConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Scan(ctx, anns, Cursor{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Scan on cancelled context: err = %v, want context.Canceled", err)
	}
	if res == nil {
		t.Fatal("cancelled scan must still return a partial result")
	}
	if res.Done {
		t.Error("cancelled scan must not report Done")
	}

	// The cursor from the partial result resumes cleanly.
	full, err := s.Scan(context.Background(), anns, res.Cursor)
	if err != nil {
		t.Fatalf("resume Scan: %v", err)
	}
	if got := len(res.Matches) + len(full.Matches); got != want {
		t.Errorf("matches after resume = %d, want %d", got, want)
	}
}

// Two scans over disjoint ranges share a scanner without interference: the
// cursor is caller state, not engine state.
func TestScanDisjointRanges(t *testing.T) {
	km := mustKeyMaterial(t, "ethereum")
	other := mustKeyMaterial(t, "ethereum")
	anns, want := buildBatch(t, km, other, 12)

	s := NewScanner(km.Spending.Public(), &km.Viewing, DefaultScanConfig(), nil)

	lo, err := s.Scan(context.Background(), anns[:6], Cursor{})
	if err != nil {
		t.Fatalf("Scan lo: %v", err)
	}
	hi, err := s.Scan(context.Background(), anns[6:], Cursor{Next: 6})
	if err != nil {
		t.Fatalf("Scan hi: %v", err)
	}

	if got := len(lo.Matches) + len(hi.Matches); got != want {
		t.Errorf("matches across ranges = %d, want %d", got, want)
	}
}

func TestScanConfigFromEnv(t *testing.T) {
	t.Setenv("SIP_SCAN_CHUNK_SIZE", "7")

	cfg, err := ScanConfigFromEnv()
	if err != nil {
		t.Fatalf("ScanConfigFromEnv: %v", err)
	}
	if cfg.ChunkSize != 7 {
		t.Errorf("ChunkSize = %d, want 7", cfg.ChunkSize)
	}
}
