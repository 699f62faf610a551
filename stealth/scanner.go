package stealth

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Announcement is the record published to the external ledger for each
// stealth payment, as consumed back from an indexer. SchemeID must be
// checked before the remaining fields are interpreted.
type Announcement struct {
	SchemeID SchemeID `json:"scheme_id"`
	// Position is the block or slot the announcement appeared at. Scan
	// cursors are expressed in positions, so announcements fed to a
	// scanner must be ordered by it.
	Position           uint64            `json:"position"`
	StealthAddress     string            `json:"stealth_address"`
	EphemeralPublicKey string            `json:"ephemeral_public_key"`
	ViewTag            byte              `json:"view_tag"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

func (a *Announcement) ephemeralBytes() ([]byte, error) {
	b, err := hexutil.Decode(a.EphemeralPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral key: %v", ErrInvalidAnnouncement, err)
	}
	return b, nil
}

// Announcement packages a freshly generated stealth address as the record
// the sender publishes to the announcement log.
func (sa *StealthAddress) Announcement(position uint64) Announcement {
	return Announcement{
		SchemeID:           sa.Scheme,
		Position:           position,
		StealthAddress:     sa.Address,
		EphemeralPublicKey: hexutil.Encode(sa.EphemeralPublicKey),
		ViewTag:            sa.ViewTag,
	}
}

// ScanConfig bounds a scanner's per-call work.
type ScanConfig struct {
	// ChunkSize is the maximum number of announcements processed per Scan
	// call; 0 means unbounded. Embedders tune it to keep pauses between
	// cancellation checks short.
	ChunkSize int `envconfig:"CHUNK_SIZE" default:"256"`
}

// DefaultScanConfig returns the configuration used when none is supplied.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{ChunkSize: 256}
}

// ScanConfigFromEnv loads scan configuration from SIP_SCAN_* environment
// variables.
func ScanConfigFromEnv() (ScanConfig, error) {
	var cfg ScanConfig
	if err := envconfig.Process("sip_scan", &cfg); err != nil {
		return ScanConfig{}, fmt.Errorf("failed to process scan config: %w", err)
	}
	return cfg, nil
}

// Cursor marks resumable scan progress. It is pure data: two scans over
// disjoint ranges can run concurrently with independent cursors because the
// scanner keeps no progress state of its own.
type Cursor struct {
	// Next is the first position not yet processed. The zero cursor scans
	// from the beginning.
	Next uint64 `json:"next"`
}

// Skipped reports a single malformed announcement that was passed over
// during a scan, retained so callers can audit bad records.
type Skipped struct {
	Announcement Announcement
	Err          error
}

// ScanResult is the outcome of one Scan call.
type ScanResult struct {
	// Matches are the announcements that belong to the scanner's keys.
	Matches []Announcement
	// Skipped are per-item failures; one bad record never aborts a batch.
	Skipped []Skipped
	// Cursor resumes the scan after the last processed announcement.
	Cursor Cursor
	// Done is false when the call stopped early (chunk limit reached);
	// call Scan again with the returned cursor to continue.
	Done bool
}

// Scanner recognizes incoming stealth payments in announcement batches. It
// holds a copy of the viewing private key and the spending public key only,
// so a scanner can be handed to an auditing process without granting spend
// capability.
type Scanner struct {
	spend SpendingPublicKey
	view  ViewingPrivateKey
	cfg   ScanConfig
	log   *zap.Logger
}

// NewScanner builds a scanner for the given keys. The viewing key is
// copied. A nil logger disables logging.
func NewScanner(spend SpendingPublicKey, view *ViewingPrivateKey, cfg ScanConfig, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{
		spend: spend,
		view: ViewingPrivateKey{
			scheme: view.scheme,
			d:      append([]byte(nil), view.d...),
			pub:    append([]byte(nil), view.pub...),
		},
		cfg: cfg,
		log: log,
	}
}

// Zeroize wipes the scanner's viewing key copy.
func (s *Scanner) Zeroize() { s.view.Zeroize() }

// Scan processes one batch of announcements, ordered by position, starting
// at the cursor. Malformed items are skipped and reported; the cancellation
// signal is checked between items. On cancellation the partial result and
// its resume cursor are returned together with the context error.
func (s *Scanner) Scan(ctx context.Context, anns []Announcement, cur Cursor) (*ScanResult, error) {
	res := &ScanResult{Cursor: cur}

	processed := 0
	for i := range anns {
		ann := anns[i]
		if ann.Position < cur.Next {
			continue
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if s.cfg.ChunkSize > 0 && processed >= s.cfg.ChunkSize {
			return res, nil
		}

		ok, err := CheckStealthAddress(&ann, s.spend, &s.view)
		switch {
		case err != nil:
			res.Skipped = append(res.Skipped, Skipped{Announcement: ann, Err: err})
			s.log.Warn("skipping malformed announcement",
				zap.Uint64("position", ann.Position),
				zap.Error(err))
		case ok:
			res.Matches = append(res.Matches, ann)
			s.log.Info("stealth address match",
				zap.Uint64("position", ann.Position),
				zap.String("address", ann.StealthAddress))
		}

		processed++
		res.Cursor = Cursor{Next: ann.Position + 1}
	}

	res.Done = true
	return res, nil
}
