package viewkey

import (
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Keyring routes payloads to the viewing keys able to decrypt them, keyed
// by key hash. Every decryption attempt is logged so auditors get the use
// trail the key lifecycle calls for.
type Keyring struct {
	mu   sync.RWMutex
	keys map[[32]byte]*Key
	log  *zap.Logger
}

// NewKeyring builds an empty keyring. A nil logger disables logging.
func NewKeyring(log *zap.Logger) *Keyring {
	if log == nil {
		log = zap.NewNop()
	}
	return &Keyring{keys: make(map[[32]byte]*Key), log: log}
}

// Add registers a key under its hash, replacing any previous key with the
// same hash.
func (r *Keyring) Add(k *Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[k.Hash()] = k

	r.log.Info("viewing key registered",
		zap.String("path", k.Path()),
		zap.String("key_hash", hexutil.Encode(k.hash[:])))
}

// Key returns the registered key with the given hash, if any.
func (r *Keyring) Key(hash [32]byte) (*Key, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[hash]
	return k, ok
}

// Decrypt routes a payload to the key matching its hash and decrypts it.
// Returns ErrKeyMismatch when no registered key matches.
func (r *Keyring) Decrypt(p *Payload) ([]byte, error) {
	k, ok := r.Key(p.ViewingKeyHash)
	if !ok {
		r.log.Warn("payload for unknown viewing key",
			zap.String("key_hash", hexutil.Encode(p.ViewingKeyHash[:])))
		return nil, ErrKeyMismatch
	}

	plaintext, err := k.Decrypt(p)
	if err != nil {
		r.log.Warn("payload decryption failed",
			zap.String("path", k.Path()),
			zap.Error(err))
		return nil, err
	}

	r.log.Info("viewing key used",
		zap.String("path", k.Path()),
		zap.String("key_hash", hexutil.Encode(p.ViewingKeyHash[:])))
	return plaintext, nil
}
