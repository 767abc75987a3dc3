package service

import (
	"crypto/sha256"
	"encoding/hex"

	"campus-ledger/internal/core/domain"
)

// SHA256ChainHasher implements ports.ChainHasher.
// hash = hex(SHA-256(previous_hash || canonical body)).
type SHA256ChainHasher struct{}

// NewSHA256ChainHasher creates a new chain hasher.
func NewSHA256ChainHasher() *SHA256ChainHasher {
	return &SHA256ChainHasher{}
}

// Seal links t to prevHash. An empty prevHash means t opens the chain.
func (h *SHA256ChainHasher) Seal(prevHash string, t *domain.Transaction) {
	if prevHash == "" {
		prevHash = domain.GenesisHash
	}
	t.CreatedAt = domain.LedgerTime(t.CreatedAt)
	t.PreviousHash = prevHash
	t.Hash = digest(prevHash, t.CanonicalBytes())
}

// Verify recomputes the hash from the stored fields.
func (h *SHA256ChainHasher) Verify(t *domain.Transaction) bool {
	return t.Hash == digest(t.PreviousHash, t.CanonicalBytes())
}

func digest(prevHash string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(prevHash))
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}
