// Package store persists ledger state: an append-only, hash-chained
// audit log of committed transitions and a snapshot store for the
// engine's full state. Backends exist for SQLite, Postgres, and
// memory.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

var (
	// ErrEntryNotFound is returned when an audit entry is not found.
	ErrEntryNotFound = errors.New("store: audit entry not found")
	// ErrChainBroken is returned when audit chain verification fails.
	ErrChainBroken = errors.New("store: audit hash chain is broken")
)

// chainGenesis anchors the first entry of every chain.
const chainGenesis = "genesis"

// AuditEntry is one immutable record of a committed transition.
type AuditEntry struct {
	EntryID      string          `json:"entry_id"`
	Sequence     uint64          `json:"sequence"`
	Timestamp    time.Time       `json:"timestamp"`
	Kind         string          `json:"kind"`
	Principal    string          `json:"principal"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	PayloadHash  string          `json:"payload_hash"`
	PreviousHash string          `json:"previous_hash"`
	EntryHash    string          `json:"entry_hash"`
}

// AuditLog is an append-only audit log with hash chaining. Payloads
// are canonicalized with JCS before hashing so the chain verifies
// byte-for-byte regardless of map iteration order.
type AuditLog struct {
	mu        sync.RWMutex
	entries   []*AuditEntry
	byID      map[string]*AuditEntry
	sequence  uint64
	anchor    string
	chainHead string
}

// NewAuditLog creates an empty audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{
		byID:      make(map[string]*AuditEntry),
		anchor:    chainGenesis,
		chainHead: chainGenesis,
	}
}

// NewAuditLogFrom creates a log that resumes an existing chain: the
// next append gets sequence+1 and links to head. An empty head anchors
// at genesis.
func NewAuditLogFrom(sequence uint64, head string) *AuditLog {
	if head == "" {
		head = chainGenesis
	}
	return &AuditLog{
		byID:      make(map[string]*AuditEntry),
		sequence:  sequence,
		anchor:    head,
		chainHead: head,
	}
}

// Append records a committed transition. payload may be any
// JSON-marshalable value.
func (l *AuditLog) Append(kind, principal string, payload any) (*AuditEntry, error) {
	raw, err := canonicalJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("store: canonicalize payload: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := &AuditEntry{
		EntryID:      uuid.New().String(),
		Sequence:     l.sequence + 1,
		Timestamp:    time.Now().UTC(),
		Kind:         kind,
		Principal:    principal,
		Payload:      raw,
		PayloadHash:  hashHex(raw),
		PreviousHash: l.chainHead,
	}
	entryHash, err := computeEntryHash(entry)
	if err != nil {
		return nil, err
	}
	entry.EntryHash = entryHash

	l.sequence++
	l.chainHead = entry.EntryHash
	l.entries = append(l.entries, entry)
	l.byID[entry.EntryID] = entry
	return entry, nil
}

// Get retrieves an entry by ID.
func (l *AuditLog) Get(entryID string) (*AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.byID[entryID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// Entries returns all entries in append order.
func (l *AuditLog) Entries() []*AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ChainHead returns the current chain head hash.
func (l *AuditLog) ChainHead() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chainHead
}

// Size returns the number of entries.
func (l *AuditLog) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// VerifyChain recomputes every hash and checks the links, anchored at
// the hash this log started from (genesis, or the resumed head).
func (l *AuditLog) VerifyChain() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return verifyEntriesFrom(l.anchor, l.entries)
}

// verifyEntries checks a full chain starting at genesis. Shared by
// the in-memory log and the SQL-backed stores.
func verifyEntries(entries []*AuditEntry) error {
	return verifyEntriesFrom(chainGenesis, entries)
}

// verifyEntriesFrom checks the chain invariants over entries in append
// order, anchored at the given previous hash.
func verifyEntriesFrom(anchor string, entries []*AuditEntry) error {
	expectedPrev := anchor
	for i, e := range entries {
		if e.PreviousHash != expectedPrev {
			return fmt.Errorf("%w: entry %d previous_hash %s, expected %s",
				ErrChainBroken, i, e.PreviousHash, expectedPrev)
		}
		if e.PayloadHash != hashHex(e.Payload) {
			return fmt.Errorf("%w: entry %d payload hash mismatch", ErrChainBroken, i)
		}
		computed, err := computeEntryHash(e)
		if err != nil {
			return fmt.Errorf("%w: entry %d: %w", ErrChainBroken, i, err)
		}
		if computed != e.EntryHash {
			return fmt.Errorf("%w: entry %d hash mismatch (computed %s, stored %s)",
				ErrChainBroken, i, computed, e.EntryHash)
		}
		expectedPrev = e.EntryHash
	}
	return nil
}

func computeEntryHash(e *AuditEntry) (string, error) {
	hashable := struct {
		Sequence     uint64    `json:"sequence"`
		Timestamp    time.Time `json:"timestamp"`
		Kind         string    `json:"kind"`
		Principal    string    `json:"principal"`
		PayloadHash  string    `json:"payload_hash"`
		PreviousHash string    `json:"previous_hash"`
	}{e.Sequence, e.Timestamp, e.Kind, e.Principal, e.PayloadHash, e.PreviousHash}

	raw, err := canonicalJSON(hashable)
	if err != nil {
		return "", fmt.Errorf("store: hash entry: %w", err)
	}
	return hashHex(raw), nil
}

// canonicalJSON marshals v and applies RFC 8785 canonicalization.
func canonicalJSON(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
