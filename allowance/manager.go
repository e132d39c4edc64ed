// Package allowance manages the per-identity spending limits
// which gate non-owner transfers out of the wallet pool.
package allowance

import (
	"encoding/json"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ChainTrek/smart-wallet-contract/db"
	"github.com/ChainTrek/smart-wallet-contract/event"
	"github.com/ChainTrek/smart-wallet-contract/log"
)

var (
	ErrEntryNotExist   = errors.New("allowance entry not exist")
	ErrInvalidIdentity = errors.New("invalid identity")
)

// Entry is the allowance record of one identity. Permitted gates
// whether the identity may initiate a spend at all, Limit is the
// remaining spendable amount.
type Entry struct {
	Identity  string `json:"identity"`
	Limit     uint64 `json:"limit"`
	Permitted bool   `json:"permitted"`
}

// Manager manages the allowance table.
type Manager struct {
	database db.Database
	bucket   string

	emitter event.Emitter

	// LRU cache for allowance entries
	entries *lru.Cache
}

// NewManager creates an allowance manager over the database.
func NewManager(d db.Database, emitter event.Emitter) *Manager {
	m := &Manager{
		database: d,
		bucket:   "ALLOWANCE",
		emitter:  emitter,
	}
	err := m.database.NewBucket(m.bucket)
	if err != nil {
		log.Fatalf("create db bucket %s failed: %v", m.bucket, err)
	}
	cache, err := lru.New(10000)
	if err != nil {
		log.Fatalf("create allowance LRU cache failed: %v", err)
	}
	m.entries = cache
	return m
}

// Set grants the identity an allowance of the amount and marks
// it as permitted to spend.
func (m *Manager) Set(putter db.Putter, identity string, amount uint64) error {
	if identity == "" {
		return ErrInvalidIdentity
	}

	entry := &Entry{
		Identity:  identity,
		Limit:     amount,
		Permitted: true,
	}
	if err := m.SaveEntry(putter, entry); err != nil {
		return err
	}

	ev := event.New(event.AllowanceSet)
	ev.Identity = identity
	ev.Amount = amount
	m.emitter.Emit(ev)

	log.Infow("allowance set", "identity", identity, "limit", amount)

	return nil
}

// Deny forbids the identity from spending, the remaining limit
// is left unchanged.
func (m *Manager) Deny(putter db.Putter, getter db.Getter, identity string) error {
	if identity == "" {
		return ErrInvalidIdentity
	}

	entry, err := m.GetEntry(getter, identity)
	if err != nil {
		if err != ErrEntryNotExist {
			return err
		}
		entry = &Entry{Identity: identity}
	}
	entry.Permitted = false

	if err := m.SaveEntry(putter, entry); err != nil {
		return err
	}

	ev := event.New(event.SendingDenied)
	ev.Identity = identity
	m.emitter.Emit(ev)

	log.Infow("sending denied", "identity", identity, "limit", entry.Limit)

	return nil
}

// GetEntry returns a copy of the allowance entry of the identity.
func (m *Manager) GetEntry(getter db.Getter, identity string) (*Entry, error) {
	// first check the LRU cache
	if e, ok := m.entries.Get(identity); ok {
		entry := *e.(*Entry)
		return &entry, nil
	}

	// then check the database
	b, err := getter.Get(m.bucket, []byte(identity))
	if err != nil {
		return nil, fmt.Errorf("get allowance entry %s failed: %v", identity, err)
	}
	if b == nil {
		return nil, ErrEntryNotExist
	}

	entry := &Entry{}
	if err := json.Unmarshal(b, entry); err != nil {
		return nil, fmt.Errorf("decode allowance entry %s failed: %v", identity, err)
	}

	// cache the entry
	m.entries.Add(identity, entry)
	entryCopy := *entry

	return &entryCopy, nil
}

// SaveEntry writes the allowance entry through the putter. The
// cached copy is invalidated rather than updated so that a
// rolled-back transaction cannot leave a stale entry behind.
func (m *Manager) SaveEntry(putter db.Putter, entry *Entry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode allowance entry failed: %v", err)
	}

	if err := putter.Put(m.bucket, []byte(entry.Identity), b); err != nil {
		return fmt.Errorf("save allowance entry failed: %v", err)
	}

	m.entries.Remove(entry.Identity)

	return nil
}

// SubLimit subtracts the amount from the entry limit and checks
// for underflow.
func (m *Manager) SubLimit(entry *Entry, amount uint64) error {
	if entry.Limit < amount {
		return errors.New("allowance limit underflow")
	}
	entry.Limit -= amount
	return nil
}
