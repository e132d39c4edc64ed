// Package guardian manages the registry of guardian identities
// which are entitled to vote on ownership-transfer proposals.
package guardian

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deckarep/golang-set"

	"github.com/ChainTrek/smart-wallet-contract/db"
	"github.com/ChainTrek/smart-wallet-contract/event"
	"github.com/ChainTrek/smart-wallet-contract/log"
)

var (
	ErrDuplicateGuardian = errors.New("guardian already registered")
	ErrUnknownGuardian   = errors.New("guardian not registered")
	ErrInvalidIdentity   = errors.New("invalid guardian identity")
)

var membersKey = []byte("MEMBERS")

// Manager manages the guardian registry. Membership is kept in
// memory for fast lookups and persisted as a whole on every
// mutation so that listings keep their insertion order.
type Manager struct {
	database db.Database
	bucket   string

	emitter event.Emitter

	// guardian identities for quorum lookups
	members mapset.Set
	// insertion order of guardian identities
	order []string
}

// NewManager creates a guardian manager and loads the persisted
// membership, if any.
func NewManager(d db.Database, emitter event.Emitter) *Manager {
	m := &Manager{
		database: d,
		bucket:   "GUARDIAN",
		emitter:  emitter,
		members:  mapset.NewSet(),
	}
	err := m.database.NewBucket(m.bucket)
	if err != nil {
		log.Fatalf("create db bucket %s failed: %v", m.bucket, err)
	}
	if err := m.load(); err != nil {
		log.Fatalf("load guardian registry failed: %v", err)
	}
	return m
}

func (m *Manager) load() error {
	b, err := m.database.Get(m.bucket, membersKey)
	if err != nil {
		return fmt.Errorf("get guardian registry failed: %v", err)
	}
	if b == nil {
		return nil
	}

	var members []string
	if err := json.Unmarshal(b, &members); err != nil {
		return fmt.Errorf("decode guardian registry failed: %v", err)
	}

	for _, g := range members {
		m.members.Add(g)
	}
	m.order = members

	return nil
}

func (m *Manager) save() error {
	b, err := json.Marshal(m.order)
	if err != nil {
		return fmt.Errorf("encode guardian registry failed: %v", err)
	}
	if err := m.database.Put(m.bucket, membersKey, b); err != nil {
		return fmt.Errorf("save guardian registry failed: %v", err)
	}
	return nil
}

// Add registers a new guardian identity.
func (m *Manager) Add(identity string) error {
	if identity == "" {
		return ErrInvalidIdentity
	}
	if m.members.Contains(identity) {
		return ErrDuplicateGuardian
	}

	m.members.Add(identity)
	m.order = append(m.order, identity)

	if err := m.save(); err != nil {
		m.members.Remove(identity)
		m.order = m.order[:len(m.order)-1]
		return err
	}

	ev := event.New(event.GuardianAdded)
	ev.Identity = identity
	m.emitter.Emit(ev)

	log.Infow("guardian added", "identity", identity, "size", m.Size())

	return nil
}

// Remove deregisters a guardian identity. Removal does not purge
// any vote the guardian has already cast in an active round, it
// only shrinks the quorum divisor for future votes.
func (m *Manager) Remove(identity string) error {
	if !m.members.Contains(identity) {
		return ErrUnknownGuardian
	}

	order := make([]string, 0, len(m.order)-1)
	for _, g := range m.order {
		if g != identity {
			order = append(order, g)
		}
	}

	prev := m.order
	m.members.Remove(identity)
	m.order = order

	if err := m.save(); err != nil {
		m.members.Add(identity)
		m.order = prev
		return err
	}

	ev := event.New(event.GuardianRemoved)
	ev.Identity = identity
	m.emitter.Emit(ev)

	log.Infow("guardian removed", "identity", identity, "size", m.Size())

	return nil
}

// Contains reports whether the identity is a registered guardian.
func (m *Manager) Contains(identity string) bool {
	return m.members.Contains(identity)
}

// Size returns the current number of registered guardians.
func (m *Manager) Size() int {
	return m.members.Cardinality()
}

// List returns the guardian identities in insertion order.
func (m *Manager) List() []string {
	members := make([]string, len(m.order))
	copy(members, m.order)
	return members
}
