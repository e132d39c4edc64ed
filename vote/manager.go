// Package vote implements the ownership-transfer voting state
// machine of the wallet. Guardians propose a new owner and then
// approve or reject the proposal, ownership changes hands once a
// quorum forms.
package vote

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deckarep/golang-set"

	"github.com/ChainTrek/smart-wallet-contract/db"
	"github.com/ChainTrek/smart-wallet-contract/event"
	"github.com/ChainTrek/smart-wallet-contract/guardian"
	"github.com/ChainTrek/smart-wallet-contract/log"
)

// ProposeQuorum is the fixed number of recorded proposals for the
// same candidate that commits the ownership change on its own,
// independent of the guardian count. It is a second commit path
// next to the majority-approval quorum: a guardian set smaller
// than this constant can never use it, while a large set can
// trigger it before a genuine majority forms.
const ProposeQuorum = 3

var (
	ErrUnauthorized     = errors.New("caller is not a guardian")
	ErrNoActiveProposal = errors.New("no active ownership proposal")
	ErrAlreadyVoted     = errors.New("guardian already voted in this round")
	ErrInvalidCandidate = errors.New("invalid candidate identity")
)

var recordKey = []byte("RECORD")

// OwnershipRecord holds the current and the proposed owner of the
// wallet. ProposedOwner is empty unless a voting round is active.
type OwnershipRecord struct {
	Owner         string `json:"owner"`
	ProposedOwner string `json:"proposed_owner"`
}

// ManagerContext represents the contextual information the voting
// manager needs.
type ManagerContext struct {
	Database db.Database       // database instance
	GM       *guardian.Manager // guardian registry
	Emitter  event.Emitter     // audit event emitter
	Owner    string            // bootstrap owner identity
}

func ValidateManagerContext(mc *ManagerContext) error {
	if mc == nil {
		return fmt.Errorf("vote manager context is nil")
	}
	if mc.Database == nil {
		return fmt.Errorf("database instance is nil")
	}
	if mc.GM == nil {
		return fmt.Errorf("guardian manager is nil")
	}
	if mc.Emitter == nil {
		return fmt.Errorf("event emitter is nil")
	}
	if mc.Owner == "" {
		return fmt.Errorf("bootstrap owner is empty")
	}
	return nil
}

// Manager owns the ownership record and the state of the active
// voting round. The round state lives in memory, the ownership
// record is persisted on every change.
type Manager struct {
	database db.Database
	bucket   string

	gm *guardian.Manager

	emitter event.Emitter

	// current owner of the wallet
	owner string

	// active voting round, proposedOwner is empty when idle
	proposedOwner string
	proposeCount  uint64
	approved      mapset.Set
	rejected      mapset.Set
}

// NewManager creates a voting manager, recovering the persisted
// owner or bootstrapping with the context owner on first start.
func NewManager(ctx *ManagerContext) *Manager {
	if err := ValidateManagerContext(ctx); err != nil {
		log.Fatalf("vote manager context is invalid: %v", err)
	}
	m := &Manager{
		database: ctx.Database,
		bucket:   "OWNERSHIP",
		gm:       ctx.GM,
		emitter:  ctx.Emitter,
		approved: mapset.NewSet(),
		rejected: mapset.NewSet(),
	}
	err := m.database.NewBucket(m.bucket)
	if err != nil {
		log.Fatalf("create db bucket %s failed: %v", m.bucket, err)
	}

	rec, err := m.loadRecord()
	if err != nil {
		log.Fatalf("load ownership record failed: %v", err)
	}
	if rec == nil {
		m.owner = ctx.Owner
		if err := m.saveRecord(); err != nil {
			log.Fatalf("bootstrap ownership record failed: %v", err)
		}
	} else {
		m.owner = rec.Owner
	}

	return m
}

func (m *Manager) loadRecord() (*OwnershipRecord, error) {
	b, err := m.database.Get(m.bucket, recordKey)
	if err != nil {
		return nil, fmt.Errorf("get ownership record failed: %v", err)
	}
	if b == nil {
		return nil, nil
	}

	rec := &OwnershipRecord{}
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("decode ownership record failed: %v", err)
	}
	return rec, nil
}

func (m *Manager) saveRecord() error {
	// the round state is not persisted, a restart starts idle
	rec := &OwnershipRecord{Owner: m.owner}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode ownership record failed: %v", err)
	}
	if err := m.database.Put(m.bucket, recordKey, b); err != nil {
		return fmt.Errorf("save ownership record failed: %v", err)
	}
	return nil
}

// Owner returns the current owner identity.
func (m *Manager) Owner() string {
	return m.owner
}

// ProposedOwner returns the candidate of the active round, or an
// empty string when idle.
func (m *Manager) ProposedOwner() string {
	return m.proposedOwner
}

// ProposeCount returns the number of proposals recorded for the
// active candidate.
func (m *Manager) ProposeCount() uint64 {
	return m.proposeCount
}

// ApprovalCount returns the number of approvals in the active round.
func (m *Manager) ApprovalCount() int {
	return m.approved.Cardinality()
}

// RejectionCount returns the number of rejections in the active round.
func (m *Manager) RejectionCount() int {
	return m.rejected.Cardinality()
}

// Propose records a proposal for the candidate as the new owner.
// Proposing a candidate different from the active one resets the
// round entirely. The ownership change commits immediately once
// the candidate has accumulated ProposeQuorum proposals.
func (m *Manager) Propose(caller string, candidate string) error {
	if !m.gm.Contains(caller) {
		return ErrUnauthorized
	}
	if candidate == "" {
		return ErrInvalidCandidate
	}

	if candidate != m.proposedOwner {
		m.resetRound()
		m.proposedOwner = candidate
	}
	m.proposeCount++

	ev := event.New(event.ProposalRecorded)
	ev.Identity = caller
	ev.Candidate = candidate
	m.emitter.Emit(ev)

	log.Infow("proposal recorded", "guardian", caller, "candidate", candidate, "count", m.proposeCount)

	if m.proposeCount >= ProposeQuorum {
		return m.commit()
	}
	return nil
}

// Approve records the caller's approval of the active proposal.
// The ownership change commits once approvals form a strict
// majority of the current guardian count.
func (m *Manager) Approve(caller string) error {
	if !m.gm.Contains(caller) {
		return ErrUnauthorized
	}
	if m.proposedOwner == "" {
		return ErrNoActiveProposal
	}
	if m.approved.Contains(caller) || m.rejected.Contains(caller) {
		return ErrAlreadyVoted
	}

	m.approved.Add(caller)

	ev := event.New(event.ApprovalRecorded)
	ev.Identity = caller
	ev.Candidate = m.proposedOwner
	m.emitter.Emit(ev)

	log.Infow("approval recorded", "guardian", caller, "candidate", m.proposedOwner, "count", m.approved.Cardinality())

	// quorum is evaluated against the guardian count at vote time
	if m.approved.Cardinality() > m.gm.Size()/2 {
		return m.commit()
	}
	return nil
}

// Reject records the caller's rejection of the active proposal.
// The round aborts without an ownership change once rejections
// form a strict majority of the current guardian count.
func (m *Manager) Reject(caller string) error {
	if !m.gm.Contains(caller) {
		return ErrUnauthorized
	}
	if m.proposedOwner == "" {
		return ErrNoActiveProposal
	}
	if m.rejected.Contains(caller) || m.approved.Contains(caller) {
		return ErrAlreadyVoted
	}

	m.rejected.Add(caller)

	ev := event.New(event.RejectionRecorded)
	ev.Identity = caller
	ev.Candidate = m.proposedOwner
	m.emitter.Emit(ev)

	log.Infow("rejection recorded", "guardian", caller, "candidate", m.proposedOwner, "count", m.rejected.Cardinality())

	if m.rejected.Cardinality() > m.gm.Size()/2 {
		candidate := m.proposedOwner
		m.resetRound()
		log.Infow("ownership proposal aborted", "candidate", candidate)
	}
	return nil
}

// commit applies the ownership change of the active round and
// terminates it. The record is persisted before the in-memory
// state changes so that a storage failure rejects the whole call.
func (m *Manager) commit() error {
	candidate := m.proposedOwner

	prev := m.owner
	m.owner = candidate
	if err := m.saveRecord(); err != nil {
		m.owner = prev
		return err
	}
	m.resetRound()

	ev := event.New(event.OwnerChanged)
	ev.Identity = candidate
	m.emitter.Emit(ev)

	log.Infow("owner changed", "owner", candidate, "previous", prev)

	return nil
}

func (m *Manager) resetRound() {
	m.proposedOwner = ""
	m.proposeCount = 0
	m.approved = mapset.NewSet()
	m.rejected = mapset.NewSet()
}
