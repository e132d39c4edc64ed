// Package event defines the audit events produced by the wallet
// and the emitters that deliver them to observers.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/ChainTrek/smart-wallet-contract/log"
)

type Type string

// enumeration of event types
const (
	ProposalRecorded   Type = "proposal_recorded"
	OwnerChanged       Type = "owner_changed"
	ApprovalRecorded   Type = "approval_recorded"
	RejectionRecorded  Type = "rejection_recorded"
	AllowanceSet       Type = "allowance_set"
	SendingDenied      Type = "sending_denied"
	TransferAuthorized Type = "transfer_authorized"
	GuardianAdded      Type = "guardian_added"
	GuardianRemoved    Type = "guardian_removed"
)

// Event carries the identity and amount information of a single
// audited wallet operation.
type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Identity  string `json:"identity,omitempty"`
	Candidate string `json:"candidate,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// New creates an event of the type with a fresh ID.
func New(t Type) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().Unix(),
	}
}

// Emitter delivers events to interested observers.
type Emitter interface {
	Emit(ev *Event)
}

// LogEmitter writes every event to the process log.
type LogEmitter struct{}

func (LogEmitter) Emit(ev *Event) {
	if ev == nil {
		return
	}
	log.Infow("wallet event",
		"id", ev.ID,
		"type", ev.Type,
		"identity", ev.Identity,
		"candidate", ev.Candidate,
		"recipient", ev.Recipient,
		"amount", ev.Amount,
	)
}
