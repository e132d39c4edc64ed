// Package wallet wires the guardian registry, the voting manager,
// the allowance table and the ledger guard into one custodial
// wallet and serializes every public operation.
package wallet

import (
	"errors"
	"sync"

	b58 "github.com/mr-tron/base58/base58"

	"github.com/ChainTrek/smart-wallet-contract/allowance"
	"github.com/ChainTrek/smart-wallet-contract/db"
	"github.com/ChainTrek/smart-wallet-contract/db/boltdb"
	"github.com/ChainTrek/smart-wallet-contract/event"
	"github.com/ChainTrek/smart-wallet-contract/guardian"
	"github.com/ChainTrek/smart-wallet-contract/ledger"
	"github.com/ChainTrek/smart-wallet-contract/log"
	"github.com/ChainTrek/smart-wallet-contract/vote"
)

var (
	ErrUnauthorized = errors.New("caller is not the wallet owner")
)

var initKey = []byte("INIT")

// Wallet is the central controller. All state mutation flows
// through its methods under one mutex so that every operation
// runs as an atomic, serializable unit.
type Wallet struct {
	// guards all wallet state against concurrent operations
	mu sync.Mutex

	database db.Database
	bucket   string

	config *Config

	bus   *event.Bus
	gm    *guardian.Manager
	vm    *vote.Manager
	am    *allowance.Manager
	guard *ledger.Guard
}

// NewWallet creates a wallet over a boltdb store at the configured
// path. A nil transferrer falls back to the no-op executor.
func NewWallet(conf *Config, transferrer ledger.Transferrer) *Wallet {
	database := boltdb.New(conf.DBPath)
	return newWallet(database, conf, transferrer)
}

func newWallet(database db.Database, conf *Config, transferrer ledger.Transferrer) *Wallet {
	if transferrer == nil {
		transferrer = ledger.NopTransferrer{}
	}

	bus := event.NewBus()
	bus.Start()

	gm := guardian.NewManager(database, bus)
	vm := vote.NewManager(&vote.ManagerContext{
		Database: database,
		GM:       gm,
		Emitter:  bus,
		Owner:    conf.Owner,
	})
	am := allowance.NewManager(database, bus)
	guard := ledger.NewGuard(&ledger.GuardContext{
		Database:    database,
		AM:          am,
		Owner:       vm,
		Transferrer: transferrer,
		Emitter:     bus,
	})

	w := &Wallet{
		database: database,
		bucket:   "WALLET",
		config:   conf,
		bus:      bus,
		gm:       gm,
		vm:       vm,
		am:       am,
		guard:    guard,
	}
	err := w.database.NewBucket(w.bucket)
	if err != nil {
		log.Fatalf("create db bucket %s failed: %v", w.bucket, err)
	}
	if err := w.bootstrap(); err != nil {
		log.Fatalf("bootstrap wallet failed: %v", err)
	}

	return w
}

// bootstrap seeds the guardian registry and the pool balance on
// the very first start, reopening an existing store is a no-op.
func (w *Wallet) bootstrap() error {
	b, err := w.database.Get(w.bucket, initKey)
	if err != nil {
		return err
	}
	if b != nil {
		return nil
	}

	for _, g := range w.config.Guardians {
		if err := w.gm.Add(g); err != nil {
			return err
		}
	}
	if w.config.PoolBalance > 0 {
		if err := w.guard.Deposit(w.config.PoolBalance); err != nil {
			return err
		}
	}

	if err := w.database.Put(w.bucket, initKey, []byte{1}); err != nil {
		return err
	}

	log.Infow("wallet bootstrapped",
		"network", b58.Encode(w.config.NetworkID[:]),
		"owner", w.vm.Owner(),
		"guardians", w.gm.Size(),
		"pool_balance", w.config.PoolBalance,
	)

	return nil
}

// ProposeOwner records the caller's proposal of the candidate as
// the new owner.
func (w *Wallet) ProposeOwner(caller string, candidate string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.vm.Propose(caller, candidate)
}

// ApproveProposal records the caller's approval of the active
// ownership proposal.
func (w *Wallet) ApproveProposal(caller string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.vm.Approve(caller)
}

// RejectProposal records the caller's rejection of the active
// ownership proposal.
func (w *Wallet) RejectProposal(caller string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.vm.Reject(caller)
}

// Transfer moves the amount out of the pool to the recipient on
// behalf of the caller.
func (w *Wallet) Transfer(caller string, recipient string, amount uint64, payload []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.guard.Transfer(caller, recipient, amount, payload)
}

// Deposit credits the pool.
func (w *Wallet) Deposit(amount uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.guard.Deposit(amount)
}

// AddGuardian registers a new guardian, only the owner may do so.
func (w *Wallet) AddGuardian(caller string, identity string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if caller != w.vm.Owner() {
		return ErrUnauthorized
	}
	return w.gm.Add(identity)
}

// RemoveGuardian deregisters a guardian, only the owner may do so.
func (w *Wallet) RemoveGuardian(caller string, identity string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if caller != w.vm.Owner() {
		return ErrUnauthorized
	}
	return w.gm.Remove(identity)
}

// SetAllowance grants the identity a spending limit, only the
// owner may do so.
func (w *Wallet) SetAllowance(caller string, identity string, amount uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if caller != w.vm.Owner() {
		return ErrUnauthorized
	}
	return w.am.Set(w.database, identity, amount)
}

// DenyAllowance forbids the identity from spending, only the
// owner may do so.
func (w *Wallet) DenyAllowance(caller string, identity string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if caller != w.vm.Owner() {
		return ErrUnauthorized
	}
	return w.am.Deny(w.database, w.database, identity)
}

// Owner returns the current owner identity.
func (w *Wallet) Owner() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.vm.Owner()
}

// ProposedOwner returns the active proposal candidate, or an
// empty string when no round is active.
func (w *Wallet) ProposedOwner() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.vm.ProposedOwner()
}

// Guardians returns the guardian identities in insertion order.
func (w *Wallet) Guardians() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.gm.List()
}

// Allowance returns the allowance entry of the identity.
func (w *Wallet) Allowance(identity string) (*allowance.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.am.GetEntry(w.database, identity)
}

// PoolBalance returns the current pool balance.
func (w *Wallet) PoolBalance() (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.guard.Balance()
}

// Events returns a channel which receives every audit event
// emitted after the subscription.
func (w *Wallet) Events() <-chan *event.Event {
	return w.bus.Subscribe()
}

// Close stops the event bus and closes the underlying database.
func (w *Wallet) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.bus.Stop()
	return w.database.Close()
}
