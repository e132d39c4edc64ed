// Package ledger guards the wallet pool. Every outbound value
// movement is authorized here: the owner spends freely up to the
// pool balance, everyone else is gated by the allowance table.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ChainTrek/smart-wallet-contract/allowance"
	"github.com/ChainTrek/smart-wallet-contract/db"
	"github.com/ChainTrek/smart-wallet-contract/event"
	"github.com/ChainTrek/smart-wallet-contract/log"
)

var (
	ErrInsufficientPoolBalance = errors.New("insufficient pool balance")
	ErrSpendingNotPermitted    = errors.New("spending not permitted")
	ErrAllowanceExceeded       = errors.New("allowance exceeded")
	ErrExternalTransferFailed  = errors.New("external transfer failed")
	ErrBalanceOverflow         = errors.New("pool balance overflow")
	ErrInvalidTransferAmount   = errors.New("invalid transfer amount")
	ErrInvalidRecipient        = errors.New("invalid recipient")
)

var balanceKey = []byte("BALANCE")

// Transferrer executes the actual value movement to the recipient
// after the guard has authorized it. A non-nil error aborts the
// enclosing transfer entirely.
type Transferrer interface {
	Execute(recipient string, amount uint64, payload []byte) ([]byte, error)
}

// OwnerReader reports the current wallet owner.
type OwnerReader interface {
	Owner() string
}

type poolRecord struct {
	Balance uint64 `json:"balance"`
}

// GuardContext represents the contextual information the ledger
// guard needs.
type GuardContext struct {
	Database    db.Database        // database instance
	AM          *allowance.Manager // allowance manager
	Owner       OwnerReader        // current owner lookup
	Transferrer Transferrer        // external transfer executor
	Emitter     event.Emitter      // audit event emitter
}

func ValidateGuardContext(gc *GuardContext) error {
	if gc == nil {
		return fmt.Errorf("ledger guard context is nil")
	}
	if gc.Database == nil {
		return fmt.Errorf("database instance is nil")
	}
	if gc.AM == nil {
		return fmt.Errorf("allowance manager is nil")
	}
	if gc.Owner == nil {
		return fmt.Errorf("owner reader is nil")
	}
	if gc.Transferrer == nil {
		return fmt.Errorf("transferrer is nil")
	}
	if gc.Emitter == nil {
		return fmt.Errorf("event emitter is nil")
	}
	return nil
}

// Guard authorizes transfers out of the wallet pool.
type Guard struct {
	database db.Database
	bucket   string

	am *allowance.Manager

	owner       OwnerReader
	transferrer Transferrer
	emitter     event.Emitter
}

// NewGuard creates a ledger guard over the database.
func NewGuard(ctx *GuardContext) *Guard {
	if err := ValidateGuardContext(ctx); err != nil {
		log.Fatalf("ledger guard context is invalid: %v", err)
	}
	g := &Guard{
		database:    ctx.Database,
		bucket:      "POOL",
		am:          ctx.AM,
		owner:       ctx.Owner,
		transferrer: ctx.Transferrer,
		emitter:     ctx.Emitter,
	}
	err := g.database.NewBucket(g.bucket)
	if err != nil {
		log.Fatalf("create db bucket %s failed: %v", g.bucket, err)
	}
	return g
}

func (g *Guard) getPool(getter db.Getter) (*poolRecord, error) {
	b, err := getter.Get(g.bucket, balanceKey)
	if err != nil {
		return nil, fmt.Errorf("get pool balance failed: %v", err)
	}
	if b == nil {
		return &poolRecord{}, nil
	}

	pool := &poolRecord{}
	if err := json.Unmarshal(b, pool); err != nil {
		return nil, fmt.Errorf("decode pool balance failed: %v", err)
	}
	return pool, nil
}

func (g *Guard) savePool(putter db.Putter, pool *poolRecord) error {
	b, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("encode pool balance failed: %v", err)
	}
	if err := putter.Put(g.bucket, balanceKey, b); err != nil {
		return fmt.Errorf("save pool balance failed: %v", err)
	}
	return nil
}

// Balance returns the current pool balance.
func (g *Guard) Balance() (uint64, error) {
	pool, err := g.getPool(g.database)
	if err != nil {
		return 0, err
	}
	return pool.Balance, nil
}

// Deposit credits the pool with the amount.
func (g *Guard) Deposit(amount uint64) error {
	pool, err := g.getPool(g.database)
	if err != nil {
		return err
	}
	if pool.Balance > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	pool.Balance += amount

	if err := g.savePool(g.database, pool); err != nil {
		return err
	}

	log.Infow("pool deposit", "amount", amount, "balance", pool.Balance)

	return nil
}

// Transfer authorizes and executes a value movement of the amount
// to the recipient. The owner bypasses the allowance table, every
// other caller must be permitted and within its remaining limit.
// The allowance decrement and the pool debit are staged in one
// database transaction which commits only after the external
// transfer succeeds.
func (g *Guard) Transfer(caller string, recipient string, amount uint64, payload []byte) ([]byte, error) {
	if amount == 0 {
		return nil, ErrInvalidTransferAmount
	}
	if recipient == "" {
		return nil, ErrInvalidRecipient
	}

	dt, err := g.database.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin db transaction failed: %v", err)
	}

	pool, err := g.getPool(dt)
	if err != nil {
		dt.Rollback()
		return nil, err
	}
	if amount > pool.Balance {
		dt.Rollback()
		return nil, ErrInsufficientPoolBalance
	}

	if caller != g.owner.Owner() {
		entry, err := g.am.GetEntry(dt, caller)
		if err != nil {
			if err == allowance.ErrEntryNotExist {
				dt.Rollback()
				return nil, ErrSpendingNotPermitted
			}
			dt.Rollback()
			return nil, err
		}
		if !entry.Permitted {
			dt.Rollback()
			return nil, ErrSpendingNotPermitted
		}
		if entry.Limit < amount {
			dt.Rollback()
			return nil, ErrAllowanceExceeded
		}

		if err := g.am.SubLimit(entry, amount); err != nil {
			dt.Rollback()
			return nil, err
		}
		if err := g.am.SaveEntry(dt, entry); err != nil {
			dt.Rollback()
			return nil, err
		}
	}

	pool.Balance -= amount
	if err := g.savePool(dt, pool); err != nil {
		dt.Rollback()
		return nil, err
	}

	// all ledger mutations are staged, run the external transfer
	// and make its failure abort the whole call
	ret, err := g.transferrer.Execute(recipient, amount, payload)
	if err != nil {
		dt.Rollback()
		return nil, fmt.Errorf("%w: %v", ErrExternalTransferFailed, err)
	}

	if err := dt.Commit(); err != nil {
		return nil, fmt.Errorf("commit db transaction failed: %v", err)
	}

	ev := event.New(event.TransferAuthorized)
	ev.Identity = caller
	ev.Recipient = recipient
	ev.Amount = amount
	g.emitter.Emit(ev)

	log.Infow("transfer authorized", "caller", caller, "recipient", recipient, "amount", amount, "balance", pool.Balance)

	return ret, nil
}
