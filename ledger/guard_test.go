package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ChainTrek/smart-wallet-contract/allowance"
	"github.com/ChainTrek/smart-wallet-contract/db"
	"github.com/ChainTrek/smart-wallet-contract/db/memdb"
	"github.com/ChainTrek/smart-wallet-contract/event"
)

type staticOwner struct {
	owner string
}

func (s *staticOwner) Owner() string { return s.owner }

// failingTransferrer fails every execution.
type failingTransferrer struct{}

func (failingTransferrer) Execute(recipient string, amount uint64, payload []byte) ([]byte, error) {
	return nil, errors.New("settlement unavailable")
}

func newTestGuard(t *testing.T, owner string, transferrer Transferrer) (*Guard, *allowance.Manager, db.Database) {
	memorydb := memdb.New()
	am := allowance.NewManager(memorydb, event.LogEmitter{})
	g := NewGuard(&GuardContext{
		Database:    memorydb,
		AM:          am,
		Owner:       &staticOwner{owner: owner},
		Transferrer: transferrer,
		Emitter:     event.LogEmitter{},
	})
	return g, am, memorydb
}

func TestDepositAndBalance(t *testing.T) {
	g, _, _ := newTestGuard(t, "owner", NopTransferrer{})

	balance, err := g.Balance()
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), balance)

	err = g.Deposit(1000)
	assert.Nil(t, err)

	balance, err = g.Balance()
	assert.Nil(t, err)
	assert.Equal(t, uint64(1000), balance)
}

func TestOwnerTransferBypassesAllowance(t *testing.T) {
	g, _, _ := newTestGuard(t, "owner", NopTransferrer{})

	err := g.Deposit(1000)
	assert.Nil(t, err)

	// the owner has no allowance entry yet spends freely
	_, err = g.Transfer("owner", "recipient", 800, nil)
	assert.Nil(t, err)

	balance, err := g.Balance()
	assert.Nil(t, err)
	assert.Equal(t, uint64(200), balance)

	// but never above the pool balance
	_, err = g.Transfer("owner", "recipient", 201, nil)
	assert.Equal(t, ErrInsufficientPoolBalance, err)
}

func TestDelegateTransferGating(t *testing.T) {
	g, am, database := newTestGuard(t, "owner", NopTransferrer{})

	err := g.Deposit(1000)
	assert.Nil(t, err)

	// a caller without an entry may not spend
	_, err = g.Transfer("alice", "recipient", 10, nil)
	assert.Equal(t, ErrSpendingNotPermitted, err)

	err = am.Set(database, "alice", 100)
	assert.Nil(t, err)

	// above the limit
	_, err = g.Transfer("alice", "recipient", 150, nil)
	assert.Equal(t, ErrAllowanceExceeded, err)

	// exactly the limit succeeds and consumes it
	_, err = g.Transfer("alice", "recipient", 100, nil)
	assert.Nil(t, err)

	entry, err := am.GetEntry(database, "alice")
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), entry.Limit)
	assert.Equal(t, true, entry.Permitted)

	balance, err := g.Balance()
	assert.Nil(t, err)
	assert.Equal(t, uint64(900), balance)

	// the limit is exhausted
	_, err = g.Transfer("alice", "recipient", 1, nil)
	assert.Equal(t, ErrAllowanceExceeded, err)
}

func TestDeniedCallerCannotSpend(t *testing.T) {
	g, am, database := newTestGuard(t, "owner", NopTransferrer{})

	err := g.Deposit(1000)
	assert.Nil(t, err)

	err = am.Set(database, "alice", 100)
	assert.Nil(t, err)
	err = am.Deny(database, database, "alice")
	assert.Nil(t, err)

	_, err = g.Transfer("alice", "recipient", 10, nil)
	assert.Equal(t, ErrSpendingNotPermitted, err)

	// the limit survives the denial
	entry, err := am.GetEntry(database, "alice")
	assert.Nil(t, err)
	assert.Equal(t, uint64(100), entry.Limit)
}

// A failed external execution must leave both the allowance and
// the pool balance untouched.
func TestExternalFailureRollsBack(t *testing.T) {
	g, am, database := newTestGuard(t, "owner", failingTransferrer{})

	err := g.Deposit(1000)
	assert.Nil(t, err)

	err = am.Set(database, "alice", 100)
	assert.Nil(t, err)

	_, err = g.Transfer("alice", "recipient", 50, nil)
	assert.Equal(t, true, errors.Is(err, ErrExternalTransferFailed))

	entry, err := am.GetEntry(database, "alice")
	assert.Nil(t, err)
	assert.Equal(t, uint64(100), entry.Limit)

	balance, err := g.Balance()
	assert.Nil(t, err)
	assert.Equal(t, uint64(1000), balance)

	// the owner path rolls back the pool debit as well
	_, err = g.Transfer("owner", "recipient", 50, nil)
	assert.Equal(t, true, errors.Is(err, ErrExternalTransferFailed))

	balance, err = g.Balance()
	assert.Nil(t, err)
	assert.Equal(t, uint64(1000), balance)
}

func TestTransferValidation(t *testing.T) {
	g, _, _ := newTestGuard(t, "owner", NopTransferrer{})

	err := g.Deposit(1000)
	assert.Nil(t, err)

	_, err = g.Transfer("owner", "recipient", 0, nil)
	assert.Equal(t, ErrInvalidTransferAmount, err)

	_, err = g.Transfer("owner", "", 10, nil)
	assert.Equal(t, ErrInvalidRecipient, err)

	// transfers above the pool balance fail before any gating
	_, err = g.Transfer("owner", "recipient", 1001, nil)
	assert.Equal(t, ErrInsufficientPoolBalance, err)
}

func TestDepositOverflow(t *testing.T) {
	g, _, _ := newTestGuard(t, "owner", NopTransferrer{})

	err := g.Deposit(^uint64(0))
	assert.Nil(t, err)

	err = g.Deposit(1)
	assert.Equal(t, ErrBalanceOverflow, err)
}
