package ledger

import (
	"github.com/ChainTrek/smart-wallet-contract/log"
)

// NopTransferrer acknowledges every transfer without moving any
// value. It is used when the wallet runs without an external
// settlement integration.
type NopTransferrer struct{}

func (NopTransferrer) Execute(recipient string, amount uint64, payload []byte) ([]byte, error) {
	log.Infow("transfer executed", "recipient", recipient, "amount", amount, "payload", len(payload))
	return nil, nil
}
