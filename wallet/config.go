package wallet

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/ChainTrek/smart-wallet-contract/crypto"
)

// Config carries everything needed to bootstrap a wallet.
type Config struct {
	// network ID hash
	NetworkID [32]byte
	// database file path
	DBPath string
	// bootstrap owner identity
	Owner string
	// bootstrap guardian identities
	Guardians []string
	// bootstrap pool balance
	PoolBalance uint64
}

// NewConfig builds a wallet config from viper and validates it.
func NewConfig(v *viper.Viper) (*Config, error) {
	if v.GetString("network_id") == "" {
		return nil, errors.New("network ID is missing")
	}
	if v.GetString("db_path") == "" {
		return nil, errors.New("db path is missing")
	}
	if v.GetString("owner") == "" {
		return nil, errors.New("owner is missing")
	}
	if !crypto.IsValidKey(v.GetString("owner")) {
		return nil, errors.New("owner identity is invalid")
	}

	guardians := v.GetStringSlice("guardians")
	for _, g := range guardians {
		if !crypto.IsValidKey(g) {
			return nil, fmt.Errorf("guardian identity %s is invalid", g)
		}
	}

	c := Config{
		NetworkID:   crypto.SHA256HashBytes([]byte(v.GetString("network_id"))),
		DBPath:      v.GetString("db_path"),
		Owner:       v.GetString("owner"),
		Guardians:   guardians,
		PoolBalance: v.GetUint64("pool_balance"),
	}

	return &c, nil
}
