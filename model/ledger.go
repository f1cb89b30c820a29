package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// LedgerAccount is the custodial PYUSD balance held on behalf of one address.
type LedgerAccount struct {
	Address   common.Address `json:"address"`
	Balance   *big.Int       `json:"balance"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of the account.
func (a *LedgerAccount) Clone() *LedgerAccount {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Balance = CloneBigInt(a.Balance)
	return &clone
}
